package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/smazurov/bedrockd/internal/logging"
)

// Discord is a bot bound to one text channel.
type Discord struct {
	session   *discordgo.Session
	channelID string
	inbound   chan Message
	botUserID string
	logger    logging.Logger
}

// NewDiscord creates a bot session. Call Open to connect.
func NewDiscord(token, channelID string, logger logging.Logger) (*Discord, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("discordgo session: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Discord{
		session:   session,
		channelID: channelID,
		inbound:   make(chan Message, 100),
		logger:    logger,
	}

	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	session.AddHandler(d.onMessage)
	return d, nil
}

// Open connects to the gateway.
func (d *Discord) Open() error {
	if err := d.session.Open(); err != nil {
		return fmt.Errorf("discord open: %w", err)
	}
	if d.session.State != nil && d.session.State.User != nil {
		d.botUserID = d.session.State.User.ID
		d.logger.Info("Discord bot connected", "user", d.session.State.User.Username, "channel", d.channelID)
	}
	return nil
}

// Close disconnects from the gateway.
func (d *Discord) Close() error {
	return d.session.Close()
}

// Send posts text to the channel.
func (d *Discord) Send(ctx context.Context, text string) error {
	if _, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send to Discord: %w", err)
	}
	return nil
}

// Messages returns chat messages posted in the channel by humans.
func (d *Discord) Messages() <-chan Message {
	return d.inbound
}

func (d *Discord) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == d.botUserID {
		return
	}
	if m.ChannelID != d.channelID || m.Content == "" {
		return
	}

	author := m.Author.GlobalName
	if author == "" {
		author = m.Author.Username
	}

	select {
	case d.inbound <- Message{Author: author, Content: m.Content}:
	default:
		d.logger.Warn("Discord inbound queue full, dropping message", "author", author)
	}
}
