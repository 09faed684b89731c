package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"time"

	"github.com/smazurov/bedrockd/internal/api/models"
	"github.com/smazurov/bedrockd/internal/bedrock"
	"github.com/spf13/cobra"
)

const maxLineSize = 1024 * 1024

// CreateClassifyCmd creates the classify command.
func CreateClassifyCmd() *cobra.Command {
	var logsOnly, playersOnly bool

	cmd := &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify a captured server log",
		Long: `Reads Bedrock server output from a file (or stdin when no file is given) and prints ` +
			`one JSON object per classified event. Useful for checking how a log would be seen by the daemon.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			filter := func(bedrock.Event) bool { return true }
			switch {
			case logsOnly && playersOnly:
				return errors.New("--logs and --players are mutually exclusive")
			case logsOnly:
				filter = func(ev bedrock.Event) bool { return ev.Kind() == bedrock.KindLog }
			case playersOnly:
				filter = func(ev bedrock.Event) bool {
					_, ok := bedrock.PlayerOf(ev)
					return ok
				}
			}

			return classify(in, cmd.OutOrStdout(), filter)
		},
	}

	cmd.Flags().BoolVar(&logsOnly, "logs", false, "Only print log events")
	cmd.Flags().BoolVar(&playersOnly, "players", false, "Only print player events")
	return cmd
}

func classify(r io.Reader, w io.Writer, keep func(bedrock.Event) bool) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		for _, ev := range bedrock.Classify(scanner.Text(), time.Now()) {
			if !keep(ev) {
				continue
			}
			if err := enc.Encode(models.NewEventData(ev)); err != nil {
				return err
			}
		}
	}
	return scanner.Err()
}
