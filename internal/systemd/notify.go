// Package systemd reports daemon status to the service manager through
// sd_notify. Every call is a no-op when NOTIFY_SOCKET is unset.
package systemd

import (
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/smazurov/bedrockd/internal/process"
)

// Notifier sends readiness and status to systemd.
type Notifier struct{}

// NewNotifier returns a notifier for the current process.
func NewNotifier() *Notifier {
	return &Notifier{}
}

func (n *Notifier) notify(state string) (bool, error) {
	return daemon.SdNotify(false, state)
}

// Ready tells systemd that startup finished (Type=notify units).
func (n *Notifier) Ready() error {
	_, err := n.notify(daemon.SdNotifyReady)
	return err
}

// Stopping tells systemd that shutdown began.
func (n *Notifier) Stopping() error {
	_, err := n.notify(daemon.SdNotifyStopping)
	return err
}

// Status sets the free-form status line shown by systemctl status.
func (n *Notifier) Status(text string) error {
	_, err := n.notify("STATUS=" + text)
	return err
}

// ProcessStatus renders a supervisor state as a status line.
func ProcessStatus(state process.State) string {
	switch state {
	case process.StateRunning:
		return "Bedrock server running"
	case process.StateStopping:
		return "Stopping Bedrock server"
	case process.StateCrashed:
		return "Bedrock server crashed"
	case process.StateExited:
		return "Bedrock server exited"
	case process.StateNotRunning:
		return "Bedrock server stopped"
	default:
		return fmt.Sprintf("Bedrock server %s", state)
	}
}
