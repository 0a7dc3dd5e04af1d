// Package notify sends best-effort operational alerts for backup and restore
// outcomes. Delivery failures are logged, never fatal.
package notify

import (
	"fmt"
	"log"

	"github.com/avelichko/lampctl/internal/config"
)

// Sink delivers a single alert message.
type Sink interface {
	Send(message string) error
	Name() string
}

// Notifier fans an alert out to all configured sinks.
type Notifier struct {
	sinks []Sink
}

// New builds a Notifier from the notify config. An empty config yields a
// Notifier with no sinks, which is valid and silently drops messages.
func New(cfg config.NotifyConfig) (*Notifier, error) {
	n := &Notifier{}
	if cfg.SlackToken != "" {
		n.sinks = append(n.sinks, newSlackSink(cfg.SlackToken, cfg.SlackChannel))
	}
	if cfg.DiscordToken != "" {
		s, err := newDiscordSink(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			return nil, fmt.Errorf("notify: discord: %w", err)
		}
		n.sinks = append(n.sinks, s)
	}
	return n, nil
}

// Notify delivers message to every sink. Failures are logged and swallowed so
// an unreachable chat service never fails a backup.
func (n *Notifier) Notify(message string) {
	for _, s := range n.sinks {
		if err := s.Send(message); err != nil {
			log.Printf("notify: %s: %v", s.Name(), err)
		}
	}
}

// Success formats a completed-operation alert.
func Success(kind, detail string) string {
	return fmt.Sprintf(":white_check_mark: lampctl %s succeeded: %s", kind, detail)
}

// Failure formats a failed-operation alert.
func Failure(kind string, err error) string {
	return fmt.Sprintf(":x: lampctl %s failed: %v", kind, err)
}
