package notify

import (
	"errors"
	"strings"
	"testing"

	"github.com/avelichko/lampctl/internal/config"
	"github.com/bwmarrin/discordgo"
	slackapi "github.com/slack-go/slack"
)

type mockSlackClient struct {
	messages []string
	channels []string
	err      error
}

func (m *mockSlackClient) PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error) {
	m.channels = append(m.channels, channelID)
	m.messages = append(m.messages, "")
	return "", "", m.err
}

type mockSession struct {
	messages []string
	err      error
}

func (m *mockSession) ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.messages = append(m.messages, content)
	return nil, m.err
}

func TestNewNoSinks(t *testing.T) {
	n, err := New(config.NotifyConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(n.sinks) != 0 {
		t.Errorf("sinks = %d, want 0", len(n.sinks))
	}
	n.Notify("dropped silently") // must not panic
}

func TestNewSlackSink(t *testing.T) {
	n, err := New(config.NotifyConfig{SlackToken: "xoxb-test", SlackChannel: "C123"})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if len(n.sinks) != 1 || n.sinks[0].Name() != "slack" {
		t.Errorf("expected a single slack sink, got %d", len(n.sinks))
	}
}

func TestSlackSinkSend(t *testing.T) {
	mock := &mockSlackClient{}
	s := &slackSink{client: mock, channel: "C123"}
	if err := s.Send("backup done"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(mock.channels) != 1 || mock.channels[0] != "C123" {
		t.Errorf("channels = %v, want [C123]", mock.channels)
	}
}

func TestDiscordSinkSend(t *testing.T) {
	mock := &mockSession{}
	d := &discordSink{sess: mock, channel: "987"}
	if err := d.Send("restore done"); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if len(mock.messages) != 1 || mock.messages[0] != "restore done" {
		t.Errorf("messages = %v", mock.messages)
	}
}

func TestNotifySwallowsSinkErrors(t *testing.T) {
	mock := &mockSession{err: errors.New("rate limited")}
	n := &Notifier{sinks: []Sink{&discordSink{sess: mock, channel: "1"}}}
	n.Notify("must not panic or fail")
	if len(mock.messages) != 1 {
		t.Errorf("sink not invoked")
	}
}

func TestMessageFormats(t *testing.T) {
	ok := Success("backup", "/opt/podman-backups/backup_20250108_020000")
	if !strings.Contains(ok, "backup succeeded") {
		t.Errorf("Success() = %q", ok)
	}
	fail := Failure("restore", errors.New("dump missing"))
	if !strings.Contains(fail, "restore failed") || !strings.Contains(fail, "dump missing") {
		t.Errorf("Failure() = %q", fail)
	}
}
