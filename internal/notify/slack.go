package notify

import (
	slackapi "github.com/slack-go/slack"
)

// slackClient abstracts the Slack API methods we use, enabling test mocks.
type slackClient interface {
	PostMessage(channelID string, options ...slackapi.MsgOption) (string, string, error)
}

type slackSink struct {
	client  slackClient
	channel string
}

func newSlackSink(token, channel string) *slackSink {
	return &slackSink{client: slackapi.New(token), channel: channel}
}

func (s *slackSink) Name() string { return "slack" }

func (s *slackSink) Send(message string) error {
	_, _, err := s.client.PostMessage(s.channel, slackapi.MsgOptionText(message, false))
	return err
}
