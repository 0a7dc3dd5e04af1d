package notify

import (
	"github.com/bwmarrin/discordgo"
)

// session abstracts the Discord API methods we use, enabling test mocks.
type session interface {
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type discordSink struct {
	sess    session
	channel string
}

func newDiscordSink(token, channel string) (*discordSink, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	return &discordSink{sess: dg, channel: channel}, nil
}

func (d *discordSink) Name() string { return "discord" }

func (d *discordSink) Send(message string) error {
	_, err := d.sess.ChannelMessageSend(d.channel, message)
	return err
}
