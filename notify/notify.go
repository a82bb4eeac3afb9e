// Package notify delivers moderation alerts to the team's chat. Channels are
// referred to by the names used in config (e.g. "#general") and mapped to
// Discord channel ids there.
package notify

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Notifier posts messages to a named moderation channel. Notifications are
// advisory; failures are logged by callers, never allowed to change a
// routing decision.
type Notifier interface {
	PostMessage(ctx context.Context, channel, text string) error
}

// Discord implements Notifier over a Discord session.
type Discord struct {
	session *discordgo.Session
	log     *zap.Logger
}

// NewDiscord opens a Discord session with the given bot token.
func NewDiscord(token string, log *zap.Logger) (*Discord, error) {
	if token == "" {
		return nil, fmt.Errorf("no discord token provided")
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages
	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening Discord connection: %w", err)
	}
	return &Discord{session: session, log: log}, nil
}

// Close shuts down the underlying session.
func (d *Discord) Close() error {
	return d.session.Close()
}

// PostMessage sends text to the configured channel. Unknown channel names
// fall back to the default moderation channel.
func (d *Discord) PostMessage(ctx context.Context, channel, text string) error {
	channelID := viper.GetString("notify.channels." + channel)
	if channelID == "" {
		channelID = viper.GetString("notify.channels.default")
	}
	if channelID == "" {
		return fmt.Errorf("no channel id configured for %q", channel)
	}

	_, err := d.session.ChannelMessageSend(channelID, text)
	if err != nil {
		return fmt.Errorf("failed to notify %s: %w", channel, err)
	}
	d.log.Debug("posted moderation notification", zap.String("channel", channel))
	return nil
}

// Memory is a Notifier that records messages, for tests.
type Memory struct {
	Messages []PostedMessage
}

// PostedMessage is one recorded notification.
type PostedMessage struct {
	Channel string
	Text    string
}

func (m *Memory) PostMessage(ctx context.Context, channel, text string) error {
	m.Messages = append(m.Messages, PostedMessage{Channel: channel, Text: text})
	return nil
}
