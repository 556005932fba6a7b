package notify

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/bwmarrin/discordgo"
)

type DiscordConfig struct {
	Token     string
	ChannelID string
}

// Discord posts messages to a single text channel through the REST API, no
// gateway connection is opened.
type Discord struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscord(c DiscordConfig) (*Discord, error) {
	if c.Token == "" {
		return nil, errors.New("discord bot token missing")
	}
	if c.ChannelID == "" {
		return nil, errors.New("discord channel id missing")
	}
	s, err := discordgo.New("Bot " + c.Token)
	if err != nil {
		return nil, err
	}
	return &Discord{session: s, channelID: c.ChannelID}, nil
}

func (d *Discord) Name() string {
	return "Discord"
}

// Verify checks the bot can log in and that the channel accepts text.
func (d *Discord) Verify(ctx context.Context) error {
	u, err := d.session.User("@me", discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	ch, err := d.session.Channel(d.channelID, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	if !textBased(ch.Type) {
		return fmt.Errorf("channel %s is not a text channel", d.channelID)
	}
	log.Printf("[Discord] logged in as %s, posting to #%s", u.String(), ch.Name)
	return nil
}

func (d *Discord) Notify(ctx context.Context, text string) error {
	_, err := d.session.ChannelMessageSend(d.channelID, text, discordgo.WithContext(ctx))
	return err
}

func textBased(t discordgo.ChannelType) bool {
	switch t {
	case discordgo.ChannelTypeGuildCategory, discordgo.ChannelTypeGuildVoice,
		discordgo.ChannelTypeGuildStageVoice, discordgo.ChannelTypeGuildForum:
		return false
	}
	return true
}
