// Package discord implements the notify Notifier for Discord.
package discord

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/zulandar/taskyard/internal/notify"
)

// session abstracts the discordgo.Session methods we use, enabling test mocks.
type session interface {
	Open() error
	Close() error
	ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// realSession wraps *discordgo.Session to implement the session interface.
type realSession struct {
	s *discordgo.Session
}

func (r *realSession) Open() error  { return r.s.Open() }
func (r *realSession) Close() error { return r.s.Close() }
func (r *realSession) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	return r.s.ChannelMessageSendEmbed(channelID, embed, options...)
}

// Notifier implements notify.Notifier for Discord.
type Notifier struct {
	sess      session
	botToken  string
	channelID string
	mu        sync.Mutex
	opened    bool
	closed    bool
}

// Opts holds parameters for creating a Discord Notifier.
type Opts struct {
	BotToken  string // Discord bot token
	ChannelID string // channel to post to
	// For testing: inject a mock session instead of the real Discord API.
	Session session
}

// New creates a Discord Notifier.
func New(opts Opts) (*Notifier, error) {
	if opts.Session == nil && opts.BotToken == "" {
		return nil, fmt.Errorf("discord: bot token is required")
	}
	if opts.ChannelID == "" {
		return nil, fmt.Errorf("discord: channel id is required")
	}
	n := &Notifier{
		botToken:  opts.BotToken,
		channelID: opts.ChannelID,
	}
	if opts.Session != nil {
		n.sess = opts.Session
	}
	return n, nil
}

// Name implements notify.Notifier.
func (n *Notifier) Name() string { return "discord" }

// Send posts the message to the configured channel as an embed, opening the
// gateway session on first use.
func (n *Notifier) Send(ctx context.Context, msg notify.Message) error {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return fmt.Errorf("discord: notifier already closed")
	}
	if n.sess == nil {
		s, err := discordgo.New("Bot " + n.botToken)
		if err != nil {
			n.mu.Unlock()
			return fmt.Errorf("discord: create session: %w", err)
		}
		n.sess = &realSession{s: s}
	}
	if !n.opened {
		if err := n.sess.Open(); err != nil {
			n.mu.Unlock()
			return fmt.Errorf("discord: open session: %w", err)
		}
		n.opened = true
	}
	sess := n.sess
	n.mu.Unlock()

	embed := &discordgo.MessageEmbed{
		Title:       msg.Title,
		Description: msg.Body,
	}
	if _, err := sess.ChannelMessageSendEmbed(n.channelID, embed); err != nil {
		return fmt.Errorf("discord: send embed: %w", err)
	}
	return nil
}

// Close shuts the gateway session down.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return nil
	}
	n.closed = true
	if n.opened {
		return n.sess.Close()
	}
	return nil
}
