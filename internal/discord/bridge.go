// Package discord feeds Discord channels into conversation streams and posts
// the assistant's replies back.
package discord

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/consolidate"
	"github.com/sumalravindran/My-journal-new/internal/logging"
)

// maxMessageLen is Discord's per-message content limit
const maxMessageLen = 2000

// Sender is the part of *discordgo.Session the bridge posts through
type Sender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelTyping(channelID string, options ...discordgo.RequestOption) error
}

// Streams resolves the session behind a stream
type Streams interface {
	Session(id chat.StreamID) (*consolidate.Session, error)
}

// Config holds Discord connection settings
type Config struct {
	Token string
	// Channels maps stream id to channel id
	Channels map[string]string
	// OwnerID, when set, ignores everyone else
	OwnerID string
}

// Bridge connects Discord channels to streams
type Bridge struct {
	session  *discordgo.Session
	sender   Sender
	streams  Streams
	channels map[string]chat.StreamID
	ownerID  string
	botID    string
}

// New creates a bridge. It does not connect until Start.
func New(cfg Config, streams Streams) (*Bridge, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("discord token is required")
	}
	if len(cfg.Channels) == 0 {
		return nil, fmt.Errorf("at least one stream channel must be configured")
	}

	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	b := newBridge(session, streams, cfg)
	b.session = session
	session.AddHandler(b.handleMessage)
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent
	return b, nil
}

func newBridge(sender Sender, streams Streams, cfg Config) *Bridge {
	channels := make(map[string]chat.StreamID, len(cfg.Channels))
	for stream, channel := range cfg.Channels {
		if channel != "" {
			channels[channel] = chat.StreamID(stream)
		}
	}
	return &Bridge{
		sender:   sender,
		streams:  streams,
		channels: channels,
		ownerID:  cfg.OwnerID,
	}
}

// Start connects to Discord and begins listening
func (b *Bridge) Start() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}
	b.botID = b.session.State.User.ID
	logging.Info("discord", "connected as %s, %d channel(s) mapped", b.session.State.User.Username, len(b.channels))
	return nil
}

// Stop disconnects from Discord
func (b *Bridge) Stop() error {
	return b.session.Close()
}

func (b *Bridge) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if err := b.handle(context.Background(), m.Message); err != nil {
		logging.Warn("discord", "message %s: %v", m.ID, err)
	}
}

// handle routes one Discord message into its stream and posts the reply
func (b *Bridge) handle(ctx context.Context, m *discordgo.Message) error {
	if m.Author == nil || m.Author.Bot || m.Author.ID == b.botID {
		return nil
	}
	if b.ownerID != "" && m.Author.ID != b.ownerID {
		return nil
	}
	streamID, ok := b.channels[m.ChannelID]
	if !ok {
		return nil
	}

	msgs := ToMessages(m)
	if len(msgs) == 0 {
		return nil
	}

	session, err := b.streams.Session(streamID)
	if err != nil {
		return err
	}

	logging.Info("discord", "[%s] %s", streamID, logging.Truncate(m.Content, 50))

	// Extra attachments arrive as their own messages ahead of the one we reply to
	for _, extra := range msgs[:len(msgs)-1] {
		if _, err := session.Append(extra, "discord"); err != nil {
			logging.Warn("discord", "[%s] %v", streamID, err)
		}
	}

	if err := b.sender.ChannelTyping(m.ChannelID); err != nil {
		logging.Debug("discord", "typing indicator failed: %v", err)
	}

	reply, err := session.Send(ctx, msgs[len(msgs)-1], "discord")
	if err != nil {
		return err
	}
	for _, chunk := range SplitMessage(reply.Text, maxMessageLen) {
		if _, err := b.sender.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			return fmt.Errorf("failed to post reply: %w", err)
		}
	}
	return nil
}

// ToMessages converts a Discord message into stream messages. Text and the
// first attachment share the last message; further attachments come first,
// one message each.
func ToMessages(m *discordgo.Message) []chat.Message {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	text := strings.TrimSpace(m.Content)
	if text == "" && len(m.Attachments) == 0 {
		return nil
	}

	var out []chat.Message
	if len(m.Attachments) > 1 {
		for _, a := range m.Attachments[1:] {
			out = append(out, chat.Message{Role: chat.RoleUser, Timestamp: ts, Attachment: toAttachment(a)})
		}
	}
	last := chat.Message{Role: chat.RoleUser, Text: text, Timestamp: ts}
	if len(m.Attachments) > 0 {
		last.Attachment = toAttachment(m.Attachments[0])
	}
	return append(out, last)
}

func toAttachment(a *discordgo.MessageAttachment) *chat.Attachment {
	kind := chat.AttachmentFile
	if strings.HasPrefix(a.ContentType, "image/") {
		kind = chat.AttachmentImage
	}
	return &chat.Attachment{
		Kind:     kind,
		Name:     a.Filename,
		MimeType: a.ContentType,
		URL:      a.URL,
	}
}

// SplitMessage cuts s into chunks of at most limit runes, preferring line
// breaks
func SplitMessage(s string, limit int) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	r := []rune(s)
	for len(r) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if r[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimRight(string(r[:cut]), "\n"))
		r = r[cut:]
	}
	if len(r) > 0 {
		chunks = append(chunks, string(r))
	}
	return chunks
}
