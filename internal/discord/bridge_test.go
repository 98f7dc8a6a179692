package discord

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/consolidate"
	"github.com/sumalravindran/My-journal-new/internal/extract"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

type sent struct {
	channel string
	content string
}

type fakeSender struct {
	sent   []sent
	typing int
}

func (f *fakeSender) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent = append(f.sent, sent{channelID, content})
	return &discordgo.Message{ChannelID: channelID, Content: content}, nil
}

func (f *fakeSender) ChannelTyping(channelID string, options ...discordgo.RequestOption) error {
	f.typing++
	return nil
}

type echoExtractor struct{}

func (echoExtractor) Extract(ctx context.Context, contextMsgs, input []chat.Message, now time.Time) (extract.Result, error) {
	return extract.Result{}, nil
}

func (echoExtractor) Reply(ctx context.Context, history []chat.Message, now time.Time) (string, error) {
	return "got: " + history[len(history)-1].Text, nil
}

func newTestBridge(t *testing.T) (*Bridge, *fakeSender, *consolidate.Manager) {
	t.Helper()
	mgr := consolidate.NewManager(consolidate.Config{
		Extractor: echoExtractor{},
		Gateway:   store.NewMemory(),
		Debounce:  time.Hour,
	})
	t.Cleanup(mgr.Close)

	sender := &fakeSender{}
	b := newBridge(sender, mgr, Config{
		Channels: map[string]string{"personal": "c-personal", "professional": "c-work"},
	})
	b.botID = "bot"
	return b, sender, mgr
}

func discordMsg(channel, author, content string) *discordgo.Message {
	return &discordgo.Message{
		ID:        "d1",
		ChannelID: channel,
		Content:   content,
		Author:    &discordgo.User{ID: author, Username: author},
		Timestamp: time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC),
	}
}

func TestHandle_RoutesToStreamAndReplies(t *testing.T) {
	b, sender, mgr := newTestBridge(t)

	if err := b.handle(context.Background(), discordMsg("c-work", "alice", "shipped it")); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(sender.sent) != 1 || sender.sent[0].channel != "c-work" || sender.sent[0].content != "got: shipped it" {
		t.Errorf("unexpected posts: %+v", sender.sent)
	}
	if sender.typing != 1 {
		t.Errorf("expected a typing indicator")
	}

	work, _ := mgr.Session(chat.StreamProfessional)
	msgs := work.Messages()
	if len(msgs) != 2 || msgs[0].Text != "shipped it" || msgs[1].Role != chat.RoleAssistant {
		t.Errorf("unexpected stream: %+v", msgs)
	}
	personal, _ := mgr.Session(chat.StreamPersonal)
	if len(personal.Messages()) != 0 {
		t.Error("personal stream must be untouched")
	}
}

func TestHandle_Ignores(t *testing.T) {
	b, sender, _ := newTestBridge(t)
	b.ownerID = "owner"

	self := discordMsg("c-personal", "bot", "echo")
	other := discordMsg("c-personal", "stranger", "hi")
	unmapped := discordMsg("c-random", "owner", "hi")
	bot := discordMsg("c-personal", "owner", "hi")
	bot.Author.Bot = true

	for _, m := range []*discordgo.Message{self, other, unmapped, bot} {
		if err := b.handle(context.Background(), m); err != nil {
			t.Fatalf("handle: %v", err)
		}
	}
	if len(sender.sent) != 0 {
		t.Errorf("expected no replies, got %+v", sender.sent)
	}
}

func TestToMessages_Attachments(t *testing.T) {
	m := discordMsg("c", "a", " beach day ")
	m.Attachments = []*discordgo.MessageAttachment{
		{Filename: "one.jpg", ContentType: "image/jpeg", URL: "https://cdn/one.jpg"},
		{Filename: "notes.pdf", ContentType: "application/pdf", URL: "https://cdn/notes.pdf"},
	}

	msgs := ToMessages(m)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	last := msgs[1]
	if last.Text != "beach day" || last.Attachment == nil || !last.Attachment.IsImage() {
		t.Errorf("text should ride with the first attachment: %+v", last)
	}
	if msgs[0].Attachment.Kind != chat.AttachmentFile || msgs[0].Text != "" {
		t.Errorf("unexpected extra attachment message: %+v", msgs[0])
	}
	if !last.Timestamp.Equal(m.Timestamp) {
		t.Error("discord timestamp should be kept")
	}
}

func TestToMessages_Empty(t *testing.T) {
	if msgs := ToMessages(discordMsg("c", "a", "   ")); len(msgs) != 0 {
		t.Errorf("expected nothing for an empty message, got %+v", msgs)
	}
}

func TestSplitMessage(t *testing.T) {
	if got := SplitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Errorf("unexpected %v", got)
	}

	long := strings.Repeat("a", 8) + "\n" + strings.Repeat("b", 8)
	got := SplitMessage(long, 10)
	if len(got) != 2 || got[0] != strings.Repeat("a", 8) || got[1] != strings.Repeat("b", 8) {
		t.Errorf("expected split at newline, got %q", got)
	}

	hard := SplitMessage(strings.Repeat("x", 25), 10)
	if len(hard) != 3 || len(hard[2]) != 5 {
		t.Errorf("expected hard cuts, got %q", hard)
	}
}
