package chat

import (
	"fmt"
	"regexp"
	"strings"
)

var attachmentMarker = regexp.MustCompile(`\[Attachment:[^\]]*\]`)

// FormatMessage renders one role-tagged transcript line
func FormatMessage(m Message) string {
	text := m.Text
	if m.Attachment != nil {
		marker := fmt.Sprintf("[Attachment: %s]", m.Attachment.Name)
		if text == "" {
			text = marker
		} else {
			text = text + " " + marker
		}
	}
	return fmt.Sprintf("[%s] %s: %s", m.Timestamp.Format("2006-01-02 15:04"), m.Role, text)
}

// FormatTranscript renders messages one per line
func FormatTranscript(msgs []Message) string {
	var sb strings.Builder
	for i, m := range msgs {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(FormatMessage(m))
	}
	return sb.String()
}

// StripAttachmentMarkers removes inline [Attachment: ...] markers
func StripAttachmentMarkers(s string) string {
	return strings.TrimSpace(attachmentMarker.ReplaceAllString(s, ""))
}

// UserText joins the user-authored text of msgs with attachment markers
// removed. Empty lines are dropped.
func UserText(msgs []Message) string {
	var parts []string
	for _, m := range msgs {
		if m.Role != RoleUser {
			continue
		}
		if t := StripAttachmentMarkers(m.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n")
}

// Media collects the image attachments in msgs
func Media(msgs []Message) []Attachment {
	var out []Attachment
	for _, m := range msgs {
		if m.Attachment != nil && m.Attachment.IsImage() {
			out = append(out, *m.Attachment)
		}
	}
	return out
}
