package chat

import "time"

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// AttachmentKind distinguishes media that becomes part of a journal entry
// from other files
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment is a file sent alongside a message
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Name     string         `json:"name"`
	MimeType string         `json:"mime_type,omitempty"`
	URL      string         `json:"url,omitempty"` // remote URL or data: URI
}

// IsImage reports whether the attachment counts as journal media
func (a Attachment) IsImage() bool {
	return a.Kind == AttachmentImage
}

// Message is a single chat message. Immutable once appended to a stream.
type Message struct {
	ID         string      `json:"id"`
	Role       Role        `json:"role"`
	Text       string      `json:"text"`
	Timestamp  time.Time   `json:"timestamp"`
	Attachment *Attachment `json:"attachment,omitempty"`
}

// StreamID names an independent conversation stream
type StreamID string

const (
	StreamPersonal     StreamID = "personal"
	StreamProfessional StreamID = "professional"
)
