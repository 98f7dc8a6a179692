package consolidate

import (
	"fmt"

	"github.com/sumalravindran/My-journal-new/internal/chat"
)

// PendingSlice splits msgs at processed into the already-consolidated
// context and the new input. processed is clamped to [0, len(msgs)].
func PendingSlice(msgs []chat.Message, processed int) (context, input []chat.Message) {
	if processed < 0 {
		processed = 0
	}
	if processed > len(msgs) {
		processed = len(msgs)
	}
	return msgs[:processed], msgs[processed:]
}

// Cursor reads and moves the consolidation position of one stream. It does
// no locking; the owning Session serializes access.
type Cursor struct {
	stream *chat.Stream
}

// CursorOf returns the cursor stored in s
func CursorOf(s *chat.Stream) Cursor {
	return Cursor{stream: s}
}

// Position is the number of messages already handed to extraction
func (c Cursor) Position() int {
	return c.stream.Processed
}

// Pending returns the context and new-input slices at the cursor
func (c Cursor) Pending() (context, input []chat.Message) {
	return PendingSlice(c.stream.Messages, c.stream.Processed)
}

// Advance moves the cursor to to. The cursor never moves backwards or past
// the end of the stream.
func (c Cursor) Advance(to int) error {
	if to < c.stream.Processed {
		return fmt.Errorf("cursor cannot move backwards (%d -> %d)", c.stream.Processed, to)
	}
	if to > len(c.stream.Messages) {
		return fmt.Errorf("cursor %d past end of stream (%d messages)", to, len(c.stream.Messages))
	}
	c.stream.Processed = to
	return nil
}
