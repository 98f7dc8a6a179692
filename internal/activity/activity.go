// Package activity keeps an append-only JSONL log of what the consolidation
// engine did: messages received, flushes, records materialized, failures.
package activity

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Type identifies what kind of activity this is
type Type string

const (
	TypeMessage      Type = "message"      // Message appended to a stream
	TypeFlush        Type = "flush"        // Slice handed to extraction
	TypeMaterialized Type = "materialized" // Records persisted from a slice
	TypeFlushFailed  Type = "flush_failed" // Extraction or persistence failed; slice consumed
	TypeReply        Type = "reply"        // Interactive reply sent
	TypeReplyFailed  Type = "reply_failed" // Degraded reply shown instead
	TypeRecord       Type = "record"       // Record created or changed directly by the user
	TypeError        Type = "error"        // Anything else that went wrong
)

// Entry represents a single activity log entry
type Entry struct {
	Timestamp  time.Time      `json:"ts"`
	Type       Type           `json:"type"`
	Summary    string         `json:"summary"`
	Stream     string         `json:"stream,omitempty"`
	Source     string         `json:"source,omitempty"` // cli, discord, mcp, timer, leave
	BatchID    string         `json:"batch_id,omitempty"`
	MessageIDs []string       `json:"message_ids,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
}

// Log is the activity logger
type Log struct {
	path string
	mu   sync.Mutex
}

// New creates an activity logger under <statePath>/system
func New(statePath string) *Log {
	return &Log{
		path: filepath.Join(statePath, "system", "activity.jsonl"),
	}
}

// Path returns the log file location
func (l *Log) Path() string {
	return l.path
}

// Log appends an entry to the activity log. Entries without a timestamp
// are stamped now.
func (l *Log) Log(entry Entry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return appendLine(l.path, line)
}

func appendLine(path string, line []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// LogMessage logs a message appended to a stream
func (l *Log) LogMessage(stream, source, role, preview string) error {
	return l.Log(Entry{
		Type:    TypeMessage,
		Summary: preview,
		Stream:  stream,
		Source:  source,
		Data:    map[string]any{"role": role},
	})
}

// LogFlush logs a slice being handed to extraction
func (l *Log) LogFlush(stream, source string, messageIDs []string, from, to int) error {
	return l.Log(Entry{
		Type:       TypeFlush,
		Summary:    "consolidating new messages",
		Stream:     stream,
		Source:     source,
		MessageIDs: messageIDs,
		Data:       map[string]any{"from": from, "to": to},
	})
}

// LogMaterialized logs the records persisted for a batch
func (l *Log) LogMaterialized(stream, batchID string, counts map[string]int, durationSec float64) error {
	data := map[string]any{"duration_sec": durationSec}
	for k, v := range counts {
		data[k] = v
	}
	return l.Log(Entry{
		Type:    TypeMaterialized,
		Summary: "records materialized",
		Stream:  stream,
		BatchID: batchID,
		Data:    data,
	})
}

// LogFlushFailed logs a consumed slice whose extraction or persistence
// failed. The message ids allow the slice to be re-run later.
func (l *Log) LogFlushFailed(stream string, messageIDs []string, err error) error {
	return l.Log(Entry{
		Type:       TypeFlushFailed,
		Summary:    "consolidation failed, slice skipped",
		Stream:     stream,
		MessageIDs: messageIDs,
		Data:       map[string]any{"error": err.Error()},
	})
}

// LogReply logs an interactive reply
func (l *Log) LogReply(stream, source, content string) error {
	return l.Log(Entry{
		Type:    TypeReply,
		Summary: "reply sent",
		Stream:  stream,
		Source:  source,
		Data:    map[string]any{"content": content},
	})
}

// LogReplyFailed logs a reply that degraded to an error message
func (l *Log) LogReplyFailed(stream, source string, err error) error {
	return l.Log(Entry{
		Type:    TypeReplyFailed,
		Summary: "reply failed",
		Stream:  stream,
		Source:  source,
		Data:    map[string]any{"error": err.Error()},
	})
}

// LogRecord logs a direct user change to a record collection
func (l *Log) LogRecord(summary, source, kind, id string) error {
	return l.Log(Entry{
		Type:    TypeRecord,
		Summary: summary,
		Source:  source,
		Data:    map[string]any{"kind": kind, "id": id},
	})
}

// LogError logs an error
func (l *Log) LogError(summary string, err error, data map[string]any) error {
	if data == nil {
		data = make(map[string]any)
	}
	data["error"] = err.Error()
	return l.Log(Entry{
		Type:    TypeError,
		Summary: summary,
		Data:    data,
	})
}

// Query methods

// Recent returns the last n entries, oldest first
func (l *Log) Recent(n int) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil || n >= len(entries) {
		return entries, err
	}
	if n <= 0 {
		return nil, nil
	}
	return entries[len(entries)-n:], nil
}

// Today returns entries since local midnight, oldest first
func (l *Log) Today() ([]Entry, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return l.match(0, false, func(e Entry) bool { return !e.Timestamp.Before(midnight) })
}

// Search matches query case-insensitively against summaries, streams and
// data, newest first
func (l *Log) Search(query string, limit int) ([]Entry, error) {
	query = strings.ToLower(query)
	return l.match(limit, true, func(e Entry) bool {
		if strings.Contains(strings.ToLower(e.Summary), query) || strings.Contains(e.Stream, query) {
			return true
		}
		if len(e.Data) == 0 {
			return false
		}
		data, _ := json.Marshal(e.Data)
		return strings.Contains(strings.ToLower(string(data)), query)
	})
}

// ByType returns entries of type t, newest first
func (l *Log) ByType(t Type, limit int) ([]Entry, error) {
	return l.match(limit, true, func(e Entry) bool { return e.Type == t })
}

// FailedSlices returns failed flushes for stream (all streams when empty),
// oldest first
func (l *Log) FailedSlices(stream string) ([]Entry, error) {
	return l.match(0, false, func(e Entry) bool {
		return e.Type == TypeFlushFailed && (stream == "" || e.Stream == stream)
	})
}

// match filters the log. limit <= 0 means no limit.
func (l *Log) match(limit int, newestFirst bool, keep func(Entry) bool) ([]Entry, error) {
	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}

	var result []Entry
	for i := range entries {
		e := entries[i]
		if newestFirst {
			e = entries[len(entries)-1-i]
		}
		if !keep(e) {
			continue
		}
		result = append(result, e)
		if limit > 0 && len(result) == limit {
			break
		}
	}
	return result, nil
}

// readAll decodes the whole log, skipping torn or malformed lines
func (l *Log) readAll() ([]Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) == nil {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}
