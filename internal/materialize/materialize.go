// Package materialize converts a validated extraction result into durable
// journal records: one optional entry plus linked tasks, events and
// transactions, all sharing a batch id.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/extract"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

const (
	titleMaxRunes      = 50
	defaultEventLength = time.Hour
	defaultCategory    = "other"
)

// Output is everything one extraction result materializes into
type Output struct {
	BatchID      string
	Entry        *records.JournalEntry
	Tasks        []records.Task
	Events       []records.CalendarEvent
	Transactions []records.Transaction
}

// Count returns the number of records in the output
func (o Output) Count() int {
	n := len(o.Tasks) + len(o.Events) + len(o.Transactions)
	if o.Entry != nil {
		n++
	}
	return n
}

// Empty reports whether nothing was materialized
func (o Output) Empty() bool {
	return o.Count() == 0
}

// batchCounter keeps batch ids distinct within one process tick
var batchCounter int64

// NewBatchID returns a time-based id that does not repeat within a process
func NewBatchID() string {
	count := atomic.AddInt64(&batchCounter, 1)
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), count)
}

// Materializer builds records from extraction results
type Materializer struct {
	Now        func() time.Time
	NewBatchID func() string
	// Location applies to model dates without a zone offset
	Location *time.Location
}

// New creates a materializer on the wall clock in the local zone
func New() *Materializer {
	return &Materializer{
		Now:        time.Now,
		NewBatchID: NewBatchID,
		Location:   time.Local,
	}
}

func (m *Materializer) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *Materializer) location() *time.Location {
	if m.Location != nil {
		return m.Location
	}
	return time.Local
}

// Materialize converts result into records. input is the new-input slice
// the result was extracted from; it supplies media and fallback text.
func (m *Materializer) Materialize(result extract.Result, input []chat.Message) Output {
	now := m.now()
	newID := m.NewBatchID
	if newID == nil {
		newID = NewBatchID
	}
	batch := newID()

	media := chat.Media(input)
	userText := chat.UserText(input)
	shouldCreateEntry := result.HasContent || len(media) > 0

	out := Output{BatchID: batch}
	out.Events = m.events(batch, result.CalendarEvents)
	out.Tasks = m.tasks(batch, result.Tasks, now)
	out.Transactions = m.transactions(batch, result.Transactions)

	if shouldCreateEntry {
		entry := records.JournalEntry{
			ID:           batch,
			Title:        entryTitle(result.Title, userText, len(media), now),
			Content:      entryContent(result.Content, userText),
			Date:         now,
			Tags:         records.NormalizeTags(result.Tags),
			Media:        media,
			LastModified: now,
		}
		if entry.Content != "" || len(entry.Media) > 0 {
			out.Entry = &entry
		} else {
			logging.Debug("materialize", "batch %s: discarding entry without content or media", batch)
		}
	}

	if out.Entry != nil {
		for i := range out.Events {
			out.Events[i].LinkedEntryID = batch
		}
		for i := range out.Tasks {
			out.Tasks[i].LinkedEntryID = batch
		}
		for i := range out.Transactions {
			out.Transactions[i].LinkedEntryID = batch
		}
		out.Entry.Tasks = append([]records.Task(nil), out.Tasks...)
		out.Entry.CalendarEvents = append([]records.CalendarEvent(nil), out.Events...)
		out.Entry.Transactions = append([]records.Transaction(nil), out.Transactions...)
	}

	return out
}

func (m *Materializer) events(batch string, cands []extract.EventCandidate) []records.CalendarEvent {
	var out []records.CalendarEvent
	for _, c := range cands {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			logging.Info("materialize", "dropping event without title")
			continue
		}
		start, dateOnly, err := parseDateTime(c.StartTime, m.location())
		if err != nil {
			logging.Info("materialize", "dropping event %q: startTime: %v", title, err)
			continue
		}
		end := start.Add(defaultEventLength)
		if dateOnly {
			end = start.AddDate(0, 0, 1)
		}
		if c.EndTime != "" {
			if e, _, err := parseDateTime(c.EndTime, m.location()); err == nil && e.After(start) {
				end = e
			}
		}
		out = append(out, records.CalendarEvent{
			ID:          fmt.Sprintf("%s-event-%d", batch, len(out)),
			Title:       title,
			StartTime:   start,
			EndTime:     end,
			Description: strings.TrimSpace(c.Description),
		})
	}
	return out
}

func (m *Materializer) tasks(batch string, cands []extract.TaskCandidate, now time.Time) []records.Task {
	var out []records.Task
	for _, c := range cands {
		title := strings.TrimSpace(c.Title)
		if title == "" {
			logging.Info("materialize", "dropping task without title")
			continue
		}
		due := now
		if c.DueDate != "" {
			if d, _, err := parseDateTime(c.DueDate, m.location()); err == nil {
				due = d
			} else {
				logging.Debug("materialize", "task %q: ignoring dueDate: %v", title, err)
			}
		}
		out = append(out, records.Task{
			ID:      fmt.Sprintf("%s-task-%d", batch, len(out)),
			Title:   title,
			DueDate: &due,
		})
	}
	return out
}

func (m *Materializer) transactions(batch string, cands []extract.TransactionCandidate) []records.Transaction {
	var out []records.Transaction
	for _, c := range cands {
		desc := strings.TrimSpace(c.Description)
		amount, err := decimal.NewFromString(strings.TrimSpace(string(c.Amount)))
		if err != nil {
			logging.Info("materialize", "dropping transaction %q: amount %q: %v", desc, c.Amount, err)
			continue
		}
		date, _, err := parseDateTime(c.Date, m.location())
		if err != nil {
			logging.Info("materialize", "dropping transaction %q: date: %v", desc, err)
			continue
		}
		category := strings.ToLower(strings.TrimSpace(c.Category))
		if category == "" {
			category = defaultCategory
		}
		tx := records.Transaction{
			ID:          fmt.Sprintf("%s-tx-%d", batch, len(out)),
			Description: desc,
			Amount:      amount.Abs(),
			Type:        records.TransactionType(strings.ToLower(strings.TrimSpace(c.Type))),
			Category:    category,
			Date:        date,
		}
		if err := tx.Validate(); err != nil {
			logging.Info("materialize", "dropping transaction %q: %v", desc, err)
			continue
		}
		out = append(out, tx)
	}
	return out
}

// entryTitle picks the model title, then the first line of user text, then
// a media label, then a timestamped label
func entryTitle(modelTitle, userText string, mediaCount int, now time.Time) string {
	if t := strings.TrimSpace(modelTitle); t != "" {
		return t
	}
	if userText != "" {
		line := userText
		if i := strings.IndexByte(line, '\n'); i != -1 {
			line = line[:i]
		}
		r := []rune(strings.TrimSpace(line))
		if len(r) > titleMaxRunes {
			return string(r[:titleMaxRunes]) + "..."
		}
		return string(r)
	}
	if mediaCount == 1 {
		return "Photo entry"
	}
	if mediaCount > 1 {
		return fmt.Sprintf("Photo entry (%d photos)", mediaCount)
	}
	return "Journal Entry " + now.Format("2 Jan 2006 15:04")
}

// entryContent never invents a body: media without text gives empty content
func entryContent(modelContent, userText string) string {
	if c := strings.TrimSpace(modelContent); c != "" {
		return c
	}
	return userText
}

// Persist writes out through g. Tasks, events and transactions are saved
// whether or not an entry exists. Each collection is written independently;
// the returned error joins every failure.
func Persist(ctx context.Context, g store.Gateway, out Output) error {
	var errs []error
	if err := store.Save(ctx, g, records.KindEvents, out.Events); err != nil {
		errs = append(errs, fmt.Errorf("save events: %w", err))
	}
	if err := store.Save(ctx, g, records.KindTasks, out.Tasks); err != nil {
		errs = append(errs, fmt.Errorf("save tasks: %w", err))
	}
	if err := store.Save(ctx, g, records.KindTransactions, out.Transactions); err != nil {
		errs = append(errs, fmt.Errorf("save transactions: %w", err))
	}
	if out.Entry != nil {
		if err := store.Save(ctx, g, records.KindEntries, []records.JournalEntry{*out.Entry}); err != nil {
			errs = append(errs, fmt.Errorf("save entry: %w", err))
		}
	}
	return errors.Join(errs...)
}
