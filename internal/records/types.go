// Package records defines the durable journal records: entries, tasks,
// calendar events and finance transactions.
package records

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sumalravindran/My-journal-new/internal/chat"
)

// Kind names a record collection in the persistence gateway
type Kind string

const (
	KindEntries      Kind = "entries"
	KindTasks        Kind = "tasks"
	KindEvents       Kind = "events"
	KindTransactions Kind = "transactions"
)

// Kinds lists every collection, in display order
var Kinds = []Kind{KindEntries, KindTasks, KindEvents, KindTransactions}

// ParseKind accepts the collection name or its singular form
func ParseKind(s string) (Kind, error) {
	switch s {
	case "entries", "entry":
		return KindEntries, nil
	case "tasks", "task":
		return KindTasks, nil
	case "events", "event":
		return KindEvents, nil
	case "transactions", "transaction", "tx":
		return KindTransactions, nil
	}
	return "", fmt.Errorf("unknown record kind %q", s)
}

// Record is anything stored in a collection
type Record interface {
	RecordID() string
}

// Task is a to-do item, optionally linked to the entry that spawned it
type Task struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Completed     bool       `json:"completed"`
	DueDate       *time.Time `json:"due_date,omitempty"`
	LinkedEntryID string     `json:"linked_entry_id,omitempty"`
}

func (t Task) RecordID() string { return t.ID }

// CalendarEvent is a scheduled block of time
type CalendarEvent struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	Description   string    `json:"description,omitempty"`
	LinkedEntryID string    `json:"linked_entry_id,omitempty"`
}

func (e CalendarEvent) RecordID() string { return e.ID }

// TransactionType is the sign of a transaction
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Valid reports whether t is income or expense
func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

// Transaction is a finance record. Amount is a non-negative magnitude; the
// sign comes from Type.
type Transaction struct {
	ID            string          `json:"id"`
	Description   string          `json:"description"`
	Amount        decimal.Decimal `json:"amount"`
	Type          TransactionType `json:"type"`
	Category      string          `json:"category"`
	Date          time.Time       `json:"date"`
	LinkedEntryID string          `json:"linked_entry_id,omitempty"`
}

func (t Transaction) RecordID() string { return t.ID }

// Signed returns the amount with the sign implied by the type
func (t Transaction) Signed() decimal.Decimal {
	if t.Type == Expense {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Validate checks the invariants every stored transaction holds
func (t Transaction) Validate() error {
	if t.Description == "" {
		return fmt.Errorf("transaction description is required")
	}
	if !t.Type.Valid() {
		return fmt.Errorf("invalid transaction type %q: must be income or expense", t.Type)
	}
	if t.Amount.IsNegative() {
		return fmt.Errorf("transaction amount must be non-negative, got %s", t.Amount)
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction date is required")
	}
	return nil
}

// JournalEntry is one narrative record. Tasks, events and transactions are
// snapshots taken at creation time; the canonical copies live in their own
// collections.
type JournalEntry struct {
	ID             string            `json:"id"`
	Title          string            `json:"title"`
	Content        string            `json:"content"`
	Date           time.Time         `json:"date"`
	Tags           []string          `json:"tags"`
	Media          []chat.Attachment `json:"media"`
	Tasks          []Task            `json:"tasks"`
	CalendarEvents []CalendarEvent   `json:"calendar_events"`
	Transactions   []Transaction     `json:"transactions"`
	LastModified   time.Time         `json:"last_modified"`
}

func (e JournalEntry) RecordID() string { return e.ID }

// NewID returns an id for a record created directly by the user
func NewID() string {
	return uuid.NewString()
}
