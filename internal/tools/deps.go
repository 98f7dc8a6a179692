// Package tools exposes the journal records as MCP tools for direct user
// edits: listing, adding, toggling and deleting records outside the chat
// consolidation path.
package tools

import (
	"time"

	"github.com/sumalravindran/My-journal-new/internal/activity"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

// Dependencies holds the services the tools need.
// Optional fields may be nil.
type Dependencies struct {
	// Required
	Gateway store.Gateway

	// Optional
	ActivityLog *activity.Log
	// Location for dates given without a zone; time.Local when nil
	Location *time.Location
	// Now defaults to time.Now
	Now func() time.Time
	// NewID defaults to records.NewID
	NewID func() string

	// If set, called after a tool changed persisted records
	OnChange func(kind records.Kind)
}

func (d *Dependencies) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d *Dependencies) location() *time.Location {
	if d.Location != nil {
		return d.Location
	}
	return time.Local
}

func (d *Dependencies) newID() string {
	if d.NewID != nil {
		return d.NewID()
	}
	return records.NewID()
}

// changed records a user edit in the activity log and notifies listeners
func (d *Dependencies) changed(tool string, kind records.Kind, id, summary string) {
	if d.ActivityLog != nil {
		d.ActivityLog.LogRecord(summary, tool, string(kind), id)
	}
	if d.OnChange != nil {
		d.OnChange(kind)
	}
}
