// Package calendar creates user-scheduled events, expanding repeat modes
// into independent instances and mirroring each into the task list.
package calendar

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

// Repeat is how often an event recurs
type Repeat string

const (
	RepeatNone    Repeat = "none"
	RepeatDaily   Repeat = "daily"
	RepeatWeekly  Repeat = "weekly"
	RepeatMonthly Repeat = "monthly"
)

// ParseRepeat accepts a repeat mode; empty means none
func ParseRepeat(s string) (Repeat, error) {
	switch r := Repeat(strings.ToLower(strings.TrimSpace(s))); r {
	case "", RepeatNone:
		return RepeatNone, nil
	case RepeatDaily, RepeatWeekly, RepeatMonthly:
		return r, nil
	}
	return "", fmt.Errorf("unknown repeat mode %q (want none, daily, weekly or monthly)", s)
}

// Occurrences is the number of instances a repeat mode expands into
func (r Repeat) Occurrences() int {
	switch r {
	case RepeatDaily:
		return 30
	case RepeatWeekly:
		return 12
	case RepeatMonthly:
		return 6
	}
	return 1
}

// occurrence returns the n-th date (0-based) of the series starting at base.
// Months are added from base each time so a 31st does not drift.
func occurrence(base time.Time, repeat Repeat, n int) time.Time {
	switch repeat {
	case RepeatDaily:
		return base.AddDate(0, 0, n)
	case RepeatWeekly:
		return base.AddDate(0, 0, 7*n)
	case RepeatMonthly:
		return base.AddDate(0, n, 0)
	}
	return base
}

// TimeOfDay is a wall-clock time without a date
type TimeOfDay struct {
	Hour   int
	Minute int
}

// ParseTimeOfDay parses "15:04"
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(s))
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("invalid time of day %q: want HH:MM", s)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

func (t TimeOfDay) minutes() int { return t.Hour*60 + t.Minute }

func (t TimeOfDay) on(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, day.Location())
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Input describes an event to create directly
type Input struct {
	Title       string
	Description string
	Date        time.Time // first occurrence; only the date part is used
	Start       TimeOfDay
	End         TimeOfDay // before Start means the next day
	Repeat      Repeat

	// NewID generates the series id; records.NewID when nil
	NewID func() string
}

// Validate checks the input before expansion
func (in Input) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("event title is required")
	}
	if in.Date.IsZero() {
		return fmt.Errorf("event date is required")
	}
	if in.End.minutes() == in.Start.minutes() {
		return fmt.Errorf("event end %s must differ from start %s", in.End, in.Start)
	}
	if _, err := ParseRepeat(string(in.Repeat)); err != nil {
		return err
	}
	return nil
}

// Expand generates the event instances of in. Instances share title and
// description and get distinct ids and timestamps.
func Expand(in Input) ([]records.CalendarEvent, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	repeat, _ := ParseRepeat(string(in.Repeat))
	newID := in.NewID
	if newID == nil {
		newID = records.NewID
	}

	series := newID()
	n := repeat.Occurrences()
	events := make([]records.CalendarEvent, 0, n)
	for i := 0; i < n; i++ {
		day := occurrence(in.Date, repeat, i)
		id := series
		if n > 1 {
			id = fmt.Sprintf("%s-%d", series, i)
		}
		start, end := in.Start.on(day), in.End.on(day)
		if in.End.minutes() < in.Start.minutes() {
			end = in.End.on(day.AddDate(0, 0, 1))
		}
		events = append(events, records.CalendarEvent{
			ID:          id,
			Title:       strings.TrimSpace(in.Title),
			StartTime:   start,
			EndTime:     end,
			Description: strings.TrimSpace(in.Description),
		})
	}
	return events, nil
}

// MirrorTaskID is the deterministic id of the task mirroring an event
func MirrorTaskID(eventID string) string {
	return "task-" + eventID
}

// MirrorTask returns the task that shows ev in the task list
func MirrorTask(ev records.CalendarEvent) records.Task {
	due := ev.StartTime
	return records.Task{
		ID:            MirrorTaskID(ev.ID),
		Title:         ev.Title,
		DueDate:       &due,
		LinkedEntryID: ev.LinkedEntryID,
	}
}

// Create expands in and persists the events followed by their mirrored tasks
func Create(ctx context.Context, g store.Gateway, in Input) ([]records.CalendarEvent, []records.Task, error) {
	events, err := Expand(in)
	if err != nil {
		return nil, nil, err
	}
	tasks := make([]records.Task, len(events))
	for i, ev := range events {
		tasks[i] = MirrorTask(ev)
	}

	if err := store.Save(ctx, g, records.KindEvents, events); err != nil {
		return nil, nil, fmt.Errorf("save events: %w", err)
	}
	if err := store.Save(ctx, g, records.KindTasks, tasks); err != nil {
		return events, nil, fmt.Errorf("save mirrored tasks: %w", err)
	}
	return events, tasks, nil
}

// DeleteEvent removes an event and its mirrored task
func DeleteEvent(ctx context.Context, g store.Gateway, eventID string) error {
	if err := g.DeleteByID(ctx, records.KindEvents, eventID); err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if err := g.DeleteByID(ctx, records.KindTasks, MirrorTaskID(eventID)); err != nil {
		return fmt.Errorf("delete mirrored task: %w", err)
	}
	return nil
}
