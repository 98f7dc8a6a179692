package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

func baseInput(repeat Repeat) Input {
	return Input{
		Title:  "Yoga",
		Date:   time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC),
		Start:  TimeOfDay{Hour: 18, Minute: 0},
		End:    TimeOfDay{Hour: 19, Minute: 30},
		Repeat: repeat,
		NewID:  func() string { return "s1" },
	}
}

func TestExpand_Counts(t *testing.T) {
	tests := []struct {
		repeat Repeat
		want   int
	}{
		{RepeatNone, 1},
		{"", 1},
		{RepeatDaily, 30},
		{RepeatWeekly, 12},
		{RepeatMonthly, 6},
	}
	for _, tt := range tests {
		events, err := Expand(baseInput(tt.repeat))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.repeat, err)
		}
		if len(events) != tt.want {
			t.Errorf("%s: expected %d events, got %d", tt.repeat, tt.want, len(events))
		}
	}
}

func TestExpand_WeeklySpacing(t *testing.T) {
	events, err := Expand(baseInput(RepeatWeekly))
	if err != nil {
		t.Fatal(err)
	}
	seen := map[string]bool{}
	for i, ev := range events {
		if seen[ev.ID] {
			t.Errorf("duplicate id %s", ev.ID)
		}
		seen[ev.ID] = true
		if ev.EndTime.Sub(ev.StartTime) != 90*time.Minute {
			t.Errorf("event %d: unexpected duration %v", i, ev.EndTime.Sub(ev.StartTime))
		}
		if i > 0 {
			if gap := ev.StartTime.Sub(events[i-1].StartTime); gap != 7*24*time.Hour {
				t.Errorf("event %d: expected 7 day gap, got %v", i, gap)
			}
		}
	}
	if events[0].StartTime.Hour() != 18 || events[0].Title != "Yoga" {
		t.Errorf("unexpected first event: %+v", events[0])
	}
}

func TestExpand_MonthlyNoDrift(t *testing.T) {
	in := baseInput(RepeatMonthly)
	in.Date = time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	events, err := Expand(in)
	if err != nil {
		t.Fatal(err)
	}
	for i, ev := range events {
		if ev.StartTime.Day() != 15 || int(ev.StartTime.Month()) != i+1 {
			t.Errorf("event %d: unexpected date %v", i, ev.StartTime)
		}
	}
}

func TestExpand_Validation(t *testing.T) {
	in := baseInput(RepeatNone)
	in.End = in.Start
	if _, err := Expand(in); err == nil {
		t.Error("expected error for a zero-length event")
	}

	in = baseInput(RepeatNone)
	in.Title = " "
	if _, err := Expand(in); err == nil {
		t.Error("expected error for blank title")
	}

	in = baseInput("yearly")
	if _, err := Expand(in); err == nil {
		t.Error("expected error for unknown repeat mode")
	}
}

func TestExpand_Overnight(t *testing.T) {
	in := baseInput(RepeatDaily)
	in.Start = TimeOfDay{Hour: 23, Minute: 0}
	in.End = TimeOfDay{Hour: 1, Minute: 0}

	events, err := Expand(in)
	if err != nil {
		t.Fatalf("overnight event rejected: %v", err)
	}
	for i, ev := range events[:2] {
		wantStart := time.Date(2026, 10, 14+i, 23, 0, 0, 0, time.UTC)
		wantEnd := time.Date(2026, 10, 15+i, 1, 0, 0, 0, time.UTC)
		if !ev.StartTime.Equal(wantStart) || !ev.EndTime.Equal(wantEnd) {
			t.Errorf("event %d: %v-%v, want %v-%v", i, ev.StartTime, ev.EndTime, wantStart, wantEnd)
		}
	}
}

func TestMirrorTask(t *testing.T) {
	start := time.Date(2026, 10, 14, 18, 0, 0, 0, time.UTC)
	task := MirrorTask(records.CalendarEvent{ID: "e1", Title: "Yoga", StartTime: start})
	if task.ID != "task-e1" || task.Title != "Yoga" || task.Completed {
		t.Errorf("unexpected task: %+v", task)
	}
	if task.DueDate == nil || !task.DueDate.Equal(start) {
		t.Errorf("due date should equal event start, got %v", task.DueDate)
	}
}

func TestCreate_WeeklyPersistsEventsAndTasks(t *testing.T) {
	ctx := context.Background()
	g := store.NewMemory()

	events, tasks, err := Create(ctx, g, baseInput(RepeatWeekly))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if len(events) != 12 || len(tasks) != 12 {
		t.Fatalf("expected 12 events and 12 tasks, got %d %d", len(events), len(tasks))
	}

	storedEvents, _ := store.Load[records.CalendarEvent](ctx, g, records.KindEvents)
	storedTasks, _ := store.Load[records.Task](ctx, g, records.KindTasks)
	if len(storedEvents) != 12 || len(storedTasks) != 12 {
		t.Fatalf("expected 12 stored of each, got %d %d", len(storedEvents), len(storedTasks))
	}
	for i := range storedEvents {
		if storedTasks[i].ID != MirrorTaskID(storedEvents[i].ID) {
			t.Errorf("task %d does not mirror event %s", i, storedEvents[i].ID)
		}
		if !storedTasks[i].DueDate.Equal(storedEvents[i].StartTime) {
			t.Errorf("task %d due date mismatch", i)
		}
	}
}

func TestDeleteEvent(t *testing.T) {
	ctx := context.Background()
	g := store.NewMemory()
	events, _, err := Create(ctx, g, baseInput(RepeatNone))
	if err != nil {
		t.Fatal(err)
	}
	if err := DeleteEvent(ctx, g, events[0].ID); err != nil {
		t.Fatal(err)
	}
	tasks, _ := store.Load[records.Task](ctx, g, records.KindTasks)
	if len(tasks) != 0 {
		t.Errorf("mirrored task should be deleted, got %d", len(tasks))
	}
}

func TestParseTimeOfDay(t *testing.T) {
	tod, err := ParseTimeOfDay("07:45")
	if err != nil || tod.Hour != 7 || tod.Minute != 45 {
		t.Errorf("unexpected %+v %v", tod, err)
	}
	if _, err := ParseTimeOfDay("7pm"); err == nil {
		t.Error("expected error")
	}
}
