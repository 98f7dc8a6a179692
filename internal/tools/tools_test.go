package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/shopspring/decimal"

	"github.com/sumalravindran/My-journal-new/internal/activity"
	"github.com/sumalravindran/My-journal-new/internal/calendar"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

var testNow = time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)

func newTestDeps(t *testing.T) *Dependencies {
	t.Helper()
	n := 0
	return &Dependencies{
		Gateway:     store.NewMemory(),
		ActivityLog: activity.New(t.TempDir()),
		Location:    time.UTC,
		Now:         func() time.Time { return testNow },
		NewID: func() string {
			n++
			return fmt.Sprintf("id%d", n)
		},
	}
}

// call runs a tool through the same wrapper the server uses
func call(t *testing.T, deps *Dependencies, name string, args map[string]any) (string, bool) {
	t.Helper()
	for _, tl := range all(deps) {
		if tl.def.Name != name {
			continue
		}
		req := mcp.CallToolRequest{}
		req.Params.Name = name
		req.Params.Arguments = args
		res, err := wrap(name, tl.handler)(context.Background(), req)
		if err != nil {
			t.Fatalf("%s: unexpected transport error: %v", name, err)
		}
		if len(res.Content) != 1 {
			t.Fatalf("%s: expected one content block, got %d", name, len(res.Content))
		}
		text, ok := res.Content[0].(mcp.TextContent)
		if !ok {
			t.Fatalf("%s: expected text content, got %T", name, res.Content[0])
		}
		return text.Text, res.IsError
	}
	t.Fatalf("tool %s not registered", name)
	return "", false
}

func TestRegisterAll(t *testing.T) {
	s := server.NewMCPServer("journal-test", "1.0.0", server.WithToolCapabilities(true))
	if err := RegisterAll(s, &Dependencies{}); err == nil {
		t.Error("expected error without a gateway")
	}
	if err := RegisterAll(s, newTestDeps(t)); err != nil {
		t.Fatalf("register: %v", err)
	}

	names := map[string]bool{}
	for _, tl := range all(newTestDeps(t)) {
		if names[tl.def.Name] {
			t.Errorf("duplicate tool %s", tl.def.Name)
		}
		names[tl.def.Name] = true
	}
	for _, want := range []string{
		"journal_list_entries", "journal_list_tasks", "journal_toggle_task", "journal_add_task",
		"journal_create_event", "journal_list_events", "journal_add_transaction",
		"journal_finance_summary", "journal_delete", "journal_activity",
	} {
		if !names[want] {
			t.Errorf("missing tool %s", want)
		}
	}
}

func TestAddAndToggleTask(t *testing.T) {
	deps := newTestDeps(t)
	var changes []records.Kind
	deps.OnChange = func(k records.Kind) { changes = append(changes, k) }

	out, isErr := call(t, deps, "journal_add_task", map[string]any{"title": "Buy milk", "due": "2026-10-20"})
	if isErr {
		t.Fatalf("add task: %s", out)
	}

	tasks, _ := store.Load[records.Task](context.Background(), deps.Gateway, records.KindTasks)
	if len(tasks) != 1 || tasks[0].ID != "id1" || tasks[0].DueDate == nil || tasks[0].DueDate.Day() != 20 {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	if out, isErr := call(t, deps, "journal_toggle_task", map[string]any{"id": "id1"}); isErr || !strings.Contains(out, "completed") {
		t.Errorf("toggle: %s", out)
	}
	if out, _ := call(t, deps, "journal_list_tasks", nil); out != "No tasks found." {
		t.Errorf("completed task should be hidden by default, got %s", out)
	}
	if out, _ := call(t, deps, "journal_list_tasks", map[string]any{"status": "completed"}); !strings.Contains(out, "Buy milk") {
		t.Errorf("expected completed task, got %s", out)
	}

	if len(changes) != 2 {
		t.Errorf("expected 2 change notifications, got %v", changes)
	}
	logged, _ := deps.ActivityLog.ByType(activity.TypeRecord, 10)
	if len(logged) != 2 {
		t.Errorf("expected 2 record activity entries, got %d", len(logged))
	}
}

func TestToolErrors(t *testing.T) {
	deps := newTestDeps(t)
	tests := []struct {
		tool string
		args map[string]any
		want string
	}{
		{"journal_add_task", map[string]any{}, "title is required"},
		{"journal_add_task", map[string]any{"title": "x", "due": "tomorrow"}, "invalid due"},
		{"journal_toggle_task", map[string]any{"id": "missing"}, "task not found"},
		{"journal_delete", map[string]any{"kind": "notes", "id": "x"}, "unknown record kind"},
		{"journal_create_event", map[string]any{"title": "Gym", "date": "2026-10-14", "start": "18:00", "end": "18:00"}, "must differ"},
		{"journal_create_event", map[string]any{"title": "Gym", "date": "2026-10-14", "start": "18:00", "end": "19:00", "repeat": "yearly"}, "repeat"},
		{"journal_add_transaction", map[string]any{"description": "x", "amount": "-5", "type": "expense"}, "non-negative"},
		{"journal_add_transaction", map[string]any{"description": "x", "amount": "5", "type": "gift"}, "invalid transaction type"},
		{"journal_add_transaction", map[string]any{"description": "x", "type": "income"}, "amount is required"},
		{"journal_finance_summary", map[string]any{"month": "October"}, "invalid month"},
	}
	for _, tt := range tests {
		out, isErr := call(t, deps, tt.tool, tt.args)
		if !isErr {
			t.Errorf("%s %v: expected error result, got %s", tt.tool, tt.args, out)
			continue
		}
		if !strings.Contains(out, tt.want) {
			t.Errorf("%s %v: error %q should mention %q", tt.tool, tt.args, out, tt.want)
		}
	}
}

func TestCreateEventWeekly(t *testing.T) {
	deps := newTestDeps(t)
	out, isErr := call(t, deps, "journal_create_event", map[string]any{
		"title": "Standup", "date": "2026-10-14", "start": "09:00", "end": "09:15", "repeat": "weekly",
	})
	if isErr {
		t.Fatalf("create: %s", out)
	}
	if !strings.Contains(out, "Created 12 event(s) and 12 task(s)") {
		t.Errorf("unexpected output: %s", out)
	}

	out, _ = call(t, deps, "journal_list_events", map[string]any{"from": "2026-10-20", "to": "2026-10-28"})
	var listed []records.CalendarEvent
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("decode: %v (%s)", err, out)
	}
	if len(listed) != 2 || listed[0].StartTime.Day() != 21 || listed[1].StartTime.Day() != 28 {
		t.Errorf("unexpected range result: %+v", listed)
	}

	// Deleting an event takes its mirrored task with it
	id := listed[0].ID
	if out, isErr := call(t, deps, "journal_delete", map[string]any{"kind": "events", "id": id}); isErr {
		t.Fatalf("delete: %s", out)
	}
	if _, ok, _ := store.Find[records.Task](context.Background(), deps.Gateway, records.KindTasks, calendar.MirrorTaskID(id)); ok {
		t.Error("mirrored task should be deleted")
	}
}

func TestFinance(t *testing.T) {
	deps := newTestDeps(t)
	add := func(args map[string]any) {
		if out, isErr := call(t, deps, "journal_add_transaction", args); isErr {
			t.Fatalf("add: %s", out)
		}
	}
	add(map[string]any{"description": "Salary", "amount": "2500", "type": "income", "category": "Salary", "date": "2026-10-01"})
	add(map[string]any{"description": "Groceries", "amount": 42.1, "type": "expense", "category": "food", "date": "2026-10-03"})
	add(map[string]any{"description": "Lunch", "amount": "12.40", "type": "expense", "category": "food"})
	add(map[string]any{"description": "Old rent", "amount": "900", "type": "expense", "category": "rent", "date": "2026-09-30"})

	txs, _ := store.Load[records.Transaction](context.Background(), deps.Gateway, records.KindTransactions)
	if !txs[2].Date.Equal(testNow) || txs[0].Category != "salary" {
		t.Errorf("defaults not applied: %+v", txs[2])
	}
	if !txs[1].Amount.Equal(decimal.RequireFromString("42.1")) {
		t.Errorf("float amount should convert exactly, got %s", txs[1].Amount)
	}

	out, isErr := call(t, deps, "journal_finance_summary", nil)
	if isErr {
		t.Fatalf("summary: %s", out)
	}
	var s Summary
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Count != 3 || s.Income != "2500.00" || s.Expense != "54.50" || s.Net != "2445.50" {
		t.Errorf("unexpected summary: %+v", s)
	}
	if s.ByCategory["food"] != "-54.50" || s.From != "2026-10-01" || s.To != "2026-10-31" {
		t.Errorf("unexpected categories or range: %+v", s)
	}

	out, _ = call(t, deps, "journal_finance_summary", map[string]any{"from": "2026-09-01", "to": "2026-09-30"})
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if s.Count != 1 || s.Net != "-900.00" {
		t.Errorf("unexpected september summary: %+v", s)
	}
}

func TestListEntries(t *testing.T) {
	deps := newTestDeps(t)
	ctx := context.Background()
	entries := []records.JournalEntry{
		{ID: "e1", Title: "Market", Content: "Bought apples", Date: testNow.Add(-48 * time.Hour), Tags: []string{"errands"}},
		{ID: "e2", Title: "Hike", Content: "Long walk up the hill", Date: testNow, Tags: []string{"outdoors"}},
	}
	if err := store.Save(ctx, deps.Gateway, records.KindEntries, entries); err != nil {
		t.Fatal(err)
	}

	var got []records.JournalEntry
	out, _ := call(t, deps, "journal_list_entries", nil)
	json.Unmarshal([]byte(out), &got)
	if len(got) != 2 || got[0].ID != "e2" {
		t.Errorf("expected newest first, got %+v", got)
	}

	out, _ = call(t, deps, "journal_list_entries", map[string]any{"tag": "Errands"})
	json.Unmarshal([]byte(out), &got)
	if len(got) != 1 || got[0].ID != "e1" {
		t.Errorf("tag filter: %+v", got)
	}

	out, _ = call(t, deps, "journal_list_entries", map[string]any{"query": "HILL"})
	json.Unmarshal([]byte(out), &got)
	if len(got) != 1 || got[0].ID != "e2" {
		t.Errorf("query filter: %+v", got)
	}

	if out, _ := call(t, deps, "journal_list_entries", map[string]any{"query": "nothing"}); out != "No journal entries found." {
		t.Errorf("unexpected %s", out)
	}
}

func TestActivityTool(t *testing.T) {
	deps := newTestDeps(t)
	deps.ActivityLog.LogFlushFailed("personal", []string{"m1", "m2"}, fmt.Errorf("503"))
	deps.ActivityLog.LogFlushFailed("professional", []string{"m9"}, fmt.Errorf("429"))

	out, isErr := call(t, deps, "journal_activity", map[string]any{"failed_only": true, "stream": "personal"})
	if isErr {
		t.Fatalf("activity: %s", out)
	}
	var got []activity.Entry
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || len(got[0].MessageIDs) != 2 {
		t.Errorf("unexpected failed slices: %+v", got)
	}
}
