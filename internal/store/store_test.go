package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sumalravindran/My-journal-new/internal/records"
)

// gateways returns one instance of every backend, each isolated in its own temp dir
func gateways(t *testing.T) map[string]Gateway {
	t.Helper()

	sq, err := OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Gateway{
		"memory": NewMemory(),
		"json":   NewJSONStore(t.TempDir()),
		"sqlite": sq,
	}
}

func TestGateway_MergeByID(t *testing.T) {
	ctx := context.Background()
	for name, g := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			first := []records.Task{
				{ID: "a", Title: "Buy milk"},
				{ID: "b", Title: "Call mom"},
			}
			if err := Save(ctx, g, records.KindTasks, first); err != nil {
				t.Fatalf("Save: %v", err)
			}

			// Replace b, append c
			second := []records.Task{
				{ID: "b", Title: "Call mom", Completed: true},
				{ID: "c", Title: "Water plants"},
			}
			if err := Save(ctx, g, records.KindTasks, second); err != nil {
				t.Fatalf("Save: %v", err)
			}

			tasks, err := Load[records.Task](ctx, g, records.KindTasks)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if len(tasks) != 3 {
				t.Fatalf("expected 3 tasks, got %d", len(tasks))
			}
			wantOrder := []string{"a", "b", "c"}
			for i, id := range wantOrder {
				if tasks[i].ID != id {
					t.Errorf("position %d: expected %s, got %s", i, id, tasks[i].ID)
				}
			}
			if !tasks[1].Completed {
				t.Error("expected b to be replaced with completed version")
			}
		})
	}
}

func TestGateway_DeleteByID(t *testing.T) {
	ctx := context.Background()
	for name, g := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			Save(ctx, g, records.KindEvents, []records.CalendarEvent{
				{ID: "e1", Title: "Dentist", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)},
				{ID: "e2", Title: "Gym", StartTime: time.Now(), EndTime: time.Now().Add(time.Hour)},
			})

			if err := g.DeleteByID(ctx, records.KindEvents, "e1"); err != nil {
				t.Fatalf("DeleteByID: %v", err)
			}
			if err := g.DeleteByID(ctx, records.KindEvents, "missing"); err != nil {
				t.Errorf("deleting a missing id should not fail: %v", err)
			}

			events, _ := Load[records.CalendarEvent](ctx, g, records.KindEvents)
			if len(events) != 1 || events[0].ID != "e2" {
				t.Errorf("unexpected events after delete: %+v", events)
			}
		})
	}
}

func TestGateway_KindsAreIndependent(t *testing.T) {
	ctx := context.Background()
	for name, g := range gateways(t) {
		t.Run(name, func(t *testing.T) {
			Save(ctx, g, records.KindTasks, []records.Task{{ID: "x", Title: "task"}})
			Save(ctx, g, records.KindTransactions, []records.Transaction{{
				ID: "x", Description: "Salary", Amount: decimal.NewFromInt(100),
				Type: records.Income, Date: time.Now(),
			}})

			tasks, _ := Load[records.Task](ctx, g, records.KindTasks)
			txs, _ := Load[records.Transaction](ctx, g, records.KindTransactions)
			if len(tasks) != 1 || len(txs) != 1 {
				t.Fatalf("expected one record per kind, got %d tasks and %d transactions", len(tasks), len(txs))
			}
			if !txs[0].Amount.Equal(decimal.NewFromInt(100)) {
				t.Errorf("amount did not round-trip: %s", txs[0].Amount)
			}
		})
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	g := NewMemory()
	Save(ctx, g, records.KindTasks, []records.Task{{ID: "t1", Title: "one"}})

	task, ok, err := Find[records.Task](ctx, g, records.KindTasks, "t1")
	if err != nil || !ok || task.Title != "one" {
		t.Errorf("Find t1 = %+v, %v, %v", task, ok, err)
	}
	if _, ok, _ := Find[records.Task](ctx, g, records.KindTasks, "nope"); ok {
		t.Error("expected missing id to report false")
	}
}

func TestSave_RejectsEmptyID(t *testing.T) {
	err := Save(context.Background(), NewMemory(), records.KindTasks, []records.Task{{Title: "no id"}})
	if err == nil {
		t.Error("expected error for record without id")
	}
}

func TestMemory_FailPut(t *testing.T) {
	g := NewMemory()
	boom := errors.New("disk full")
	g.FailPut = map[records.Kind]error{records.KindTransactions: boom}

	err := Save(context.Background(), g, records.KindTransactions, []records.Transaction{{ID: "t"}})
	if !errors.Is(err, boom) {
		t.Errorf("expected injected error, got %v", err)
	}
}

func TestOpen(t *testing.T) {
	for _, backend := range []string{"json", "sqlite", "memory"} {
		g, closeFn, err := Open(backend, t.TempDir())
		if err != nil {
			t.Fatalf("%s: %v", backend, err)
		}
		if err := Save(context.Background(), g, records.KindTasks, []records.Task{{ID: "x", Title: "t"}}); err != nil {
			t.Errorf("%s: save: %v", backend, err)
		}
		if err := closeFn(); err != nil {
			t.Errorf("%s: close: %v", backend, err)
		}
	}
	if _, _, err := Open("postgres", t.TempDir()); err == nil {
		t.Error("expected error for unknown backend")
	}
}
