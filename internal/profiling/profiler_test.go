package profiling

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestProfiler(t *testing.T, level Level) (*Profiler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "system", "profile.jsonl")
	p, err := New(level, path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { p.Close() })
	return p, path
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelOff, "off": LevelOff, "Minimal": LevelMinimal, " detailed ": LevelDetailed} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLevel("trace"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNilProfilerIsOff(t *testing.T) {
	p, err := New(LevelOff, filepath.Join(t.TempDir(), "never.jsonl"))
	if err != nil || p != nil {
		t.Fatalf("expected nil profiler, got %v, %v", p, err)
	}
	// Every method is safe on nil
	p.Start("personal", StageFlush, nil)()
	p.Record("personal", StageFlush, time.Now(), time.Second, nil)
	if p.ShouldProfile(StageFlush) || p.Level() != LevelOff || p.Close() != nil {
		t.Error("nil profiler should be inert")
	}
}

func TestShouldProfile(t *testing.T) {
	tests := []struct {
		level Level
		stage string
		want  bool
	}{
		{LevelMinimal, StageFlush, true},
		{LevelMinimal, StageReply, true},
		{LevelMinimal, StageExtract, false},
		{LevelMinimal, StagePersist, false},
		{LevelDetailed, StageFlush, true},
		{LevelDetailed, StageMaterialize, true},
	}
	for _, tt := range tests {
		p, _ := newTestProfiler(t, tt.level)
		if got := p.ShouldProfile(tt.stage); got != tt.want {
			t.Errorf("%s/%s: got %v, want %v", tt.level, tt.stage, got, tt.want)
		}
	}
}

func TestStartRecordsTiming(t *testing.T) {
	p, path := newTestProfiler(t, LevelMinimal)

	meta := map[string]any{}
	done := p.Start("personal", StageFlush, meta)
	time.Sleep(5 * time.Millisecond)
	meta["messages"] = 3
	done()
	p.Start("personal", StageExtract, nil)() // below level

	timings, err := Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(timings) != 1 {
		t.Fatalf("expected 1 timing, got %d", len(timings))
	}
	got := timings[0]
	if got.Stream != "personal" || got.Stage != StageFlush || got.DurationMs < 5 {
		t.Errorf("unexpected timing: %+v", got)
	}
	if got.Metadata["messages"] != float64(3) {
		t.Errorf("metadata added before done should be recorded: %v", got.Metadata)
	}
}

func TestReadMissing(t *testing.T) {
	timings, err := Read(filepath.Join(t.TempDir(), "missing.jsonl"))
	if err != nil || len(timings) != 0 {
		t.Errorf("expected empty read, got %v, %v", timings, err)
	}
}

func TestSummarize(t *testing.T) {
	stats := Summarize([]Timing{
		{Stage: StageFlush, DurationMs: 100},
		{Stage: StageFlush, DurationMs: 300},
		{Stage: StageExtract, DurationMs: 50},
	})
	if len(stats) != 2 || stats[0].Stage != StageExtract || stats[1].Stage != StageFlush {
		t.Fatalf("unexpected order: %+v", stats)
	}
	if f := stats[1]; f.Count != 2 || f.AvgMs != 200 || f.MaxMs != 300 {
		t.Errorf("unexpected flush stats: %+v", f)
	}
}
