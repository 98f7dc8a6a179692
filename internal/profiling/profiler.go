// Package profiling records how long each consolidation stage takes, one
// JSON line per measurement.
package profiling

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level determines how detailed the profiling is
type Level string

const (
	LevelOff      Level = "off"      // No profiling
	LevelMinimal  Level = "minimal"  // Whole flushes and replies
	LevelDetailed Level = "detailed" // Extract, materialize and persist substages too
)

// Stage names
const (
	StageFlush       = "flush"
	StageReply       = "reply"
	StageExtract     = "extract"
	StageMaterialize = "materialize"
	StagePersist     = "persist"
)

// ParseLevel accepts a level name; empty means off
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToLower(strings.TrimSpace(s))); l {
	case "", LevelOff:
		return LevelOff, nil
	case LevelMinimal, LevelDetailed:
		return l, nil
	}
	return "", fmt.Errorf("unknown profiling level %q (want off, minimal or detailed)", s)
}

// Timing is a single measurement
type Timing struct {
	Stream     string         `json:"stream"`
	Stage      string         `json:"stage"`
	StartTime  time.Time      `json:"start_time"`
	DurationMs float64        `json:"duration_ms"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Profiler writes timings to a JSONL file. A nil *Profiler is valid and
// records nothing.
type Profiler struct {
	level Level
	path  string

	mu      sync.Mutex
	logFile *os.File
	encoder *json.Encoder
}

// New opens the profile log at path. LevelOff returns a nil profiler.
func New(level Level, path string) (*Profiler, error) {
	if level == LevelOff || level == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create profiling directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open profiling log: %w", err)
	}
	return &Profiler{
		level:   level,
		path:    path,
		logFile: f,
		encoder: json.NewEncoder(f),
	}, nil
}

// Close closes the profiler and its log file
func (p *Profiler) Close() error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.logFile == nil {
		return nil
	}
	err := p.logFile.Close()
	p.logFile, p.encoder = nil, nil
	return err
}

// Start begins timing a stage and returns a function to call when done.
// Metadata may be added to the map until then.
func (p *Profiler) Start(stream, stage string, metadata map[string]any) func() {
	if !p.ShouldProfile(stage) {
		return func() {}
	}

	start := time.Now()
	return func() {
		p.Record(stream, stage, start, time.Since(start), metadata)
	}
}

// Record writes one measurement
func (p *Profiler) Record(stream, stage string, start time.Time, duration time.Duration, metadata map[string]any) {
	if !p.ShouldProfile(stage) {
		return
	}

	timing := Timing{
		Stream:     stream,
		Stage:      stage,
		StartTime:  start,
		DurationMs: float64(duration.Nanoseconds()) / 1e6,
		Metadata:   metadata,
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.encoder != nil {
		_ = p.encoder.Encode(timing)
	}
}

// ShouldProfile reports whether stage is recorded at the configured level
func (p *Profiler) ShouldProfile(stage string) bool {
	if p == nil {
		return false
	}
	switch stage {
	case StageFlush, StageReply:
		return p.level == LevelMinimal || p.level == LevelDetailed
	}
	return p.level == LevelDetailed
}

// Level returns the configured level
func (p *Profiler) Level() Level {
	if p == nil {
		return LevelOff
	}
	return p.level
}

// Read loads every timing from a profile log. A missing file has none.
func Read(path string) ([]Timing, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var timings []Timing
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var t Timing
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			continue // skip torn writes
		}
		timings = append(timings, t)
	}
	return timings, nil
}

// StageStats aggregates the timings of one stage
type StageStats struct {
	Stage string
	Count int
	AvgMs float64
	MaxMs float64
}

// Summarize aggregates timings per stage, ordered by stage name
func Summarize(timings []Timing) []StageStats {
	byStage := map[string]*StageStats{}
	totals := map[string]float64{}
	for _, t := range timings {
		s, ok := byStage[t.Stage]
		if !ok {
			s = &StageStats{Stage: t.Stage}
			byStage[t.Stage] = s
		}
		s.Count++
		totals[t.Stage] += t.DurationMs
		if t.DurationMs > s.MaxMs {
			s.MaxMs = t.DurationMs
		}
	}

	out := make([]StageStats, 0, len(byStage))
	for stage, s := range byStage {
		s.AvgMs = totals[stage] / float64(s.Count)
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Stage < out[j].Stage })
	return out
}
