// Package consolidate incrementally turns conversation streams into journal
// records. Each stream has one Session: a persisted cursor, a debounce timer
// and at most one extraction in flight.
package consolidate

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/activity"
	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/extract"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/materialize"
	"github.com/sumalravindran/My-journal-new/internal/profiling"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/retry"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

const (
	DefaultDebounce     = 2 * time.Second
	DefaultLeaveTimeout = 10 * time.Second
)

// ErrClosed is returned when appending to a closed session
var ErrClosed = errors.New("session closed")

// Extractor is the model-facing side of consolidation
type Extractor interface {
	Extract(ctx context.Context, contextMsgs, input []chat.Message, now time.Time) (extract.Result, error)
	Reply(ctx context.Context, history []chat.Message, now time.Time) (string, error)
}

// Config wires a session to its collaborators
type Config struct {
	Chats        *chat.Store // nil keeps streams in memory only
	Extractor    Extractor
	Materializer *materialize.Materializer
	Gateway      store.Gateway
	Activity     *activity.Log       // optional
	Profiler     *profiling.Profiler // optional

	Debounce     time.Duration
	LeaveTimeout time.Duration
	Now          func() time.Time

	// OnRefresh is called after records were persisted
	OnRefresh func(stream chat.StreamID, out materialize.Output)
}

func (c Config) withDefaults() Config {
	if c.Debounce <= 0 {
		c.Debounce = DefaultDebounce
	}
	if c.LeaveTimeout <= 0 {
		c.LeaveTimeout = DefaultLeaveTimeout
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Materializer == nil {
		c.Materializer = materialize.New()
	}
	return c
}

// Session owns one conversation stream
type Session struct {
	cfg Config

	mu       sync.Mutex
	stream   *chat.Stream
	timer    *time.Timer
	timerGen uint64
	state    State
	inFlight bool
	rerun    bool
	idle     chan struct{} // closed when the in-flight flush finishes
	last     FlushResult
	closed   bool
	wg       sync.WaitGroup
}

// claimed is a slice taken off the stream for one extraction
type claimed struct {
	context []chat.Message
	input   []chat.Message
}

// NewSession creates a session for stream
func NewSession(stream *chat.Stream, cfg Config) *Session {
	return &Session{cfg: cfg.withDefaults(), stream: stream}
}

// ID returns the stream id
func (s *Session) ID() chat.StreamID {
	return s.stream.ID
}

// State returns the current flush state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Messages returns a copy of the stream
func (s *Session) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.Snapshot()
}

// Processed returns the cursor position
func (s *Session) Processed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stream.Processed
}

// Append adds m to the stream and restarts the debounce timer. The returned
// error reports a failed stream save; the message is still appended.
func (s *Session) Append(m chat.Message, source string) (chat.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return chat.Message{}, ErrClosed
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = s.cfg.Now()
	}
	stored := s.stream.Append(m)
	s.scheduleLocked()

	s.logActivity(func(l *activity.Log) error {
		return l.LogMessage(string(s.stream.ID), source, string(stored.Role), logging.Truncate(chat.FormatMessage(stored), 80))
	})

	if err := s.saveLocked(); err != nil {
		return stored, err
	}
	return stored, nil
}

// Send appends a user message, asks the model for a reply and appends it.
// A failed reply becomes an assistant message explaining the problem, so
// Send only fails when the session is closed.
func (s *Session) Send(ctx context.Context, m chat.Message, source string) (chat.Message, error) {
	m.Role = chat.RoleUser
	if _, err := s.Append(m, source); err != nil {
		if errors.Is(err, ErrClosed) {
			return chat.Message{}, err
		}
		logging.Warn("consolidate", "[%s] %v", s.ID(), err)
	}

	done := s.cfg.Profiler.Start(string(s.ID()), profiling.StageReply, nil)
	reply, err := s.cfg.Extractor.Reply(ctx, s.Messages(), s.cfg.Now())
	done()
	text := reply
	if err != nil {
		text = DegradedReply(err)
		logging.Warn("consolidate", "[%s] reply failed: %v", s.ID(), err)
		s.logActivity(func(l *activity.Log) error { return l.LogReplyFailed(string(s.ID()), source, err) })
	} else {
		s.logActivity(func(l *activity.Log) error { return l.LogReply(string(s.ID()), source, logging.Truncate(reply, 200)) })
	}

	stored, aerr := s.Append(chat.Message{Role: chat.RoleAssistant, Text: text}, source)
	if aerr != nil && errors.Is(aerr, ErrClosed) {
		return chat.Message{}, aerr
	}
	if aerr != nil {
		logging.Warn("consolidate", "[%s] %v", s.ID(), aerr)
	}
	return stored, nil
}

// DegradedReply is the assistant message shown when a reply fails
func DegradedReply(err error) string {
	switch retry.Classify(err) {
	case retry.RateLimited:
		return "I'm getting too many requests right now. Your message is saved, so try again in a minute."
	case retry.ServerOverload:
		return "The assistant service is overloaded at the moment. Your message is saved and will still be journaled."
	case retry.NotFound, retry.Forbidden:
		return "The assistant model isn't available with the current configuration. Your message is saved."
	}
	return "Sorry, I couldn't reply just now. Your message is saved."
}

// Flush consolidates the pending slice now. If a flush is already in
// flight the call is coalesced into it. Failures are reported in the result
// and never returned as errors.
func (s *Session) Flush(ctx context.Context, source string) FlushResult {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return FlushResult{Outcome: OutcomeNoop}
	}
	s.stopTimerLocked()
	if s.inFlight {
		s.rerun = true
		s.mu.Unlock()
		logging.Debug("consolidate", "[%s] flush (%s) coalesced into in-flight pass", s.ID(), source)
		return FlushResult{Outcome: OutcomeCoalesced}
	}
	sl, ok := s.claimLocked(source)
	if !ok {
		s.state = StateIdle
		s.mu.Unlock()
		return FlushResult{Outcome: OutcomeNoop}
	}
	s.inFlight = true
	s.idle = make(chan struct{})
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	res := s.process(ctx, sl)
	for {
		s.mu.Lock()
		if !s.rerun || s.closed {
			s.finishLocked(res)
			s.mu.Unlock()
			return res
		}
		s.rerun = false
		next, ok := s.claimLocked("rerun")
		s.mu.Unlock()
		if ok {
			res = res.then(s.process(ctx, next))
		}
	}
}

// Leave forces a flush when the user leaves the conversation. It waits for
// the result at most LeaveTimeout; a slower flush carries on in the
// background.
func (s *Session) Leave(ctx context.Context) FlushResult {
	s.mu.Lock()
	s.stopTimerLocked()
	s.mu.Unlock()

	done := make(chan FlushResult, 1)
	go func() {
		done <- s.flushAndWait(context.WithoutCancel(ctx))
	}()

	timer := time.NewTimer(s.cfg.LeaveTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r
	case <-timer.C:
		logging.Info("consolidate", "[%s] leave flush still running after %v, continuing in background", s.ID(), s.cfg.LeaveTimeout)
	case <-ctx.Done():
	}
	return FlushResult{Outcome: OutcomeDetached}
}

// flushAndWait flushes and, when coalesced, waits for the in-flight pass
func (s *Session) flushAndWait(ctx context.Context) FlushResult {
	r := s.Flush(ctx, "leave")
	if r.Outcome != OutcomeCoalesced {
		return r
	}
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()
	if idle != nil {
		<-idle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Close stops the timer and waits for an in-flight flush to finish.
// Pending messages stay pending; call Leave first to consolidate them.
func (s *Session) Close() {
	s.mu.Lock()
	s.closed = true
	s.stopTimerLocked()
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *Session) scheduleLocked() {
	s.stopTimerLocked()
	gen := s.timerGen
	s.timer = time.AfterFunc(s.cfg.Debounce, func() { s.fire(gen) })
	if !s.inFlight {
		s.state = StateScheduled
	}
}

// stopTimerLocked cancels the pending timer. Bumping the generation makes a
// callback that already fired a no-op.
func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerGen++
}

func (s *Session) fire(gen uint64) {
	s.mu.Lock()
	if s.closed || gen != s.timerGen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	s.Flush(context.Background(), "timer")
}

// claimLocked takes the pending slice and advances the cursor past it
// before any model call, persisting the new position.
func (s *Session) claimLocked(source string) (claimed, bool) {
	cur := CursorOf(s.stream)
	ctxMsgs, input := cur.Pending()
	if len(input) == 0 {
		return claimed{}, false
	}

	from, to := cur.Position(), s.stream.Len()
	sl := claimed{context: slices.Clone(ctxMsgs), input: slices.Clone(input)}
	if err := cur.Advance(to); err != nil {
		logging.Warn("consolidate", "[%s] %v", s.ID(), err)
		return claimed{}, false
	}
	if err := s.saveLocked(); err != nil {
		logging.Warn("consolidate", "[%s] cursor advanced in memory only: %v", s.ID(), err)
	}
	s.state = StateExtracting

	logging.Debug("consolidate", "[%s] flush (%s): messages %d..%d", s.ID(), source, from, to)
	s.logActivity(func(l *activity.Log) error {
		return l.LogFlush(string(s.stream.ID), source, messageIDs(sl.input), from, to)
	})
	return sl, true
}

func (s *Session) finishLocked(res FlushResult) {
	s.inFlight = false
	s.rerun = false
	s.last = res
	if s.idle != nil {
		close(s.idle)
		s.idle = nil
	}
	if s.timer != nil {
		s.state = StateScheduled
	} else {
		s.state = StateIdle
	}
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// process runs extraction and materialization for one claimed slice. The
// model call ignores ctx cancellation once started.
func (s *Session) process(ctx context.Context, sl claimed) FlushResult {
	start := time.Now()
	callCtx := context.WithoutCancel(ctx)
	id := string(s.ID())
	n := len(sl.input)

	meta := map[string]any{"messages": n}
	defer s.cfg.Profiler.Start(id, profiling.StageFlush, meta)()

	done := s.cfg.Profiler.Start(id, profiling.StageExtract, nil)
	result, err := s.cfg.Extractor.Extract(callCtx, sl.context, sl.input, s.cfg.Now())
	done()
	if err != nil {
		if errors.Is(err, extract.ErrSchemaViolation) {
			logging.Info("consolidate", "[%s] model output rejected, skipping %d message(s): %v", id, n, err)
		} else {
			logging.Warn("consolidate", "[%s] extraction failed, skipping %d message(s): %v", id, n, err)
		}
		s.logActivity(func(l *activity.Log) error { return l.LogFlushFailed(id, messageIDs(sl.input), err) })
		meta["outcome"] = OutcomeFailed.String()
		return FlushResult{Outcome: OutcomeFailed, Messages: n, Err: err}
	}

	s.setState(StateMaterializing)
	done = s.cfg.Profiler.Start(id, profiling.StageMaterialize, nil)
	out := s.cfg.Materializer.Materialize(result, sl.input)
	done()
	meta["batch_id"] = out.BatchID
	if out.Empty() {
		meta["outcome"] = OutcomeSkipped.String()
		logging.Debug("consolidate", "[%s] nothing to record in %d message(s)", id, n)
		return FlushResult{Outcome: OutcomeSkipped, Messages: n, Output: out}
	}

	done = s.cfg.Profiler.Start(id, profiling.StagePersist, map[string]any{"records": out.Count()})
	err = materialize.Persist(callCtx, s.cfg.Gateway, out)
	done()
	if err != nil {
		logging.Warn("consolidate", "[%s] batch %s only partly saved: %v", id, out.BatchID, err)
		s.logActivity(func(l *activity.Log) error {
			return l.LogFlushFailed(id, messageIDs(sl.input), fmt.Errorf("persist batch %s: %w", out.BatchID, err))
		})
		s.refresh(out)
		meta["outcome"] = OutcomeFailed.String()
		return FlushResult{Outcome: OutcomeFailed, Messages: n, Output: out, Err: err}
	}
	s.refresh(out)

	elapsed := time.Since(start)
	logging.Info("consolidate", "[%s] batch %s: entry=%v tasks=%d events=%d transactions=%d (%.1fs)",
		id, out.BatchID, out.Entry != nil, len(out.Tasks), len(out.Events), len(out.Transactions), elapsed.Seconds())
	s.logActivity(func(l *activity.Log) error {
		return l.LogMaterialized(id, out.BatchID, outputCounts(out), elapsed.Seconds())
	})
	meta["outcome"] = OutcomeMaterialized.String()
	return FlushResult{Outcome: OutcomeMaterialized, Messages: n, Output: out}
}

func (s *Session) refresh(out materialize.Output) {
	if s.cfg.OnRefresh != nil {
		s.cfg.OnRefresh(s.ID(), out)
	}
}

func (s *Session) saveLocked() error {
	if s.cfg.Chats == nil {
		return nil
	}
	return s.cfg.Chats.Save(s.stream)
}

func (s *Session) logActivity(fn func(l *activity.Log) error) {
	if s.cfg.Activity == nil {
		return
	}
	if err := fn(s.cfg.Activity); err != nil {
		logging.Debug("consolidate", "activity log write failed: %v", err)
	}
}

func messageIDs(msgs []chat.Message) []string {
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}

func outputCounts(out materialize.Output) map[string]int {
	counts := map[string]int{
		string(records.KindTasks):        len(out.Tasks),
		string(records.KindEvents):       len(out.Events),
		string(records.KindTransactions): len(out.Transactions),
	}
	if out.Entry != nil {
		counts[string(records.KindEntries)] = 1
	}
	return counts
}
