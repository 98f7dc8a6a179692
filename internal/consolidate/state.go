package consolidate

import (
	"errors"
	"fmt"

	"github.com/sumalravindran/My-journal-new/internal/materialize"
)

// State is where a stream's flush cycle currently is
type State int

const (
	StateIdle State = iota
	StateScheduled
	StateExtracting
	StateMaterializing
)

func (s State) String() string {
	switch s {
	case StateScheduled:
		return "scheduled"
	case StateExtracting:
		return "extracting"
	case StateMaterializing:
		return "materializing"
	}
	return "idle"
}

// Outcome summarizes what a flush did
type Outcome int

const (
	// OutcomeNoop means nothing was pending
	OutcomeNoop Outcome = iota
	// OutcomeCoalesced means another flush was in flight and will pick up
	// the new messages when it finishes
	OutcomeCoalesced
	// OutcomeSkipped means the slice was extracted but produced no records
	OutcomeSkipped
	// OutcomeFailed means extraction or persistence failed; the slice stays consumed
	OutcomeFailed
	OutcomeMaterialized
	// OutcomeDetached means a leave flush outlived its timeout and continues
	// in the background
	OutcomeDetached
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCoalesced:
		return "coalesced"
	case OutcomeSkipped:
		return "skipped"
	case OutcomeFailed:
		return "failed"
	case OutcomeMaterialized:
		return "materialized"
	case OutcomeDetached:
		return "detached"
	}
	return "noop"
}

// FlushResult reports a flush. When coalesced triggers made the flush rerun,
// Passes holds every pass in order and the top-level fields summarize them:
// Messages is the total, Outcome the worst pass, Err every pass error and
// Output the last pass that produced records. Err is informational;
// background flushes never return it to their trigger.
type FlushResult struct {
	Outcome  Outcome
	Messages int // size of the consumed slices
	Output   materialize.Output
	Err      error
	Passes   []FlushResult
}

// severity orders pass outcomes for the summary: failed beats materialized
// beats skipped
func (o Outcome) severity() int {
	switch o {
	case OutcomeFailed:
		return 3
	case OutcomeMaterialized:
		return 2
	case OutcomeSkipped:
		return 1
	}
	return 0
}

// then folds the result of a rerun pass into r
func (r FlushResult) then(next FlushResult) FlushResult {
	passes := r.Passes
	if passes == nil {
		passes = []FlushResult{r}
	}
	out := FlushResult{
		Outcome:  r.Outcome,
		Messages: r.Messages + next.Messages,
		Output:   r.Output,
		Err:      errors.Join(r.Err, next.Err),
		Passes:   append(passes, next),
	}
	if next.Outcome.severity() > out.Outcome.severity() {
		out.Outcome = next.Outcome
	}
	if !next.Output.Empty() {
		out.Output = next.Output
	}
	return out
}

// Records counts the records produced across every pass
func (r FlushResult) Records() int {
	if len(r.Passes) == 0 {
		return r.Output.Count()
	}
	n := 0
	for _, p := range r.Passes {
		n += p.Output.Count()
	}
	return n
}

func (r FlushResult) String() string {
	switch r.Outcome {
	case OutcomeMaterialized:
		return fmt.Sprintf("materialized %d record(s) from %d message(s)", r.Records(), r.Messages)
	case OutcomeFailed:
		if n := r.Records(); n > 0 {
			return fmt.Sprintf("failed on %d message(s), %d record(s) saved: %v", r.Messages, n, r.Err)
		}
		return fmt.Sprintf("failed on %d message(s): %v", r.Messages, r.Err)
	case OutcomeSkipped:
		return fmt.Sprintf("nothing to record in %d message(s)", r.Messages)
	}
	return r.Outcome.String()
}
