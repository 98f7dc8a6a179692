// Package extract turns new chat input into structured journal candidates
// through the model service.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/llm"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/retry"
)

// DefaultContextLimit bounds how many already-processed messages are sent
// as context
const DefaultContextLimit = 20

// Extractor issues extraction and reply requests
type Extractor struct {
	gen      llm.Generator
	policy   retry.Policy
	primary  string
	fallback string

	// ContextLimit caps the context transcript; <= 0 sends everything
	ContextLimit int
}

// New creates an extractor. fallback may be empty.
func New(gen llm.Generator, policy retry.Policy, primary, fallback string) *Extractor {
	return &Extractor{
		gen:          gen,
		policy:       policy,
		primary:      primary,
		fallback:     fallback,
		ContextLimit: DefaultContextLimit,
	}
}

// Extract sends the context and new input transcripts and returns the
// parsed result. A non-conforming response fails with ErrSchemaViolation
// and is not retried; transport failures follow the retry policy and end
// as *retry.ServiceError.
func (e *Extractor) Extract(ctx context.Context, contextMsgs, input []chat.Message, now time.Time) (Result, error) {
	if len(input) == 0 {
		return Result{}, nil
	}

	req := llm.Request{
		System: extractionSystem,
		Prompt: buildExtractionPrompt(tail(contextMsgs, e.ContextLimit), input, now),
		Schema: responseSchema,
	}

	var result Result
	err := e.policy.Do(ctx, e.primary, e.fallback, func(ctx context.Context, call retry.Call) error {
		req.Model = call.Model
		raw, err := e.gen.Generate(ctx, req)
		if err != nil {
			return err
		}
		logging.Debug("extract", "raw response (%s): %s", call.Model, logging.Truncate(raw, 200))
		parsed, err := ParseResult(raw)
		if err != nil {
			return err
		}
		result = parsed
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrSchemaViolation) {
			return Result{}, err
		}
		return Result{}, fmt.Errorf("extract: %w", err)
	}

	logging.Info("extract", "%d new message(s): hasContent=%v events=%d tasks=%d transactions=%d",
		len(input), result.HasContent, len(result.CalendarEvents), len(result.Tasks), len(result.Transactions))
	return result, nil
}

// Reply generates a conversational answer to the latest message in
// history. Web search is requested unless the policy has degraded the call.
func (e *Extractor) Reply(ctx context.Context, history []chat.Message, now time.Time) (string, error) {
	if len(history) == 0 {
		return "", errors.New("reply: empty history")
	}

	req := llm.Request{
		System: replySystem,
		Prompt: buildReplyPrompt(tail(history, e.ContextLimit), now),
	}

	var reply string
	err := e.policy.Do(ctx, e.primary, e.fallback, func(ctx context.Context, call retry.Call) error {
		req.Model = call.Model
		req.Search = !call.Degraded
		out, err := e.gen.Generate(ctx, req)
		if err != nil {
			return err
		}
		out = strings.TrimSpace(out)
		if out == "" {
			return errors.New("empty reply")
		}
		reply = out
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reply: %w", err)
	}
	return reply, nil
}
