package extract

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSchemaViolation means the model output could not be parsed into a Result
var ErrSchemaViolation = errors.New("schema violation")

// EventCandidate is a calendar event proposed by the model
type EventCandidate struct {
	Title       string `json:"title"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime,omitempty"`
	Description string `json:"description,omitempty"`
}

// TaskCandidate is a to-do proposed by the model
type TaskCandidate struct {
	Title   string `json:"title"`
	DueDate string `json:"dueDate,omitempty"`
}

// TransactionCandidate is a finance record proposed by the model
type TransactionCandidate struct {
	Description string `json:"description"`
	Amount      Number `json:"amount"`
	Type        string `json:"type"`
	Category    string `json:"category,omitempty"`
	Date        string `json:"date"`
}

// Result is the validated extraction output for one slice
type Result struct {
	HasContent     bool                   `json:"hasContent"`
	Title          string                 `json:"title,omitempty"`
	Content        string                 `json:"content,omitempty"`
	Tags           []string               `json:"tags"`
	CalendarEvents []EventCandidate       `json:"calendarEvents"`
	Tasks          []TaskCandidate        `json:"tasks"`
	Transactions   []TransactionCandidate `json:"transactions"`
}

// Empty reports whether the result carries nothing to materialize
func (r Result) Empty() bool {
	return !r.HasContent && len(r.CalendarEvents) == 0 && len(r.Tasks) == 0 && len(r.Transactions) == 0
}

// Number accepts a JSON number or a numeric string; models emit both
type Number string

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return err
	}
	*n = Number(num.String())
	return nil
}

// wireResult mirrors Result with a pointer flag so a missing hasContent is
// detectable
type wireResult struct {
	HasContent     *bool                  `json:"hasContent"`
	Title          string                 `json:"title"`
	Content        string                 `json:"content"`
	Tags           []string               `json:"tags"`
	CalendarEvents []EventCandidate       `json:"calendarEvents"`
	Tasks          []TaskCandidate        `json:"tasks"`
	Transactions   []TransactionCandidate `json:"transactions"`
}

// ParseResult strips code fences from raw model output and decodes it.
// Any structural mismatch is an ErrSchemaViolation.
func ParseResult(raw string) (Result, error) {
	body := StripFences(raw)
	if body == "" {
		return Result{}, fmt.Errorf("%w: empty response", ErrSchemaViolation)
	}

	var w wireResult
	dec := json.NewDecoder(strings.NewReader(body))
	if err := dec.Decode(&w); err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if w.HasContent == nil {
		return Result{}, fmt.Errorf("%w: missing hasContent", ErrSchemaViolation)
	}

	return Result{
		HasContent:     *w.HasContent,
		Title:          strings.TrimSpace(w.Title),
		Content:        strings.TrimSpace(w.Content),
		Tags:           w.Tags,
		CalendarEvents: w.CalendarEvents,
		Tasks:          w.Tasks,
		Transactions:   w.Transactions,
	}, nil
}

// StripFences extracts the body of a ``` or ```json code block, or returns
// the trimmed input when there is none
func StripFences(s string) string {
	if start := strings.Index(s, "```json"); start != -1 {
		start += 7
		if end := strings.Index(s[start:], "```"); end != -1 {
			return strings.TrimSpace(s[start : start+end])
		}
	}
	if start := strings.Index(s, "```"); start != -1 {
		start += 3
		if end := strings.Index(s[start:], "```"); end != -1 {
			body := strings.TrimSpace(s[start : start+end])
			// Drop a language tag line such as "JSON"
			if nl := strings.Index(body, "\n"); nl != -1 && !strings.HasPrefix(body, "{") {
				body = body[nl+1:]
			}
			return strings.TrimSpace(body)
		}
	}
	return strings.TrimSpace(s)
}
