package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/records"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

func newListCmd() *cobra.Command {
	var (
		limit      int
		formatFlag string
	)

	cmd := &cobra.Command{
		Use:       "list <entries|tasks|events|transactions>",
		Short:     "List stored records",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"entries", "tasks", "events", "transactions"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := records.ParseKind(args[0])
			if err != nil {
				return err
			}
			a, err := newApp(options(false))
			if err != nil {
				return err
			}
			defer a.shutdown()

			return writeList(cmd.Context(), cmd.OutOrStdout(), a.gateway, kind, limit, strings.ToLower(formatFlag))
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 0, "show only the last N records (0 means all)")
	flags.StringVar(&formatFlag, "format", "table", "output format: table or json")
	return cmd
}

func writeList(ctx context.Context, w io.Writer, g store.Gateway, kind records.Kind, limit int, format string) error {
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}

	switch kind {
	case records.KindEntries:
		recs, err := store.Load[records.JournalEntry](ctx, g, kind)
		if err != nil {
			return err
		}
		recs = last(recs, limit)
		if format == "json" {
			return writeJSON(w, recs)
		}
		return writeTable(w, []string{"ID", "DATE", "TITLE", "TAGS", "LINKED"}, len(recs), func(i int) []string {
			e := recs[i]
			linked := len(e.Tasks) + len(e.CalendarEvents) + len(e.Transactions)
			return []string{e.ID, e.Date.Format("2006-01-02 15:04"), logging.Truncate(e.Title, 50), strings.Join(e.Tags, ","), fmt.Sprint(linked)}
		})

	case records.KindTasks:
		recs, err := store.Load[records.Task](ctx, g, kind)
		if err != nil {
			return err
		}
		recs = last(recs, limit)
		if format == "json" {
			return writeJSON(w, recs)
		}
		return writeTable(w, []string{"ID", "DONE", "DUE", "TITLE"}, len(recs), func(i int) []string {
			t := recs[i]
			done := " "
			if t.Completed {
				done = "x"
			}
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02 15:04")
			}
			return []string{t.ID, done, due, logging.Truncate(t.Title, 60)}
		})

	case records.KindEvents:
		recs, err := store.Load[records.CalendarEvent](ctx, g, kind)
		if err != nil {
			return err
		}
		recs = last(recs, limit)
		if format == "json" {
			return writeJSON(w, recs)
		}
		return writeTable(w, []string{"ID", "START", "END", "TITLE"}, len(recs), func(i int) []string {
			e := recs[i]
			return []string{e.ID, e.StartTime.Format("2006-01-02 15:04"), e.EndTime.Format(timeOrDate(e.StartTime, e.EndTime)), logging.Truncate(e.Title, 60)}
		})

	case records.KindTransactions:
		recs, err := store.Load[records.Transaction](ctx, g, kind)
		if err != nil {
			return err
		}
		recs = last(recs, limit)
		if format == "json" {
			return writeJSON(w, recs)
		}
		return writeTable(w, []string{"ID", "DATE", "AMOUNT", "CATEGORY", "DESCRIPTION"}, len(recs), func(i int) []string {
			t := recs[i]
			return []string{t.ID, t.Date.Format("2006-01-02"), t.Signed().StringFixed(2), t.Category, logging.Truncate(t.Description, 60)}
		})
	}
	return fmt.Errorf("unknown record kind %q", kind)
}

func last[T any](recs []T, n int) []T {
	if n > 0 && len(recs) > n {
		return recs[len(recs)-n:]
	}
	return recs
}

// timeOrDate shows only the clock for events ending on their start day
func timeOrDate(start, end time.Time) string {
	if start.Year() == end.Year() && start.YearDay() == end.YearDay() {
		return "15:04"
	}
	return "2006-01-02 15:04"
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, header []string, n int, row func(i int) []string) error {
	if n == 0 {
		_, err := fmt.Fprintln(w, "no records")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, strings.Join(row(i), "\t"))
	}
	return tw.Flush()
}
