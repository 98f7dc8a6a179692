package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/activity"
)

func newActivityCmd() *cobra.Command {
	var (
		limit      int
		typeFilter string
		query      string
		failed     bool
		stream     string
		today      bool
	)

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show the activity log",
		Long:  "Show the activity log. --failed lists chat slices whose extraction failed; their messages were never turned into records.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(options(false))
			if err != nil {
				return err
			}
			defer a.shutdown()

			var entries []activity.Entry
			switch {
			case failed:
				entries, err = a.activity.FailedSlices(stream)
			case today:
				entries, err = a.activity.Today()
			case typeFilter != "":
				entries, err = a.activity.ByType(activity.Type(typeFilter), limit)
			case query != "":
				entries, err = a.activity.Search(query, limit)
			default:
				entries, err = a.activity.Recent(limit)
			}
			if err != nil {
				return err
			}
			return writeActivity(cmd.OutOrStdout(), entries)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&limit, "limit", 20, "maximum entries")
	flags.StringVar(&typeFilter, "type", "", "only entries of this type (message, flush, materialized, flush_failed, ...)")
	flags.StringVar(&query, "search", "", "case-insensitive text search")
	flags.BoolVar(&failed, "failed", false, "list failed slices")
	flags.StringVar(&stream, "stream", "", "stream for --failed (default all)")
	flags.BoolVar(&today, "today", false, "only entries from today")
	return cmd
}

func writeActivity(w io.Writer, entries []activity.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "no activity")
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s %-14s", e.Timestamp.Format("2006-01-02 15:04:05"), e.Type)
		if e.Stream != "" {
			line += " [" + e.Stream + "]"
		}
		line += " " + e.Summary
		if len(e.MessageIDs) > 0 {
			line += " (messages: " + strings.Join(e.MessageIDs, ", ") + ")"
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
