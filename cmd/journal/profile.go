package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/profiling"
)

func newProfileCmd() *cobra.Command {
	var stream string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Summarize consolidation stage timings (enable with JOURNAL_PROFILE=minimal|detailed)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(options(false))
			if err != nil {
				return err
			}
			defer a.shutdown()

			timings, err := profiling.Read(a.cfg.ProfilePath())
			if err != nil {
				return err
			}
			if stream != "" {
				kept := timings[:0]
				for _, t := range timings {
					if t.Stream == stream {
						kept = append(kept, t)
					}
				}
				timings = kept
			}
			return writeProfile(cmd.OutOrStdout(), profiling.Summarize(timings))
		},
	}
	cmd.Flags().StringVar(&stream, "stream", "", "only timings of this stream")
	return cmd
}

func writeProfile(w io.Writer, stats []profiling.StageStats) error {
	if len(stats) == 0 {
		_, err := fmt.Fprintln(w, "no timings recorded")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tCOUNT\tAVG MS\tMAX MS")
	for _, s := range stats {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%.1f\n", s.Stage, s.Count, s.AvgMs, s.MaxMs)
	}
	return tw.Flush()
}
