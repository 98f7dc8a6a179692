package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/consolidate"
)

func newFlushCmd() *cobra.Command {
	var streams []string

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Consolidate messages that were never flushed, e.g. after a crash",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(options(true))
			if err != nil {
				return err
			}
			defer a.shutdown()

			failed := 0
			for _, stream := range streams {
				session, err := a.session(stream)
				if err != nil {
					return err
				}
				res := session.Flush(cmd.Context(), "cli")
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s\n", stream, res)
				if res.Outcome == consolidate.OutcomeFailed {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d stream(s) failed to consolidate; see `journal activity --failed`", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&streams, "stream",
		[]string{string(chat.StreamPersonal), string(chat.StreamProfessional)}, "streams to flush")
	return cmd
}
