// Command journal runs the chat journal: an interactive chat that is
// consolidated into journal entries, tasks, events and transactions in the
// background, plus commands to inspect what was recorded.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sumalravindran/My-journal-new/internal/logging"
)

var (
	configPath string
	statePath  string
	storeName  string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "journal",
	Short: "Chat journal that turns conversations into structured records",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			logging.SetDebug(true)
		}
	},
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "config file (default $JOURNAL_CONFIG or ./journal.yaml)")
	flags.StringVar(&statePath, "state", "", "override the state directory")
	flags.StringVar(&storeName, "store", "", "override the record store backend: json, sqlite or memory")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newFlushCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newActivityCmd())
	rootCmd.AddCommand(newDiscordCmd())
	rootCmd.AddCommand(newProfileCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "journal: %v\n", err)
		os.Exit(1)
	}
}

func options(withModel bool) appOptions {
	return appOptions{
		configPath: configPath,
		statePath:  statePath,
		store:      storeName,
		withModel:  withModel,
	}
}
