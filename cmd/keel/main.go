package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "keel",
		Short: "keel - capture tooling for the keel state runtime",
		Long: `keel inspects and verifies action capture files recorded from a
running store. Captures are JSON logs of every dispatched action and can be
replayed through an application's reducer to reproduce state.`,
	}

	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("keel %s (commit=%s, date=%s)\n", version, commit, date)
		},
	}
}
