// Package main provides the xlchunk command line tool.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xlchunk",
		Short: "Read spreadsheets in chunks and write records to xlsx or csv",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogging(cmd.ErrOrStderr(), logLevel, logFormat)
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text, json")

	rootCmd.AddCommand(newDescribeCmd(), newDumpCmd(), newConvertCmd())
	return rootCmd
}
