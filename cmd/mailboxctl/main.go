// Package main implements mailboxctl, the operational CLI for the
// mailbox state service.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	tableName string
	topicARN  string
)

var rootCmd = &cobra.Command{
	Use:          "mailboxctl <command>",
	Short:        "Operational tooling for the mailbox state service",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&tableName, "table",
		os.Getenv("MAILBOX_TABLE_NAME"), "DynamoDB table holding the mailbox counter")
	rootCmd.AddCommand(provisionCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
