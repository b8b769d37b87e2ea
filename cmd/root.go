// Package cmd contains the answerd command-line interface.
//
// Following the pattern used by kubectl, hugo, and other standard Go CLI
// tools, all application logic is contained in the cmd package, leaving
// main.go as a minimal entry point.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "answerd",
	Short: "answerd - adaptive RAG answering service",
	Long: `answerd answers questions from a weighted knowledge base and learns
from feedback: every answer records a reasoning trace, and feedback adjusts
chunk accuracy weights and workflow embeddings that boost future retrieval.

Run "answerd serve" to start the HTTP API.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
