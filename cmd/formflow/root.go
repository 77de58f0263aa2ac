package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formflow",
	Short: "FormFlow resolves conversational form flows",
	Long: `FormFlow stores question graphs, projects them to an editor canvas and
decides the next question from the respondent's answers, asking a language
model only the prompts each form authored.

Settings come from FORMFLOW_* environment variables (and a .env file);
flags override them.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("store", "", "Form store backend: memory, file or redis")
	rootCmd.PersistentFlags().String("dir", "", "Directory of the file store")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")
}
