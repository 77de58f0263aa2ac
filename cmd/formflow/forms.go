package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var formsCmd = &cobra.Command{
	Use:   "forms",
	Short: "List the forms in the configured store",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		ids, err := a.engine.Forms(cmd.Context())
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import <file...>",
	Short: "Validate form files and save them to the configured store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		for _, path := range args {
			form, err := readFormFile(path)
			if err != nil {
				return err
			}
			saved, err := a.engine.SaveForm(cmd.Context(), form)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %s (%d questions)\n", saved.ID, len(saved.Questions))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formsCmd)
	formsCmd.AddCommand(importCmd)
}
