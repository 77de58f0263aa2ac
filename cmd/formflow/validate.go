package main

import (
	"errors"
	"os"

	"github.com/aretw0/formflow/internal/presentation/tui"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file...]",
	Short: "Check forms for structural defects",
	Long: `Checks JSON or YAML form documents (or a stored form with --form) against
the form schema and the graph rules: unique ids, known targets, prompt sizes
and well-formed conditions. Every issue is reported, not just the first.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		id, _ := cmd.Flags().GetString("form")
		if len(args) == 0 && id == "" {
			return errors.New("a form file or --form is required")
		}

		out := cmd.OutOrStdout()
		profile := tui.Profile(os.Stdout)
		clean := true

		for _, path := range args {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !tui.Report(out, profile, path, schema.Lint(data)) {
				clean = false
			}
		}

		if id != "" {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			form, err := a.engine.Form(cmd.Context(), id)
			if err != nil {
				return err
			}
			if !tui.Report(out, profile, "form "+id, domain.Check(form)) {
				clean = false
			}
		}

		if !clean {
			return errors.New("validation failed")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	formSource(validateCmd)
}
