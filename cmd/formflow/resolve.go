package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/formflow"
	"github.com/spf13/cobra"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Resolve the question after the given one",
	Long: `Decides where the flow goes after --question, given the answers so far.
Static transitions never consult the model; rule-based and model-directed
ones ask only the prompts authored in the form. Prints the next question id,
or "end" when the form is complete.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, form, err := openForm(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		questionID, _ := cmd.Flags().GetString("question")
		if questionID == "" {
			return errors.New("--question is required")
		}
		answers, err := answerContext(cmd)
		if err != nil {
			return err
		}
		client, _ := cmd.Flags().GetString("client")

		next, err := a.engine.ResolveNext(cmd.Context(), formflow.ResolveRequest{
			FormID:     form.ID,
			QuestionID: questionID,
			Context:    answers,
			ClientAddr: client,
		})
		if err != nil {
			return err
		}
		if next == "" {
			next = "end"
		}
		fmt.Fprintln(cmd.OutOrStdout(), next)
		return nil
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate [file]",
	Short: "Evaluate one authored condition prompt",
	Long: `Asks the model whether the answers satisfy a predicate. The prompt must
match one authored in the form; anything else is rejected.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, form, err := openForm(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		prompt, _ := cmd.Flags().GetString("prompt")
		if prompt == "" {
			return errors.New("--prompt is required")
		}
		answers, err := answerContext(cmd)
		if err != nil {
			return err
		}
		client, _ := cmd.Flags().GetString("client")

		req := formflow.EvaluateRequest{
			FormID:     form.ID,
			Prompt:     prompt,
			Context:    answers,
			ClientAddr: client,
		}
		if cmd.Flags().Changed("model") {
			m, _ := cmd.Flags().GetString("model")
			req.Model = &m
		}
		if cmd.Flags().Changed("temperature") {
			t, _ := cmd.Flags().GetFloat64("temperature")
			req.Temperature = &t
		}

		v, err := a.engine.EvaluateCondition(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%t (%s)\n", v.Value, v.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resolveCmd)
	formSource(resolveCmd)
	contextFlags(resolveCmd)
	resolveCmd.Flags().StringP("question", "q", "", "Current question id")

	rootCmd.AddCommand(evaluateCmd)
	formSource(evaluateCmd)
	contextFlags(evaluateCmd)
	evaluateCmd.Flags().StringP("prompt", "p", "", "Authored evaluation prompt")
	evaluateCmd.Flags().String("model", "", "Override the authored model")
	evaluateCmd.Flags().Float64("temperature", 0, "Override the authored temperature")
}
