package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/presentation/tui"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate [file]",
	Short: "Generate the content of an informational question",
	Long: `Runs the generation prompt authored on --question against the answers
so far and renders the result as markdown.`,
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
		q, ok := form.Question(questionID)
		if !ok {
			return fmt.Errorf("%w: %q", domain.ErrQuestionNotFound, questionID)
		}
		info, ok := q.Content.(domain.Informational)
		if !ok || info.Source != domain.SourceGenerated || info.Generation == nil {
			return fmt.Errorf("question %q has no generated content", questionID)
		}

		answers, err := answerContext(cmd)
		if err != nil {
			return err
		}
		client, _ := cmd.Flags().GetString("client")

		content, err := a.engine.GenerateContent(cmd.Context(), formflow.GenerateRequest{
			FormID:     form.ID,
			Prompt:     info.Generation.Prompt,
			Context:    answers,
			ClientAddr: client,
		})
		if err != nil {
			return err
		}

		render, err := tui.NewRenderer(tui.Profile(os.Stdout), tui.Width(os.Stdout))
		if err != nil {
			return err
		}
		out, err := render(content.Text)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	formSource(generateCmd)
	contextFlags(generateCmd)
	generateCmd.Flags().StringP("question", "q", "", "Informational question id")
}
