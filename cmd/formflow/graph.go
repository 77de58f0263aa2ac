package main

import (
	"fmt"

	"github.com/aretw0/formflow/internal/presentation/graph"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph [file]",
	Short: "Export the form graph visualization",
	Long:  `Outputs a Mermaid diagram (graph TD) of a form's questions and transitions.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, form, err := openForm(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		var overlay *graph.GraphOverlay
		current, _ := cmd.Flags().GetString("current")
		visited, _ := cmd.Flags().GetStringSlice("visited")
		if current != "" || len(visited) > 0 {
			for _, id := range append(visited, current) {
				if _, ok := form.Question(id); id != "" && !ok {
					return fmt.Errorf("question %q not found in form %q", id, form.ID)
				}
			}
			overlay = &graph.GraphOverlay{VisitedNodes: visited, CurrentNode: current}
		}
		fmt.Fprint(cmd.OutOrStdout(), graph.GenerateMermaid(form, overlay))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	formSource(graphCmd)
	graphCmd.Flags().String("current", "", "Highlight this question as the current one")
	graphCmd.Flags().StringSlice("visited", nil, "Questions already answered")
}
