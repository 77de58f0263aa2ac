package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/spf13/cobra"
)

var canvasCmd = &cobra.Command{
	Use:   "canvas [file]",
	Short: "Print the editor canvas of a form",
	Long: `Projects a form to the node/edge canvas the visual editor draws, as JSON.
Questions without a position are laid out top to bottom.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, form, err := openForm(cmd, args)
		if err != nil {
			return err
		}
		defer a.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(a.engine.ToCanvas(form))
	},
}

var canvasApplyCmd = &cobra.Command{
	Use:   "apply <canvas-file> [form-file]",
	Short: "Apply an edited canvas to a form",
	Long: `Reads a canvas document ({"nodes": [...], "edges": [...], "viewport": {...}})
and applies it to the form: positions move, rewired questions get static or
model-directed transitions. The updated form is printed; with --form it is
also saved to the store.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var c domain.Canvas
		if err := json.Unmarshal(data, &c); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		a, form, err := openForm(cmd, args[1:])
		if err != nil {
			return err
		}
		defer a.Close()

		var viewport *domain.Viewport
		if c.Viewport != (domain.Viewport{}) {
			viewport = &c.Viewport
		}

		var updated *domain.Form
		if id, _ := cmd.Flags().GetString("form"); id != "" {
			updated, err = a.engine.SaveCanvas(cmd.Context(), id, c.Nodes, c.Edges, viewport)
		} else {
			updated, err = a.engine.FromCanvas(form, c.Nodes, c.Edges, viewport)
		}
		if err != nil {
			return err
		}

		if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
			out, err := schema.ToYAML(updated)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(updated)
	},
}

func init() {
	rootCmd.AddCommand(canvasCmd)
	formSource(canvasCmd)

	canvasCmd.AddCommand(canvasApplyCmd)
	formSource(canvasApplyCmd)
	canvasApplyCmd.Flags().Bool("yaml", false, "Print the updated form as YAML")
}
