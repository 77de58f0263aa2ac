package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
	"github.com/spf13/cobra"
)

// readDocument reads a form document and returns it as JSON. YAML files are
// converted.
func readDocument(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" || !json.Valid(data) {
		return schema.FromYAML(data)
	}
	return data, nil
}

// readFormFile decodes and validates the form stored at path.
func readFormFile(path string) (*domain.Form, error) {
	data, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	form, err := schema.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return form, nil
}

// formSource adds the flags that pick a form: a file argument or --form.
func formSource(cmd *cobra.Command) {
	cmd.Flags().String("form", "", "ID of a form in the configured store")
}

// openForm builds the app and loads the form named by the first argument
// (a file) or by --form (a stored id). A file form is served from memory so
// the configured store is never written.
func openForm(cmd *cobra.Command, args []string) (*app, *domain.Form, error) {
	id, _ := cmd.Flags().GetString("form")
	switch {
	case len(args) > 0 && id != "":
		return nil, nil, errors.New("pass a form file or --form, not both")
	case len(args) > 0:
		form, err := readFormFile(args[0])
		if err != nil {
			return nil, nil, err
		}
		a, err := newApp(cmd, form)
		if err != nil {
			return nil, nil, err
		}
		return a, form, nil
	case id != "":
		a, err := newApp(cmd)
		if err != nil {
			return nil, nil, err
		}
		form, err := a.engine.Form(cmd.Context(), id)
		if err != nil {
			a.Close()
			return nil, nil, err
		}
		return a, form, nil
	default:
		return nil, nil, errors.New("a form file or --form is required")
	}
}

// contextFlags adds the answer context flags.
func contextFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("context", "c", "", `Answers so far as text; "-" reads stdin`)
	cmd.Flags().String("client", "cli", "Client key for rate limiting")
}

// answerContext returns the --context value, reading stdin for "-".
func answerContext(cmd *cobra.Command) (string, error) {
	v, _ := cmd.Flags().GetString("context")
	if v != "-" {
		return v, nil
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read context: %w", err)
	}
	return string(data), nil
}
