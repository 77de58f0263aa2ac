// Package file stores forms as documents in a local directory.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/schema"
)

// Extensions recognised when reading, in lookup order. Saves always write JSON.
var Extensions = []string{".json", ".yaml", ".yml"}

// Store implements ports.FormStore using the local filesystem.
// Each form is one document named after its id. Hand-written YAML documents
// are readable; saving a form rewrites it as JSON and removes the YAML copy.
type Store struct {
	BasePath string

	mu sync.Mutex
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to ".formflow/forms".
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.Join(".formflow", "forms")
	}
	return &Store{BasePath: basePath}
}

func checkID(formID string) error {
	if formID == "" || formID != filepath.Base(formID) || strings.HasPrefix(formID, ".") {
		return fmt.Errorf("%w: invalid form id %q", domain.ErrValidation, formID)
	}
	return nil
}

// Save persists the form to a JSON file atomically.
// It writes to a temporary file first, syncs via fsync, and then renames it to the destination.
func (s *Store) Save(ctx context.Context, form *domain.Form) error {
	if err := checkID(form.ID); err != nil {
		return err
	}

	data, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal form: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure forms directory: %w", err)
	}

	destPath := filepath.Join(s.BasePath, form.ID+".json")

	// Same directory keeps the rename on one filesystem.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+form.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Cannot rename an open file on Windows.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// On Windows, os.Rename fails if dest exists.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to remove existing form file for overwrite: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file to form file: %w", err)
	}

	for _, ext := range Extensions[1:] {
		_ = os.Remove(filepath.Join(s.BasePath, form.ID+ext))
	}
	return nil
}

// Get reads the form document, trying each known extension.
func (s *Store) Get(ctx context.Context, formID string) (*domain.Form, error) {
	if err := checkID(formID); err != nil {
		return nil, err
	}

	for _, ext := range Extensions {
		path := filepath.Join(s.BasePath, formID+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read form file: %w", err)
		}
		return decode(path, data)
	}
	return nil, domain.ErrFormNotFound
}

func decode(path string, data []byte) (*domain.Form, error) {
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		converted, err := schema.FromYAML(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		data = converted
	}

	var form domain.Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, fmt.Errorf("failed to unmarshal form %s: %w", path, err)
	}
	if form.Viewport == (domain.Viewport{}) {
		form.Viewport = domain.DefaultViewport
	}
	return &form, nil
}

// Delete removes every document of the form.
func (s *Store) Delete(ctx context.Context, formID string) error {
	if err := checkID(formID); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ext := range Extensions {
		err := os.Remove(filepath.Join(s.BasePath, formID+ext))
		if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to delete form file: %w", err)
		}
	}
	return nil
}

// List returns the ids of every form document in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	seen := make(map[string]bool)
	var ids []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, "tmp-") {
			continue
		}
		ext := filepath.Ext(name)
		for _, known := range Extensions {
			if ext == known {
				id := strings.TrimSuffix(name, ext)
				if !seen[id] {
					seen[id] = true
					ids = append(ids, id)
				}
			}
		}
	}
	sort.Strings(ids)
	return ids, nil
}
