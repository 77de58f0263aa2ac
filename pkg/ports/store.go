package ports

import (
	"context"

	"github.com/aretw0/formflow/pkg/domain"
)

// FormStore defines the interface for persisting authored forms.
// Saves replace the whole document; the last write wins.
type FormStore interface {
	// Save persists the form under form.ID.
	Save(ctx context.Context, form *domain.Form) error

	// Get retrieves a form by ID.
	// Returns domain.ErrFormNotFound if the form does not exist.
	Get(ctx context.Context, formID string) (*domain.Form, error)

	// Delete removes a form. Deleting a missing form is not an error.
	Delete(ctx context.Context, formID string) error

	// List returns the IDs of all stored forms.
	List(ctx context.Context) ([]string, error)
}
