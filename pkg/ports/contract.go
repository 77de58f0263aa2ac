package ports

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractForm(id string) *domain.Form {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return &domain.Form{
		ID:   id,
		Name: "Contract",
		Questions: []domain.Question{
			{
				ID:         "q1",
				Title:      "Budget?",
				Content:    domain.ShortAnswer{},
				Position:   &domain.Position{X: 250, Y: 50},
				Transition: domain.Static{NextQuestionID: "q2"},
			},
			{
				ID:      "q2",
				Content: domain.LongAnswer{},
				Transition: domain.RuleBased{
					Routes: []domain.Route{{
						Condition: domain.Not{Condition: domain.Predicate{
							EvaluationPrompt: "mentions a budget",
							Model:            domain.DefaultModel,
						}},
						NextQuestionID: "q1",
					}},
				},
			},
		},
		Viewport:  domain.DefaultViewport,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RunFormStoreContract runs a suite of tests to verify that a FormStore
// implementation adheres to the defined interface contract.
func RunFormStoreContract(t *testing.T, store FormStore) {
	ctx := context.Background()
	formID := "contract-test-form-" + time.Now().Format("20060102150405")

	t.Run("Save and Get", func(t *testing.T) {
		form := contractForm(formID)

		err := store.Save(ctx, form)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Get(ctx, formID)
		require.NoError(t, err, "Get should not return error")
		assert.Equal(t, form.Name, loaded.Name)
		assert.Equal(t, form.QuestionIDs(), loaded.QuestionIDs())
		assert.Equal(t, form.Questions[1].Transition, loaded.Questions[1].Transition)
		assert.True(t, form.UpdatedAt.Equal(loaded.UpdatedAt))
	})

	t.Run("Get returns a copy", func(t *testing.T) {
		loaded, err := store.Get(ctx, formID)
		require.NoError(t, err)
		loaded.Name = "mutated"
		loaded.Questions[0].Position.X = -1

		again, err := store.Get(ctx, formID)
		require.NoError(t, err)
		assert.Equal(t, "Contract", again.Name)
		assert.Equal(t, 250.0, again.Questions[0].Position.X)
	})

	t.Run("Last write wins", func(t *testing.T) {
		form := contractForm(formID)
		form.Name = "Second"
		require.NoError(t, store.Save(ctx, form))

		loaded, err := store.Get(ctx, formID)
		require.NoError(t, err)
		assert.Equal(t, "Second", loaded.Name)
	})

	t.Run("Get Non-Existent", func(t *testing.T) {
		_, err := store.Get(ctx, "non-existent-"+formID)
		assert.ErrorIs(t, err, domain.ErrFormNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractForm(formID)))

		err := store.Delete(ctx, formID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Get(ctx, formID)
		assert.ErrorIs(t, err, domain.ErrFormNotFound, "Get after Delete should return ErrFormNotFound")

		assert.NoError(t, store.Delete(ctx, formID), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		id1 := formID + "-1"
		id2 := formID + "-2"
		require.NoError(t, store.Save(ctx, contractForm(id1)))
		require.NoError(t, store.Save(ctx, contractForm(id2)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})

	t.Run("Concurrent saves", func(t *testing.T) {
		id := formID + "-concurrent"
		defer func() { _ = store.Delete(ctx, id) }()

		var wg sync.WaitGroup
		errs := make(chan error, 8)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- store.Save(ctx, contractForm(id))
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			assert.NoError(t, err)
		}

		_, err := store.Get(ctx, id)
		assert.NoError(t, err)
	})
}
