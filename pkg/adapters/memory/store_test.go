package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/formflow/pkg/adapters/memory"
	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunFormStoreContract(t, store)
}

func TestMemoryStore_Seed(t *testing.T) {
	form := &domain.Form{ID: "seeded", Questions: []domain.Question{{ID: "q1", Content: domain.ShortAnswer{}}}}
	store := memory.NewStore(form)

	form.Name = "changed after seeding"

	got, err := store.Get(context.Background(), "seeded")
	require.NoError(t, err)
	assert.Empty(t, got.Name)
	assert.Equal(t, []string{"q1"}, got.QuestionIDs())
}
