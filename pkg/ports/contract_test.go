package ports_test

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockStore keeps forms as JSON to simulate serialization.
type mockStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string][]byte)}
}

func (m *mockStore) Save(_ context.Context, form *domain.Form) error {
	b, err := json.Marshal(form)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[form.ID] = b
	return nil
}

func (m *mockStore) Get(_ context.Context, formID string) (*domain.Form, error) {
	m.mu.Lock()
	b, ok := m.data[formID]
	m.mu.Unlock()
	if !ok {
		return nil, domain.ErrFormNotFound
	}
	var form domain.Form
	if err := json.Unmarshal(b, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

func (m *mockStore) Delete(_ context.Context, formID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, formID)
	return nil
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func TestFormStore_Contract(t *testing.T) {
	ports.RunFormStoreContract(t, newMockStore())
}

func TestOracleFunc(t *testing.T) {
	var got ports.OracleRequest
	oracle := ports.OracleFunc(func(_ context.Context, req ports.OracleRequest) (string, error) {
		got = req
		return "true", nil
	})

	out, err := oracle.Call(context.Background(), ports.OracleRequest{Instruction: "i", Input: "x", Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "true", out)
	assert.Equal(t, "m", got.Model)
}
