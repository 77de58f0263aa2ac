package dsl

import (
	"time"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/google/uuid"
)

// Builder manages the form construction.
type Builder struct {
	id        string
	name      string
	order     []string
	questions map[string]*QuestionBuilder
	viewport  domain.Viewport
	now       func() time.Time
}

// New creates a new form builder with a random id.
func New(name string) *Builder {
	return &Builder{
		id:        uuid.NewString(),
		name:      name,
		questions: make(map[string]*QuestionBuilder),
		viewport:  domain.DefaultViewport,
		now:       time.Now,
	}
}

// ID overrides the generated form id.
func (b *Builder) ID(id string) *Builder {
	b.id = id
	return b
}

// Viewport sets the editor viewport.
func (b *Builder) Viewport(v domain.Viewport) *Builder {
	b.viewport = v
	return b
}

// Add creates a new question in the form.
// If the question already exists, it returns the existing builder.
func (b *Builder) Add(id string) *QuestionBuilder {
	if qb, ok := b.questions[id]; ok {
		return qb
	}
	qb := &QuestionBuilder{
		question: domain.Question{
			ID:         id,
			Content:    domain.ShortAnswer{},
			Transition: domain.Static{},
		},
	}
	b.questions[id] = qb
	b.order = append(b.order, id)
	return qb
}

// Form assembles the form without validating it.
func (b *Builder) Form() *domain.Form {
	now := b.now().UTC()
	form := &domain.Form{
		ID:        b.id,
		Name:      b.name,
		Questions: make([]domain.Question, 0, len(b.order)),
		Viewport:  b.viewport,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, id := range b.order {
		form.Questions = append(form.Questions, b.questions[id].Build())
	}
	return form
}

// Build assembles and validates the form.
func (b *Builder) Build() (*domain.Form, error) {
	form := b.Form()
	if err := domain.Validate(form); err != nil {
		return nil, err
	}
	return form, nil
}
