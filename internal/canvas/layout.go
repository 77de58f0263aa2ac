package canvas

import "github.com/aretw0/formflow/pkg/domain"

// Uniform vertical stack used when positions must be regenerated.
const (
	OriginX  = 250.0
	OriginY  = 50.0
	SpacingY = 200.0
)

// NeedsLayout reports whether any question lacks a valid position.
func NeedsLayout(form *domain.Form) bool {
	for i := range form.Questions {
		if !form.Questions[i].Position.Valid() {
			return true
		}
	}
	return false
}

// Positions returns the canvas position of every question in form order.
// A single missing or invalid position regenerates all of them so the stack
// stays visually consistent.
func Positions(form *domain.Form) []domain.Position {
	out := make([]domain.Position, len(form.Questions))
	relayout := NeedsLayout(form)
	for i := range form.Questions {
		if relayout {
			out[i] = domain.Position{X: OriginX, Y: OriginY + float64(i)*SpacingY}
			continue
		}
		out[i] = *form.Questions[i].Position
	}
	return out
}
