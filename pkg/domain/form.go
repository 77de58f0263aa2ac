package domain

import (
	"math"
	"time"
)

// Position is a point on the editor canvas.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Valid reports whether both coordinates are finite numbers.
func (p *Position) Valid() bool {
	if p == nil {
		return false
	}
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Viewport is the pan/zoom of the editor canvas.
type Viewport struct {
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
	Zoom float64 `json:"zoom" yaml:"zoom"`
}

// DefaultViewport is used when a form has never been opened in the editor.
var DefaultViewport = Viewport{X: 0, Y: 0, Zoom: 1}

// Form is the authored specification of a branching questionnaire.
// Question order is the default stacking order on the canvas.
type Form struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	Viewport  Viewport   `json:"viewport"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Question returns the question with the given id.
func (f *Form) Question(id string) (*Question, bool) {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return &f.Questions[i], true
		}
	}
	return nil, false
}

// Index returns the position of the question in the form, or -1.
func (f *Form) Index(id string) int {
	for i := range f.Questions {
		if f.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// QuestionIDs returns the ids in form order.
func (f *Form) QuestionIDs() []string {
	ids := make([]string, len(f.Questions))
	for i, q := range f.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Clone returns a copy of the form that can be edited without touching the
// original. Condition trees are never mutated in place and are shared.
func (f *Form) Clone() *Form {
	if f == nil {
		return nil
	}
	out := *f
	out.Questions = make([]Question, len(f.Questions))
	for i, q := range f.Questions {
		out.Questions[i] = q.clone()
	}
	return &out
}

func (q Question) clone() Question {
	out := q
	if q.Position != nil {
		p := *q.Position
		out.Position = &p
	}
	if rb, ok := q.Transition.(RuleBased); ok {
		routes := make([]Route, len(rb.Routes))
		copy(routes, rb.Routes)
		rb.Routes = routes
		out.Transition = rb
	}
	return out
}
