// Package canvas projects a form graph to and from the editor's node/edge
// layout.
//
// Static wiring is drawn as one solid edge. Every dynamic strategy (Static to
// end of form, ModelDirected, RuleBased) is drawn as animated dashed edges to
// every other question. Reading the canvas back, positions are taken verbatim
// and each question's outgoing edges are reduced to a strategy.
package canvas

import (
	"fmt"

	"github.com/aretw0/formflow/pkg/domain"
)

// ToCanvas projects the form. It never modifies form.
func ToCanvas(form *domain.Form) *domain.Canvas {
	positions := Positions(form)

	c := &domain.Canvas{
		Nodes:    make([]domain.CanvasNode, 0, len(form.Questions)),
		Edges:    []domain.CanvasEdge{},
		Viewport: form.Viewport,
	}

	for i, q := range form.Questions {
		c.Nodes = append(c.Nodes, domain.CanvasNode{
			ID:       q.ID,
			Type:     domain.CanvasNodeType,
			Position: positions[i],
			Data:     domain.CanvasLabel{Title: q.Title, Kind: kindOf(q)},
		})
		c.Edges = append(c.Edges, edgesOf(form, q)...)
	}
	return c
}

func kindOf(q domain.Question) domain.QuestionKind {
	if q.Content == nil {
		return ""
	}
	return q.Content.Kind()
}

func edgesOf(form *domain.Form, q domain.Question) []domain.CanvasEdge {
	if s, ok := q.Transition.(domain.Static); ok && s.NextQuestionID != "" {
		return []domain.CanvasEdge{{
			ID:     EdgeID(q.ID, s.NextQuestionID),
			Source: q.ID,
			Target: s.NextQuestionID,
			Style:  domain.EdgeSolid,
		}}
	}
	if q.Transition != nil && !domain.IsDynamic(q.Transition) {
		return nil
	}

	var edges []domain.CanvasEdge
	for _, other := range form.Questions {
		if other.ID == q.ID {
			continue
		}
		edges = append(edges, domain.CanvasEdge{
			ID:       EdgeID(q.ID, other.ID),
			Source:   q.ID,
			Target:   other.ID,
			Style:    domain.EdgeDashed,
			Animated: true,
		})
	}
	return edges
}

// EdgeID is the stable id of the edge between two questions.
func EdgeID(source, target string) string {
	return fmt.Sprintf("e-%s-%s", source, target)
}

// FromCanvas writes an edited canvas back into a copy of form. Node positions
// are copied verbatim; questions without a node keep their position. Each
// question's outgoing edges become its strategy:
//
//   - edges equal to the projection of the current dynamic strategy keep it;
//   - no edge ends the form;
//   - one target wires the question statically;
//   - several targets keep an existing ModelDirected or RuleBased strategy and
//     otherwise synthesize a default ModelDirected one.
//
// A nil viewport keeps the current one. UpdatedAt is left to the caller.
func FromCanvas(form *domain.Form, nodes []domain.CanvasNode, edges []domain.CanvasEdge, viewport *domain.Viewport) (*domain.Form, error) {
	if err := check(form, nodes, edges); err != nil {
		return nil, err
	}

	out := form.Clone()

	for _, n := range nodes {
		q, _ := out.Question(n.ID)
		p := n.Position
		q.Position = &p
	}

	outgoing := group(edges)
	for i := range out.Questions {
		q := &out.Questions[i]
		q.Transition = reduce(out, q, outgoing[q.ID])
	}

	if viewport != nil {
		out.Viewport = *viewport
	}
	return out, nil
}

type target struct {
	id       string
	animated bool
}

// group collects distinct targets per source in first-seen order. A target
// counts as animated only if every edge drawn to it is animated.
func group(edges []domain.CanvasEdge) map[string][]target {
	out := make(map[string][]target)
	for _, e := range edges {
		targets := out[e.Source]
		found := false
		for i := range targets {
			if targets[i].id == e.Target {
				targets[i].animated = targets[i].animated && e.Animated
				found = true
				break
			}
		}
		if !found {
			targets = append(targets, target{id: e.Target, animated: e.Animated})
		}
		out[e.Source] = targets
	}
	return out
}

func reduce(form *domain.Form, q *domain.Question, targets []target) domain.TransitionStrategy {
	if isProjection(form, q, targets) {
		return q.Transition
	}

	switch len(targets) {
	case 0:
		return domain.Static{}
	case 1:
		return domain.Static{NextQuestionID: targets[0].id}
	}

	switch q.Transition.(type) {
	case domain.ModelDirected, domain.RuleBased:
		return q.Transition
	default:
		return domain.NewDefaultModelDirected()
	}
}

// isProjection reports whether targets are exactly the animated edges
// ToCanvas draws for the question's current dynamic strategy.
func isProjection(form *domain.Form, q *domain.Question, targets []target) bool {
	if q.Transition == nil || !domain.IsDynamic(q.Transition) {
		return false
	}
	if len(targets) != len(form.Questions)-1 {
		return false
	}
	for _, t := range targets {
		if !t.animated || t.id == q.ID {
			return false
		}
	}
	return true
}

func check(form *domain.Form, nodes []domain.CanvasNode, edges []domain.CanvasEdge) error {
	var issues []domain.Issue
	exists := func(id string) bool {
		_, ok := form.Question(id)
		return ok
	}

	for i, n := range nodes {
		if !exists(n.ID) {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDanglingRef,
				Path:    fmt.Sprintf("nodes[%d]", i),
				Message: fmt.Sprintf("node %q is not a question of the form", n.ID),
			})
			continue
		}
		p := n.Position
		if !p.Valid() {
			issues = append(issues, domain.Issue{
				Code:       domain.IssueInvalidPosition,
				QuestionID: n.ID,
				Path:       fmt.Sprintf("nodes[%d].position", i),
				Message:    "position is not a finite point",
			})
		}
	}
	for i, e := range edges {
		if !exists(e.Source) {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDanglingRef,
				Path:    fmt.Sprintf("edges[%d].source", i),
				Message: fmt.Sprintf("edge source %q is not a question of the form", e.Source),
			})
		}
		if !exists(e.Target) {
			issues = append(issues, domain.Issue{
				Code:    domain.IssueDanglingRef,
				Path:    fmt.Sprintf("edges[%d].target", i),
				Message: fmt.Sprintf("edge target %q is not a question of the form", e.Target),
			})
		}
	}

	if len(issues) > 0 {
		return &domain.ValidationError{Issues: issues}
	}
	return nil
}
