package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/formflow/pkg/domain"
)

// endNodeID is the Mermaid node drawn for "end of form".
const endNodeID = "__end__"

// labelLength bounds condition labels on edges.
const labelLength = 32

// GraphOverlay contains respondent progress to visualize on the graph.
type GraphOverlay struct {
	VisitedNodes []string
	CurrentNode  string
}

// GenerateMermaid produces a Mermaid flowchart of the form.
// It applies semantic styling:
// - First question: ((Circle))
// - Informational: [[Subroutine]]
// - Answerable (short/long/choice/contact): [/Parallelogram/]
// Static wiring is a solid arrow, routes are labelled with their condition,
// fallbacks and model-directed choices are dotted.
func GenerateMermaid(form *domain.Form, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	usesEnd := false
	arrow := func(from, to, label string, dotted bool) {
		safeTo := sanitizeMermaidID(to)
		if to == "" {
			safeTo = endNodeID
			usesEnd = true
		}
		switch {
		case label == "" && !dotted:
			fmt.Fprintf(&sb, "    %s --> %s\n", from, safeTo)
		case label == "":
			fmt.Fprintf(&sb, "    %s -.-> %s\n", from, safeTo)
		case dotted:
			fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", from, escape(label), safeTo)
		default:
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", from, escape(label), safeTo)
		}
	}

	for i, q := range form.Questions {
		safeID := sanitizeMermaidID(q.ID)

		opener, closer := "[/", "/]"
		switch {
		case i == 0:
			opener, closer = "((", "))"
		case q.Content != nil && q.Content.Kind() == domain.KindInformational:
			opener, closer = "[[", "]]"
		}

		label := q.ID
		if q.Title != "" {
			label = fmt.Sprintf("%s <br/> %s", q.ID, escape(q.Title))
		}
		if _, ok := q.GenerationPrompt(); ok {
			label += " <br/> ✨ generated"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		switch s := q.Transition.(type) {
		case nil:
			arrow(safeID, "", "", false)
		case domain.Static:
			arrow(safeID, s.NextQuestionID, "", false)
		case domain.RuleBased:
			for _, r := range s.Routes {
				arrow(safeID, r.NextQuestionID, Summarize(r.Condition), false)
			}
			arrow(safeID, s.FallbackNextQuestionID, "otherwise", true)
		case domain.ModelDirected:
			for _, other := range form.Questions {
				if other.ID != q.ID {
					arrow(safeID, other.ID, "model", true)
				}
			}
			arrow(safeID, "", "model", true)
		}
	}

	if usesEnd {
		fmt.Fprintf(&sb, "    %s(((\"end\")))\n", endNodeID)
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedNodes {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentNode != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))
		}
	}

	return sb.String()
}

// Summarize renders a condition tree as a short label.
func Summarize(c domain.Condition) string {
	switch v := c.(type) {
	case domain.Predicate:
		return abbrev(strings.TrimSpace(v.EvaluationPrompt))
	case domain.And:
		return join(v.Conditions, " and ")
	case domain.Or:
		return join(v.Conditions, " or ")
	case domain.Not:
		return "not " + Summarize(v.Condition)
	default:
		return "?"
	}
}

func join(conds []domain.Condition, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = Summarize(c)
		if _, ok := c.(domain.Predicate); !ok {
			parts[i] = "(" + parts[i] + ")"
		}
	}
	return strings.Join(parts, sep)
}

func abbrev(s string) string {
	r := []rune(s)
	if len(r) <= labelLength {
		return s
	}
	return string(r[:labelLength-1]) + "…"
}

// escape replaces double quotes, which would end a Mermaid label.
func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
