package domain

// EdgeStyle is how the editor draws an edge.
type EdgeStyle string

const (
	EdgeSolid  EdgeStyle = "solid"
	EdgeDashed EdgeStyle = "dashed"
)

// CanvasNode is the visual projection of one question.
type CanvasNode struct {
	ID       string      `json:"id" validate:"required"`
	Type     string      `json:"type"`
	Position Position    `json:"position"`
	Data     CanvasLabel `json:"data"`
}

// CanvasLabel is the display data attached to a node.
type CanvasLabel struct {
	Title string       `json:"title,omitempty"`
	Kind  QuestionKind `json:"kind,omitempty"`
}

// CanvasEdge is the visual projection of a possible transition.
// Animated edges are projections of a dynamic strategy rather than wiring
// drawn by the author.
type CanvasEdge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source" validate:"required"`
	Target   string    `json:"target" validate:"required"`
	Style    EdgeStyle `json:"style,omitempty"`
	Animated bool      `json:"animated,omitempty"`
}

// Canvas is the full editor projection of a form.
type Canvas struct {
	Nodes    []CanvasNode `json:"nodes"`
	Edges    []CanvasEdge `json:"edges"`
	Viewport Viewport     `json:"viewport"`
}

// CanvasNodeType is the node type used for every question.
const CanvasNodeType = "question"
