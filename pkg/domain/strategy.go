package domain

// StrategyKind discriminates a TransitionStrategy.
type StrategyKind string

const (
	StrategyStatic        StrategyKind = "static"
	StrategyModelDirected StrategyKind = "model_directed"
	StrategyRuleBased     StrategyKind = "rule_based"
)

// TransitionStrategy decides the question that follows the current one.
type TransitionStrategy interface {
	Kind() StrategyKind
	isStrategy()
}

// Static wires the question to a fixed target. An empty NextQuestionID ends the form.
type Static struct {
	NextQuestionID string
}

// ModelDirected lets the oracle choose among all other questions, or end the form.
type ModelDirected struct {
	InstructionPrompt string
	Model             string
	Temperature       float64
}

// RuleBased evaluates Routes in order; the first matching route wins.
// When none match, FallbackNextQuestionID is used (empty ends the form).
type RuleBased struct {
	Routes                 []Route
	FallbackNextQuestionID string
}

// Route pairs a condition with the question it leads to.
type Route struct {
	Condition      Condition
	NextQuestionID string
}

func (Static) Kind() StrategyKind        { return StrategyStatic }
func (ModelDirected) Kind() StrategyKind { return StrategyModelDirected }
func (RuleBased) Kind() StrategyKind     { return StrategyRuleBased }

func (Static) isStrategy()        {}
func (ModelDirected) isStrategy() {}
func (RuleBased) isStrategy()     {}

// IsDynamic reports whether the next question is decided at runtime rather
// than wired to a single target. Static strategies that end the form count as
// dynamic because the canvas draws them the same way.
func IsDynamic(s TransitionStrategy) bool {
	switch v := s.(type) {
	case Static:
		return v.NextQuestionID == ""
	case ModelDirected, RuleBased:
		return true
	default:
		return false
	}
}

// NewDefaultModelDirected is the strategy synthesized for a question whose
// outgoing edges were fanned out on the canvas before any logic was authored.
func NewDefaultModelDirected() ModelDirected {
	return ModelDirected{
		InstructionPrompt: DefaultInstructionPrompt,
		Model:             DefaultModel,
		Temperature:       DefaultTemperature,
	}
}

// Targets returns every question id the strategy can lead to, in declaration
// order, without duplicates. Model-directed strategies have no fixed targets.
func Targets(s TransitionStrategy) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	switch v := s.(type) {
	case Static:
		add(v.NextQuestionID)
	case RuleBased:
		for _, r := range v.Routes {
			add(r.NextQuestionID)
		}
		add(v.FallbackNextQuestionID)
	}
	return out
}
