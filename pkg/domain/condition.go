package domain

// ConditionKind discriminates a Condition.
type ConditionKind string

const (
	ConditionPredicate ConditionKind = "predicate"
	ConditionAnd       ConditionKind = "and"
	ConditionOr        ConditionKind = "or"
	ConditionNot       ConditionKind = "not"
)

// Condition is a boolean tree whose leaves are natural-language predicates
// evaluated by the oracle.
type Condition interface {
	Kind() ConditionKind
	isCondition()
}

// Predicate is a leaf evaluated by one oracle call.
type Predicate struct {
	EvaluationPrompt string
	Model            string
	Temperature      float64
}

// And is true when every sub-condition is true.
type And struct {
	Conditions []Condition
}

// Or is true when any sub-condition is true.
type Or struct {
	Conditions []Condition
}

// Not negates its sub-condition.
type Not struct {
	Condition Condition
}

func (Predicate) Kind() ConditionKind { return ConditionPredicate }
func (And) Kind() ConditionKind       { return ConditionAnd }
func (Or) Kind() ConditionKind        { return ConditionOr }
func (Not) Kind() ConditionKind       { return ConditionNot }

func (Predicate) isCondition() {}
func (And) isCondition()       {}
func (Or) isCondition()        {}
func (Not) isCondition()       {}

// WalkPredicates calls fn for every predicate leaf of c, depth first, in
// declaration order. Walking stops when fn returns false.
func WalkPredicates(c Condition, fn func(Predicate) bool) bool {
	switch v := c.(type) {
	case Predicate:
		return fn(v)
	case And:
		for _, sub := range v.Conditions {
			if !WalkPredicates(sub, fn) {
				return false
			}
		}
	case Or:
		for _, sub := range v.Conditions {
			if !WalkPredicates(sub, fn) {
				return false
			}
		}
	case Not:
		return WalkPredicates(v.Condition, fn)
	}
	return true
}
