package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// The persisted form is a single JSON document. Sum types are encoded as
// objects discriminated by a "type" field; null question ids mean "end of form".

type questionJSON struct {
	ID         string          `json:"id"`
	Title      string          `json:"title,omitempty"`
	Content    json.RawMessage `json:"content"`
	Position   *Position       `json:"position"`
	Transition json.RawMessage `json:"transition"`
}

// MarshalJSON encodes the question with tagged content and transition.
func (q Question) MarshalJSON() ([]byte, error) {
	content, err := MarshalContent(q.Content)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", q.ID, err)
	}
	transition, err := MarshalStrategy(q.Transition)
	if err != nil {
		return nil, fmt.Errorf("question %s: %w", q.ID, err)
	}
	var pos *Position
	if q.Position.Valid() {
		pos = q.Position
	}
	return json.Marshal(questionJSON{
		ID:         q.ID,
		Title:      q.Title,
		Content:    content,
		Position:   pos,
		Transition: transition,
	})
}

// UnmarshalJSON decodes a tagged question. A missing transition decodes as
// Static{end}; a missing content decodes as a short answer.
func (q *Question) UnmarshalJSON(data []byte) error {
	var raw questionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := UnmarshalContent(raw.Content)
	if err != nil {
		return fmt.Errorf("question %s: %w", raw.ID, err)
	}
	transition, err := UnmarshalStrategy(raw.Transition)
	if err != nil {
		return fmt.Errorf("question %s: %w", raw.ID, err)
	}
	*q = Question{
		ID:         raw.ID,
		Title:      raw.Title,
		Content:    content,
		Position:   raw.Position,
		Transition: transition,
	}
	return nil
}

type contentJSON struct {
	Type          QuestionKind  `json:"type"`
	Placeholder   string        `json:"placeholder,omitempty"`
	Options       []string      `json:"options,omitempty"`
	AllowMultiple bool          `json:"allowMultiple,omitempty"`
	Fields        []string      `json:"fields,omitempty"`
	ContentSource ContentSource `json:"contentSource,omitempty"`
	Text          string        `json:"text,omitempty"`
	Generation    *Generation   `json:"generation,omitempty"`
}

// MarshalContent encodes question content with its "type" tag.
func MarshalContent(c Content) ([]byte, error) {
	var out contentJSON
	switch v := c.(type) {
	case nil:
		out.Type = KindShortAnswer
	case ShortAnswer:
		out = contentJSON{Type: KindShortAnswer, Placeholder: v.Placeholder}
	case LongAnswer:
		out = contentJSON{Type: KindLongAnswer, Placeholder: v.Placeholder}
	case MultipleChoice:
		out = contentJSON{Type: KindMultipleChoice, Options: v.Options, AllowMultiple: v.AllowMultiple}
	case ContactInfo:
		out = contentJSON{Type: KindContactInfo, Fields: v.Fields}
	case Informational:
		out = contentJSON{Type: KindInformational, ContentSource: v.Source, Text: v.Text, Generation: v.Generation}
	default:
		return nil, fmt.Errorf("unknown content variant %T", c)
	}
	return json.Marshal(out)
}

// UnmarshalContent decodes tagged question content.
func UnmarshalContent(data []byte) (Content, error) {
	if isNull(data) {
		return ShortAnswer{}, nil
	}
	var raw contentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid content: %w", err)
	}
	switch raw.Type {
	case KindShortAnswer:
		return ShortAnswer{Placeholder: raw.Placeholder}, nil
	case KindLongAnswer:
		return LongAnswer{Placeholder: raw.Placeholder}, nil
	case KindMultipleChoice:
		return MultipleChoice{Options: raw.Options, AllowMultiple: raw.AllowMultiple}, nil
	case KindContactInfo:
		return ContactInfo{Fields: raw.Fields}, nil
	case KindInformational:
		src := raw.ContentSource
		if src == "" {
			src = SourceStatic
		}
		return Informational{Source: src, Text: raw.Text, Generation: raw.Generation}, nil
	default:
		return nil, fmt.Errorf("unknown content type %q", raw.Type)
	}
}

type staticJSON struct {
	Type           StrategyKind `json:"type"`
	NextQuestionID *string      `json:"nextQuestionId"`
}

type modelDirectedJSON struct {
	Type              StrategyKind `json:"type"`
	InstructionPrompt string       `json:"instructionPrompt"`
	Model             string       `json:"model"`
	Temperature       float64      `json:"temperature"`
}

type ruleBasedJSON struct {
	Type                   StrategyKind `json:"type"`
	Routes                 []routeJSON  `json:"routes"`
	FallbackNextQuestionID *string      `json:"fallbackNextQuestionId"`
}

type routeJSON struct {
	Condition      json.RawMessage `json:"condition"`
	NextQuestionID string          `json:"nextQuestionId"`
}

type strategyJSON struct {
	Type                   StrategyKind `json:"type"`
	NextQuestionID         *string      `json:"nextQuestionId"`
	InstructionPrompt      string       `json:"instructionPrompt"`
	Model                  string       `json:"model"`
	Temperature            float64      `json:"temperature"`
	Routes                 []routeJSON  `json:"routes"`
	FallbackNextQuestionID *string      `json:"fallbackNextQuestionId"`
}

// MarshalStrategy encodes a transition strategy with its "type" tag.
// A nil strategy encodes as Static{end}.
func MarshalStrategy(s TransitionStrategy) ([]byte, error) {
	switch v := s.(type) {
	case nil:
		return json.Marshal(staticJSON{Type: StrategyStatic})
	case Static:
		return json.Marshal(staticJSON{Type: StrategyStatic, NextQuestionID: nullable(v.NextQuestionID)})
	case ModelDirected:
		return json.Marshal(modelDirectedJSON{
			Type:              StrategyModelDirected,
			InstructionPrompt: v.InstructionPrompt,
			Model:             v.Model,
			Temperature:       v.Temperature,
		})
	case RuleBased:
		routes := make([]routeJSON, len(v.Routes))
		for i, r := range v.Routes {
			cond, err := MarshalCondition(r.Condition)
			if err != nil {
				return nil, fmt.Errorf("route %d: %w", i, err)
			}
			routes[i] = routeJSON{Condition: cond, NextQuestionID: r.NextQuestionID}
		}
		return json.Marshal(ruleBasedJSON{
			Type:                   StrategyRuleBased,
			Routes:                 routes,
			FallbackNextQuestionID: nullable(v.FallbackNextQuestionID),
		})
	default:
		return nil, fmt.Errorf("unknown strategy variant %T", s)
	}
}

// UnmarshalStrategy decodes a tagged transition strategy.
func UnmarshalStrategy(data []byte) (TransitionStrategy, error) {
	if isNull(data) {
		return Static{}, nil
	}
	var raw strategyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid transition: %w", err)
	}
	switch raw.Type {
	case StrategyStatic:
		return Static{NextQuestionID: deref(raw.NextQuestionID)}, nil
	case StrategyModelDirected:
		return ModelDirected{
			InstructionPrompt: raw.InstructionPrompt,
			Model:             raw.Model,
			Temperature:       raw.Temperature,
		}, nil
	case StrategyRuleBased:
		routes := make([]Route, len(raw.Routes))
		for i, r := range raw.Routes {
			cond, err := UnmarshalCondition(r.Condition)
			if err != nil {
				return nil, fmt.Errorf("route %d: %w", i, err)
			}
			routes[i] = Route{Condition: cond, NextQuestionID: r.NextQuestionID}
		}
		return RuleBased{Routes: routes, FallbackNextQuestionID: deref(raw.FallbackNextQuestionID)}, nil
	default:
		return nil, fmt.Errorf("unknown transition type %q", raw.Type)
	}
}

type predicateJSON struct {
	Type             ConditionKind `json:"type"`
	EvaluationPrompt string        `json:"evaluationPrompt"`
	Model            string        `json:"model"`
	Temperature      float64       `json:"temperature"`
}

type combinatorJSON struct {
	Type       ConditionKind     `json:"type"`
	Conditions []json.RawMessage `json:"conditions"`
}

type notJSON struct {
	Type      ConditionKind   `json:"type"`
	Condition json.RawMessage `json:"condition"`
}

type conditionJSON struct {
	Type             ConditionKind     `json:"type"`
	EvaluationPrompt string            `json:"evaluationPrompt"`
	Model            string            `json:"model"`
	Temperature      float64           `json:"temperature"`
	Conditions       []json.RawMessage `json:"conditions"`
	Condition        json.RawMessage   `json:"condition"`
}

// MarshalCondition encodes a condition tree. A nil condition encodes as null.
func MarshalCondition(c Condition) ([]byte, error) {
	switch v := c.(type) {
	case nil:
		return []byte("null"), nil
	case Predicate:
		return json.Marshal(predicateJSON{
			Type:             ConditionPredicate,
			EvaluationPrompt: v.EvaluationPrompt,
			Model:            v.Model,
			Temperature:      v.Temperature,
		})
	case And:
		return marshalCombinator(ConditionAnd, v.Conditions)
	case Or:
		return marshalCombinator(ConditionOr, v.Conditions)
	case Not:
		sub, err := MarshalCondition(v.Condition)
		if err != nil {
			return nil, err
		}
		return json.Marshal(notJSON{Type: ConditionNot, Condition: sub})
	default:
		return nil, fmt.Errorf("unknown condition variant %T", c)
	}
}

func marshalCombinator(kind ConditionKind, conds []Condition) ([]byte, error) {
	subs := make([]json.RawMessage, len(conds))
	for i, c := range conds {
		b, err := MarshalCondition(c)
		if err != nil {
			return nil, err
		}
		subs[i] = b
	}
	return json.Marshal(combinatorJSON{Type: kind, Conditions: subs})
}

// UnmarshalCondition decodes a condition tree. JSON null decodes as nil.
func UnmarshalCondition(data []byte) (Condition, error) {
	if isNull(data) {
		return nil, nil
	}
	var raw conditionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid condition: %w", err)
	}
	switch raw.Type {
	case ConditionPredicate:
		return Predicate{
			EvaluationPrompt: raw.EvaluationPrompt,
			Model:            raw.Model,
			Temperature:      raw.Temperature,
		}, nil
	case ConditionAnd, ConditionOr:
		subs := make([]Condition, len(raw.Conditions))
		for i, r := range raw.Conditions {
			c, err := UnmarshalCondition(r)
			if err != nil {
				return nil, err
			}
			subs[i] = c
		}
		if raw.Type == ConditionAnd {
			return And{Conditions: subs}, nil
		}
		return Or{Conditions: subs}, nil
	case ConditionNot:
		sub, err := UnmarshalCondition(raw.Condition)
		if err != nil {
			return nil, err
		}
		return Not{Condition: sub}, nil
	default:
		return nil, fmt.Errorf("unknown condition type %q", raw.Type)
	}
}

func isNull(data []byte) bool {
	trimmed := bytes.TrimSpace(data)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

func nullable(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}

func deref(id *string) string {
	if id == nil {
		return ""
	}
	return *id
}
