package dsl

import "github.com/aretw0/formflow/pkg/domain"

// QuestionBuilder provides a fluent API for configuring a question.
type QuestionBuilder struct {
	question domain.Question
}

// ShortAnswer sets the title and makes the question a single-line answer.
func (q *QuestionBuilder) ShortAnswer(title string) *QuestionBuilder {
	q.question.Title = title
	q.question.Content = domain.ShortAnswer{}
	return q
}

// LongAnswer sets the title and makes the question a multi-line answer.
func (q *QuestionBuilder) LongAnswer(title string) *QuestionBuilder {
	q.question.Title = title
	q.question.Content = domain.LongAnswer{}
	return q
}

// Choice sets the title and the options of a multiple choice question.
func (q *QuestionBuilder) Choice(title string, options ...string) *QuestionBuilder {
	q.question.Title = title
	q.question.Content = domain.MultipleChoice{Options: options}
	return q
}

// Contact sets the title and the requested contact fields.
func (q *QuestionBuilder) Contact(title string, fields ...string) *QuestionBuilder {
	q.question.Title = title
	q.question.Content = domain.ContactInfo{Fields: fields}
	return q
}

// Info makes the question a static informational step.
func (q *QuestionBuilder) Info(text string) *QuestionBuilder {
	q.question.Content = domain.Informational{Source: domain.SourceStatic, Text: text}
	return q
}

// Generated makes the question an informational step produced by the oracle.
func (q *QuestionBuilder) Generated(prompt string) *QuestionBuilder {
	q.question.Content = domain.Informational{
		Source: domain.SourceGenerated,
		Generation: &domain.Generation{
			Prompt:      prompt,
			Model:       domain.DefaultModel,
			Temperature: domain.DefaultTemperature,
		},
	}
	return q
}

// At places the question on the canvas.
func (q *QuestionBuilder) At(x, y float64) *QuestionBuilder {
	q.question.Position = &domain.Position{X: x, Y: y}
	return q
}

// Go wires the question statically to the target.
func (q *QuestionBuilder) Go(target string) *QuestionBuilder {
	q.question.Transition = domain.Static{NextQuestionID: target}
	return q
}

// End marks the question as the last one of its branch.
func (q *QuestionBuilder) End() *QuestionBuilder {
	q.question.Transition = domain.Static{}
	return q
}

// Decide lets the oracle choose the next question.
func (q *QuestionBuilder) Decide(instruction string) *QuestionBuilder {
	q.question.Transition = domain.ModelDirected{
		InstructionPrompt: instruction,
		Model:             domain.DefaultModel,
		Temperature:       domain.DefaultTemperature,
	}
	return q
}

// When appends a rule-based route. The first matching route wins.
func (q *QuestionBuilder) When(cond domain.Condition, target string) *QuestionBuilder {
	rb := q.ruleBased()
	rb.Routes = append(rb.Routes, domain.Route{Condition: cond, NextQuestionID: target})
	q.question.Transition = rb
	return q
}

// Otherwise sets the fallback of a rule-based strategy.
func (q *QuestionBuilder) Otherwise(target string) *QuestionBuilder {
	rb := q.ruleBased()
	rb.FallbackNextQuestionID = target
	q.question.Transition = rb
	return q
}

func (q *QuestionBuilder) ruleBased() domain.RuleBased {
	if rb, ok := q.question.Transition.(domain.RuleBased); ok {
		return rb
	}
	return domain.RuleBased{}
}

// Build returns the underlying domain.Question.
func (q *QuestionBuilder) Build() domain.Question {
	return q.question
}

// Ask builds a predicate leaf with the default model.
func Ask(prompt string) domain.Predicate {
	return domain.Predicate{
		EvaluationPrompt: prompt,
		Model:            domain.DefaultModel,
		Temperature:      0,
	}
}

// All builds an And combinator.
func All(conds ...domain.Condition) domain.And {
	return domain.And{Conditions: conds}
}

// Any builds an Or combinator.
func Any(conds ...domain.Condition) domain.Or {
	return domain.Or{Conditions: conds}
}

// Not negates a condition.
func Not(cond domain.Condition) domain.Not {
	return domain.Not{Condition: cond}
}
