package domain

import (
	"fmt"
	"unicode/utf8"
)

// Validate runs every structural check on the form and returns a
// *ValidationError holding all defects found, or nil.
func Validate(f *Form) error {
	issues := Check(f)
	if len(issues) == 0 {
		return nil
	}
	return &ValidationError{Issues: issues}
}

// Check returns every structural defect of the form without failing fast.
func Check(f *Form) []Issue {
	if f == nil {
		return []Issue{{Code: IssueMissingContent, Message: "form is nil"}}
	}

	var issues []Issue
	ids := make(map[string]bool, len(f.Questions))
	for i, q := range f.Questions {
		switch {
		case q.ID == "":
			issues = append(issues, Issue{Code: IssueEmptyID, Path: fmt.Sprintf("questions[%d]", i), Message: "question id is empty"})
		case q.ID == EndCandidate:
			issues = append(issues, Issue{Code: IssueReservedID, QuestionID: q.ID, Message: fmt.Sprintf("%q is reserved", EndCandidate)})
		case ids[q.ID]:
			issues = append(issues, Issue{Code: IssueDuplicateID, QuestionID: q.ID, Message: "duplicate question id"})
		}
		ids[q.ID] = true
	}

	for _, q := range f.Questions {
		c := checker{ids: ids, questionID: q.ID}
		c.content(q.Content)
		c.strategy(q.Transition)
		issues = append(issues, c.issues...)
	}
	return issues
}

// CheckContext validates the size of runtime answer context.
func CheckContext(answerContext string) error {
	if n := utf8.RuneCountInString(answerContext); n > MaxContextLength {
		return NewValidationError(IssueContextTooLong, "", fmt.Sprintf("context is %d characters, limit is %d", n, MaxContextLength))
	}
	return nil
}

// CheckPrompt validates the size of a prompt submitted at runtime.
func CheckPrompt(prompt string) error {
	if n := utf8.RuneCountInString(prompt); n > MaxPromptLength {
		return NewValidationError(IssuePromptTooLong, "", fmt.Sprintf("prompt is %d characters, limit is %d", n, MaxPromptLength))
	}
	return nil
}

type checker struct {
	ids        map[string]bool
	questionID string
	issues     []Issue
}

func (c *checker) add(code IssueCode, path, format string, args ...any) {
	c.issues = append(c.issues, Issue{
		Code:       code,
		QuestionID: c.questionID,
		Path:       path,
		Message:    fmt.Sprintf(format, args...),
	})
}

func (c *checker) ref(path, target string) {
	if target != "" && !c.ids[target] {
		c.add(IssueDanglingRef, path, "references unknown question %q", target)
	}
}

func (c *checker) prompt(path, text string) {
	if text == "" {
		c.add(IssuePromptMissing, path, "prompt is empty")
		return
	}
	if n := utf8.RuneCountInString(text); n > MaxPromptLength {
		c.add(IssuePromptTooLong, path, "prompt is %d characters, limit is %d", n, MaxPromptLength)
	}
}

func (c *checker) content(content Content) {
	switch v := content.(type) {
	case nil:
		c.add(IssueMissingContent, "content", "question has no content")
	case ShortAnswer, LongAnswer, MultipleChoice, ContactInfo:
	case Informational:
		if v.Source == SourceGenerated {
			if v.Generation == nil {
				c.add(IssuePromptMissing, "content.generation", "generated content has no generation prompt")
				return
			}
			c.prompt("content.generation.prompt", v.Generation.Prompt)
		}
	default:
		c.add(IssueUnknownVariant, "content", "unknown content variant %T", content)
	}
}

func (c *checker) strategy(s TransitionStrategy) {
	switch v := s.(type) {
	case nil:
	case Static:
		c.ref("transition.nextQuestionId", v.NextQuestionID)
	case ModelDirected:
		c.prompt("transition.instructionPrompt", v.InstructionPrompt)
	case RuleBased:
		for i, r := range v.Routes {
			path := fmt.Sprintf("transition.routes[%d]", i)
			c.condition(path+".condition", r.Condition)
			c.ref(path+".nextQuestionId", r.NextQuestionID)
		}
		c.ref("transition.fallbackNextQuestionId", v.FallbackNextQuestionID)
	default:
		c.add(IssueUnknownVariant, "transition", "unknown transition variant %T", s)
	}
}

func (c *checker) condition(path string, cond Condition) {
	switch v := cond.(type) {
	case nil:
		c.add(IssueMissingCondition, path, "condition is missing")
	case Predicate:
		c.prompt(path+".evaluationPrompt", v.EvaluationPrompt)
	case And:
		c.combinator(path, "and", v.Conditions)
	case Or:
		c.combinator(path, "or", v.Conditions)
	case Not:
		c.condition(path+".condition", v.Condition)
	default:
		c.add(IssueUnknownVariant, path, "unknown condition variant %T", cond)
	}
}

func (c *checker) combinator(path, name string, conds []Condition) {
	if len(conds) == 0 {
		c.add(IssueEmptyCombinator, path, "%s has no conditions", name)
	}
	for i, sub := range conds {
		c.condition(fmt.Sprintf("%s.conditions[%d]", path, i), sub)
	}
}
