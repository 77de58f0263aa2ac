package domain_test

import (
	"strings"
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/aretw0/formflow/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(issues []domain.Issue) []domain.IssueCode {
	out := make([]domain.IssueCode, len(issues))
	for i, is := range issues {
		out[i] = is.Code
	}
	return out
}

func TestValidate_ValidForm(t *testing.T) {
	b := dsl.New("ok")
	b.Add("q1").ShortAnswer("Name?").Go("q2")
	b.Add("q2").LongAnswer("Budget?").
		When(dsl.Any(dsl.Ask("over 5k"), dsl.Not(dsl.Ask("is a student"))), "q3").
		Otherwise("q4")
	b.Add("q3").Decide("Pick one.")
	b.Add("q4").Generated("Say goodbye.")

	assert.NoError(t, domain.Validate(b.Form()))
}

func TestValidate_DanglingReferences(t *testing.T) {
	b := dsl.New("dangling")
	b.Add("q1").Go("ghost")
	b.Add("q2").When(dsl.Ask("x"), "nowhere").Otherwise("void")

	err := domain.Validate(b.Form())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	issues := domain.Issues(err)
	require.Len(t, issues, 3)
	assert.Equal(t, "q1", issues[0].QuestionID)
	assert.Equal(t, "transition.nextQuestionId", issues[0].Path)
	assert.Equal(t, "transition.routes[0].nextQuestionId", issues[1].Path)
	assert.Equal(t, "transition.fallbackNextQuestionId", issues[2].Path)
	for _, is := range issues {
		assert.Equal(t, domain.IssueDanglingRef, is.Code)
	}
}

func TestValidate_IDs(t *testing.T) {
	form := &domain.Form{Questions: []domain.Question{
		{ID: "", Content: domain.ShortAnswer{}, Transition: domain.Static{}},
		{ID: "a", Content: domain.ShortAnswer{}, Transition: domain.Static{}},
		{ID: "a", Content: domain.ShortAnswer{}, Transition: domain.Static{}},
		{ID: domain.EndCandidate, Content: domain.ShortAnswer{}, Transition: domain.Static{}},
	}}

	issues := domain.Check(form)
	assert.Equal(t, []domain.IssueCode{
		domain.IssueEmptyID,
		domain.IssueDuplicateID,
		domain.IssueReservedID,
	}, codes(issues))
}

func TestValidate_Prompts(t *testing.T) {
	long := strings.Repeat("é", domain.MaxPromptLength+1)
	exact := strings.Repeat("é", domain.MaxPromptLength)

	form := &domain.Form{Questions: []domain.Question{
		{ID: "ok", Content: domain.ShortAnswer{}, Transition: domain.RuleBased{
			Routes: []domain.Route{{Condition: domain.Predicate{EvaluationPrompt: exact}}},
		}},
		{ID: "long", Content: domain.ShortAnswer{}, Transition: domain.RuleBased{
			Routes: []domain.Route{{Condition: domain.And{Conditions: []domain.Condition{
				domain.Predicate{EvaluationPrompt: "fine"},
				domain.Predicate{EvaluationPrompt: long},
			}}}},
		}},
		{ID: "missing", Content: domain.ShortAnswer{}, Transition: domain.ModelDirected{}},
		{ID: "gen", Content: domain.Informational{Source: domain.SourceGenerated}, Transition: domain.Static{}},
	}}

	issues := domain.Check(form)
	require.Len(t, issues, 3)

	assert.Equal(t, domain.IssuePromptTooLong, issues[0].Code)
	assert.Equal(t, "long", issues[0].QuestionID)
	assert.Equal(t, "transition.routes[0].condition.conditions[1].evaluationPrompt", issues[0].Path)

	assert.Equal(t, domain.IssuePromptMissing, issues[1].Code)
	assert.Equal(t, "missing", issues[1].QuestionID)

	assert.Equal(t, domain.IssuePromptMissing, issues[2].Code)
	assert.Equal(t, "content.generation", issues[2].Path)
}

func TestValidate_Conditions(t *testing.T) {
	form := &domain.Form{Questions: []domain.Question{
		{ID: "q", Content: domain.ShortAnswer{}, Transition: domain.RuleBased{Routes: []domain.Route{
			{Condition: nil},
			{Condition: domain.Or{}},
			{Condition: domain.Not{}},
		}}},
	}}

	assert.Equal(t, []domain.IssueCode{
		domain.IssueMissingCondition,
		domain.IssueEmptyCombinator,
		domain.IssueMissingCondition,
	}, codes(domain.Check(form)))
}

func TestValidate_MissingContent(t *testing.T) {
	form := &domain.Form{Questions: []domain.Question{{ID: "q"}}}

	assert.Equal(t, []domain.IssueCode{domain.IssueMissingContent}, codes(domain.Check(form)))
}

func TestCheckContextAndPrompt(t *testing.T) {
	assert.NoError(t, domain.CheckContext(strings.Repeat("a", domain.MaxContextLength)))
	err := domain.CheckContext(strings.Repeat("a", domain.MaxContextLength+1))
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, domain.IssueContextTooLong, domain.Issues(err)[0].Code)

	assert.NoError(t, domain.CheckPrompt("short"))
	err = domain.CheckPrompt(strings.Repeat("a", domain.MaxPromptLength+1))
	assert.Equal(t, domain.IssuePromptTooLong, domain.Issues(err)[0].Code)
}

func TestValidationError_Message(t *testing.T) {
	single := domain.NewValidationError(domain.IssueDanglingRef, "q1", "references unknown question \"x\"")
	assert.Equal(t, `validation failed: question "q1": references unknown question "x"`, single.Error())

	multi := &domain.ValidationError{Issues: []domain.Issue{
		{Code: domain.IssueEmptyID, Message: "question id is empty"},
		{Code: domain.IssueDuplicateID, QuestionID: "a", Message: "duplicate question id"},
	}}
	assert.Contains(t, multi.Error(), "2 validation errors")
	assert.Contains(t, multi.Error(), `2. question "a": duplicate question id`)
}
