package schema

import (
	"strings"
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `{
  "id": "f1",
  "name": "Intake",
  "questions": [
    {"id": "q1", "content": {"type": "short_answer"}, "transition": {"type": "static", "nextQuestionId": "q2"}},
    {"id": "q2", "content": {"type": "long_answer"}, "position": {"x": 1, "y": 2},
     "transition": {"type": "rule_based",
       "routes": [{"condition": {"type": "or", "conditions": [
         {"type": "predicate", "evaluationPrompt": "mentions money"},
         {"type": "not", "condition": {"type": "predicate", "evaluationPrompt": "is vague"}}
       ]}, "nextQuestionId": null}],
       "fallbackNextQuestionId": "q1"}}
  ]
}`

func TestDecode(t *testing.T) {
	form, err := Decode([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, "f1", form.ID)
	assert.Equal(t, domain.DefaultViewport, form.Viewport)
	assert.Equal(t, []string{"q1", "q2"}, form.QuestionIDs())
}

func TestValidateDocument_ReportsEveryField(t *testing.T) {
	doc := `{
	  "id": "f1",
	  "questions": [
	    {"id": "q1", "content": {"type": "video"}},
	    {"id": "", "content": {"type": "short_answer"}, "transition": {"type": "teleport"}}
	  ]
	}`

	err := ValidateDocument([]byte(doc))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrValidation)

	errs := ValidationErrors(err)
	assert.GreaterOrEqual(t, len(errs), 3)

	var keys []string
	for _, issue := range Issues(err) {
		keys = append(keys, issue.Path)
	}
	joined := strings.Join(keys, ",")
	assert.Contains(t, joined, "questions.0.content.type")
	assert.Contains(t, joined, "questions.1.id")
	assert.Contains(t, joined, "questions.1.transition")
}

func TestValidateDocument_PromptLength(t *testing.T) {
	long := strings.Repeat("x", domain.MaxPromptLength+1)
	doc := `{"id":"f","questions":[{"id":"q","content":{"type":"short_answer"},
	  "transition":{"type":"model_directed","instructionPrompt":"` + long + `"}}]}`

	assert.Error(t, ValidateDocument([]byte(doc)))
}

func TestDecode_GraphErrors(t *testing.T) {
	doc := `{"id":"f","questions":[{"id":"q","content":{"type":"short_answer"},
	  "transition":{"type":"static","nextQuestionId":"ghost"}}]}`

	_, err := Decode([]byte(doc))
	require.Error(t, err)
	assert.Equal(t, domain.IssueDanglingRef, domain.Issues(err)[0].Code)
}

func TestDecode_NotJSON(t *testing.T) {
	_, err := Decode([]byte("{not json"))
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestYAML(t *testing.T) {
	doc := `
id: f1
name: Intake
questions:
  - id: q1
    content: {type: short_answer}
    transition: {type: static, nextQuestionId: q2}
  - id: q2
    content:
      type: informational
      contentSource: generated
      generation: {prompt: Say hello, temperature: 0.5}
`
	data, err := FromYAML([]byte(doc))
	require.NoError(t, err)

	form, err := Decode(data)
	require.NoError(t, err)
	gen, ok := form.Questions[1].GenerationPrompt()
	require.True(t, ok)
	assert.Equal(t, "Say hello", gen.Prompt)

	out, err := ToYAML(form)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "id: f1\n"), "key order follows the JSON encoding:\n%s", out)

	back, err := FromYAML(out)
	require.NoError(t, err)
	again, err := Decode(back)
	require.NoError(t, err)
	assert.Equal(t, form.Questions, again.Questions)
}

func TestLint(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want domain.IssueCode
	}{
		{name: "valid json", doc: validDoc},
		{name: "valid yaml", doc: "id: f\nquestions:\n  - id: q\n    content: {type: short_answer}\n"},
		{name: "not a document", doc: "id: [unclosed", want: domain.IssueUnknownVariant},
		{name: "dangling", doc: `{"id":"f","questions":[{"id":"q","content":{"type":"short_answer"},
		  "transition":{"type":"static","nextQuestionId":"ghost"}}]}`, want: domain.IssueDanglingRef},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Lint([]byte(tt.doc))
			if tt.want == "" {
				assert.Empty(t, issues)
				return
			}
			require.NotEmpty(t, issues)
			assert.Equal(t, tt.want, issues[0].Code)
		})
	}
}
