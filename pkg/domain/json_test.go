package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/formflow/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const budgetFormJSON = `{
  "id": "budget",
  "name": "Budget intake",
  "questions": [
    {
      "id": "q1",
      "title": "What is your budget?",
      "content": {"type": "short_answer", "placeholder": "e.g. 5000"},
      "position": {"x": 250, "y": 50},
      "transition": {"type": "static", "nextQuestionId": "q2"}
    },
    {
      "id": "q2",
      "title": "Tell us more",
      "content": {"type": "long_answer"},
      "position": null,
      "transition": {
        "type": "rule_based",
        "routes": [
          {
            "condition": {
              "type": "and",
              "conditions": [
                {"type": "predicate", "evaluationPrompt": "budget over 5k", "model": "llama3", "temperature": 0},
                {"type": "not", "condition": {"type": "predicate", "evaluationPrompt": "is a student", "model": "llama3", "temperature": 0}}
              ]
            },
            "nextQuestionId": "q3"
          }
        ],
        "fallbackNextQuestionId": null
      }
    },
    {
      "id": "q3",
      "content": {"type": "informational", "contentSource": "generated", "generation": {"prompt": "Congratulate them", "model": "llama3", "temperature": 0.7}},
      "position": {"x": 250, "y": 450},
      "transition": {"type": "model_directed", "instructionPrompt": "Pick", "model": "llama3", "temperature": 0.3}
    }
  ],
  "viewport": {"x": 0, "y": 0, "zoom": 1},
  "createdAt": "2026-01-02T03:04:05Z",
  "updatedAt": "2026-01-02T03:04:05Z"
}`

func TestFormJSON_Decode(t *testing.T) {
	var form domain.Form
	require.NoError(t, json.Unmarshal([]byte(budgetFormJSON), &form))
	require.NoError(t, domain.Validate(&form))

	require.Len(t, form.Questions, 3)
	assert.Equal(t, domain.ShortAnswer{Placeholder: "e.g. 5000"}, form.Questions[0].Content)
	assert.Equal(t, domain.Static{NextQuestionID: "q2"}, form.Questions[0].Transition)
	assert.Nil(t, form.Questions[1].Position)

	rb, ok := form.Questions[1].Transition.(domain.RuleBased)
	require.True(t, ok)
	assert.Empty(t, rb.FallbackNextQuestionID)
	and, ok := rb.Routes[0].Condition.(domain.And)
	require.True(t, ok)
	require.Len(t, and.Conditions, 2)
	assert.Equal(t, domain.Not{Condition: domain.Predicate{EvaluationPrompt: "is a student", Model: "llama3"}}, and.Conditions[1])

	gen, ok := form.Questions[2].GenerationPrompt()
	require.True(t, ok)
	assert.Equal(t, 0.7, gen.Temperature)
}

func TestFormJSON_EncodeIsStable(t *testing.T) {
	var form domain.Form
	require.NoError(t, json.Unmarshal([]byte(budgetFormJSON), &form))

	out, err := json.Marshal(&form)
	require.NoError(t, err)
	assert.JSONEq(t, budgetFormJSON, string(out))
}

func TestQuestionJSON_Defaults(t *testing.T) {
	var q domain.Question
	require.NoError(t, json.Unmarshal([]byte(`{"id":"q1","content":null}`), &q))

	assert.Equal(t, domain.ShortAnswer{}, q.Content)
	assert.Equal(t, domain.Static{}, q.Transition)

	out, err := json.Marshal(q)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"id": "q1",
		"content": {"type": "short_answer"},
		"position": null,
		"transition": {"type": "static", "nextQuestionId": null}
	}`, string(out))
}

func TestQuestionJSON_UnknownVariants(t *testing.T) {
	tests := map[string]string{
		"content":    `{"id":"q","content":{"type":"video"}}`,
		"transition": `{"id":"q","content":{"type":"short_answer"},"transition":{"type":"random"}}`,
		"condition": `{"id":"q","content":{"type":"short_answer"},"transition":{"type":"rule_based",
			"routes":[{"condition":{"type":"xor"},"nextQuestionId":null}]}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			var q domain.Question
			assert.Error(t, json.Unmarshal([]byte(doc), &q))
		})
	}
}
