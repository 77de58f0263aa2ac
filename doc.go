/*
Package formflow resolves branching questionnaires whose transitions are fixed,
decided by a language model, or governed by boolean rules over model-evaluated
predicates.

# Concept

A form is an ordered list of questions. Each question carries a transition
strategy:

  - Static: always the same next question (or the end of the form).
  - ModelDirected: the oracle picks among every other question or "end".
  - RuleBased: ordered routes over Predicate/And/Or/Not conditions with a fallback.

The Engine answers "what comes next" for a question and an answer context.
Prompts submitted by clients are never trusted: they must match, after
trimming, a prompt authored in the stored form, and only the authored copy
is sent to the oracle. Every failure leaves the flow on the current question.

The same form is projected to and from the visual editor canvas; moving
nodes never changes transition logic.

# Usage

	store := memory.NewStore(form)
	engine := formflow.New(store, ollama.New("http://localhost:11434"),
		formflow.WithEvaluateLimiter(formflow.NewLimiter(formflow.LimiterEvaluate, 50, time.Minute,
			memory.NewCounterStore(time.Minute))),
	)

	next, err := engine.ResolveNext(ctx, formflow.ResolveRequest{
		FormID:     "budget",
		QuestionID: "q2",
		Context:    "I have $10k saved",
		ClientAddr: "203.0.113.7",
	})

# Errors

Failures are classified with errors.Is against the sentinels in pkg/domain:
ErrValidation and ErrInvalidPrompt are final, ErrRateLimited and
ErrOracleFailure may be retried by the caller (see domain.Retryable), and
ErrResolution means the oracle chose a question outside the candidates.
The engine itself never retries.
*/
package formflow
