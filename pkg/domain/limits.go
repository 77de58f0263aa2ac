package domain

// Size limits applied to authored prompts and runtime oracle input.
const (
	MaxPromptLength  = 5000
	MaxContextLength = 50000
)

// EndCandidate is the token a model-directed oracle returns to finish the form.
// It is reserved and cannot be used as a question id.
const EndCandidate = "end"

// Defaults used when a strategy is synthesized rather than authored.
const (
	DefaultModel       = "llama3"
	DefaultTemperature = 0.3

	DefaultInstructionPrompt = "Based on the respondent's answers so far, choose the most appropriate next question."
)
