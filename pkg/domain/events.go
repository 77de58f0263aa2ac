package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventOracleCall     EventType = "oracle_call"
	EventResolve        EventType = "resolve"
	EventPromptRejected EventType = "prompt_rejected"
	EventRateLimited    EventType = "rate_limited"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	FormID    string    `json:"form_id"`
}

// OracleEvent describes one completed oracle call.
type OracleEvent struct {
	EventBase
	Op       string        `json:"op"` // "predicate", "model_directed", "generate"
	Model    string        `json:"model"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// ResolveEvent describes one resolution attempt.
type ResolveEvent struct {
	EventBase
	QuestionID string       `json:"question_id"`
	Strategy   StrategyKind `json:"strategy"`
	NextID     string       `json:"next_id,omitempty"`
	Err        error        `json:"-"`
}

// GuardEvent describes a rejected prompt. It never carries the full text.
type GuardEvent struct {
	EventBase
	PromptPrefix string `json:"prompt_prefix"`
	PromptLength int    `json:"prompt_length"`
}

// RateLimitEvent describes a rejected request.
type RateLimitEvent struct {
	EventBase
	Limiter string `json:"limiter"`
	Key     string `json:"key"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnOracleCall     func(context.Context, *OracleEvent)
	OnResolve        func(context.Context, *ResolveEvent)
	OnPromptRejected func(context.Context, *GuardEvent)
	OnRateLimited    func(context.Context, *RateLimitEvent)
}
