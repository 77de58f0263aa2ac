/*
Package ports defines the driven ports (interfaces) of the formflow engine.

These interfaces decouple the resolution logic from external implementations,
allowing the engine to work with various storage backends, oracle providers and
rate limit counters.

# Key Interfaces

  - FormStore: Persists and loads authored forms (memory, file, Redis).
  - Oracle: Answers an instruction about some input text (e.g. an Ollama model).
  - CounterStore: Holds fixed-window request counters for rate limiting.
  - Clock: The time source used by rate limiting, replaceable in tests.
*/
package ports
