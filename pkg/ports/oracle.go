package ports

import "context"

// OracleRequest is one call to a language model.
type OracleRequest struct {
	Instruction string
	Input       string
	Model       string
	Temperature float64
}

// Oracle answers an instruction about some input text.
// Implementations must honour ctx cancellation and deadlines.
type Oracle interface {
	Call(ctx context.Context, req OracleRequest) (string, error)
}

// OracleFunc adapts a function to the Oracle interface.
type OracleFunc func(ctx context.Context, req OracleRequest) (string, error)

// Call implements Oracle.
func (f OracleFunc) Call(ctx context.Context, req OracleRequest) (string, error) {
	return f(ctx, req)
}
