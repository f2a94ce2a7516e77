package conversation

import "context"

// LLMClient produces a raw completion for a single prompt. The pipeline
// never trusts the output shape; every caller re-parses it defensively.
// Implementations must be safe for concurrent use.
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
