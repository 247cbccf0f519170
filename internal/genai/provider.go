package genai

import "context"

// Provider generates text from a prompt. An empty result with a nil
// error means the provider produced nothing usable; the chain treats it
// the same as an error.
type Provider interface {
	// Generate returns the model output for the prompt.
	Generate(ctx context.Context, prompt string) (string, error)

	// Name identifies the provider in logs and metrics.
	Name() string
}
