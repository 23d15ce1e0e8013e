// Package ai adapts third-party generative text services and the reference
// image lookup to the interfaces the service layer consumes. Nothing here
// interprets the text a provider returns; extraction is the caller's job.
package ai

import "context"

// Generator produces free text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Provider names accepted by New.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderNone   = "none"
)
