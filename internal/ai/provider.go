package ai

import "context"

// GenerateRequest is the normalized input to a generative provider.
type GenerateRequest struct {
	Prompt            string
	SystemInstruction string
}

// CitationChunk is one raw grounding citation as reported by a provider,
// before normalization into types.Source.
type CitationChunk struct {
	URI     string
	Title   string
	Snippet string
}

// GenerateResult is the raw provider output.
type GenerateResult struct {
	Text      string
	Citations []CitationChunk
}

// Provider is the black-box generative capability behind the gateway:
// given a prompt it returns text plus optional citations, or fails.
type Provider interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Name() string
}
