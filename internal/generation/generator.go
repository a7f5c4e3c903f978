package generation

import "context"

// Generator defines the interface for producing an answer to a question.
// It is the boundary between task handlers and the external LLM service.
type Generator interface {
	// SolveQuestion generates an answer for the given question text.
	// Returns ErrTransientFailure (wrapped) for failures worth retrying,
	// ErrContentBlocked when safety filters reject the content, and
	// ErrInvalidResponse when the model returns nothing usable.
	SolveQuestion(ctx context.Context, question string) (string, error)
}

// Embedder defines the interface for producing vector embeddings of text.
type Embedder interface {
	// EmbedTexts returns one embedding vector per input text, in input
	// order. Error semantics match Generator.SolveQuestion.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
