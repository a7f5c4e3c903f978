package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/eulerhq/euler-api/internal/config"
	"github.com/eulerhq/euler-api/internal/generation"
)

// solvePromptTemplate frames the question for the model. The worked,
// step-by-step register keeps answers reviewable rather than bare results.
const solvePromptTemplate = `You are a careful problem solver. Answer the following question.
Show your reasoning step by step, then state the final answer on its own line prefixed with "Answer:".

Question:
%s`

// Client implements generation.Generator and generation.Embedder using the
// Google Gemini API. It performs no internal retries; transient failures
// are reported as generation.ErrTransientFailure and the caller decides
// whether to try again.
type Client struct {
	client         *genai.Client
	model          string
	embeddingModel string
	logger         *slog.Logger
}

var (
	_ generation.Generator = (*Client)(nil)
	_ generation.Embedder  = (*Client)(nil)
)

// NewClient creates a Gemini-backed generation client from the LLM
// configuration. Returns generation.ErrInvalidConfig when required fields
// are missing.
func NewClient(ctx context.Context, logger *slog.Logger, cfg config.LLMConfig) (*Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: missing Gemini API key", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: missing model name", generation.ErrInvalidConfig)
	}
	if logger == nil {
		logger = slog.Default()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{
		client:         client,
		model:          cfg.ModelName,
		embeddingModel: cfg.EmbeddingModel,
		logger:         logger.With(slog.String("component", "gemini_client")),
	}, nil
}

// SolveQuestion implements generation.Generator.SolveQuestion
func (c *Client) SolveQuestion(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: empty question", generation.ErrGenerationFailed)
	}

	prompt := fmt.Sprintf(solvePromptTemplate, question)
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", c.mapAPIError(ctx, err)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		c.logger.WarnContext(ctx, "prompt blocked by safety filters",
			slog.String("block_reason", string(resp.PromptFeedback.BlockReason)))
		return "", generation.ErrContentBlocked
	}
	if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason == genai.FinishReasonSafety {
		return "", generation.ErrContentBlocked
	}

	answer := resp.Text()
	if strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: empty completion", generation.ErrInvalidResponse)
	}

	return answer, nil
}

// EmbedTexts implements generation.Embedder.EmbedTexts
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if c.embeddingModel == "" {
		return nil, fmt.Errorf("%w: missing embedding model name", generation.ErrInvalidConfig)
	}
	if len(texts) == 0 {
		return nil, nil
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	resp, err := c.client.Models.EmbedContent(ctx, c.embeddingModel, contents, nil)
	if err != nil {
		return nil, c.mapAPIError(ctx, err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			generation.ErrInvalidResponse, len(texts), len(resp.Embeddings))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, embedding := range resp.Embeddings {
		if embedding == nil || len(embedding.Values) == 0 {
			return nil, fmt.Errorf("%w: empty embedding at index %d",
				generation.ErrInvalidResponse, i)
		}
		embeddings[i] = embedding.Values
	}
	return embeddings, nil
}

// mapAPIError classifies a Gemini API failure as transient or permanent.
// Rate limits, timeouts, and server-side errors are transient; everything
// else (bad request, auth) will not improve with retries.
func (c *Client) mapAPIError(ctx context.Context, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 408, 429, 500, 502, 503, 504:
			c.logger.WarnContext(ctx, "transient Gemini API error",
				slog.Int("code", apiErr.Code),
				slog.String("status", apiErr.Status))
			return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
		default:
			return fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
		}
	}

	// Network-level failures arrive untyped; treat them as retryable.
	return fmt.Errorf("%w: %v", generation.ErrTransientFailure, err)
}
