package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// ModelClient sends a PDF document and a composed prompt to a generative
// model and returns the raw text reply. An empty reply means the model
// produced no usable answer.
type ModelClient interface {
	Generate(ctx context.Context, document []byte, prompt string) (string, error)
}

const (
	geminiModel = "gemini-2.5-flash"

	// The upstream design had no request deadline; the bound here is a
	// documented deviation so a stuck call cannot block a session forever.
	generateTimeout = 120 * time.Second
)

// GeminiClient implements ModelClient against the Gemini API. Single
// request per call, no streaming, no retry.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

// NewGeminiClient wraps an initialized genai client.
func NewGeminiClient(client *genai.Client, logger *zap.Logger) *GeminiClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		client: client,
		model:  geminiModel,
		logger: logger,
	}
}

// Generate sends the document as a PDF attachment alongside the prompt.
func (c *GeminiClient) Generate(ctx context.Context, document []byte, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, generateTimeout)
	defer cancel()

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: "application/pdf", Data: document},
		genai.Text(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		c.logger.Warn("gemini returned no text",
			zap.String("model", c.model),
			zap.Int("candidates", len(resp.Candidates)),
		)
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return b.String()
}
