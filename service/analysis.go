package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"licitaciones-backend/fetcher"
	"licitaciones-backend/models"

	"go.uber.org/zap"
)

// NoDocumentsMessage is the user-facing sentinel returned when no source
// produced an answer. It is a rendered message, not an error.
const NoDocumentsMessage = "Error: No se proporcionaron documentos. Por favor, sube un archivo PDF o proporciona una URL de PDF."

// AnalysisService runs the per-document question pipeline: fetch every
// source, send it to the model with the composed prompt, and aggregate the
// answers.
type AnalysisService struct {
	fetcher *fetcher.Fetcher
	model   ModelClient
	logger  *zap.Logger
}

// AnalysisServiceOption is a functional option for AnalysisService.
type AnalysisServiceOption func(*AnalysisService)

// WithFetcher sets the document fetcher.
func WithFetcher(f *fetcher.Fetcher) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.fetcher = f
	}
}

// WithModelClient sets the model client.
func WithModelClient(m ModelClient) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.model = m
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) AnalysisServiceOption {
	return func(s *AnalysisService) {
		s.logger = logger
	}
}

// NewAnalysisService creates a new analysis service.
func NewAnalysisService(opts ...AnalysisServiceOption) *AnalysisService {
	s := &AnalysisService{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AnalyzeRequest carries one question over a batch of sources. History is
// the conversational context, already truncated by the caller; its last
// turn is the in-flight one and is excluded from the transcript.
type AnalyzeRequest struct {
	Sources  []models.Source
	Question string
	History  []models.ChatTurn
}

// AnalyzeResult holds the per-source answers in source order and their
// rendered Markdown aggregation.
type AnalyzeResult struct {
	Responses []models.SourceResponse
	Markdown  string
}

// Analyze processes every source independently and in order. A failing
// source (fetch error, model error, empty reply) is logged with its reason
// and dropped; it never aborts the batch.
func (s *AnalysisService) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	if s.fetcher == nil {
		return nil, errors.New("fetcher not set")
	}
	if s.model == nil {
		return nil, errors.New("model client not set")
	}

	prompt := BuildPrompt(req.Question, req.History)

	responses := make([]models.SourceResponse, 0, len(req.Sources))
	for _, src := range req.Sources {
		data, name, err := s.fetcher.Fetch(ctx, src)
		if err != nil {
			s.logger.Warn("skipping source: fetch failed",
				zap.String("source", src.Label()),
				zap.Error(err),
			)
			continue
		}

		answer, err := s.model.Generate(ctx, data, prompt)
		if err != nil {
			s.logger.Warn("skipping source: model call failed",
				zap.String("filename", name),
				zap.Error(err),
			)
			continue
		}
		if answer == "" {
			s.logger.Warn("skipping source: empty model reply",
				zap.String("filename", name),
			)
			continue
		}

		responses = append(responses, models.SourceResponse{
			Filename: name,
			Response: answer,
		})
	}

	return &AnalyzeResult{
		Responses: responses,
		Markdown:  RenderResponses(responses),
	}, nil
}

// RenderResponses joins per-document answers with a horizontal rule, in
// source order. With nothing to render it returns the no-documents
// sentinel message.
func RenderResponses(responses []models.SourceResponse) string {
	if len(responses) == 0 {
		return NoDocumentsMessage
	}
	parts := make([]string, 0, len(responses))
	for _, r := range responses {
		parts = append(parts, fmt.Sprintf("**%s**\n%s", r.Filename, r.Response))
	}
	return strings.Join(parts, "\n\n---\n\n")
}
