package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"licitaciones-backend/fetcher"
	"licitaciones-backend/models"
	"licitaciones-backend/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubModel answers from a fixed function and records the prompts it saw.
type stubModel struct {
	answer  func(document []byte, prompt string) (string, error)
	prompts []string
}

func (m *stubModel) Generate(ctx context.Context, document []byte, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.answer == nil {
		return "respuesta", nil
	}
	return m.answer(document, prompt)
}

func newTestAnalysis(t *testing.T, model ModelClient) *AnalysisService {
	t.Helper()
	scratch, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	return NewAnalysisService(
		WithFetcher(fetcher.New(scratch)),
		WithModelClient(model),
	)
}

func TestAnalyzeSingleFile(t *testing.T) {
	model := &stubModel{}
	svc := newTestAnalysis(t, model)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Sources:  []models.Source{models.FileSource("pliego.pdf", []byte("%PDF"))},
		Question: "¿Presupuesto?",
	})
	require.NoError(t, err)

	require.Len(t, result.Responses, 1)
	assert.Equal(t, "pliego.pdf", result.Responses[0].Filename)
	assert.Equal(t, "**pliego.pdf**\nrespuesta", result.Markdown)

	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "Pregunta: ¿Presupuesto?")
}

func TestAnalyzeSkipsFailingSourceAndContinues(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	model := &stubModel{}
	svc := newTestAnalysis(t, model)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Sources: []models.Source{
			models.URLSource(srv.URL + "/broken.pdf"),
			models.FileSource("ok.pdf", []byte("%PDF")),
		},
		Question: "¿Presupuesto?",
	})
	require.NoError(t, err)

	require.Len(t, result.Responses, 1)
	assert.Equal(t, "ok.pdf", result.Responses[0].Filename)
}

func TestAnalyzeSkipsModelErrorAndEmptyReply(t *testing.T) {
	model := &stubModel{
		answer: func(document []byte, prompt string) (string, error) {
			switch string(document) {
			case "fails":
				return "", errors.New("api error")
			case "empty":
				return "", nil
			default:
				return "ok", nil
			}
		},
	}
	svc := newTestAnalysis(t, model)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Sources: []models.Source{
			models.FileSource("a.pdf", []byte("fails")),
			models.FileSource("b.pdf", []byte("empty")),
			models.FileSource("c.pdf", []byte("good")),
		},
		Question: "q",
	})
	require.NoError(t, err)

	require.Len(t, result.Responses, 1)
	assert.Equal(t, "c.pdf", result.Responses[0].Filename)
}

func TestAnalyzePreservesSourceOrder(t *testing.T) {
	model := &stubModel{
		answer: func(document []byte, prompt string) (string, error) {
			return "R-" + string(document), nil
		},
	}
	svc := newTestAnalysis(t, model)

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Sources: []models.Source{
			models.FileSource("x.pdf", []byte("1")),
			models.FileSource("y.pdf", []byte("2")),
			models.FileSource("z.pdf", []byte("3")),
		},
		Question: "q",
	})
	require.NoError(t, err)

	require.Len(t, result.Responses, 3)
	assert.Equal(t, "x.pdf", result.Responses[0].Filename)
	assert.Equal(t, "y.pdf", result.Responses[1].Filename)
	assert.Equal(t, "z.pdf", result.Responses[2].Filename)
}

func TestAnalyzeZeroSourcesReturnsSentinel(t *testing.T) {
	svc := newTestAnalysis(t, &stubModel{})

	result, err := svc.Analyze(context.Background(), AnalyzeRequest{Question: "q"})
	require.NoError(t, err)

	assert.Empty(t, result.Responses)
	assert.Equal(t, NoDocumentsMessage, result.Markdown)
}

func TestAnalyzeWithoutDependencies(t *testing.T) {
	_, err := NewAnalysisService().Analyze(context.Background(), AnalyzeRequest{Question: "q"})
	assert.Error(t, err)
}

func TestRenderResponses(t *testing.T) {
	rendered := RenderResponses([]models.SourceResponse{
		{Filename: "x.pdf", Response: "R1"},
		{Filename: "y.pdf", Response: "R2"},
	})
	assert.Equal(t, "**x.pdf**\nR1\n\n---\n\n**y.pdf**\nR2", rendered)
}

func TestRenderResponsesEmpty(t *testing.T) {
	assert.Equal(t, NoDocumentsMessage, RenderResponses(nil))
}
