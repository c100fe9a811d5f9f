package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"licitaciones-backend/fetcher"
	"licitaciones-backend/service"
	"licitaciones-backend/storage"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cannedModel returns a fixed answer for every document.
type cannedModel struct {
	answer string
	err    error
}

func (m *cannedModel) Generate(ctx context.Context, document []byte, prompt string) (string, error) {
	return m.answer, m.err
}

func newTestRouter(t *testing.T, model service.ModelClient) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	scratch, err := storage.NewLocal(t.TempDir())
	require.NoError(t, err)
	analysis := service.NewAnalysisService(
		service.WithFetcher(fetcher.New(scratch)),
		service.WithModelClient(model),
	)
	sessions := service.NewSessionService(service.SessionWithAnalysisService(analysis))
	h := NewSessionHandler(sessions)

	router := gin.New()
	api := router.Group("/api")
	api.GET("/questions", h.ListQuestions)
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.ResetSession)
	api.POST("/sessions/:id/documents", h.UploadDocument)
	api.POST("/sessions/:id/urls", h.AddURLs)
	api.POST("/sessions/:id/questions", h.AskQuestion)
	api.POST("/sessions/:id/analyze", h.Analyze)
	api.GET("/sessions/:id/summary", h.GetSummary)
	return router
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func createSession(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/api/sessions", nil)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	data, ok := body["data"].(map[string]any)
	require.True(t, ok)
	id, ok := data["id"].(string)
	require.True(t, ok)
	return id
}

func uploadPDF(t *testing.T, router *gin.Engine, sessionID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/sessions/%s/documents", sessionID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]any)
	require.True(t, ok)
	code, _ := errObj["code"].(string)
	return code
}

func TestCreateUploadAskFlow(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "El presupuesto es 100.000 EUR."})
	id := createSession(t, router)

	w := uploadPDF(t, router, id, "pliego.pdf", []byte("%PDF-1.4"))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/questions", id),
		gin.H{"question": "¿Cuál es el presupuesto?"})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	data := body["data"].(map[string]any)
	assert.Equal(t, "**pliego.pdf**\nEl presupuesto es 100.000 EUR.", data["answer"])

	w = doJSON(router, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	session := decodeBody(t, w)["data"].(map[string]any)
	history := session["history"].([]any)
	require.Len(t, history, 1)
}

func TestAskPredefinedQuestion(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "resumen"})
	id := createSession(t, router)
	uploadPDF(t, router, id, "pliego.pdf", []byte("%PDF"))

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/questions", id),
		gin.H{"predefined_key": "Resumen del documento"})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/questions", id),
		gin.H{"predefined_key": "no existe"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "UNKNOWN_QUESTION", errorCode(t, w))
}

func TestAskWithoutDocuments(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/questions", id),
		gin.H{"question": "¿Presupuesto?"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "NO_DOCUMENTS", errorCode(t, w))
	assert.Contains(t, w.Body.String(), "sube un archivo PDF")
}

func TestAskEmptyQuestion(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)
	uploadPDF(t, router, id, "pliego.pdf", []byte("%PDF"))

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/questions", id),
		gin.H{"question": ""})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_QUESTION", errorCode(t, w))
}

func TestUnknownSessionReturns404(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})

	w := doJSON(router, http.MethodGet, "/api/sessions/00000000-0000-0000-0000-000000000001", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", errorCode(t, w))
}

func TestInvalidSessionID(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})

	w := doJSON(router, http.MethodGet, "/api/sessions/not-a-uuid", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_SESSION_ID", errorCode(t, w))
}

func TestUploadRejectsNonPDF(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	w := uploadPDF(t, router, id, "notas.txt", []byte("texto plano"))
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FILE_TYPE", errorCode(t, w))
	assert.Contains(t, w.Body.String(), "Solo se aceptan archivos PDF")
}

func TestUploadMissingFile(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/sessions/%s/documents", id), strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MISSING_FILE", errorCode(t, w))
}

func TestAddURLsReportsAcceptedAndRejected(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/urls", id),
		gin.H{"urls": []string{"https://example.com/a.pdf", "no es url"}})
	require.Equal(t, http.StatusCreated, w.Code)

	data := decodeBody(t, w)["data"].(map[string]any)
	accepted := data["accepted"].([]any)
	assert.Len(t, accepted, 1)
	assert.EqualValues(t, 1, data["rejected"])
}

func TestAddURLsMissingBody(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/urls", id), gin.H{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, w))
}

func TestAnalyzeAndSummary(t *testing.T) {
	answer := "```json\n{\"porcentaje_recomendacion\": \"80%\", \"porcentaje_recomendacion_short_explain\": \"Buen encaje.\", \"presupuesto\": \"50.000 EUR\", \"solvencia_requerida\": \"No especificado\"}\n```"
	router := newTestRouter(t, &cannedModel{answer: answer})
	id := createSession(t, router)
	uploadPDF(t, router, id, "pliego.pdf", []byte("%PDF"))

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/api/sessions/%s/analyze", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Equal(t, "80%", data["recommendation_percent"])
	assert.Equal(t, "Buen encaje.", data["recommendation_explain"])

	w = doJSON(router, http.MethodGet, fmt.Sprintf("/api/sessions/%s/summary", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	data = decodeBody(t, w)["data"].(map[string]any)
	fields := data["fields"].([]any)
	require.Len(t, fields, 1)
	field := fields[0].(map[string]any)
	assert.Equal(t, "presupuesto", field["key"])
	assert.Equal(t, "Presupuesto", field["label"])
	assert.Equal(t, "50.000 EUR", field["value"])
}

func TestSummaryBeforeAnalyze(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)

	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/sessions/%s/summary", id), nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NO_SUMMARY", errorCode(t, w))
	assert.Contains(t, w.Body.String(), "formato de tarjetas")
}

func TestResetSession(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})
	id := createSession(t, router)
	uploadPDF(t, router, id, "pliego.pdf", []byte("%PDF"))

	w := doJSON(router, http.MethodDelete, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/api/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	assert.Empty(t, data["documents"])
}

func TestListQuestions(t *testing.T) {
	router := newTestRouter(t, &cannedModel{answer: "x"})

	w := doJSON(router, http.MethodGet, "/api/questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := decodeBody(t, w)["data"].(map[string]any)
	questions := data["questions"].([]any)
	assert.Len(t, questions, 11)
	assert.Equal(t, "Resumen del documento", questions[0])
}
