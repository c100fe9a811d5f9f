package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"licitaciones-backend/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize bounds a single PDF upload.
const maxUploadSize = 50 * 1024 * 1024

// SessionHandler handles HTTP requests for analysis sessions.
type SessionHandler struct {
	sessions *service.SessionService
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	view := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    view,
	})
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	view, err := h.sessions.Get(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    view,
	})
}

// ResetSession handles DELETE /api/sessions/:id
func (h *SessionHandler) ResetSession(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Reset(id); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UploadDocument handles POST /api/sessions/:id/documents
func (h *SessionHandler) UploadDocument(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "MISSING_FILE",
				"message": "File is required",
			},
		})
		return
	}

	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_TOO_LARGE",
				"message": fmt.Sprintf("File size exceeds maximum of %d bytes", int64(maxUploadSize)),
			},
		})
		return
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	isPDF := mimeType == "application/pdf" ||
		strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf")
	if !isPDF {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Solo se aceptan archivos PDF",
			},
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_OPEN_ERROR",
				"message": err.Error(),
			},
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_READ_ERROR",
				"message": err.Error(),
			},
		})
		return
	}

	if err := h.sessions.AddFile(id, fileHeader.Filename, data); err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"filename": fileHeader.Filename,
			"size":     fileHeader.Size,
		},
	})
}

// AddURLsRequest is the request body for adding URL references.
type AddURLsRequest struct {
	URLs []string `json:"urls" binding:"required"`
}

// AddURLs handles POST /api/sessions/:id/urls
func (h *SessionHandler) AddURLs(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req AddURLsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	accepted, err := h.sessions.AddURLs(id, req.URLs)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data": gin.H{
			"accepted": accepted,
			"rejected": len(req.URLs) - len(accepted),
		},
	})
}

// AskQuestionRequest is the request body for asking a question. Either a
// free-text question or a predefined question key must be set.
type AskQuestionRequest struct {
	Question      string `json:"question"`
	PredefinedKey string `json:"predefined_key"`
}

// AskQuestion handles POST /api/sessions/:id/questions
func (h *SessionHandler) AskQuestion(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req AskQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	question := req.Question
	if question == "" && req.PredefinedKey != "" {
		resolved, err := h.sessions.ResolveQuestion(req.PredefinedKey)
		if err != nil {
			h.writeError(c, err)
			return
		}
		question = resolved
	}

	answer, err := h.sessions.Ask(c.Request.Context(), id, question)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"answer": answer,
		},
	})
}

// Analyze handles POST /api/sessions/:id/analyze
// It runs the structured-summary question over the session's documents.
func (h *SessionHandler) Analyze(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	answer, summary, err := h.sessions.RunSummary(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	data := gin.H{"answer": answer}
	if summary != nil {
		data["recommendation_percent"] = summary.RecommendationPercent()
		data["recommendation_explain"] = summary.RecommendationExplain()
		data["fields"] = summary.Fields()
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
	})
}

// GetSummary handles GET /api/sessions/:id/summary
func (h *SessionHandler) GetSummary(c *gin.Context) {
	id, ok := h.sessionID(c)
	if !ok {
		return
	}

	summary, err := h.sessions.Summary(id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if summary == nil {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_SUMMARY",
				"message": "No se pudo mostrar la información en formato de tarjetas.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"recommendation_percent": summary.RecommendationPercent(),
			"recommendation_explain": summary.RecommendationExplain(),
			"fields":                 summary.Fields(),
		},
	})
}

// ListQuestions handles GET /api/questions
func (h *SessionHandler) ListQuestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"questions": service.QuestionKeys(),
		},
	})
}

func (h *SessionHandler) sessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_SESSION_ID",
				"message": "Invalid session ID format",
			},
		})
		return uuid.Nil, false
	}
	return id, true
}

// writeError maps service errors to the response envelope. Input errors
// carry the user-facing Spanish message.
func (h *SessionHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "SESSION_NOT_FOUND",
				"message": "Session not found",
			},
		})
	case errors.Is(err, service.ErrEmptyQuestion):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "EMPTY_QUESTION",
				"message": "Pregunta vacía",
			},
		})
	case errors.Is(err, service.ErrNoDocuments):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "NO_DOCUMENTS",
				"message": "Por favor, sube un archivo PDF o proporciona una URL de PDF primero!",
			},
		})
	case errors.Is(err, service.ErrUnknownQuestion):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "UNKNOWN_QUESTION",
				"message": "Unknown predefined question key",
			},
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INTERNAL_ERROR",
				"message": err.Error(),
			},
		})
	}
}
