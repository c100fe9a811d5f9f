package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"licitaciones-backend/models"
	"licitaciones-backend/validation"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrEmptyQuestion   = errors.New("empty question")
	ErrNoDocuments     = errors.New("no documents in session")
	ErrUnknownQuestion = errors.New("unknown predefined question")
)

const (
	processingPlaceholder = "Procesando..."
	summaryPlaceholder    = "Procesando resumen de licitación..."

	noAnswerMessage      = "No se generó ninguna respuesta"
	summaryFailedMessage = "No se pudo generar el resumen de la licitación"
	requestFailedMessage = "Error: No se pudo procesar la solicitud. Por favor, verifica tu conexión a internet e inténtalo de nuevo."

	// Conversational context sent to the model is capped to the most
	// recent turns to stay inside the context window.
	historyWindow = 10
)

// session is the per-user conversation state: chat history, document lists,
// and the latest structured summary. State lives in process memory only.
type session struct {
	id        uuid.UUID
	createdAt time.Time
	history   []models.ChatTurn
	files     []models.Source
	urls      []string
	summary   models.Summary
}

// sources snapshots the session's documents as pipeline sources: uploaded
// files first, then URL references that still parse as valid URLs.
func (s *session) sources() []models.Source {
	out := make([]models.Source, 0, len(s.files)+len(s.urls))
	out = append(out, s.files...)
	for _, raw := range s.urls {
		raw = strings.TrimSpace(raw)
		if raw == "" || !validation.IsValidURL(raw) {
			continue
		}
		out = append(out, models.URLSource(raw))
	}
	return out
}

// SessionView is a read-only snapshot of a session.
type SessionView struct {
	ID        uuid.UUID         `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	History   []models.ChatTurn `json:"history"`
	Documents []string          `json:"documents"`
	URLs      []string          `json:"urls"`
	HasSummary bool             `json:"has_summary"`
}

// SessionService owns every session and drives the analysis pipeline on
// their behalf. The pipeline itself is stateless; all shared mutable state
// is confined here behind the mutex.
type SessionService struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session

	analysis *AnalysisService
	logger   *zap.Logger
}

// SessionServiceOption is a functional option for SessionService.
type SessionServiceOption func(*SessionService)

// SessionWithAnalysisService sets the analysis service.
func SessionWithAnalysisService(analysis *AnalysisService) SessionServiceOption {
	return func(s *SessionService) {
		s.analysis = analysis
	}
}

// SessionWithLogger sets the service logger.
func SessionWithLogger(logger *zap.Logger) SessionServiceOption {
	return func(s *SessionService) {
		s.logger = logger
	}
}

// NewSessionService creates a new session service.
func NewSessionService(opts ...SessionServiceOption) *SessionService {
	s := &SessionService{
		sessions: make(map[uuid.UUID]*session),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts a new empty session.
func (s *SessionService) Create() *SessionView {
	sess := &session{
		id:        uuid.New(),
		createdAt: time.Now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	return snapshot(sess)
}

// Get returns a snapshot of a session.
func (s *SessionService) Get(id uuid.UUID) (*SessionView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return snapshot(sess), nil
}

// Reset clears a session's history, documents, and summary. The session
// itself stays usable.
func (s *SessionService) Reset(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.history = nil
	sess.files = nil
	sess.urls = nil
	sess.summary = nil
	return nil
}

// AddFile attaches an uploaded PDF payload to the session.
func (s *SessionService) AddFile(id uuid.UUID, name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	sess.files = append(sess.files, models.FileSource(name, data))
	return nil
}

// AddURLs attaches URL references to the session, keeping only strings that
// parse as valid URLs. A PDF suffix is deliberately not required. Returns
// the accepted URLs.
func (s *SessionService) AddURLs(id uuid.UUID, urls []string) ([]string, error) {
	accepted := make([]string, 0, len(urls))
	for _, raw := range urls {
		raw = strings.TrimSpace(raw)
		if raw == "" || !validation.IsValidURL(raw) {
			continue
		}
		accepted = append(accepted, raw)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	sess.urls = append(sess.urls, accepted...)
	return accepted, nil
}

// ResolveQuestion maps a predefined question key to its detailed body.
func (s *SessionService) ResolveQuestion(key string) (string, error) {
	body, ok := PredefinedQuestion(key)
	if !ok {
		return "", ErrUnknownQuestion
	}
	return body, nil
}

// Ask runs one question over every document in the session. The turn is
// appended with a processing placeholder before the pipeline runs and the
// placeholder is replaced exactly once with the final answer; readers never
// observe an intermediate state.
func (s *SessionService) Ask(ctx context.Context, id uuid.UUID, question string) (string, error) {
	if s.analysis == nil {
		return "", errors.New("analysis service not set")
	}
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return "", ErrSessionNotFound
	}
	sources := sess.sources()
	if len(sources) == 0 {
		s.mu.Unlock()
		return "", ErrNoDocuments
	}
	sess.history = append(sess.history, models.ChatTurn{
		Question: question,
		Answer:   processingPlaceholder,
	})
	history := tailCopy(sess.history, historyWindow)
	s.mu.Unlock()

	answer := s.run(ctx, AnalyzeRequest{
		Sources:  sources,
		Question: question,
		History:  history,
	})
	if answer == "" {
		answer = noAnswerMessage
	}

	s.settle(id, processingPlaceholder, answer, nil)
	return answer, nil
}

// RunSummary asks the predefined structured-summary question, extracts the
// JSON summary from the answer, and stores it on the session.
func (s *SessionService) RunSummary(ctx context.Context, id uuid.UUID) (string, models.Summary, error) {
	if s.analysis == nil {
		return "", nil, errors.New("analysis service not set")
	}
	question := summaryQuestion

	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return "", nil, ErrSessionNotFound
	}
	sources := sess.sources()
	if len(sources) == 0 {
		s.mu.Unlock()
		return "", nil, ErrNoDocuments
	}
	sess.history = append(sess.history, models.ChatTurn{
		Question:            question,
		Answer:              summaryPlaceholder,
		IsStructuredSummary: true,
	})
	history := tailCopy(sess.history, len(sess.history))
	s.mu.Unlock()

	answer := s.run(ctx, AnalyzeRequest{
		Sources:  sources,
		Question: question,
		History:  history,
	})

	var summary models.Summary
	if answer != "" {
		summary = ExtractJSON(answer)
	}
	if answer == "" {
		answer = summaryFailedMessage
	}

	s.settle(id, summaryPlaceholder, answer, summary)
	return answer, summary, nil
}

// Summary returns the session's latest structured summary, or nil when none
// has been extracted yet.
func (s *SessionService) Summary(id uuid.UUID) (models.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess.summary, nil
}

// run invokes the pipeline. Pipeline-level failures become the user-facing
// request failure message; per-source failures are already handled inside
// Analyze.
func (s *SessionService) run(ctx context.Context, req AnalyzeRequest) string {
	result, err := s.analysis.Analyze(ctx, req)
	if err != nil {
		s.logger.Error("analysis pipeline failed", zap.Error(err))
		return requestFailedMessage
	}
	return result.Markdown
}

// settle replaces the in-flight placeholder with the final answer and, when
// present, stores the extracted summary.
func (s *SessionService) settle(id uuid.UUID, placeholder, answer string, summary models.Summary) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	if n := len(sess.history); n > 0 && sess.history[n-1].Answer == placeholder {
		sess.history[n-1].Answer = answer
	}
	if summary != nil {
		sess.summary = summary
	}
}

func snapshot(sess *session) *SessionView {
	view := &SessionView{
		ID:         sess.id,
		CreatedAt:  sess.createdAt,
		History:    make([]models.ChatTurn, len(sess.history)),
		Documents:  make([]string, 0, len(sess.files)),
		URLs:       make([]string, len(sess.urls)),
		HasSummary: sess.summary != nil,
	}
	copy(view.History, sess.history)
	copy(view.URLs, sess.urls)
	for _, f := range sess.files {
		view.Documents = append(view.Documents, f.Name)
	}
	return view
}

func tailCopy(history []models.ChatTurn, n int) []models.ChatTurn {
	if len(history) > n {
		history = history[len(history)-n:]
	}
	out := make([]models.ChatTurn, len(history))
	copy(out, history)
	return out
}
