// Package rag orchestrates retrieval-augmented answering: retrieve context,
// build a prompt, generate, and log the conversation turns.
package rag

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/annai/internal/generation"
	"github.com/hyperjump/annai/internal/models"
	"github.com/hyperjump/annai/internal/retrieval"
	"github.com/hyperjump/annai/internal/storage"
)

// FallbackResponse is returned when generation fails. The caller always
// gets a well-formed answer, never an error.
const FallbackResponse = "I'm having trouble processing your request right now. Please try again later."

// Answer confidence is a fixed constant, not a computed score.
const answerConfidence = 0.9

// Config holds orchestrator tuning. Zero values select the defaults.
type Config struct {
	TopK              int
	HistoryTurns      int
	GenerationTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.TopK <= 0 {
		c.TopK = 3
	}
	if c.HistoryTurns <= 0 {
		c.HistoryTurns = 3
	}
	if c.GenerationTimeout <= 0 {
		c.GenerationTimeout = 30 * time.Second
	}
}

// Orchestrator answers user queries with retrieved context and persists the
// conversation.
type Orchestrator struct {
	retriever *retrieval.Service
	generator generation.Generator
	sessions  storage.Storage
	config    Config
	logger    *zap.Logger
	now       func() time.Time
}

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

// NewOrchestrator creates an orchestrator with the given dependencies.
func NewOrchestrator(
	retriever *retrieval.Service,
	generator generation.Generator,
	sessions storage.Storage,
	cfg Config,
	opts ...OrchestratorOption,
) *Orchestrator {
	cfg.applyDefaults()
	o := &Orchestrator{
		retriever: retriever,
		generator: generator,
		sessions:  sessions,
		config:    cfg,
		logger:    zap.NewNop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Answer runs one RAG turn. Retrieval and generation failures are absorbed:
// the response degrades (empty sources, fallback text with confidence 0)
// instead of surfacing an error.
func (o *Orchestrator) Answer(ctx context.Context, query, userID, sessionID string) (*models.AnswerResponse, error) {
	if sessionID == "" {
		sessionID = fmt.Sprintf("session_%s_%d", userID, o.now().UnixNano())
	}

	sources, err := o.retriever.Retrieve(ctx, query, o.config.TopK)
	if err != nil {
		o.logger.Warn("context retrieval failed, answering without context",
			zap.String("session_id", sessionID), zap.Error(err))
		sources = []models.RetrievalResult{}
	}

	session := o.loadSession(ctx, sessionID, userID)
	history := lastTurns(session.Turns, o.config.HistoryTurns*2)

	prompt := buildPrompt(query, sources, history)
	genCtx, cancel := context.WithTimeout(ctx, o.config.GenerationTimeout)
	defer cancel()
	text, err := o.generator.Generate(genCtx, prompt)
	if err != nil {
		o.logger.Warn("generation failed, returning fallback",
			zap.String("session_id", sessionID), zap.Error(err))
		return &models.AnswerResponse{
			Response:   FallbackResponse,
			Confidence: 0.0,
			Sources:    []models.RetrievalResult{},
			SessionID:  sessionID,
			Timestamp:  o.now(),
		}, nil
	}

	now := o.now()
	session.Turns = append(session.Turns,
		models.ConversationTurn{Role: models.RoleUser, Content: query, Timestamp: now},
		models.ConversationTurn{Role: models.RoleAssistant, Content: text, Timestamp: now},
	)
	session.UpdatedAt = now
	if err := o.sessions.UpsertSession(ctx, session); err != nil {
		// The answer is still good; only the conversation log is behind.
		o.logger.Warn("session persist failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	return &models.AnswerResponse{
		Response:   text,
		Confidence: answerConfidence,
		Sources:    sources,
		SessionID:  sessionID,
		Timestamp:  now,
	}, nil
}

// History returns a session's turns. A missing session or one owned by a
// different user yields an empty slice, not an error.
func (o *Orchestrator) History(ctx context.Context, sessionID, userID string) ([]models.ConversationTurn, error) {
	session, err := o.sessions.GetSession(ctx, sessionID)
	if errors.Is(err, storage.ErrNotFound) {
		return []models.ConversationTurn{}, nil
	}
	if err != nil {
		return nil, err
	}
	if userID != "" && session.UserID != userID {
		return []models.ConversationTurn{}, nil
	}
	return session.Turns, nil
}

// loadSession fetches an existing session or starts a fresh one. Sessions
// are owned by one user; an id collision across users starts over.
func (o *Orchestrator) loadSession(ctx context.Context, sessionID, userID string) *models.ChatSession {
	session, err := o.sessions.GetSession(ctx, sessionID)
	if err == nil && session.UserID == userID {
		return session
	}
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		o.logger.Warn("session load failed, starting fresh",
			zap.String("session_id", sessionID), zap.Error(err))
	}
	now := o.now()
	return &models.ChatSession{
		SessionID: sessionID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func lastTurns(turns []models.ConversationTurn, n int) []models.ConversationTurn {
	if len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}
