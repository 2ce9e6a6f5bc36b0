package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/assistant"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/knowledge"
	"github.com/spec-kit/helpdesk-service/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// SuggestInput is a question submitted to the assistant.
type SuggestInput struct {
	Question   string
	CategoryID *string
}

// Suggestion is the assistant's draft answer. Priority is empty when the
// classifier result is not exposed.
type Suggestion struct {
	Answer   string
	Priority domain.TicketPriority
}

// AssistService grounds questions in the FAQ and asks the completion provider.
type AssistService struct {
	retriever       *knowledge.Retriever
	answerer        assistant.Answerer
	includePriority bool
	logger          *zap.Logger
}

// NewAssistService builds the service.
func NewAssistService(retriever *knowledge.Retriever, answerer assistant.Answerer, includePriority bool, logger *zap.Logger) *AssistService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssistService{
		retriever:       retriever,
		answerer:        answerer,
		includePriority: includePriority,
		logger:          logger,
	}
}

// Suggest answers input.Question. The knowledge base is best effort; an
// empty one still reaches the provider.
func (s *AssistService) Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, apperrors.NewValidationError("pergunta é obrigatória", nil)
	}

	started := time.Now()
	kb := s.retriever.FetchContext(ctx, input.CategoryID, 0)
	answer, err := s.answerer.GenerateAnswer(ctx, question, kb)
	if err != nil {
		return nil, err
	}
	s.logger.Info("assistant answered",
		zap.Int("faq_pairs", kb.Len()),
		zap.Duration("latency", time.Since(started)))

	suggestion := &Suggestion{Answer: answer}
	if s.includePriority {
		suggestion.Priority = triage.Classify(question)
	}
	return suggestion, nil
}
