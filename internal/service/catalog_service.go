package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// CatalogService manages categories and the FAQ knowledge base.
type CatalogService struct {
	categories repository.CategoryRepository
	faq        repository.FAQRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCatalogService builds the service.
func NewCatalogService(categories repository.CategoryRepository, faq repository.FAQRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{categories: categories, faq: faq, dispatcher: dispatcher, logger: logger}
}

// ListCategories returns every category.
func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, storeError("category", err)
	}
	return categories, nil
}

// CreateCategory adds a category.
func (s *CatalogService) CreateCategory(ctx context.Context, actor *domain.Profile, name string, description *string) (*domain.Category, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("nome é obrigatório", nil)
	}
	category := &domain.Category{Name: name, Description: description}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, storeError("category", err)
	}
	return category, nil
}

// ListFAQ returns entries, most helpful first.
func (s *CatalogService) ListFAQ(ctx context.Context, categoryID *string) ([]domain.FAQEntry, error) {
	entries, err := s.faq.List(ctx, categoryID)
	if err != nil {
		return nil, storeError("faq", err)
	}
	return entries, nil
}

// ViewFAQ returns an entry and counts the view.
func (s *CatalogService) ViewFAQ(ctx context.Context, id string) (*domain.FAQEntry, error) {
	if err := s.faq.IncrementViews(ctx, id); err != nil {
		return nil, storeError("faq", err)
	}
	entry, err := s.faq.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("faq", err)
	}
	return entry, nil
}

// CreateFAQ adds a knowledge base entry.
func (s *CatalogService) CreateFAQ(ctx context.Context, actor *domain.Profile, categoryID *string, question, answer string) (*domain.FAQEntry, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	question = strings.TrimSpace(question)
	answer = strings.TrimSpace(answer)
	if question == "" || answer == "" {
		return nil, apperrors.NewValidationError("pergunta e resposta são obrigatórias", nil)
	}
	entry := &domain.FAQEntry{CategoryID: categoryID, Question: question, Answer: answer}
	if err := s.faq.Create(ctx, entry); err != nil {
		return nil, storeError("faq", err)
	}
	s.publishChange(ctx, actor, entry.ID)
	return entry, nil
}

// MarkHelpful increments the entry's helpfulness, which raises it in the
// assistant's knowledge sample.
func (s *CatalogService) MarkHelpful(ctx context.Context, actor *domain.Profile, id string) (*domain.FAQEntry, error) {
	entry, err := s.faq.MarkHelpful(ctx, id)
	if err != nil {
		return nil, storeError("faq", err)
	}
	s.publishChange(ctx, actor, entry.ID)
	return entry, nil
}

func (s *CatalogService) publishChange(ctx context.Context, actor *domain.Profile, faqID string) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      events.EventFAQChanged,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload:   map[string]any{"faq_id": faqID},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}
