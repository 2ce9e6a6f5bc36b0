package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	"github.com/spec-kit/helpdesk-service/internal/triage"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ListCache stores ticket list pages between requests. Get returns the slot
// a page read after a miss must be stored under.
type ListCache interface {
	Get(ctx context.Context, scope, query string) ([]domain.Ticket, string, bool)
	Set(ctx context.Context, slot string, tickets []domain.Ticket)
	Invalidate(ctx context.Context) error
}

// Suggester drafts an AI answer for a question.
type Suggester interface {
	Suggest(ctx context.Context, input SuggestInput) (*Suggestion, error)
}

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets    repository.TicketRepository
	responses  repository.ResponseRepository
	history    repository.TicketHistoryRepository
	assistant  Suggester
	dispatcher events.Dispatcher
	listCache  ListCache
	sanitizer  *bluemonday.Policy
	logger     *zap.Logger

	acceptAppliesPriority bool
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo   repository.TicketRepository
	ResponseRepo repository.ResponseRepository
	HistoryRepo  repository.TicketHistoryRepository
	Assistant    Suggester
	Dispatcher   events.Dispatcher
	ListCache    ListCache
	Logger       *zap.Logger
	// AcceptAppliesPriority overwrites the ticket priority with the classifier
	// result when a suggestion is accepted.
	AcceptAppliesPriority bool
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Requester   domain.Requester
	CategoryID  *string
	Title       string
	Description string
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters.
type TicketListFilter struct {
	Statuses    []domain.TicketStatus
	CategoryID  *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TicketService{
		tickets:               deps.TicketRepo,
		responses:             deps.ResponseRepo,
		history:               deps.HistoryRepo,
		assistant:             deps.Assistant,
		dispatcher:            deps.Dispatcher,
		listCache:             deps.ListCache,
		sanitizer:             bluemonday.StrictPolicy(),
		logger:                logger,
		acceptAppliesPriority: deps.AcceptAppliesPriority,
	}
}

// CreateTicket opens a ticket owned by actor.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.Profile, input TicketCreateInput) (*domain.Ticket, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	ticket := &domain.Ticket{
		Requester: domain.Requester{
			Name:           strings.TrimSpace(input.Requester.Name),
			RegistrationID: strings.TrimSpace(input.Requester.RegistrationID),
			Email:          strings.TrimSpace(input.Requester.Email),
			Program:        strings.TrimSpace(input.Requester.Program),
		},
		CategoryID:  input.CategoryID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Priority:    input.Priority,
		Status:      domain.TicketStatusOpen,
		OwnerID:     actor.ID,
	}
	if ticket.Priority == "" {
		ticket.Priority = domain.TicketPriorityMedium
	}
	if err := validateTicket(ticket); err != nil {
		return nil, err
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, storeError("category", err)
	}
	s.publishEvent(ctx, actor, ticket, events.EventTicketCreated, map[string]any{
		"numero_chamado": ticket.Number,
		"prioridade":     string(ticket.Priority),
	})
	return ticket, nil
}

func validateTicket(ticket *domain.Ticket) error {
	required := []struct{ field, value string }{
		{"nome_aluno", ticket.Requester.Name},
		{"ra", ticket.Requester.RegistrationID},
		{"email", ticket.Requester.Email},
		{"curso", ticket.Requester.Program},
		{"titulo", ticket.Title},
		{"descricao", ticket.Description},
	}
	missing := []string{}
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.field)
		}
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("campos obrigatórios ausentes", map[string]any{"fields": missing})
	}
	if !ticket.Priority.Valid() {
		return apperrors.NewValidationError("prioridade inválida", map[string]any{"prioridade": ticket.Priority})
	}
	return nil
}

// ListTickets returns the caller's tickets, or every ticket for staff.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.Profile, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Statuses:    filter.Statuses,
		CategoryID:  filter.CategoryID,
		CreatedFrom: filter.CreatedFrom,
		CreatedTo:   filter.CreatedTo,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	}
	scope := "all"
	if !actor.IsStaff() {
		repoFilter.OwnerID = &actor.ID
		scope = "owner:" + actor.ID
	}

	var slot string
	if s.listCache != nil {
		cached, cachedSlot, ok := s.listCache.Get(ctx, scope, listQueryKey(repoFilter))
		if ok {
			return cached, nil
		}
		slot = cachedSlot
	}
	tickets, err := s.tickets.List(ctx, repoFilter)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	if s.listCache != nil {
		s.listCache.Set(ctx, slot, tickets)
	}
	return tickets, nil
}

func listQueryKey(f repository.TicketFilter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "s=%v", f.Statuses)
	if f.CategoryID != nil {
		fmt.Fprintf(&b, "|c=%s", *f.CategoryID)
	}
	if f.CreatedFrom != nil {
		fmt.Fprintf(&b, "|f=%d", f.CreatedFrom.Unix())
	}
	if f.CreatedTo != nil {
		fmt.Fprintf(&b, "|t=%d", f.CreatedTo.Unix())
	}
	fmt.Fprintf(&b, "|l=%d|o=%d", f.Limit, f.Offset)
	return b.String()
}

// GetTicket fetches a ticket visible to actor. Tickets of other requesters
// are reported as missing.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, storeError("ticket", err)
	}
	if !canView(actor, ticket) {
		return nil, apperrors.NewNotFound("ticket", nil)
	}
	return ticket, nil
}

// ListResponses returns the ticket's thread in creation order.
func (s *TicketService) ListResponses(ctx context.Context, actor *domain.Profile, ticketID string) ([]domain.Response, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	responses, err := s.responses.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError("response", err)
	}
	return responses, nil
}

// ListHistory returns the ticket's status changes.
func (s *TicketService) ListHistory(ctx context.Context, actor *domain.Profile, ticketID string) ([]domain.StatusChange, error) {
	if _, err := s.GetTicket(ctx, actor, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.StatusChange{}, nil
	}
	history, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, storeError("history", err)
	}
	return history, nil
}

// AddResponse appends a human response. A staff reply moves the ticket to
// Em andamento; a requester reply does so only when staff awaited it.
func (s *TicketService) AddResponse(ctx context.Context, actor *domain.Profile, ticketID, message string) (*domain.Response, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict(lockedTicketMessage, map[string]any{"status": ticket.Status})
	}
	body := strings.TrimSpace(s.sanitizer.Sanitize(message))
	if body == "" {
		return nil, apperrors.NewValidationError("mensagem é obrigatória", nil)
	}

	resp := &domain.Response{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Message:  body,
	}
	next := ticket.Status
	if actor.IsStaff() {
		next = domain.TicketStatusInProgress
	} else if ticket.Status == domain.TicketStatusAwaitingReply {
		next = domain.TicketStatusInProgress
	}

	var change *domain.StatusChange
	if next != ticket.Status {
		change = s.transition(ticket, actor, next)
	}
	if err := s.tickets.AppendResponse(ctx, resp, ticket, change); err != nil {
		return nil, storeError("ticket", err)
	}
	authorName := actor.Name
	resp.AuthorName = &authorName

	s.publishEvent(ctx, actor, ticket, events.EventResponseAdded, map[string]any{
		"resposta_id": resp.ID,
		"is_ia":       false,
	})
	if change != nil {
		s.publishEvent(ctx, actor, ticket, events.EventTicketUpdated, events.StatusPayload(change.From, change.To))
	}
	return resp, nil
}

// ConsultAssistant drafts an answer for the ticket. Nothing is stored.
func (s *TicketService) ConsultAssistant(ctx context.Context, actor *domain.Profile, ticketID string) (*Suggestion, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict(lockedTicketMessage, map[string]any{"status": ticket.Status})
	}
	if s.assistant == nil {
		return nil, apperrors.NewConfigurationError("assistente não configurado")
	}
	return s.assistant.Suggest(ctx, SuggestInput{
		Question:   ticket.AssistantQuestion(),
		CategoryID: ticket.CategoryID,
	})
}

// AcceptSuggestion records that the AI answer solved the requester's problem
// and resolves the ticket.
func (s *TicketService) AcceptSuggestion(ctx context.Context, actor *domain.Profile, ticketID, answer string) (*domain.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict(lockedTicketMessage, map[string]any{"status": ticket.Status})
	}
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return nil, apperrors.NewValidationError("resposta da IA é obrigatória", nil)
	}

	ticket.AIAnswer = &answer
	if s.acceptAppliesPriority {
		ticket.Priority = triage.Classify(ticket.AssistantQuestion())
	}
	change := s.transition(ticket, actor, domain.TicketStatusResolved)
	resp := &domain.Response{
		TicketID: ticket.ID,
		AuthorID: actor.ID,
		Message:  domain.AcceptedSuggestionMessage,
		IsAI:     true,
	}
	if err := s.tickets.AppendResponse(ctx, resp, ticket, change); err != nil {
		return nil, storeError("ticket", err)
	}

	s.publishEvent(ctx, actor, ticket, events.EventResponseAdded, map[string]any{
		"resposta_id": resp.ID,
		"is_ia":       true,
	})
	s.publishEvent(ctx, actor, ticket, events.EventTicketUpdated, events.StatusPayload(change.From, change.To))
	return ticket, nil
}

// RejectSuggestion leaves the ticket untouched; the rejection is only logged.
func (s *TicketService) RejectSuggestion(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.ownedTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("ai suggestion rejected",
		zap.String("ticket_id", ticket.ID),
		zap.String("actor_id", actor.ID))
	return ticket, nil
}

// ForwardToDepartment assigns the responsible department.
func (s *TicketService) ForwardToDepartment(ctx context.Context, actor *domain.Profile, ticketID, department string) (*domain.Ticket, error) {
	department = strings.TrimSpace(department)
	if department == "" {
		return nil, apperrors.NewValidationError("setor é obrigatório", nil)
	}
	ticket, err := s.staffTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	ticket.Department = &department

	var change *domain.StatusChange
	if ticket.Status != domain.TicketStatusInProgress {
		change = s.transition(ticket, actor, domain.TicketStatusInProgress)
	}
	if err := s.tickets.Update(ctx, ticket, change); err != nil {
		return nil, storeError("ticket", err)
	}
	payload := map[string]any{"setor_responsavel": department}
	if change != nil {
		payload = events.StatusPayload(change.From, change.To)
		payload["setor_responsavel"] = department
	}
	s.publishEvent(ctx, actor, ticket, events.EventTicketUpdated, payload)
	return ticket, nil
}

// UpdateStatus applies an explicit staff transition.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.Profile, ticketID string, next domain.TicketStatus) (*domain.Ticket, error) {
	if !next.Valid() {
		return nil, apperrors.NewValidationError("status inválido", map[string]any{"status": next})
	}
	ticket, err := s.staffTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if !isValidTransition(ticket.Status, next) {
		return nil, apperrors.NewConflict("transição de status inválida", map[string]any{
			"from": ticket.Status,
			"to":   next,
		})
	}
	change := s.transition(ticket, actor, next)
	if err := s.tickets.Update(ctx, ticket, change); err != nil {
		return nil, storeError("ticket", err)
	}
	s.publishEvent(ctx, actor, ticket, events.EventTicketUpdated, events.StatusPayload(change.From, change.To))
	return ticket, nil
}

// Resolve marks the ticket Resolvido.
func (s *TicketService) Resolve(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error) {
	return s.UpdateStatus(ctx, actor, ticketID, domain.TicketStatusResolved)
}

// DeleteTicket removes a non-terminal ticket owned by actor.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.Profile, ticketID string) error {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return storeError("ticket", err)
	}
	if ticket.OwnerID != actor.ID {
		return apperrors.NewForbidden("somente o autor pode excluir o chamado")
	}
	if ticket.Status.IsTerminal() {
		return apperrors.NewConflict(lockedTicketMessage, map[string]any{"status": ticket.Status})
	}
	if err := s.tickets.Delete(ctx, ticket.ID, actor.ID); err != nil {
		return storeError("ticket", err)
	}
	s.publishEvent(ctx, actor, ticket, events.EventTicketDeleted, nil)
	return nil
}

func (s *TicketService) ownedTicket(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.OwnerID != actor.ID {
		return nil, apperrors.NewForbidden("somente o autor do chamado pode avaliar a resposta da IA")
	}
	return ticket, nil
}

func (s *TicketService) staffTicket(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	ticket, err := s.GetTicket(ctx, actor, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.Status.IsTerminal() {
		return nil, apperrors.NewConflict(lockedTicketMessage, map[string]any{"status": ticket.Status})
	}
	return ticket, nil
}

// transition moves ticket to next and returns the matching audit entry.
func (s *TicketService) transition(ticket *domain.Ticket, actor *domain.Profile, next domain.TicketStatus) *domain.StatusChange {
	change := &domain.StatusChange{
		TicketID:  ticket.ID,
		ChangedBy: actor.ID,
		From:      ticket.Status,
		To:        next,
	}
	ticket.Status = next
	return change
}

func canView(actor *domain.Profile, ticket *domain.Ticket) bool {
	return actor != nil && (actor.IsStaff() || ticket.OwnerID == actor.ID)
}

// publishEvent drops this instance's cached list pages before announcing
// the change, so the writer's next list call never sees the old page even
// when the event is delivered asynchronously.
func (s *TicketService) publishEvent(ctx context.Context, actor *domain.Profile, ticket *domain.Ticket, eventType events.EventType, payload map[string]any) {
	if s.listCache != nil {
		if err := s.listCache.Invalidate(ctx); err != nil {
			s.logger.Warn("ticket list cache invalidation failed", zap.Error(err))
		}
	}
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticket.ID,
		OwnerID:   ticket.OwnerID,
		Actor:     events.Actor{ID: actor.ID, Role: actor.Role},
		Timestamp: time.Now(),
		Payload:   payload,
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("event_type", string(eventType)),
			zap.String("ticket_id", ticket.ID),
			zap.Error(err))
	}
}

var allowedTransitions = map[domain.TicketStatus][]domain.TicketStatus{
	domain.TicketStatusOpen:          {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusInProgress:    {domain.TicketStatusAwaitingReply, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusAwaitingReply: {domain.TicketStatusInProgress, domain.TicketStatusResolved, domain.TicketStatusClosed},
	domain.TicketStatusResolved:      {},
	domain.TicketStatusClosed:        {},
}

func isValidTransition(current, next domain.TicketStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}
