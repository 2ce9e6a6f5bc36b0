package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

var (
	student = &domain.Profile{ID: "alice", Name: "Alice", Role: domain.RoleStudent}
	other   = &domain.Profile{ID: "bob", Name: "Bob", Role: domain.RoleStudent}
	staff   = &domain.Profile{ID: "carla", Name: "Carla", Role: domain.RoleStaff}
)

type stubSuggester struct {
	input SuggestInput
	out   *Suggestion
	err   error
	calls int
}

func (s *stubSuggester) Suggest(_ context.Context, input SuggestInput) (*Suggestion, error) {
	s.calls++
	s.input = input
	return s.out, s.err
}

type ticketFixture struct {
	svc        *TicketService
	store      *memoryTicketStore
	dispatcher *recordingDispatcher
	suggester  *stubSuggester
}

func newTicketFixture(t *testing.T, applyPriority bool) *ticketFixture {
	t.Helper()
	store := newMemoryTicketStore()
	dispatcher := &recordingDispatcher{}
	suggester := &stubSuggester{out: &Suggestion{Answer: "Reinicie o roteador.", Priority: domain.TicketPriorityUrgent}}
	svc := NewTicketService(TicketDependencies{
		TicketRepo:            store,
		ResponseRepo:          store,
		HistoryRepo:           memoryHistory{store: store},
		Assistant:             suggester,
		Dispatcher:            dispatcher,
		AcceptAppliesPriority: applyPriority,
	})
	return &ticketFixture{svc: svc, store: store, dispatcher: dispatcher, suggester: suggester}
}

func validInput() TicketCreateInput {
	return TicketCreateInput{
		Requester: domain.Requester{
			Name:           "Alice Souza",
			RegistrationID: "RA123",
			Email:          "alice@campus.edu",
			Program:        "Engenharia",
		},
		Title:       "Wi-Fi caiu",
		Description: "Sistema parado no laboratório",
	}
}

func (f *ticketFixture) create(t *testing.T) *domain.Ticket {
	t.Helper()
	ticket, err := f.svc.CreateTicket(context.Background(), student, validInput())
	require.NoError(t, err)
	return ticket
}

func TestCreateTicket_DefaultsToOpenAndMedium(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket := f.create(t)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, student.ID, ticket.OwnerID)
	assert.EqualValues(t, 1, ticket.Number)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.types())
}

func TestCreateTicket_Validation(t *testing.T) {
	f := newTicketFixture(t, false)

	input := validInput()
	input.Title = "  "
	_, err := f.svc.CreateTicket(context.Background(), student, input)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, "VALIDATION_FAILED", de.Code)
	assert.Equal(t, []string{"titulo"}, de.Details["fields"])

	input = validInput()
	input.Priority = "Crítica"
	_, err = f.svc.CreateTicket(context.Background(), student, input)
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestLifecycle_OpenInProgressResolvedThenLocked(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	resp, err := f.svc.AddResponse(ctx, staff, ticket.ID, "Estamos verificando.")
	require.NoError(t, err)
	assert.False(t, resp.IsAI)

	got, err := f.svc.GetTicket(ctx, student, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)

	resolved, err := f.svc.Resolve(ctx, staff, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, resolved.Status)

	_, err = f.svc.AddResponse(ctx, staff, ticket.ID, "mais uma")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	_, err = f.svc.AddResponse(ctx, student, ticket.ID, "ainda com problema")
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	_, err = f.svc.UpdateStatus(ctx, staff, ticket.ID, domain.TicketStatusInProgress)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
	_, err = f.svc.ConsultAssistant(ctx, student, ticket.ID)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	responses, err := f.svc.ListResponses(ctx, student, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, responses, 1)

	history, err := f.svc.ListHistory(ctx, student, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.TicketStatusOpen, history[0].From)
	assert.Equal(t, domain.TicketStatusInProgress, history[0].To)
	assert.Equal(t, domain.TicketStatusResolved, history[1].To)
}

func TestAddResponse_RequesterReplyResumesAwaitingTicket(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.AddResponse(ctx, student, ticket.ID, "Alguma novidade?")
	require.NoError(t, err)
	got, _ := f.svc.GetTicket(ctx, student, ticket.ID)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)

	_, err = f.svc.UpdateStatus(ctx, staff, ticket.ID, domain.TicketStatusInProgress)
	require.NoError(t, err)
	_, err = f.svc.UpdateStatus(ctx, staff, ticket.ID, domain.TicketStatusAwaitingReply)
	require.NoError(t, err)

	_, err = f.svc.AddResponse(ctx, student, ticket.ID, "Segue o print.")
	require.NoError(t, err)
	got, _ = f.svc.GetTicket(ctx, student, ticket.ID)
	assert.Equal(t, domain.TicketStatusInProgress, got.Status)
}

func TestAddResponse_SanitizesMarkup(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket := f.create(t)

	resp, err := f.svc.AddResponse(context.Background(), staff, ticket.ID, `<script>alert(1)</script><b>Feito</b>`)
	require.NoError(t, err)
	assert.Equal(t, "Feito", resp.Message)

	_, err = f.svc.AddResponse(context.Background(), staff, ticket.ID, "<i></i>")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))
}

func TestVisibility_OtherRequesterSeesNothing(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.GetTicket(ctx, other, ticket.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))
	_, err = f.svc.AddResponse(ctx, other, ticket.ID, "oi")
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	mine, err := f.svc.ListTickets(ctx, other, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, mine)

	all, err := f.svc.ListTickets(ctx, staff, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteTicket(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	err := f.svc.DeleteTicket(ctx, other, ticket.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))
	err = f.svc.DeleteTicket(ctx, staff, ticket.ID)
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	require.NoError(t, f.svc.DeleteTicket(ctx, student, ticket.ID))
	_, err = f.svc.GetTicket(ctx, student, ticket.ID)
	assert.True(t, apperrors.IsCode(err, "NOT_FOUND"))

	resolved := f.create(t)
	_, err = f.svc.Resolve(ctx, staff, resolved.ID)
	require.NoError(t, err)
	err = f.svc.DeleteTicket(ctx, student, resolved.ID)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestConsultAssistant_UsesTitleAndDescription(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket := f.create(t)

	suggestion, err := f.svc.ConsultAssistant(context.Background(), student, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reinicie o roteador.", suggestion.Answer)
	assert.Equal(t, "Wi-Fi caiu\n\nSistema parado no laboratório", f.suggester.input.Question)

	stored, _ := f.svc.GetTicket(context.Background(), student, ticket.ID)
	assert.Nil(t, stored.AIAnswer)
	assert.Equal(t, domain.TicketStatusOpen, stored.Status)
}

func TestAcceptSuggestion_ResolvesWithAIResponse(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.AcceptSuggestion(ctx, staff, ticket.ID, "Reinicie o roteador.")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	accepted, err := f.svc.AcceptSuggestion(ctx, student, ticket.ID, "Reinicie o roteador.")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusResolved, accepted.Status)
	require.NotNil(t, accepted.AIAnswer)
	assert.Equal(t, "Reinicie o roteador.", *accepted.AIAnswer)
	assert.Equal(t, domain.TicketPriorityMedium, accepted.Priority)

	responses, err := f.svc.ListResponses(ctx, student, ticket.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.True(t, responses[0].IsAI)
	assert.Equal(t, domain.AcceptedSuggestionMessage, responses[0].Message)
}

func TestAcceptSuggestion_CanApplyClassifierPriority(t *testing.T) {
	f := newTicketFixture(t, true)
	ticket := f.create(t)

	accepted, err := f.svc.AcceptSuggestion(context.Background(), student, ticket.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, domain.TicketPriorityUrgent, accepted.Priority)
}

func TestRejectSuggestion_NoStateChange(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket := f.create(t)

	got, err := f.svc.RejectSuggestion(context.Background(), student, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, got.Status)
	assert.Equal(t, []events.EventType{events.EventTicketCreated}, f.dispatcher.types())
}

func TestForwardToDepartment(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	_, err := f.svc.ForwardToDepartment(ctx, student, ticket.ID, "Infraestrutura")
	assert.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	forwarded, err := f.svc.ForwardToDepartment(ctx, staff, ticket.ID, "Infraestrutura")
	require.NoError(t, err)
	require.NotNil(t, forwarded.Department)
	assert.Equal(t, "Infraestrutura", *forwarded.Department)
	assert.Equal(t, domain.TicketStatusInProgress, forwarded.Status)
}

func TestUpdateStatus_RejectsInvalidTransition(t *testing.T) {
	f := newTicketFixture(t, false)
	ticket := f.create(t)

	_, err := f.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusAwaitingReply)
	assert.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = f.svc.UpdateStatus(context.Background(), staff, ticket.ID, "Pendente")
	assert.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	closed, err := f.svc.UpdateStatus(context.Background(), staff, ticket.ID, domain.TicketStatusClosed)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusClosed, closed.Status)
}

func TestStaleWriteSurfacesAsConflict(t *testing.T) {
	f := newTicketFixture(t, false)
	ctx := context.Background()
	ticket := f.create(t)

	// another session resolves the ticket behind the service's back
	f.store.tickets[ticket.ID].Status = domain.TicketStatusResolved
	stale := *ticket
	err := f.store.Update(ctx, &stale, nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(storeError("ticket", err), "CONFLICT"))
}

type mapListCache struct {
	gen   int
	pages map[string][]domain.Ticket
	// beforeStore runs between a miss and the store read.
	beforeStore func()
}

func (m *mapListCache) Get(_ context.Context, scope, query string) ([]domain.Ticket, string, bool) {
	slot := fmt.Sprintf("%d|%s|%s", m.gen, scope, query)
	p, ok := m.pages[slot]
	if !ok && m.beforeStore != nil {
		hook := m.beforeStore
		m.beforeStore = nil
		defer hook()
	}
	return p, slot, ok
}

func (m *mapListCache) Set(_ context.Context, slot string, tickets []domain.Ticket) {
	m.pages[slot] = tickets
}

func (m *mapListCache) Invalidate(context.Context) error {
	m.gen++
	return nil
}

func TestListTickets_ServesFromCache(t *testing.T) {
	f := newTicketFixture(t, false)
	f.svc.listCache = &mapListCache{pages: map[string][]domain.Ticket{}}
	f.create(t)

	for i := 0; i < 3; i++ {
		tickets, err := f.svc.ListTickets(context.Background(), student, TicketListFilter{})
		require.NoError(t, err)
		assert.Len(t, tickets, 1)
	}
	assert.Equal(t, 1, f.store.listCalls)
}

func TestListTickets_WriterSeesOwnChange(t *testing.T) {
	f := newTicketFixture(t, false)
	cache := &mapListCache{pages: map[string][]domain.Ticket{}}
	f.svc.listCache = cache
	ctx := context.Background()

	tickets, err := f.svc.ListTickets(ctx, student, TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets)

	f.create(t)
	tickets, err = f.svc.ListTickets(ctx, student, TicketListFilter{})
	require.NoError(t, err)
	assert.Len(t, tickets, 1)
}

func TestListTickets_PageReadAcrossInvalidationIsNotServed(t *testing.T) {
	f := newTicketFixture(t, false)
	cache := &mapListCache{pages: map[string][]domain.Ticket{}}
	f.svc.listCache = cache
	ctx := context.Background()

	// a concurrent change lands after the miss but before the page is stored
	cache.beforeStore = func() { require.NoError(t, cache.Invalidate(ctx)) }
	_, err := f.svc.ListTickets(ctx, student, TicketListFilter{})
	require.NoError(t, err)

	calls := f.store.listCalls
	_, err = f.svc.ListTickets(ctx, student, TicketListFilter{})
	require.NoError(t, err)
	assert.Equal(t, calls+1, f.store.listCalls)
}
