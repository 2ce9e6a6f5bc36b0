package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketWorkflow is the ticket lifecycle as seen by the HTTP layer.
type TicketWorkflow interface {
	CreateTicket(ctx context.Context, actor *domain.Profile, input service.TicketCreateInput) (*domain.Ticket, error)
	ListTickets(ctx context.Context, actor *domain.Profile, filter service.TicketListFilter) ([]domain.Ticket, error)
	GetTicket(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error)
	ListResponses(ctx context.Context, actor *domain.Profile, ticketID string) ([]domain.Response, error)
	ListHistory(ctx context.Context, actor *domain.Profile, ticketID string) ([]domain.StatusChange, error)
	AddResponse(ctx context.Context, actor *domain.Profile, ticketID, message string) (*domain.Response, error)
	ConsultAssistant(ctx context.Context, actor *domain.Profile, ticketID string) (*service.Suggestion, error)
	AcceptSuggestion(ctx context.Context, actor *domain.Profile, ticketID, answer string) (*domain.Ticket, error)
	RejectSuggestion(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error)
	ForwardToDepartment(ctx context.Context, actor *domain.Profile, ticketID, department string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, actor *domain.Profile, ticketID string, next domain.TicketStatus) (*domain.Ticket, error)
	Resolve(ctx context.Context, actor *domain.Profile, ticketID string) (*domain.Ticket, error)
	DeleteTicket(ctx context.Context, actor *domain.Profile, ticketID string) error
}

// TicketsHandler manages ticket endpoints for requesters and staff.
type TicketsHandler struct {
	service TicketWorkflow
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService TicketWorkflow) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /chamados.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CreateTicketRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.UserContext(), actor, service.TicketCreateInput{
		Requester: domain.Requester{
			Name:           req.StudentName,
			RegistrationID: req.RegistrationID,
			Email:          req.Email,
			Program:        req.Program,
		},
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// ListTickets GET /chamados.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.ListTickets(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /chamados/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.GetTicket(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// DeleteTicket DELETE /chamados/:id.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	if err := h.service.DeleteTicket(c.UserContext(), actor, id); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListResponses GET /chamados/:id/respostas.
func (h *TicketsHandler) ListResponses(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	responses, err := h.service.ListResponses(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.ResponseMessage, 0, len(responses))
	for i := range responses {
		items = append(items, responseMessage(&responses[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AddResponse POST /chamados/:id/respostas.
func (h *TicketsHandler) AddResponse(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CreateResponseRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	resp, err := h.service.AddResponse(c.UserContext(), actor, id, req.Message)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": responseMessage(resp)})
}

// ListHistory GET /chamados/:id/historico.
func (h *TicketsHandler) ListHistory(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	history, err := h.service.ListHistory(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	items := make([]dto.StatusChangeResponse, 0, len(history))
	for _, entry := range history {
		items = append(items, dto.StatusChangeResponse{
			ID:        entry.ID,
			ChangedBy: entry.ChangedBy,
			From:      entry.From,
			To:        entry.To,
			CreatedAt: entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// ConsultAssistant POST /chamados/:id/ia.
func (h *TicketsHandler) ConsultAssistant(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	suggestion, err := h.service.ConsultAssistant(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{
		Answer:   suggestion.Answer,
		Priority: suggestion.Priority,
	}})
}

// AcceptSuggestion POST /chamados/:id/ia/aceitar.
func (h *TicketsHandler) AcceptSuggestion(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.AcceptSuggestionRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.AcceptSuggestion(c.UserContext(), actor, id, req.Answer)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// RejectSuggestion POST /chamados/:id/ia/rejeitar.
func (h *TicketsHandler) RejectSuggestion(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.service.RejectSuggestion(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func currentProfile(c *fiber.Ctx) (*domain.Profile, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Profile == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Profile, nil
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	categoryID, err := uuidQuery(c, "categoria_id")
	if err != nil {
		return service.TicketListFilter{}, err
	}
	filter := service.TicketListFilter{
		CategoryID:  categoryID,
		CreatedFrom: parseTime(c.Query("created_from")),
		CreatedTo:   parseTime(c.Query("created_to")),
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			if part = strings.TrimSpace(part); part != "" {
				filter.Statuses = append(filter.Statuses, domain.TicketStatus(part))
			}
		}
	}
	filter.Limit, filter.Offset = pageBounds(c, 20)
	return filter, nil
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:         ticket.ID,
		Number:     ticket.Number,
		Title:      ticket.Title,
		CategoryID: ticket.CategoryID,
		Status:     ticket.Status,
		Priority:   ticket.Priority,
		Department: ticket.Department,
		CreatedAt:  ticket.CreatedAt,
		UpdatedAt:  ticket.UpdatedAt,
	}
}

func ticketDetail(ticket *domain.Ticket) dto.TicketDetailResponse {
	return dto.TicketDetailResponse{
		ID:             ticket.ID,
		Number:         ticket.Number,
		StudentName:    ticket.Requester.Name,
		RegistrationID: ticket.Requester.RegistrationID,
		Email:          ticket.Requester.Email,
		Program:        ticket.Requester.Program,
		CategoryID:     ticket.CategoryID,
		Title:          ticket.Title,
		Description:    ticket.Description,
		Priority:       ticket.Priority,
		Status:         ticket.Status,
		Department:     ticket.Department,
		OwnerID:        ticket.OwnerID,
		AIAnswer:       ticket.AIAnswer,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func responseMessage(resp *domain.Response) dto.ResponseMessage {
	return dto.ResponseMessage{
		ID:         resp.ID,
		TicketID:   resp.TicketID,
		AuthorID:   resp.AuthorID,
		AuthorName: resp.AuthorName,
		Message:    resp.Message,
		IsAI:       resp.IsAI,
		CreatedAt:  resp.CreatedAt,
	}
}
