package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// StaffTicketsHandler handles the transitions only staff may apply.
type StaffTicketsHandler struct {
	tickets TicketWorkflow
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService TicketWorkflow) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService}
}

// Forward POST /chamados/:id/encaminhar.
func (h *StaffTicketsHandler) Forward(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.ForwardRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.ForwardToDepartment(c.UserContext(), staff, id, req.Department)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// UpdateStatus POST /chamados/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.StatusUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), staff, id, req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

// Resolve POST /chamados/:id/resolver.
func (h *StaffTicketsHandler) Resolve(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "ticket")
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Resolve(c.UserContext(), staff, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(ticket)})
}

func staffPrincipal(c *fiber.Ctx) (*domain.Profile, error) {
	profile, err := currentProfile(c)
	if err != nil {
		return nil, err
	}
	if !profile.IsStaff() {
		return nil, apperrors.NewForbidden("staff role required")
	}
	return profile, nil
}
