package handlers

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// StaffCreatedMessage is returned when an account was provisioned.
const StaffCreatedMessage = "Funcionário criado com sucesso"

// StaffProvisioner creates staff accounts.
type StaffProvisioner interface {
	CreateStaff(ctx context.Context, actor *domain.Profile, input service.StaffAccountInput) (*domain.Profile, error)
}

// FunctionsHandler serves the /functions/v1 endpoints. Their errors are
// rendered as a flat {"error": message} body.
type FunctionsHandler struct {
	assistant    service.Suggester
	provisioning StaffProvisioner
}

// NewFunctionsHandler constructs handler.
func NewFunctionsHandler(assistant service.Suggester, provisioning StaffProvisioner) *FunctionsHandler {
	return &FunctionsHandler{assistant: assistant, provisioning: provisioning}
}

// AssistFAQ handles POST /functions/v1/faq-ia.
func (h *FunctionsHandler) AssistFAQ(c *fiber.Ctx) error {
	var req dto.AssistRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	suggestion, err := h.assistant.Suggest(c.UserContext(), service.SuggestInput{
		Question:   req.Question,
		CategoryID: req.CategoryID,
	})
	if err != nil {
		return edgeError(err)
	}
	return c.JSON(dto.AssistResponse{
		Answer:   suggestion.Answer,
		Priority: string(suggestion.Priority),
	})
}

// CreateStaff handles POST /functions/v1/criar-funcionario.
func (h *FunctionsHandler) CreateStaff(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CreateStaffRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	if _, err := h.provisioning.CreateStaff(c.UserContext(), actor, service.StaffAccountInput{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
	}); err != nil {
		return edgeError(err)
	}
	return c.JSON(dto.CreateStaffResponse{
		Success:  true,
		Message:  StaffCreatedMessage,
		Email:    req.Email,
		Password: req.Password,
	})
}

// edgeError keeps the statuses the endpoints document and reports every
// other failure as a 500 carrying its message.
func edgeError(err error) error {
	de := apperrors.ToDomainError(err)
	switch de.HTTPStatus {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusPaymentRequired, http.StatusTooManyRequests:
		return de
	}
	return &apperrors.DomainError{
		Code:       de.Code,
		Message:    de.Message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        de.Err,
	}
}
