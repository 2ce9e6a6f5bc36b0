package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// StaffHandler exposes the staff directory.
type StaffHandler struct {
	provisioning *service.ProvisioningService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(provisioning *service.ProvisioningService) *StaffHandler {
	return &StaffHandler{provisioning: provisioning}
}

// ListStaff handles GET /funcionarios.
func (h *StaffHandler) ListStaff(c *fiber.Ctx) error {
	actor, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := pageBounds(c, 50)
	list, err := h.provisioning.ListStaff(c.UserContext(), actor, optionalQuery(c, "setor"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.ProfileResponse, 0, len(list))
	for i := range list {
		resp = append(resp, profileResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}
