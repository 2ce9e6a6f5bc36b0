package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CatalogHandler serves categories and the FAQ.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListCategories GET /categorias.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// CreateCategory POST /categorias.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.CategoryRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	category, err := h.catalog.CreateCategory(c.UserContext(), actor, req.Name, req.Description)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListFAQ GET /faq.
func (h *CatalogHandler) ListFAQ(c *fiber.Ctx) error {
	categoryID, err := uuidQuery(c, "categoria_id")
	if err != nil {
		return err
	}
	entries, err := h.catalog.ListFAQ(c.UserContext(), categoryID)
	if err != nil {
		return err
	}
	resp := make([]dto.FAQResponse, 0, len(entries))
	for i := range entries {
		resp = append(resp, faqResponse(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": resp})
}

// GetFAQ GET /faq/:id. Each read counts as a view.
func (h *CatalogHandler) GetFAQ(c *fiber.Ctx) error {
	id, err := pathID(c, "faq")
	if err != nil {
		return err
	}
	entry, err := h.catalog.ViewFAQ(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": faqResponse(entry)})
}

// CreateFAQ POST /faq.
func (h *CatalogHandler) CreateFAQ(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	var req dto.FAQRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	entry, err := h.catalog.CreateFAQ(c.UserContext(), actor, req.CategoryID, req.Question, req.Answer)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": faqResponse(entry)})
}

// MarkHelpful POST /faq/:id/util.
func (h *CatalogHandler) MarkHelpful(c *fiber.Ctx) error {
	actor, err := currentProfile(c)
	if err != nil {
		return err
	}
	id, err := pathID(c, "faq")
	if err != nil {
		return err
	}
	entry, err := h.catalog.MarkHelpful(c.UserContext(), actor, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": faqResponse(entry)})
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		CreatedAt:   category.CreatedAt,
	}
}

func faqResponse(entry *domain.FAQEntry) dto.FAQResponse {
	return dto.FAQResponse{
		ID:         entry.ID,
		CategoryID: entry.CategoryID,
		Question:   entry.Question,
		Answer:     entry.Answer,
		Helpful:    entry.Helpful,
		Views:      entry.Views,
		CreatedAt:  entry.CreatedAt,
	}
}
