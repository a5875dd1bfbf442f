package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-api/internal/application/billing"
	"github.com/jhoicas/facturacion-api/internal/application/dto"
)

// CompanyHandler maneja las empresas emisoras (solo admin).
type CompanyHandler struct {
	companies *billing.CompanyService
}

// NewCompanyHandler construye el handler.
func NewCompanyHandler(companies *billing.CompanyService) *CompanyHandler {
	return &CompanyHandler{companies: companies}
}

// Create registra una empresa emisora.
// POST /api/companies
func (h *CompanyHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateCompanyRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	company, err := h.companies.Create(c.Context(), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(company)
}

// Me devuelve la empresa del token.
// GET /api/companies/me
func (h *CompanyHandler) Me(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	company, err := h.companies.Get(c.Context(), companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(company)
}
