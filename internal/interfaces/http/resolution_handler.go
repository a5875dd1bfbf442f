package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-api/internal/application/billing"
	"github.com/jhoicas/facturacion-api/internal/application/dto"
)

// ResolutionHandler maneja las resoluciones de numeración DIAN.
type ResolutionHandler struct {
	resolutions *billing.ResolutionService
}

// NewResolutionHandler construye el handler.
func NewResolutionHandler(resolutions *billing.ResolutionService) *ResolutionHandler {
	return &ResolutionHandler{resolutions: resolutions}
}

// Create registra una resolución de numeración.
// POST /api/resolutions
func (h *ResolutionHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateResolutionRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	res, err := h.resolutions.Create(c.Context(), companyID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// List lista las resoluciones de la empresa, vigentes y vencidas.
// GET /api/resolutions
func (h *ResolutionHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	out, err := h.resolutions.List(c.Context(), companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(out)
}
