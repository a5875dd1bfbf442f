package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-api/internal/application/billing"
	"github.com/jhoicas/facturacion-api/internal/application/dto"
)

// DocumentHandler maneja el ciclo de vida HTTP de los documentos electrónicos:
// creación, emisión DIAN, consulta de estado, reintento y descarga del XML.
type DocumentHandler struct {
	docs         *billing.DocumentService
	orchestrator *billing.IssueOrchestrator
	tracker      *billing.StatusTracker
}

// NewDocumentHandler construye el handler.
func NewDocumentHandler(
	docs *billing.DocumentService,
	orchestrator *billing.IssueOrchestrator,
	tracker *billing.StatusTracker,
) *DocumentHandler {
	return &DocumentHandler{docs: docs, orchestrator: orchestrator, tracker: tracker}
}

// Create crea un documento en estado CREADA reservando el consecutivo.
// POST /api/documents
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateDocumentRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	doc, err := h.docs.Create(c.Context(), companyID, in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(doc)
}

// Issue dispara la emisión DIAN (CUFE, firma, envío) en segundo plano.
// POST /api/documents/:id/issue
func (h *DocumentHandler) Issue(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	id := c.Params("id")
	// La verificación de pertenencia ocurre aquí; el orquestador asume un ID ya autorizado.
	if _, err := h.docs.Get(c.Context(), companyID, id); err != nil {
		return fail(c, err)
	}
	h.orchestrator.ProcessAsync(id)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"document_id": id,
		"message":     "emisión en proceso, consulte /status",
	})
}

// Status devuelve el estado consolidado frente a la DIAN (polling).
// GET /api/documents/:id/status
func (h *DocumentHandler) Status(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	id := c.Params("id")
	if _, err := h.docs.Get(c.Context(), companyID, id); err != nil {
		return fail(c, err)
	}
	status, err := h.tracker.GetStatus(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(status)
}

// Retry reintenta el envío de un documento firmado (máximo 3 envíos).
// POST /api/documents/:id/retry
func (h *DocumentHandler) Retry(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	id := c.Params("id")
	if _, err := h.docs.Get(c.Context(), companyID, id); err != nil {
		return fail(c, err)
	}
	result, err := h.tracker.RetrySend(c.Context(), id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// GetByID devuelve el documento con sus líneas.
// GET /api/documents/:id
func (h *DocumentHandler) GetByID(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	doc, err := h.docs.Get(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(doc)
}

// DownloadXML descarga el XML UBL firmado.
// GET /api/documents/:id/xml
func (h *DocumentHandler) DownloadXML(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	xml, err := h.docs.SignedXML(c.Context(), companyID, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/xml")
	return c.SendString(xml)
}

// List lista los documentos de la empresa; ?status= filtra por estado.
// GET /api/documents
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var page dto.PageRequest
	if err := c.QueryParser(&page); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "paginación inválida"})
	}
	page.DefaultPage()
	docs, err := h.docs.List(c.Context(), companyID, c.Query("status"), page.Limit, page.Offset)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(docs)
}
