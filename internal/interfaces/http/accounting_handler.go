package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturacion-api/internal/application/accounting"
	"github.com/jhoicas/facturacion-api/internal/application/dto"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// AccountingHandler expone el módulo contable: inicialización del PUC,
// contabilización de documentos y reportes por período.
type AccountingHandler struct {
	puc     *accounting.PUCInitializer
	poster  *accounting.Poster
	reports *accounting.ReportService
}

// NewAccountingHandler construye el handler.
func NewAccountingHandler(
	puc *accounting.PUCInitializer,
	poster *accounting.Poster,
	reports *accounting.ReportService,
) *AccountingHandler {
	return &AccountingHandler{puc: puc, poster: poster, reports: reports}
}

// InitPUC crea el plan de cuentas mínimo de la empresa (idempotente).
// POST /api/accounting/puc/init
func (h *AccountingHandler) InitPUC(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	result, err := h.puc.Init(c.Context(), companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(result)
}

// HasPUC indica si la empresa ya tiene el plan de cuentas completo.
// GET /api/accounting/puc
func (h *AccountingHandler) HasPUC(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	if companyID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	ok, err := h.puc.HasPUC(c.Context(), companyID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"initialized": ok})
}

// PostDocument contabiliza un documento fiscal (idempotente por documento).
// POST /api/accounting/documents/:id/post
func (h *AccountingHandler) PostDocument(c *fiber.Ctx) error {
	entry, err := h.poster.PostDocument(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(journalResponse(entry))
}

// JournalByDocument devuelve el asiento generado por un documento.
// GET /api/accounting/documents/:id/journal
func (h *AccountingHandler) JournalByDocument(c *fiber.Ctx) error {
	entry, err := h.poster.JournalByDocument(c.Context(), GetCompanyID(c), c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(journalResponse(entry))
}

// BalanceReport genera el balance general del período (?from=2006-01-02&to=...).
// GET /api/accounting/reports/balance
func (h *AccountingHandler) BalanceReport(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	report, err := h.reports.BalanceGeneral(c.Context(), companyID, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// IncomeStatement genera el estado de resultados del período.
// GET /api/accounting/reports/income
func (h *AccountingHandler) IncomeStatement(c *fiber.Ctx) error {
	companyID := GetCompanyID(c)
	from, to, err := parsePeriod(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: err.Error()})
	}
	report, err := h.reports.EstadoResultados(c.Context(), companyID, from, to)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(report)
}

// parsePeriod lee from/to como 2006-01-02; to cubre el día completo.
func parsePeriod(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "from inválido, formato 2006-01-02")
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, fiber.NewError(fiber.StatusBadRequest, "to inválido, formato 2006-01-02")
	}
	return from, to.Add(24*time.Hour - time.Nanosecond), nil
}

func journalResponse(entry *entity.JournalEntry) *dto.JournalEntryResponse {
	out := &dto.JournalEntryResponse{
		ID:          entry.ID,
		DocumentID:  entry.DocumentID,
		DocType:     entry.DocType,
		Number:      entry.Number,
		Date:        entry.Date.Format("2006-01-02"),
		Description: entry.Description,
		TotalDebit:  entry.TotalDebits(),
		TotalCredit: entry.TotalCredits(),
	}
	for _, l := range entry.Lines {
		out.Lines = append(out.Lines, dto.JournalLineResponse{
			AccountCode: l.AccountCode,
			Description: l.Description,
			Debit:       l.Debit,
			Credit:      l.Credit,
		})
	}
	return out
}
