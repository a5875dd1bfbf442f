package accounting

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// Poster contabiliza documentos fiscales: traduce un FiscalDocument al insumo
// del motor y genera su asiento. Es idempotente por documento: si el asiento
// ya existe lo devuelve sin duplicar.
type Poster struct {
	docRepo     repository.FiscalDocumentRepository
	journalRepo repository.JournalRepository
	engine      *Engine
	log         *logger.Logger
}

// NewPoster construye el servicio de contabilización.
func NewPoster(
	docRepo repository.FiscalDocumentRepository,
	journalRepo repository.JournalRepository,
	engine *Engine,
	log *logger.Logger,
) *Poster {
	return &Poster{
		docRepo:     docRepo,
		journalRepo: journalRepo,
		engine:      engine,
		log:         log,
	}
}

// journalDocType traduce el tipo de documento fiscal al tipo de asiento.
func journalDocType(docType string) (string, error) {
	switch docType {
	case entity.DocTypeFacturaVenta:
		return entity.JournalFacturaVenta, nil
	case entity.DocTypeFacturaPOS:
		return entity.JournalFacturaPOS, nil
	case entity.DocTypeNotaCredito:
		return entity.JournalNotaCredito, nil
	case entity.DocTypeNotaDebito:
		return entity.JournalNotaDebito, nil
	default:
		return "", fmt.Errorf("accounting: tipo de documento %q no contabilizable: %w", docType, domain.ErrInvalidInput)
	}
}

// PostDocument genera y persiste el asiento del documento indicado.
func (p *Poster) PostDocument(ctx context.Context, companyID, documentID string) (*entity.JournalEntry, error) {
	doc, err := p.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}

	if existing, err := p.journalRepo.GetByDocumentID(ctx, documentID); err == nil {
		p.log.Info().
			Str("document_id", documentID).
			Str("entry_id", existing.ID).
			Msg("documento ya contabilizado")
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	docType, err := journalDocType(doc.DocType)
	if err != nil {
		return nil, err
	}

	// El descuento global reduce el ingreso reconocido; el total a pagar del
	// documento ya lo trae restado, así el asiento cuadra.
	in := &DocumentInput{
		CompanyID:   companyID,
		DocumentID:  doc.ID,
		DocType:     docType,
		Number:      doc.FullNumber(),
		Date:        doc.IssueDate,
		Subtotal:    doc.NetTotal.Sub(doc.Discount),
		Tax:         doc.TaxTotal,
		Total:       doc.GrandTotal,
		CostOfGoods: costOfGoods(doc),
	}
	return p.engine.GenerateAndPersist(ctx, in)
}

// JournalByDocument devuelve el asiento generado por un documento fuente.
func (p *Poster) JournalByDocument(ctx context.Context, companyID, documentID string) (*entity.JournalEntry, error) {
	entry, err := p.journalRepo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if entry.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return entry, nil
}

// costOfGoods acumula costo unitario * cantidad de las líneas (asiento de
// costo de venta en POS). Cero si el documento no maneja costos.
func costOfGoods(doc *entity.FiscalDocument) decimal.Decimal {
	if doc.DocType != entity.DocTypeFacturaPOS {
		return decimal.Zero
	}
	total := decimal.Zero
	for _, l := range doc.Lines {
		total = total.Add(l.UnitCost.Mul(l.Quantity))
	}
	return total.Round(2)
}
