package billing

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/application/dto"
	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// DocumentService crea y consulta documentos fiscales. La creación reserva el
// consecutivo dentro de la resolución vigente y deja el documento en CREADA;
// la emisión (CUFE, firma, envío) es responsabilidad del IssueOrchestrator.
type DocumentService struct {
	docRepo        repository.FiscalDocumentRepository
	customerRepo   repository.CustomerRepository
	resolutionRepo repository.BillingResolutionRepository
	txRunner       BillingTxRunner
	log            *logger.Logger
}

// NewDocumentService construye el servicio.
func NewDocumentService(
	docRepo repository.FiscalDocumentRepository,
	customerRepo repository.CustomerRepository,
	resolutionRepo repository.BillingResolutionRepository,
	txRunner BillingTxRunner,
	log *logger.Logger,
) *DocumentService {
	return &DocumentService{
		docRepo:        docRepo,
		customerRepo:   customerRepo,
		resolutionRepo: resolutionRepo,
		txRunner:       txRunner,
		log:            log,
	}
}

var validDocTypes = map[string]bool{
	entity.DocTypeFacturaVenta: true,
	entity.DocTypeFacturaPOS:   true,
	entity.DocTypeNotaCredito:  true,
	entity.DocTypeNotaDebito:   true,
}

// Create valida la petición, calcula los totales por línea y reserva el
// consecutivo de forma atómica (SELECT ... FOR UPDATE dentro de la transacción).
func (s *DocumentService) Create(ctx context.Context, companyID string, in dto.CreateDocumentRequest) (*dto.DocumentResponse, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company_id requerido: %w", domain.ErrInvalidInput)
	}
	if !validDocTypes[in.DocType] {
		return nil, fmt.Errorf("tipo de documento %q no soportado: %w", in.DocType, domain.ErrInvalidInput)
	}
	if in.Prefix == "" {
		return nil, fmt.Errorf("prefijo requerido: %w", domain.ErrInvalidInput)
	}
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("el documento requiere al menos una línea: %w", domain.ErrInvalidInput)
	}

	customer, err := s.customerRepo.GetByID(ctx, in.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("adquiriente %s: %w", in.CustomerID, err)
	}
	if customer.CompanyID != companyID {
		return nil, fmt.Errorf("el adquiriente pertenece a otra empresa: %w", domain.ErrForbidden)
	}

	resolution, err := s.resolutionRepo.GetActiveByCompanyAndPrefix(ctx, companyID, in.Prefix)
	if err != nil {
		return nil, err
	}

	doc := &entity.FiscalDocument{
		ID:          uuid.New().String(),
		CompanyID:   companyID,
		CustomerID:  customer.ID,
		DocType:     in.DocType,
		Prefix:      in.Prefix,
		Currency:    in.Currency,
		Status:      entity.StatusCreada,
		PaymentForm: in.PaymentForm,
		Notes:       in.Notes,
		AffectedID:  in.AffectedID,
	}
	if doc.Currency == "" {
		doc.Currency = "COP"
	}
	if doc.PaymentForm == "" {
		doc.PaymentForm = "1"
	}

	if doc.IssueDate, err = parseIssueDate(in.IssueDate); err != nil {
		return nil, err
	}
	if in.DueDate != "" {
		if doc.DueDate, err = time.Parse("2006-01-02", in.DueDate); err != nil {
			return nil, fmt.Errorf("due_date %q: %w", in.DueDate, domain.ErrInvalidInput)
		}
	}

	if doc.IsNote() {
		if doc.AffectedID == "" {
			return nil, fmt.Errorf("nota sin documento afectado: %w", domain.ErrMissingBillingReference)
		}
		affected, err := s.docRepo.GetByID(ctx, doc.AffectedID)
		if err != nil {
			return nil, fmt.Errorf("documento afectado %s: %w", doc.AffectedID, err)
		}
		if affected.CompanyID != companyID {
			return nil, fmt.Errorf("el documento afectado pertenece a otra empresa: %w", domain.ErrForbidden)
		}
	}

	if err := buildLines(doc, in.Lines); err != nil {
		return nil, err
	}
	if err := applyDiscount(doc, in.Discount); err != nil {
		return nil, err
	}

	// Consecutivo + inserción en una sola transacción para que dos peticiones
	// concurrentes no reserven el mismo número.
	err = s.txRunner.RunBilling(ctx, func(
		docRepo repository.FiscalDocumentRepository,
		_ repository.DIANDocumentRepository,
		_ repository.DIANEventRepository,
		_ repository.DIANHistoryRepository,
	) error {
		next, err := docRepo.NextNumber(ctx, companyID, in.Prefix)
		if err != nil {
			return fmt.Errorf("consecutivo %s/%s: %w", companyID, in.Prefix, err)
		}
		if !resolution.Covers(next) {
			return fmt.Errorf("consecutivo %d fuera del rango autorizado %d-%d: %w",
				next, resolution.RangeFrom, resolution.RangeTo, domain.ErrConflict)
		}
		doc.Number = strconv.FormatInt(next, 10)
		return docRepo.Create(ctx, doc)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("document_id", doc.ID).
		Str("doc_type", doc.DocType).
		Str("number", doc.FullNumber()).
		Str("grand_total", doc.GrandTotal.StringFixed(2)).
		Msg("documento creado")

	return documentResponse(doc), nil
}

// Get devuelve el documento con sus líneas, verificando pertenencia a la empresa.
func (s *DocumentService) Get(ctx context.Context, companyID, documentID string) (*dto.DocumentResponse, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return documentResponse(doc), nil
}

// SignedXML devuelve el XML firmado para descarga. ErrConflict si aún no se ha firmado.
func (s *DocumentService) SignedXML(ctx context.Context, companyID, documentID string) (string, error) {
	doc, err := s.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return "", err
	}
	if doc.CompanyID != companyID {
		return "", domain.ErrForbidden
	}
	if doc.XMLSigned == "" {
		return "", fmt.Errorf("el documento %s no tiene XML firmado: %w", doc.FullNumber(), domain.ErrConflict)
	}
	return doc.XMLSigned, nil
}

// List lista documentos de la empresa, opcionalmente filtrando por estado.
func (s *DocumentService) List(ctx context.Context, companyID, status string, limit, offset int) ([]*dto.DocumentResponse, error) {
	var docs []*entity.FiscalDocument
	var err error
	if status != "" {
		docs, err = s.docRepo.ListByStatus(ctx, companyID, status, limit, offset)
	} else {
		docs, err = s.docRepo.ListByCompany(ctx, companyID, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	out := make([]*dto.DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentResponse(d))
	}
	return out, nil
}

func parseIssueDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Now(), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("issue_date %q: %w", raw, domain.ErrInvalidInput)
	}
	return t, nil
}

// applyDiscount resta el descuento global del total a pagar. No toca la base
// gravable: el IVA ya quedó calculado por línea.
func applyDiscount(doc *entity.FiscalDocument, discount decimal.Decimal) error {
	if discount.IsZero() {
		return nil
	}
	if discount.IsNegative() {
		return fmt.Errorf("descuento negativo: %w", domain.ErrInvalidInput)
	}
	if discount.GreaterThan(doc.GrandTotal) {
		return fmt.Errorf("descuento %s mayor que el total %s: %w",
			discount.StringFixed(2), doc.GrandTotal.StringFixed(2), domain.ErrInvalidInput)
	}
	doc.Discount = discount.Round(2)
	doc.GrandTotal = doc.GrandTotal.Sub(doc.Discount)
	return nil
}

// buildLines calcula subtotal e IVA por línea y acumula los totales del documento.
func buildLines(doc *entity.FiscalDocument, lines []dto.DocumentLineRequest) error {
	net, tax := decimal.Zero, decimal.Zero
	for i, in := range lines {
		if in.Description == "" {
			return fmt.Errorf("línea %d sin descripción: %w", i+1, domain.ErrInvalidInput)
		}
		if in.Quantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("línea %d con cantidad no positiva: %w", i+1, domain.ErrInvalidInput)
		}
		if in.UnitPrice.IsNegative() || in.TaxRate.IsNegative() {
			return fmt.Errorf("línea %d con valores negativos: %w", i+1, domain.ErrInvalidInput)
		}
		lineTotal := in.Quantity.Mul(in.UnitPrice).Round(2)
		taxAmount := lineTotal.Mul(in.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
		unitCode := in.UnitCode
		if unitCode == "" {
			unitCode = "94"
		}
		doc.Lines = append(doc.Lines, entity.DocumentLine{
			ID:          uuid.New().String(),
			DocumentID:  doc.ID,
			LineNumber:  i + 1,
			ProductCode: in.ProductCode,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitCode:    unitCode,
			UnitPrice:   in.UnitPrice,
			TaxRate:     in.TaxRate,
			TaxAmount:   taxAmount,
			LineTotal:   lineTotal,
			UnitCost:    in.UnitCost,
		})
		net = net.Add(lineTotal)
		tax = tax.Add(taxAmount)
	}
	doc.NetTotal = net
	doc.TaxTotal = tax
	doc.GrandTotal = net.Add(tax)
	return nil
}

func documentResponse(doc *entity.FiscalDocument) *dto.DocumentResponse {
	out := &dto.DocumentResponse{
		ID:         doc.ID,
		CompanyID:  doc.CompanyID,
		CustomerID: doc.CustomerID,
		DocType:    doc.DocType,
		Prefix:     doc.Prefix,
		Number:     doc.Number,
		FullNumber: doc.FullNumber(),
		IssueDate:  doc.IssueDate.Format(time.RFC3339),
		Currency:   doc.Currency,
		NetTotal:   doc.NetTotal,
		TaxTotal:   doc.TaxTotal,
		Discount:   doc.Discount,
		GrandTotal: doc.GrandTotal,
		Status:     doc.Status,
		CUFE:       doc.CUFE,
		QRData:     doc.QRData,
		TrackID:    doc.TrackID,
		DIANErrors: doc.DIANErrors,
		AffectedID: doc.AffectedID,
	}
	for _, l := range doc.Lines {
		out.Lines = append(out.Lines, dto.DocumentLineResponse{
			LineNumber:  l.LineNumber,
			ProductCode: l.ProductCode,
			Description: l.Description,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice,
			TaxRate:     l.TaxRate,
			TaxAmount:   l.TaxAmount,
			LineTotal:   l.LineTotal,
		})
	}
	return out
}
