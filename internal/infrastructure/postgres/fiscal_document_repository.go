package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

var _ repository.FiscalDocumentRepository = (*FiscalDocumentRepo)(nil)

// FiscalDocumentRepo implementa FiscalDocumentRepository sobre PostgreSQL.
type FiscalDocumentRepo struct {
	q Querier
}

// NewFiscalDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFiscalDocumentRepository(q Querier) *FiscalDocumentRepo {
	return &FiscalDocumentRepo{q: q}
}

const documentColumns = `
	id, company_id, customer_id, doc_type, prefix, number, issue_date, due_date,
	currency, net_total, tax_total, discount, grand_total, status, cufe, xml_signed,
	qr_data, track_id, dian_errors, affected_id, payment_form, notes,
	created_at, updated_at`

// Create persiste la cabecera y las líneas. Debe ejecutarse dentro de una
// transacción (TxRunner) para que cabecera y líneas sean una unidad.
func (r *FiscalDocumentRepo) Create(ctx context.Context, doc *entity.FiscalDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO fiscal_documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, now(), now())`
	_, err := r.q.Exec(ctx, q,
		doc.ID, doc.CompanyID, doc.CustomerID, doc.DocType, doc.Prefix, doc.Number,
		doc.IssueDate, doc.DueDate, doc.Currency,
		doc.NetTotal, doc.TaxTotal, doc.Discount, doc.GrandTotal, doc.Status,
		nullIfEmpty(doc.CUFE), nullIfEmpty(doc.XMLSigned), nullIfEmpty(doc.QRData),
		nullIfEmpty(doc.TrackID), nullIfEmpty(doc.DIANErrors),
		nullIfEmpty(doc.AffectedID), nullIfEmpty(doc.PaymentForm), nullIfEmpty(doc.Notes),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("documento %s%s ya existe: %w", doc.Prefix, doc.Number, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert fiscal_document: %w", err)
	}

	const lineQ = `
		INSERT INTO fiscal_document_lines
			(id, document_id, line_number, product_code, description, quantity,
			 unit_code, unit_price, tax_rate, tax_amount, line_total, unit_cost)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	for i := range doc.Lines {
		line := &doc.Lines[i]
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		line.DocumentID = doc.ID
		if _, err := r.q.Exec(ctx, lineQ,
			line.ID, line.DocumentID, line.LineNumber, line.ProductCode, line.Description,
			line.Quantity, line.UnitCode, line.UnitPrice, line.TaxRate, line.TaxAmount,
			line.LineTotal, line.UnitCost,
		); err != nil {
			return fmt.Errorf("insert fiscal_document_line %d: %w", line.LineNumber, err)
		}
	}
	return nil
}

// GetByID devuelve el documento con sus líneas.
func (r *FiscalDocumentRepo) GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error) {
	const q = `SELECT ` + documentColumns + ` FROM fiscal_documents WHERE id = $1`
	doc, err := scanDocument(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get fiscal_document: %w", err)
	}
	if err := r.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// GetByNumber busca por empresa, prefijo y consecutivo.
func (r *FiscalDocumentRepo) GetByNumber(ctx context.Context, companyID, prefix, number string) (*entity.FiscalDocument, error) {
	const q = `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE company_id = $1 AND prefix = $2 AND number = $3`
	doc, err := scanDocument(r.q.QueryRow(ctx, q, companyID, prefix, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get fiscal_document by number: %w", err)
	}
	if err := r.loadLines(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// UpdateStatus actualiza el estado. La validación de la transición ocurre en el dominio.
func (r *FiscalDocumentRepo) UpdateStatus(ctx context.Context, id, status string) error {
	const q = `UPDATE fiscal_documents SET status = $2, updated_at = now() WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, status)
	if err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSigned guarda CUFE, XML firmado y datos QR como una sola actualización
// (re-firmar sobreescribe los tres juntos) y pasa el documento a FIRMADA.
func (r *FiscalDocumentRepo) UpdateSigned(ctx context.Context, id, cufe, xmlSigned, qrData string) error {
	const q = `
		UPDATE fiscal_documents
		SET cufe = $2, xml_signed = $3, qr_data = $4, status = $5, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, cufe, xmlSigned, qrData, entity.StatusFirmada)
	if err != nil {
		return fmt.Errorf("update signed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// UpdateSubmission guarda el resultado de un envío: estado, track ID y errores DIAN.
func (r *FiscalDocumentRepo) UpdateSubmission(ctx context.Context, id, status, trackID, dianErrors string) error {
	const q = `
		UPDATE fiscal_documents
		SET status = $2,
		    track_id = COALESCE($3, track_id),
		    dian_errors = $4,
		    updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, id, status, nullIfEmpty(trackID), nullIfEmpty(dianErrors))
	if err != nil {
		return fmt.Errorf("update submission: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// NextNumber reserva el siguiente consecutivo para la empresa y prefijo.
// Bloquea las filas del prefijo para que dos emisiones concurrentes no
// obtengan el mismo número; debe ejecutarse dentro de la transacción que
// crea el documento.
func (r *FiscalDocumentRepo) NextNumber(ctx context.Context, companyID, prefix string) (int64, error) {
	const q = `
		SELECT COALESCE(MAX(number::bigint), 0) + 1
		FROM fiscal_documents
		WHERE company_id = $1 AND prefix = $2
		FOR UPDATE`
	var next int64
	if err := r.q.QueryRow(ctx, q, companyID, prefix).Scan(&next); err != nil {
		return 0, fmt.Errorf("next number: %w", err)
	}
	return next, nil
}

// ListByCompany lista documentos de una empresa, más recientes primero.
func (r *FiscalDocumentRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.FiscalDocument, error) {
	const q = `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`
	return r.queryDocuments(ctx, q, companyID, limit, offset)
}

// ListByStatus lista documentos de una empresa en el estado dado.
func (r *FiscalDocumentRepo) ListByStatus(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.FiscalDocument, error) {
	const q = `SELECT ` + documentColumns + `
		FROM fiscal_documents
		WHERE company_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`
	return r.queryDocuments(ctx, q, companyID, status, limit, offset)
}

func (r *FiscalDocumentRepo) queryDocuments(ctx context.Context, q string, args ...any) ([]*entity.FiscalDocument, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list fiscal_documents: %w", err)
	}
	defer rows.Close()

	var docs []*entity.FiscalDocument
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fiscal_document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *FiscalDocumentRepo) loadLines(ctx context.Context, doc *entity.FiscalDocument) error {
	const q = `
		SELECT id, document_id, line_number, product_code, description, quantity,
		       unit_code, unit_price, tax_rate, tax_amount, line_total, unit_cost
		FROM fiscal_document_lines
		WHERE document_id = $1
		ORDER BY line_number`
	rows, err := r.q.Query(ctx, q, doc.ID)
	if err != nil {
		return fmt.Errorf("list fiscal_document_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l entity.DocumentLine
		if err := rows.Scan(
			&l.ID, &l.DocumentID, &l.LineNumber, &l.ProductCode, &l.Description,
			&l.Quantity, &l.UnitCode, &l.UnitPrice, &l.TaxRate, &l.TaxAmount,
			&l.LineTotal, &l.UnitCost,
		); err != nil {
			return fmt.Errorf("scan fiscal_document_line: %w", err)
		}
		doc.Lines = append(doc.Lines, l)
	}
	return rows.Err()
}

func scanDocument(row pgx.Row) (*entity.FiscalDocument, error) {
	var doc entity.FiscalDocument
	var cufe, xmlSigned, qrData, trackID, dianErrors, affectedID, paymentForm, notes *string
	var dueDate *time.Time
	if err := row.Scan(
		&doc.ID, &doc.CompanyID, &doc.CustomerID, &doc.DocType, &doc.Prefix, &doc.Number,
		&doc.IssueDate, &dueDate, &doc.Currency,
		&doc.NetTotal, &doc.TaxTotal, &doc.Discount, &doc.GrandTotal, &doc.Status,
		&cufe, &xmlSigned, &qrData, &trackID, &dianErrors,
		&affectedID, &paymentForm, &notes,
		&doc.CreatedAt, &doc.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if dueDate != nil {
		doc.DueDate = *dueDate
	}
	doc.CUFE = derefStr(cufe)
	doc.XMLSigned = derefStr(xmlSigned)
	doc.QRData = derefStr(qrData)
	doc.TrackID = derefStr(trackID)
	doc.DIANErrors = derefStr(dianErrors)
	doc.AffectedID = derefStr(affectedID)
	doc.PaymentForm = derefStr(paymentForm)
	doc.Notes = derefStr(notes)
	return &doc, nil
}
