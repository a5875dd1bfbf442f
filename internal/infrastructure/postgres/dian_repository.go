package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

var (
	_ repository.DIANDocumentRepository = (*DIANDocumentRepo)(nil)
	_ repository.DIANEventRepository   = (*DIANEventRepo)(nil)
	_ repository.DIANHistoryRepository = (*DIANHistoryRepo)(nil)
)

// DIANDocumentRepo implementa DIANDocumentRepository sobre PostgreSQL.
type DIANDocumentRepo struct {
	q Querier
}

// NewDIANDocumentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDIANDocumentRepository(q Querier) *DIANDocumentRepo {
	return &DIANDocumentRepo{q: q}
}

func (r *DIANDocumentRepo) Create(ctx context.Context, doc *entity.DIANDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO dian_documents (id, document_id, cufe, xml_content, qr_data, environment, signed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (document_id) DO UPDATE
		SET cufe = EXCLUDED.cufe,
		    xml_content = EXCLUDED.xml_content,
		    qr_data = EXCLUDED.qr_data,
		    environment = EXCLUDED.environment,
		    signed_at = EXCLUDED.signed_at`
	_, err := r.q.Exec(ctx, q,
		doc.ID, doc.DocumentID, doc.CUFE, doc.XMLContent,
		nullIfEmpty(doc.QRData), doc.Environment, doc.SignedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert dian_document: %w", err)
	}
	return nil
}

func (r *DIANDocumentRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.DIANDocument, error) {
	const q = `
		SELECT id, document_id, cufe, xml_content, qr_data, environment, signed_at, created_at
		FROM dian_documents WHERE document_id = $1`
	return r.scan(r.q.QueryRow(ctx, q, documentID))
}

func (r *DIANDocumentRepo) GetByCUFE(ctx context.Context, cufe string) (*entity.DIANDocument, error) {
	const q = `
		SELECT id, document_id, cufe, xml_content, qr_data, environment, signed_at, created_at
		FROM dian_documents WHERE cufe = $1`
	return r.scan(r.q.QueryRow(ctx, q, cufe))
}

func (r *DIANDocumentRepo) scan(row pgx.Row) (*entity.DIANDocument, error) {
	var doc entity.DIANDocument
	var qrData *string
	err := row.Scan(&doc.ID, &doc.DocumentID, &doc.CUFE, &doc.XMLContent,
		&qrData, &doc.Environment, &doc.SignedAt, &doc.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get dian_document: %w", err)
	}
	doc.QRData = derefStr(qrData)
	return &doc, nil
}

// DIANEventRepo implementa DIANEventRepository sobre PostgreSQL.
// La tabla es append-only: los eventos nunca se actualizan ni se borran.
type DIANEventRepo struct {
	q Querier
}

// NewDIANEventRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDIANEventRepository(q Querier) *DIANEventRepo {
	return &DIANEventRepo{q: q}
}

func (r *DIANEventRepo) Create(ctx context.Context, event *entity.DIANEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO dian_events (id, document_id, event_type, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := r.q.Exec(ctx, q, event.ID, event.DocumentID, event.EventType,
		nullIfEmpty(event.Detail), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dian_event: %w", err)
	}
	return nil
}

func (r *DIANEventRepo) CountByType(ctx context.Context, documentID, eventType string) (int, error) {
	const q = `SELECT COUNT(*) FROM dian_events WHERE document_id = $1 AND event_type = $2`
	var count int
	if err := r.q.QueryRow(ctx, q, documentID, eventType).Scan(&count); err != nil {
		return 0, fmt.Errorf("count dian_events: %w", err)
	}
	return count, nil
}

func (r *DIANEventRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.DIANEvent, error) {
	const q = `
		SELECT id, document_id, event_type, detail, created_at
		FROM dian_events WHERE document_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("list dian_events: %w", err)
	}
	defer rows.Close()

	var events []*entity.DIANEvent
	for rows.Next() {
		var e entity.DIANEvent
		var detail *string
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.EventType, &detail, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dian_event: %w", err)
		}
		e.Detail = derefStr(detail)
		events = append(events, &e)
	}
	return events, rows.Err()
}

// DIANHistoryRepo implementa DIANHistoryRepository sobre PostgreSQL.
type DIANHistoryRepo struct {
	q Querier
}

// NewDIANHistoryRepository construye el adaptador. Pasar pool o tx (Querier).
func NewDIANHistoryRepository(q Querier) *DIANHistoryRepo {
	return &DIANHistoryRepo{q: q}
}

func (r *DIANHistoryRepo) Create(ctx context.Context, record *entity.DIANHistory) error {
	if record.ID == "" {
		record.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO dian_history (id, document_id, status, status_code, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, q, record.ID, record.DocumentID, record.Status,
		record.StatusCode, nullIfEmpty(record.Payload), record.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert dian_history: %w", err)
	}
	return nil
}

func (r *DIANHistoryRepo) ListByDocument(ctx context.Context, documentID string) ([]*entity.DIANHistory, error) {
	const q = `
		SELECT id, document_id, status, status_code, payload, created_at
		FROM dian_history WHERE document_id = $1
		ORDER BY created_at`
	rows, err := r.q.Query(ctx, q, documentID)
	if err != nil {
		return nil, fmt.Errorf("list dian_history: %w", err)
	}
	defer rows.Close()

	var records []*entity.DIANHistory
	for rows.Next() {
		var h entity.DIANHistory
		var payload *string
		if err := rows.Scan(&h.ID, &h.DocumentID, &h.Status, &h.StatusCode, &payload, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan dian_history: %w", err)
		}
		h.Payload = derefStr(payload)
		records = append(records, &h)
	}
	return records, rows.Err()
}
