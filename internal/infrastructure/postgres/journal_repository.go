package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

var _ repository.JournalRepository = (*JournalRepo)(nil)

// JournalRepo implementa JournalRepository sobre PostgreSQL.
// Recibe el pool directamente: Create abre su propia transacción para que
// cabecera y líneas del asiento sean una sola unidad.
type JournalRepo struct {
	pool *pgxpool.Pool
}

// NewJournalRepository construye el repositorio.
func NewJournalRepository(pool *pgxpool.Pool) *JournalRepo {
	return &JournalRepo{pool: pool}
}

const entryColumns = `id, company_id, document_id, doc_type, number, date, description, created_at`

// Create persiste el asiento con todas sus líneas en una transacción.
// La verificación de partida doble ocurre en el motor antes de llamar aquí.
func (r *JournalRepo) Create(ctx context.Context, entry *entity.JournalEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const headerQ = `
		INSERT INTO journal_entries (` + entryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	if _, err := tx.Exec(ctx, headerQ,
		entry.ID, entry.CompanyID, nullIfEmpty(entry.DocumentID),
		entry.DocType, entry.Number, entry.Date, entry.Description,
	); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("el documento %s ya tiene asiento: %w", entry.DocumentID, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert journal_entry: %w", err)
	}

	const lineQ = `
		INSERT INTO journal_lines (id, entry_id, account_id, account_code, description, debit, credit)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	for i := range entry.Lines {
		line := &entry.Lines[i]
		if line.ID == "" {
			line.ID = uuid.New().String()
		}
		line.EntryID = entry.ID
		if _, err := tx.Exec(ctx, lineQ,
			line.ID, line.EntryID, line.AccountID, line.AccountCode,
			line.Description, line.Debit, line.Credit,
		); err != nil {
			return fmt.Errorf("insert journal_line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *JournalRepo) GetByID(ctx context.Context, id string) (*entity.JournalEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM journal_entries WHERE id = $1`
	entry, err := scanEntry(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get journal_entry: %w", err)
	}
	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// GetByDocumentID devuelve el asiento generado por un documento fuente.
func (r *JournalRepo) GetByDocumentID(ctx context.Context, documentID string) (*entity.JournalEntry, error) {
	const q = `SELECT ` + entryColumns + ` FROM journal_entries WHERE document_id = $1`
	entry, err := scanEntry(r.pool.QueryRow(ctx, q, documentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get journal_entry by document: %w", err)
	}
	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (r *JournalRepo) ListByCompany(ctx context.Context, companyID string, from, to time.Time, limit, offset int) ([]*entity.JournalEntry, error) {
	const q = `SELECT ` + entryColumns + `
		FROM journal_entries
		WHERE company_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date DESC, created_at DESC
		LIMIT $4 OFFSET $5`
	rows, err := r.pool.Query(ctx, q, companyID, from, to, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list journal_entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.JournalEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal_entry: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, entry := range entries {
		if err := r.loadLines(ctx, entry); err != nil {
			return nil, err
		}
	}
	return entries, nil
}

// TotalsByAccount agrega débitos y créditos por cuenta en el período.
// Es la consulta base del balance general y el estado de resultados.
func (r *JournalRepo) TotalsByAccount(ctx context.Context, companyID string, from, to time.Time) ([]repository.AccountTotals, error) {
	const q = `
		SELECT a.id, a.code, a.name, a.nature,
		       COALESCE(SUM(l.debit), 0)  AS debits,
		       COALESCE(SUM(l.credit), 0) AS credits
		FROM journal_lines l
		JOIN journal_entries e ON e.id = l.entry_id
		JOIN accounting_accounts a ON a.id = l.account_id
		WHERE e.company_id = $1 AND e.date >= $2 AND e.date <= $3
		GROUP BY a.id, a.code, a.name, a.nature
		ORDER BY a.code`
	rows, err := r.pool.Query(ctx, q, companyID, from, to)
	if err != nil {
		return nil, fmt.Errorf("totals by account: %w", err)
	}
	defer rows.Close()

	var totals []repository.AccountTotals
	for rows.Next() {
		var t repository.AccountTotals
		if err := rows.Scan(&t.AccountID, &t.AccountCode, &t.AccountName, &t.Nature, &t.Debits, &t.Credits); err != nil {
			return nil, fmt.Errorf("scan account totals: %w", err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}

func (r *JournalRepo) loadLines(ctx context.Context, entry *entity.JournalEntry) error {
	const q = `
		SELECT id, entry_id, account_id, account_code, description, debit, credit
		FROM journal_lines
		WHERE entry_id = $1
		ORDER BY id`
	rows, err := r.pool.Query(ctx, q, entry.ID)
	if err != nil {
		return fmt.Errorf("list journal_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var l entity.JournalLine
		if err := rows.Scan(&l.ID, &l.EntryID, &l.AccountID, &l.AccountCode, &l.Description, &l.Debit, &l.Credit); err != nil {
			return fmt.Errorf("scan journal_line: %w", err)
		}
		entry.Lines = append(entry.Lines, l)
	}
	return rows.Err()
}

func scanEntry(row pgx.Row) (*entity.JournalEntry, error) {
	var entry entity.JournalEntry
	var documentID *string
	if err := row.Scan(
		&entry.ID, &entry.CompanyID, &documentID, &entry.DocType,
		&entry.Number, &entry.Date, &entry.Description, &entry.CreatedAt,
	); err != nil {
		return nil, err
	}
	entry.DocumentID = derefStr(documentID)
	return &entry, nil
}
