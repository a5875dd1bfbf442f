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
	_ repository.AccountRepository        = (*AccountRepo)(nil)
	_ repository.AccountMappingRepository = (*AccountMappingRepo)(nil)
)

// AccountRepo implementa AccountRepository sobre PostgreSQL.
type AccountRepo struct {
	q Querier
}

// NewAccountRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountRepository(q Querier) *AccountRepo {
	return &AccountRepo{q: q}
}

const accountColumns = `id, company_id, code, name, nature, created_at, updated_at`

func (r *AccountRepo) Create(ctx context.Context, account *entity.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO accounting_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, now(), now())`
	_, err := r.q.Exec(ctx, q, account.ID, account.CompanyID, account.Code, account.Name, account.Nature)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cuenta %s ya existe para la empresa: %w", account.Code, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert accounting_account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByID(ctx context.Context, id string) (*entity.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounting_accounts WHERE id = $1`
	return scanAccount(r.q.QueryRow(ctx, q, id))
}

func (r *AccountRepo) GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Account, error) {
	const q = `SELECT ` + accountColumns + ` FROM accounting_accounts WHERE company_id = $1 AND code = $2`
	return scanAccount(r.q.QueryRow(ctx, q, companyID, code))
}

func (r *AccountRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.Account, error) {
	const q = `SELECT ` + accountColumns + `
		FROM accounting_accounts
		WHERE company_id = $1
		ORDER BY code`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list accounting_accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*entity.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Upsert crea la cuenta si no existe (por empresa y código) o la deja intacta.
func (r *AccountRepo) Upsert(ctx context.Context, account *entity.Account) error {
	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO accounting_accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (company_id, code) DO NOTHING`
	_, err := r.q.Exec(ctx, q, account.ID, account.CompanyID, account.Code, account.Name, account.Nature)
	if err != nil {
		return fmt.Errorf("upsert accounting_account: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*entity.Account, error) {
	var a entity.Account
	err := row.Scan(&a.ID, &a.CompanyID, &a.Code, &a.Name, &a.Nature, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get accounting_account: %w", err)
	}
	return &a, nil
}

// AccountMappingRepo implementa AccountMappingRepository sobre PostgreSQL.
type AccountMappingRepo struct {
	q Querier
}

// NewAccountMappingRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAccountMappingRepository(q Querier) *AccountMappingRepo {
	return &AccountMappingRepo{q: q}
}

const mappingColumns = `id, company_id, key, account_id, created_at`

func (r *AccountMappingRepo) Create(ctx context.Context, mapping *entity.AccountMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO company_account_mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, now())`
	_, err := r.q.Exec(ctx, q, mapping.ID, mapping.CompanyID, mapping.Key, mapping.AccountID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("mapeo %s ya existe para la empresa: %w", mapping.Key, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert company_account_mapping: %w", err)
	}
	return nil
}

func (r *AccountMappingRepo) GetByKey(ctx context.Context, companyID, key string) (*entity.AccountMapping, error) {
	const q = `SELECT ` + mappingColumns + `
		FROM company_account_mappings
		WHERE company_id = $1 AND key = $2`
	var m entity.AccountMapping
	err := r.q.QueryRow(ctx, q, companyID, key).Scan(&m.ID, &m.CompanyID, &m.Key, &m.AccountID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get company_account_mapping: %w", err)
	}
	return &m, nil
}

func (r *AccountMappingRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.AccountMapping, error) {
	const q = `SELECT ` + mappingColumns + `
		FROM company_account_mappings
		WHERE company_id = $1
		ORDER BY key`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list company_account_mappings: %w", err)
	}
	defer rows.Close()

	var mappings []*entity.AccountMapping
	for rows.Next() {
		var m entity.AccountMapping
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.Key, &m.AccountID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company_account_mapping: %w", err)
		}
		mappings = append(mappings, &m)
	}
	return mappings, rows.Err()
}

// Upsert crea o conserva el mapeo (por empresa y clave). Idempotente.
func (r *AccountMappingRepo) Upsert(ctx context.Context, mapping *entity.AccountMapping) error {
	if mapping.ID == "" {
		mapping.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO company_account_mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (company_id, key) DO NOTHING`
	_, err := r.q.Exec(ctx, q, mapping.ID, mapping.CompanyID, mapping.Key, mapping.AccountID)
	if err != nil {
		return fmt.Errorf("upsert company_account_mapping: %w", err)
	}
	return nil
}
