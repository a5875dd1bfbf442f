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

var _ repository.BillingResolutionRepository = (*BillingResolutionRepo)(nil)

// BillingResolutionRepo implementa BillingResolutionRepository sobre PostgreSQL.
type BillingResolutionRepo struct {
	q Querier
}

// NewBillingResolutionRepository construye el adaptador. Pasar pool o tx (Querier).
func NewBillingResolutionRepository(q Querier) *BillingResolutionRepo {
	return &BillingResolutionRepo{q: q}
}

const resolutionColumns = `
	id, company_id, number, prefix, range_from, range_to, technical_key,
	valid_from, valid_to, created_at`

func (r *BillingResolutionRepo) Create(ctx context.Context, res *entity.BillingResolution) error {
	if res.ID == "" {
		res.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO billing_resolutions (` + resolutionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())`
	_, err := r.q.Exec(ctx, q,
		res.ID, res.CompanyID, res.Number, res.Prefix,
		res.RangeFrom, res.RangeTo, res.TechnicalKey,
		res.ValidFrom, res.ValidTo,
	)
	if err != nil {
		return fmt.Errorf("insert billing_resolution: %w", err)
	}
	return nil
}

func (r *BillingResolutionRepo) GetByID(ctx context.Context, id string) (*entity.BillingResolution, error) {
	const q = `SELECT ` + resolutionColumns + ` FROM billing_resolutions WHERE id = $1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get billing_resolution: %w", err)
	}
	return res, nil
}

// GetActiveByCompanyAndPrefix es la consulta crítica del flujo DIAN: sin
// resolución vigente no hay DianExtensions y la DIAN rechaza el documento.
func (r *BillingResolutionRepo) GetActiveByCompanyAndPrefix(ctx context.Context, companyID, prefix string) (*entity.BillingResolution, error) {
	const q = `SELECT ` + resolutionColumns + `
		FROM billing_resolutions
		WHERE company_id = $1
		  AND prefix     = $2
		  AND valid_from <= CURRENT_DATE
		  AND valid_to   >= CURRENT_DATE
		ORDER BY valid_from DESC
		LIMIT 1`
	res, err := scanResolution(r.q.QueryRow(ctx, q, companyID, prefix))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("sin resolución vigente para %s/%s: %w", companyID, prefix, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get active billing_resolution: %w", err)
	}
	return res, nil
}

func (r *BillingResolutionRepo) ListByCompany(ctx context.Context, companyID string) ([]*entity.BillingResolution, error) {
	const q = `SELECT ` + resolutionColumns + `
		FROM billing_resolutions
		WHERE company_id = $1
		ORDER BY valid_from DESC`
	rows, err := r.q.Query(ctx, q, companyID)
	if err != nil {
		return nil, fmt.Errorf("list billing_resolutions: %w", err)
	}
	defer rows.Close()

	var resolutions []*entity.BillingResolution
	for rows.Next() {
		res, err := scanResolution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan billing_resolution: %w", err)
		}
		resolutions = append(resolutions, res)
	}
	return resolutions, rows.Err()
}

func scanResolution(row pgx.Row) (*entity.BillingResolution, error) {
	var res entity.BillingResolution
	if err := row.Scan(
		&res.ID, &res.CompanyID, &res.Number, &res.Prefix,
		&res.RangeFrom, &res.RangeTo, &res.TechnicalKey,
		&res.ValidFrom, &res.ValidTo, &res.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &res, nil
}
