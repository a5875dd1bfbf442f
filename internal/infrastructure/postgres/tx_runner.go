package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/facturacion-api/internal/application/billing"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

var _ billing.BillingTxRunner = (*TxRunner)(nil)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// RunBilling inicia una transacción con los repos del ciclo DIAN y hace Commit o Rollback.
// El intérprete de respuestas lo usa para actualizar estado, evento y auditoría como una unidad.
func (r *TxRunner) RunBilling(ctx context.Context, fn func(
	docRepo repository.FiscalDocumentRepository,
	artifactRepo repository.DIANDocumentRepository,
	eventRepo repository.DIANEventRepository,
	historyRepo repository.DIANHistoryRepository,
) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	docRepo := NewFiscalDocumentRepository(tx)
	artifactRepo := NewDIANDocumentRepository(tx)
	eventRepo := NewDIANEventRepository(tx)
	historyRepo := NewDIANHistoryRepository(tx)

	if err := fn(docRepo, artifactRepo, eventRepo, historyRepo); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
