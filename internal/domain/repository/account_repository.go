package repository

import (
	"context"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// AccountRepository define el puerto de persistencia para cuentas del PUC.
type AccountRepository interface {
	Create(ctx context.Context, account *entity.Account) error
	GetByID(ctx context.Context, id string) (*entity.Account, error)
	GetByCompanyAndCode(ctx context.Context, companyID, code string) (*entity.Account, error)
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Account, error)

	// Upsert crea la cuenta si no existe (por empresa y código) o la deja intacta.
	// Lo usa la inicialización idempotente del PUC mínimo.
	Upsert(ctx context.Context, account *entity.Account) error
}

// AccountMappingRepository define el puerto para los mapeos clave lógica -> cuenta PUC.
type AccountMappingRepository interface {
	Create(ctx context.Context, mapping *entity.AccountMapping) error

	// GetByKey resuelve la clave lógica (CAJA, IVA_GENERADO, ...) a su mapeo.
	// Devuelve domain.ErrNotFound si la clave no está mapeada.
	GetByKey(ctx context.Context, companyID, key string) (*entity.AccountMapping, error)

	ListByCompany(ctx context.Context, companyID string) ([]*entity.AccountMapping, error)

	// Upsert crea o conserva el mapeo (por empresa y clave). Idempotente.
	Upsert(ctx context.Context, mapping *entity.AccountMapping) error
}
