package repository

import (
	"context"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// BillingResolutionRepository define el puerto de persistencia para resoluciones DIAN.
type BillingResolutionRepository interface {
	Create(ctx context.Context, res *entity.BillingResolution) error
	GetByID(ctx context.Context, id string) (*entity.BillingResolution, error)

	// GetActiveByCompanyAndPrefix devuelve la resolución vigente para la empresa y prefijo dados.
	// Es la consulta crítica antes de construir el XML DIAN: sin resolución vigente no se puede
	// incluir DianExtensions y el documento sería rechazado.
	GetActiveByCompanyAndPrefix(ctx context.Context, companyID, prefix string) (*entity.BillingResolution, error)

	// ListByCompany lista todas las resoluciones de una empresa (vigentes y vencidas).
	ListByCompany(ctx context.Context, companyID string) ([]*entity.BillingResolution, error)
}
