package repository

import (
	"context"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// DIANDocumentRepository define el puerto de persistencia para artefactos firmados.
type DIANDocumentRepository interface {
	Create(ctx context.Context, doc *entity.DIANDocument) error
	GetByDocumentID(ctx context.Context, documentID string) (*entity.DIANDocument, error)
	GetByCUFE(ctx context.Context, cufe string) (*entity.DIANDocument, error)
}

// DIANEventRepository define el puerto de persistencia para eventos del ciclo de envío.
type DIANEventRepository interface {
	Create(ctx context.Context, event *entity.DIANEvent) error

	// CountByType cuenta los eventos de un tipo para un documento.
	// El tracker de reintentos lo usa para derivar los envíos consumidos.
	CountByType(ctx context.Context, documentID, eventType string) (int, error)

	ListByDocument(ctx context.Context, documentID string) ([]*entity.DIANEvent, error)
}

// DIANHistoryRepository define el puerto de persistencia para auditoría de respuestas DIAN.
type DIANHistoryRepository interface {
	Create(ctx context.Context, record *entity.DIANHistory) error
	ListByDocument(ctx context.Context, documentID string) ([]*entity.DIANHistory, error)
}
