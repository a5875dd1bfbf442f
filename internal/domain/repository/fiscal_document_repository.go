package repository

import (
	"context"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// FiscalDocumentRepository define el puerto de persistencia para documentos electrónicos.
type FiscalDocumentRepository interface {
	// Create persiste la cabecera y las líneas del documento en estado CREADA.
	Create(ctx context.Context, doc *entity.FiscalDocument) error

	// GetByID devuelve el documento con sus líneas.
	GetByID(ctx context.Context, id string) (*entity.FiscalDocument, error)

	// GetByNumber busca por empresa, prefijo y consecutivo.
	GetByNumber(ctx context.Context, companyID, prefix, number string) (*entity.FiscalDocument, error)

	// UpdateStatus actualiza el estado validando la transición en el dominio.
	// La validación CanTransition ocurre antes de llamar este método.
	UpdateStatus(ctx context.Context, id, status string) error

	// UpdateSigned guarda CUFE, XML firmado y datos QR tras la firma (CREADA -> FIRMADA).
	UpdateSigned(ctx context.Context, id, cufe, xmlSigned, qrData string) error

	// UpdateSubmission guarda el resultado de un envío: estado, track ID y errores DIAN.
	UpdateSubmission(ctx context.Context, id, status, trackID, dianErrors string) error

	// NextNumber reserva el siguiente consecutivo para la empresa y prefijo dados.
	// Debe ejecutarse dentro de la transacción que crea el documento.
	NextNumber(ctx context.Context, companyID, prefix string) (int64, error)

	// ListByCompany lista documentos de una empresa, más recientes primero.
	ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.FiscalDocument, error)

	// ListByStatus lista documentos de una empresa en el estado dado.
	ListByStatus(ctx context.Context, companyID, status string, limit, offset int) ([]*entity.FiscalDocument, error)
}
