// Package billing orquesta el ciclo de emisión de documentos electrónicos:
// CUFE -> XML UBL 2.1 -> Firma XAdES-EPES -> Envío al WS DIAN -> interpretación
// de la respuesta y actualización de estado.
package billing

import (
	"context"

	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

// DIANConfig configuración del canal DIAN que necesita el orquestador.
type DIANConfig struct {
	TechnicalKey string // Clave técnica de la resolución (obligatoria para el CUFE)
	SoftwareID   string // Identificador del software (opcional en el CUFE)
	Environment  string // "1" Producción, "2" Habilitación
	CertBase64   string // .p12 en Base64; vacío = los documentos no se pueden firmar
	CertPassword string
}

// BillingTxRunner ejecuta un callback con los repositorios del ciclo DIAN
// atados a una misma transacción. La interpretación de una respuesta DIAN
// actualiza estado, artefacto, evento y auditoría de forma atómica.
type BillingTxRunner interface {
	RunBilling(ctx context.Context, fn func(
		docRepo repository.FiscalDocumentRepository,
		artifactRepo repository.DIANDocumentRepository,
		eventRepo repository.DIANEventRepository,
		historyRepo repository.DIANHistoryRepository,
	) error) error
}
