package entity

import "time"

// DIANDocument es el artefacto firmado asociado a un documento fiscal:
// el XML UBL firmado junto con su CUFE y metadatos de validación.
// Se persiste de forma atómica con el cambio de estado del documento.
type DIANDocument struct {
	ID          string
	DocumentID  string
	CUFE        string
	XMLContent  string // XML firmado completo
	QRData      string
	Environment string // "1" Producción, "2" Habilitación
	SignedAt    time.Time
	CreatedAt   time.Time
}
