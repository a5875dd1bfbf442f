package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento fiscal (catálogo DIAN).
const (
	DocTypeFacturaVenta = "FACTURA_VENTA"
	DocTypeFacturaPOS   = "FACTURA_POS"
	DocTypeNotaCredito  = "NOTA_CREDITO"
	DocTypeNotaDebito   = "NOTA_DEBITO"
)

// Estados del ciclo de vida de un documento electrónico.
const (
	StatusCreada    = "CREADA"    // Guardada para reservar ID y consecutivo
	StatusFirmada   = "FIRMADA"   // XML generado y firmado, pendiente de envío
	StatusEnviada   = "ENVIADA"   // Enviada al WS DIAN, respuesta pendiente o en reintento
	StatusAceptada  = "ACEPTADA"  // Aceptada por la DIAN (estado terminal)
	StatusRechazada = "RECHAZADA" // Rechazada por la DIAN (estado terminal)
)

// transiciones válidas del ciclo de vida. ENVIADA -> ENVIADA cubre los reintentos de envío.
var validTransitions = map[string][]string{
	StatusCreada:  {StatusFirmada},
	StatusFirmada: {StatusEnviada},
	StatusEnviada: {StatusEnviada, StatusAceptada, StatusRechazada},
}

// CanTransition indica si el paso de `from` a `to` está permitido.
// ACEPTADA y RECHAZADA son terminales: no admiten salida.
func CanTransition(from, to string) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// FiscalDocument representa la cabecera de un documento electrónico
// (factura de venta, factura POS, nota crédito o nota débito).
type FiscalDocument struct {
	ID           string
	CompanyID    string
	CustomerID   string
	DocType      string // FACTURA_VENTA | FACTURA_POS | NOTA_CREDITO | NOTA_DEBITO
	Prefix       string
	Number       string
	IssueDate    time.Time
	DueDate      time.Time
	Currency     string // ISO 4217; por defecto COP
	NetTotal     decimal.Decimal
	TaxTotal     decimal.Decimal
	Discount     decimal.Decimal // Descuento global; se resta del total a pagar
	GrandTotal   decimal.Decimal
	Status       string
	CUFE         string // Código Único de Facturación Electrónica (SHA-384, 96 hex)
	XMLSigned    string // XML UBL firmado (contenido completo)
	QRData       string // Contenido del código QR de la representación gráfica
	TrackID      string // Identificador devuelto por el WS DIAN tras el envío
	DIANErrors   string // Mensajes de rechazo devueltos por la DIAN
	AffectedID   string // ID del documento afectado (solo notas)
	PaymentForm  string // 1 = contado, 2 = crédito
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Lines []DocumentLine
}

// FullNumber devuelve el número completo del documento (prefijo + consecutivo).
func (d *FiscalDocument) FullNumber() string {
	return d.Prefix + d.Number
}

// IsNote indica si el documento es una nota crédito o débito
// (requieren referencia al documento afectado).
func (d *FiscalDocument) IsNote() bool {
	return d.DocType == DocTypeNotaCredito || d.DocType == DocTypeNotaDebito
}

// IsTerminal indica si el documento está en un estado final del ciclo DIAN.
func (d *FiscalDocument) IsTerminal() bool {
	return d.Status == StatusAceptada || d.Status == StatusRechazada
}

// DocumentLine representa un renglón de detalle del documento.
type DocumentLine struct {
	ID          string
	DocumentID  string
	LineNumber  int
	ProductCode string
	Description string
	Quantity    decimal.Decimal
	UnitCode    string // Código de unidad UN/ECE (94 = unidad)
	UnitPrice   decimal.Decimal
	TaxRate     decimal.Decimal // Porcentaje de IVA (19.00, 5.00, 0.00)
	TaxAmount   decimal.Decimal
	LineTotal   decimal.Decimal // Subtotal sin impuestos
	UnitCost    decimal.Decimal // Costo unitario para el asiento de costo de venta (POS)
}
