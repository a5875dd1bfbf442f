// Package dian implementa la generación de XML UBL 2.1 y el canal de envío
// para facturación electrónica DIAN (Colombia).
package dian

import (
	"time"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

// BillingResolutionData datos de la resolución de numeración DIAN (van en sts:DianExtensions).
type BillingResolutionData struct {
	Number   string // Número de resolución (ej: 18764000000001)
	Prefix   string // Prefijo autorizado (ej: SETP)
	From     int64
	To       int64
	DateFrom time.Time
	DateTo   time.Time
}

// BillingReferenceData referencia al documento afectado por una nota crédito o débito.
type BillingReferenceData struct {
	Number    string    // Número completo del documento afectado (prefijo + consecutivo)
	CUFE      string    // CUFE del documento afectado
	IssueDate time.Time // Fecha de emisión del documento afectado
}

// BuildContext contexto con todos los datos necesarios para construir el XML UBL
// de un documento (factura, nota crédito o nota débito).
type BuildContext struct {
	Document   *entity.FiscalDocument
	Company    *entity.Company  // Emisor (AccountingSupplierParty)
	Customer   *entity.Customer // Adquiriente (AccountingCustomerParty)
	Resolution *BillingResolutionData

	// Obligatorio para notas: referencia al documento afectado.
	BillingReference *BillingReferenceData

	// Environment ambiente DIAN para ProfileExecutionID ("1" producción por defecto).
	Environment string

	// Opcionales
	PaymentFormCode   string // 1=Contado, 2=Crédito
	PaymentMethodCode string // 10=Efectivo, 47=Transferencia, etc.
	DiscrepancyCode   string // Código del concepto de corrección (notas)
	DiscrepancyReason string // Descripción del concepto de corrección (notas)
}
