package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de documento que generan asientos contables.
const (
	JournalFacturaVenta = "FACTURA_VENTA"
	JournalFacturaPOS   = "FACTURA_POS"
	JournalNotaCredito  = "NOTA_CREDITO"
	JournalNotaDebito   = "NOTA_DEBITO"
	JournalCompra       = "COMPRA"
)

// BalanceTolerance es la diferencia máxima admitida entre débitos y créditos,
// producto del redondeo a dos decimales.
var BalanceTolerance = decimal.NewFromFloat(0.02)

// JournalEntry es un asiento contable de partida doble.
type JournalEntry struct {
	ID           string
	CompanyID    string
	DocumentID   string // Documento fuente (factura, nota, compra); puede ser vacío en asientos manuales
	DocType      string
	Number       string // Número del documento fuente
	Date         time.Time
	Description  string
	CreatedAt    time.Time

	Lines []JournalLine
}

// TotalDebits suma los débitos de todas las líneas.
func (e *JournalEntry) TotalDebits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Debit)
	}
	return total
}

// TotalCredits suma los créditos de todas las líneas.
func (e *JournalEntry) TotalCredits() decimal.Decimal {
	total := decimal.Zero
	for _, l := range e.Lines {
		total = total.Add(l.Credit)
	}
	return total
}

// IsBalanced verifica la partida doble: |ΣD - ΣC| <= BalanceTolerance.
func (e *JournalEntry) IsBalanced() bool {
	diff := e.TotalDebits().Sub(e.TotalCredits()).Abs()
	return diff.LessThanOrEqual(BalanceTolerance)
}

// JournalLine es una línea de asiento (un débito o un crédito sobre una cuenta).
type JournalLine struct {
	ID          string
	EntryID     string
	AccountID   string
	AccountCode string // Código PUC, desnormalizado para reportes
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}
