package entity

import "time"

// BillingResolution representa la resolución de numeración otorgada por la DIAN.
// Sus datos van en el bloque sts:DianExtensions del XML UBL.
type BillingResolution struct {
	ID           string
	CompanyID    string
	Number       string // Número de resolución (InvoiceAuthorization)
	Prefix       string
	RangeFrom    int64
	RangeTo      int64
	TechnicalKey string
	ValidFrom    time.Time
	ValidTo      time.Time
	CreatedAt    time.Time
}

// Covers indica si el consecutivo dado está dentro del rango autorizado.
func (r *BillingResolution) Covers(number int64) bool {
	return number >= r.RangeFrom && number <= r.RangeTo
}
