package dto

import "github.com/shopspring/decimal"

// CreateCompanyRequest body para POST /api/companies.
type CreateCompanyRequest struct {
	Name              string `json:"name"`
	NIT               string `json:"nit"`
	DV                string `json:"dv,omitempty"` // Si va vacío se calcula con módulo 11
	Address           string `json:"address"`
	City              string `json:"city"`
	CityCode          string `json:"city_code"`
	Department        string `json:"department"`
	DepartmentCode    string `json:"department_code"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	TaxResponsibility string `json:"tax_responsibility"` // O-13, O-15, O-23, O-47, R-99-PN
	TaxRegime         string `json:"tax_regime"`         // 48 | 49
}

// CompanyResponse empresa emisora en respuestas.
type CompanyResponse struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	NIT               string `json:"nit"`
	DV                string `json:"dv"`
	Address           string `json:"address,omitempty"`
	City              string `json:"city,omitempty"`
	Email             string `json:"email,omitempty"`
	Phone             string `json:"phone,omitempty"`
	TaxResponsibility string `json:"tax_responsibility,omitempty"`
	TaxRegime         string `json:"tax_regime,omitempty"`
}

// CreateCustomerRequest body para POST /api/customers.
type CreateCustomerRequest struct {
	Name           string `json:"name"`
	IDType         string `json:"id_type"` // 31 = NIT, 13 = cédula
	IDNumber       string `json:"id_number"`
	DV             string `json:"dv,omitempty"`
	Address        string `json:"address,omitempty"`
	City           string `json:"city,omitempty"`
	CityCode       string `json:"city_code,omitempty"`
	Department     string `json:"department,omitempty"`
	DepartmentCode string `json:"department_code,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
}

// CustomerResponse adquiriente en respuestas.
type CustomerResponse struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Name      string `json:"name"`
	IDType    string `json:"id_type"`
	IDNumber  string `json:"id_number"`
	DV        string `json:"dv,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

// CreateResolutionRequest body para POST /api/resolutions.
// Fechas en formato 2006-01-02.
type CreateResolutionRequest struct {
	Number       string `json:"number"`
	Prefix       string `json:"prefix"`
	RangeFrom    int64  `json:"range_from"`
	RangeTo      int64  `json:"range_to"`
	TechnicalKey string `json:"technical_key"`
	ValidFrom    string `json:"valid_from"`
	ValidTo      string `json:"valid_to"`
}

// ResolutionResponse resolución de numeración en respuestas.
type ResolutionResponse struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Prefix    string `json:"prefix"`
	RangeFrom int64  `json:"range_from"`
	RangeTo   int64  `json:"range_to"`
	ValidFrom string `json:"valid_from"`
	ValidTo   string `json:"valid_to"`
}

// CreateDocumentRequest body para POST /api/documents.
// El consecutivo lo asigna el servidor a partir de la resolución vigente del prefijo.
type CreateDocumentRequest struct {
	DocType     string                `json:"doc_type"` // FACTURA_VENTA | FACTURA_POS | NOTA_CREDITO | NOTA_DEBITO
	CustomerID  string                `json:"customer_id"`
	Prefix      string                `json:"prefix"`
	IssueDate   string                `json:"issue_date,omitempty"` // RFC 3339; vacío = ahora
	DueDate     string                `json:"due_date,omitempty"`   // 2006-01-02
	PaymentForm string                `json:"payment_form,omitempty"` // 1 = contado, 2 = crédito
	Currency    string                `json:"currency,omitempty"`     // por defecto COP
	AffectedID  string                `json:"affected_id,omitempty"`  // obligatorio en notas
	Discount    decimal.Decimal       `json:"discount,omitempty"`     // descuento global sobre el total
	Notes       string                `json:"notes,omitempty"`
	Lines       []DocumentLineRequest `json:"lines"`
}

// DocumentLineRequest renglón del documento. Los totales los calcula el servidor.
type DocumentLineRequest struct {
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCode    string          `json:"unit_code,omitempty"` // por defecto 94 (unidad)
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`            // 19.00, 5.00, 0.00
	UnitCost    decimal.Decimal `json:"unit_cost,omitempty"` // para el asiento de costo (POS)
}

// DocumentResponse documento fiscal con detalle.
type DocumentResponse struct {
	ID          string                 `json:"id"`
	CompanyID   string                 `json:"company_id"`
	CustomerID  string                 `json:"customer_id"`
	DocType     string                 `json:"doc_type"`
	Prefix      string                 `json:"prefix"`
	Number      string                 `json:"number"`
	FullNumber  string                 `json:"full_number"`
	IssueDate   string                 `json:"issue_date"`
	Currency    string                 `json:"currency"`
	NetTotal    decimal.Decimal        `json:"net_total"`
	TaxTotal    decimal.Decimal        `json:"tax_total"`
	Discount    decimal.Decimal        `json:"discount"`
	GrandTotal  decimal.Decimal        `json:"grand_total"`
	Status      string                 `json:"status"`
	CUFE        string                 `json:"cufe,omitempty"`
	QRData      string                 `json:"qr_data,omitempty"`
	TrackID     string                 `json:"track_id,omitempty"`
	DIANErrors  string                 `json:"dian_errors,omitempty"`
	AffectedID  string                 `json:"affected_id,omitempty"`
	Lines       []DocumentLineResponse `json:"lines"`
}

// DocumentLineResponse línea de detalle en la respuesta.
type DocumentLineResponse struct {
	LineNumber  int             `json:"line_number"`
	ProductCode string          `json:"product_code,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	LineTotal   decimal.Decimal `json:"line_total"`
}
