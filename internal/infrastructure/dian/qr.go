package dian

import (
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// validationBaseURL URL del catálogo DIAN para validación de documentos por QR.
const validationBaseURL = "https://catalogo-vpfe.dian.gov.co/document/search"

// QRService genera el contenido del código QR de la representación gráfica.
type QRService struct{}

// NewQRService crea el servicio.
func NewQRService() *QRService {
	return &QRService{}
}

// QRParams datos para el QR del documento.
type QRParams struct {
	NitEmisor    string
	NitReceptor  string
	DocumentType string // 01, 04, 91, 92
	Number       string // Prefijo + consecutivo
	CUFE         string
	IssueDate    time.Time
	TotalAmount  decimal.Decimal
	TotalTax     decimal.Decimal
}

// BuildValidationURL arma la URL de validación del catálogo DIAN.
func (s *QRService) BuildValidationURL(p QRParams) string {
	q := url.Values{}
	q.Set("re", normalizeNIT(p.NitEmisor))
	q.Set("td", p.DocumentType)
	q.Set("fe", p.Number)
	q.Set("fq", p.CUFE)
	return validationBaseURL + "?" + q.Encode()
}

// BuildQRData genera la cadena del QR. Si el documento tiene CUFE se usa la URL
// de validación; si no, la cadena pipe del Anexo Técnico.
func (s *QRService) BuildQRData(p QRParams) string {
	if p.CUFE != "" && p.DocumentType != "" {
		return s.BuildValidationURL(p)
	}
	parts := []string{
		normalizeNIT(p.NitEmisor),
		normalizeNIT(p.NitReceptor),
		p.CUFE,
		p.IssueDate.Format("2006-01-02"),
		formatDecimal(p.TotalAmount),
		formatDecimal(p.TotalTax),
	}
	return strings.Join(parts, "|")
}
