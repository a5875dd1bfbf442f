// Package dian: cálculo del CUFE (Código Único de Facturación Electrónica) según Anexo Técnico DIAN.
// Algoritmo: SHA-384 sobre la cadena de concatenación en el orden estricto definido por la DIAN.

package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CodImpIVA es el código de impuesto principal de la cadena CUFE.
const CodImpIVA = "01"

var wsPattern = regexp.MustCompile(`\s+`)

// CufeParams contiene los datos para calcular el CUFE en el orden exigido por la DIAN.
type CufeParams struct {
	NumFac     string          // Número del documento (prefijo + consecutivo, sin espacios)
	FecFac     string          // Fecha de emisión YYYY-MM-DD
	HorFac     string          // Hora de emisión HH:mm:ss-05:00
	ValFac     decimal.Decimal // Valor total sin impuestos (neto)
	CodImp     string          // Código del impuesto principal; "01" (IVA) si no se indica
	ValImp     decimal.Decimal // Valor del impuesto principal
	ValPag     decimal.Decimal // Valor total a pagar
	NitOfe     string          // NIT del emisor (solo dígitos)
	DocAdq     string          // Identificación del adquiriente (solo dígitos)
	ClTec      string          // Clave técnica de la resolución de numeración
	SoftwareID string          // Identificador del software (opcional)
	TipoDoc    string          // Código de tipo de documento: 01, 04, 91, 92 (opcional)
	TipoAmb    string          // "1" Producción, "2" Habilitación (opcional)
}

// CufeCalculatorService calcula el CUFE según el Anexo Técnico DIAN.
type CufeCalculatorService struct{}

// NewCufeCalculatorService crea el servicio.
func NewCufeCalculatorService() *CufeCalculatorService {
	return &CufeCalculatorService{}
}

// Calculate genera el CUFE: hex en mayúsculas del SHA-384 de la cadena de concatenación (96 caracteres).
func (s *CufeCalculatorService) Calculate(p *CufeParams) (string, error) {
	cadena, err := s.BuildConcatenation(p)
	if err != nil {
		return "", err
	}
	hash := sha512.Sum384([]byte(cadena))
	return strings.ToUpper(hex.EncodeToString(hash[:])), nil
}

// BuildConcatenation arma la cadena de entrada del hash, sin separadores:
// NumFac + FecFac + HorFac + ValFac + CodImp + ValImp + ValPag + NitOfe + DocAdq + ClTec
// más SoftwareID, TipoDoc y TipoAmb cuando están presentes.
// Montos solo con dígitos y dos decimales implícitos (1500.00 -> "150000").
// NIT y documento del adquiriente con relleno de ceros a 10 dígitos.
func (s *CufeCalculatorService) BuildConcatenation(p *CufeParams) (string, error) {
	if p == nil {
		return "", fmt.Errorf("dian: CufeParams es obligatorio")
	}

	numFac := wsPattern.ReplaceAllString(strings.TrimSpace(p.NumFac), "")
	if numFac == "" {
		return "", fmt.Errorf("dian: NumFac es obligatorio")
	}
	if p.FecFac == "" {
		return "", fmt.Errorf("dian: FecFac es obligatoria (YYYY-MM-DD)")
	}
	if p.HorFac == "" {
		return "", fmt.Errorf("dian: HorFac es obligatoria (HH:mm:ss-05:00)")
	}

	nitOfe := onlyDigits(p.NitOfe)
	docAdq := onlyDigits(p.DocAdq)
	if nitOfe == "" {
		return "", fmt.Errorf("dian: NitOfe es obligatorio para el CUFE")
	}
	if docAdq == "" {
		return "", fmt.Errorf("dian: DocAdq es obligatorio para el CUFE")
	}
	if len(strings.TrimSpace(p.ClTec)) < 4 {
		return "", fmt.Errorf("dian: ClTec es obligatoria para el CUFE (mínimo 4 caracteres)")
	}

	codImp := p.CodImp
	if codImp == "" {
		codImp = CodImpIVA
	}

	var b strings.Builder
	b.WriteString(numFac)
	b.WriteString(p.FecFac)
	b.WriteString(p.HorFac)
	b.WriteString(formatAmount(p.ValFac))
	b.WriteString(codImp)
	b.WriteString(formatAmount(p.ValImp))
	b.WriteString(formatAmount(p.ValPag))
	b.WriteString(padNIT(nitOfe))
	b.WriteString(padNIT(docAdq))
	b.WriteString(strings.TrimSpace(p.ClTec))
	if p.SoftwareID != "" {
		b.WriteString(p.SoftwareID)
	}
	if p.TipoDoc != "" {
		b.WriteString(p.TipoDoc)
	}
	if p.TipoAmb != "" {
		b.WriteString(p.TipoAmb)
	}

	return b.String(), nil
}

// formatAmount formatea montos para la cadena CUFE: redondeo a 2 decimales
// y solo dígitos, con los decimales implícitos (1000000.50 -> "100000050", 0 -> "000").
func formatAmount(d decimal.Decimal) string {
	return strings.Replace(d.Round(2).StringFixed(2), ".", "", 1)
}

// padNIT rellena con ceros a la izquierda hasta 10 dígitos.
func padNIT(digits string) string {
	if len(digits) >= 10 {
		return digits
	}
	return strings.Repeat("0", 10-len(digits)) + digits
}

// onlyDigits deja solo dígitos 0-9 (para NIT y documento).
func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
