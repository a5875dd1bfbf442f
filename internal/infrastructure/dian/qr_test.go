package dian_test

import (
	"net/url"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
)

func TestBuildValidationURL(t *testing.T) {
	svc := dian.NewQRService()
	got := svc.BuildValidationURL(dian.QRParams{
		NitEmisor:    "900.123.456",
		DocumentType: "01",
		Number:       "SETP990000001",
		CUFE:         "ABC123",
	})

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "catalogo-vpfe.dian.gov.co", u.Host)
	assert.Equal(t, "/document/search", u.Path)

	q := u.Query()
	assert.Equal(t, "900123456", q.Get("re"), "el NIT va solo con dígitos")
	assert.Equal(t, "01", q.Get("td"))
	assert.Equal(t, "SETP990000001", q.Get("fe"))
	assert.Equal(t, "ABC123", q.Get("fq"))
}

func TestBuildQRData_ConCufeUsaURL(t *testing.T) {
	svc := dian.NewQRService()
	got := svc.BuildQRData(dian.QRParams{
		NitEmisor:    "900123456",
		DocumentType: "01",
		Number:       "SETP990000001",
		CUFE:         "ABC123",
	})
	assert.Contains(t, got, "catalogo-vpfe.dian.gov.co/document/search")
}

func TestBuildQRData_SinCufeUsaCadenaPipe(t *testing.T) {
	svc := dian.NewQRService()
	got := svc.BuildQRData(dian.QRParams{
		NitEmisor:   "900123456",
		NitReceptor: "800987654",
		IssueDate:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(1_190_000),
		TotalTax:    decimal.NewFromInt(190_000),
	})
	assert.Equal(t, "900123456|800987654||2024-01-15|1190000.00|190000.00", got)
}
