package billing

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-api/internal/application/dto"
	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

type docServiceFixture struct {
	service     *DocumentService
	docRepo     *fakeDocRepo
	resolutions *fakeResolutionRepo
}

func newDocServiceFixture(t *testing.T) *docServiceFixture {
	t.Helper()
	docRepo := newFakeDocRepo()
	customers := &fakeCustomerRepo{customers: map[string]*entity.Customer{
		"cu-1": {ID: "cu-1", CompanyID: "co-1", Name: "Comercial Andina SAS", IDType: "31", IDNumber: "800987654"},
		"cu-2": {ID: "cu-2", CompanyID: "otra-empresa", Name: "Ajeno LTDA", IDType: "31", IDNumber: "811111111"},
	}}
	resolutions := &fakeResolutionRepo{resolutions: []*entity.BillingResolution{{
		ID: "res-1", CompanyID: "co-1", Number: "18764000000001", Prefix: "SETP",
		RangeFrom: 1, RangeTo: 100,
		ValidFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
	}}}
	txRunner := &fakeTxRunner{
		docRepo:      docRepo,
		artifactRepo: &fakeArtifactRepo{artifacts: map[string]*entity.DIANDocument{}},
		eventRepo:    &fakeEventRepo{},
		historyRepo:  &fakeHistoryRepo{},
	}
	return &docServiceFixture{
		service:     NewDocumentService(docRepo, customers, resolutions, txRunner, testLogger()),
		docRepo:     docRepo,
		resolutions: resolutions,
	}
}

func invoiceRequest() dto.CreateDocumentRequest {
	return dto.CreateDocumentRequest{
		DocType:    entity.DocTypeFacturaVenta,
		CustomerID: "cu-1",
		Prefix:     "SETP",
		IssueDate:  "2024-01-15T10:30:00-05:00",
		Lines: []dto.DocumentLineRequest{
			{
				Description: "Monitor 24 pulgadas",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(500000),
				TaxRate:     decimal.NewFromFloat(19),
			},
		},
	}
}

func TestDocumentService_CreaFacturaConTotales(t *testing.T) {
	f := newDocServiceFixture(t)

	out, err := f.service.Create(context.Background(), "co-1", invoiceRequest())
	require.NoError(t, err)

	assert.Equal(t, entity.StatusCreada, out.Status, "el documento nuevo debe quedar en CREADA")
	assert.Equal(t, "SETP1", out.FullNumber, "el consecutivo lo asigna la resolución")
	assert.True(t, out.NetTotal.Equal(decimal.NewFromInt(1000000)), "subtotal = cantidad * precio")
	assert.True(t, out.TaxTotal.Equal(decimal.NewFromInt(190000)), "IVA al 19 por ciento")
	assert.True(t, out.GrandTotal.Equal(decimal.NewFromInt(1190000)))
	require.Len(t, out.Lines, 1)
	assert.Equal(t, 1, out.Lines[0].LineNumber)

	stored, err := f.docRepo.GetByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.Equal(t, "COP", stored.Currency, "la moneda por defecto es COP")
	assert.Equal(t, "94", stored.Lines[0].UnitCode, "unidad UN/ECE por defecto")
}

func TestDocumentService_DescuentoGlobal(t *testing.T) {
	f := newDocServiceFixture(t)
	req := invoiceRequest()
	req.Discount = decimal.NewFromInt(90000)

	out, err := f.service.Create(context.Background(), "co-1", req)
	require.NoError(t, err)
	assert.True(t, out.NetTotal.Equal(decimal.NewFromInt(1000000)), "el descuento no toca la base gravable")
	assert.True(t, out.TaxTotal.Equal(decimal.NewFromInt(190000)))
	assert.True(t, out.Discount.Equal(decimal.NewFromInt(90000)))
	assert.True(t, out.GrandTotal.Equal(decimal.NewFromInt(1100000)), "total a pagar = neto + IVA - descuento")
}

func TestDocumentService_DescuentoInvalido(t *testing.T) {
	f := newDocServiceFixture(t)

	negativo := invoiceRequest()
	negativo.Discount = decimal.NewFromInt(-1)
	_, err := f.service.Create(context.Background(), "co-1", negativo)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	excesivo := invoiceRequest()
	excesivo.Discount = decimal.NewFromInt(2000000)
	_, err = f.service.Create(context.Background(), "co-1", excesivo)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el descuento no puede superar el total")
}

func TestDocumentService_ConsecutivoFueraDeRango(t *testing.T) {
	f := newDocServiceFixture(t)
	f.resolutions.resolutions[0].RangeFrom = 50
	f.resolutions.resolutions[0].RangeTo = 60

	_, err := f.service.Create(context.Background(), "co-1", invoiceRequest())
	require.ErrorIs(t, err, domain.ErrConflict, "consecutivo fuera del rango autorizado")
}

func TestDocumentService_SinResolucionVigente(t *testing.T) {
	f := newDocServiceFixture(t)
	in := invoiceRequest()
	in.Prefix = "FE"

	_, err := f.service.Create(context.Background(), "co-1", in)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentService_AdquirienteDeOtraEmpresa(t *testing.T) {
	f := newDocServiceFixture(t)
	in := invoiceRequest()
	in.CustomerID = "cu-2"

	_, err := f.service.Create(context.Background(), "co-1", in)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestDocumentService_NotaRequiereDocumentoAfectado(t *testing.T) {
	f := newDocServiceFixture(t)
	in := invoiceRequest()
	in.DocType = entity.DocTypeNotaCredito

	_, err := f.service.Create(context.Background(), "co-1", in)
	require.ErrorIs(t, err, domain.ErrMissingBillingReference)
}

func TestDocumentService_NotaConReferenciaValida(t *testing.T) {
	f := newDocServiceFixture(t)
	require.NoError(t, f.docRepo.Create(context.Background(), &entity.FiscalDocument{
		ID: "doc-0", CompanyID: "co-1", DocType: entity.DocTypeFacturaVenta,
		Prefix: "SETP", Number: "990", Status: entity.StatusAceptada,
	}))
	in := invoiceRequest()
	in.DocType = entity.DocTypeNotaCredito
	in.AffectedID = "doc-0"

	out, err := f.service.Create(context.Background(), "co-1", in)
	require.NoError(t, err)
	assert.Equal(t, "doc-0", out.AffectedID)
}

func TestDocumentService_ValidaLineas(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dto.CreateDocumentRequest)
	}{
		{"sin líneas", func(in *dto.CreateDocumentRequest) { in.Lines = nil }},
		{"sin descripción", func(in *dto.CreateDocumentRequest) { in.Lines[0].Description = "" }},
		{"cantidad cero", func(in *dto.CreateDocumentRequest) { in.Lines[0].Quantity = decimal.Zero }},
		{"precio negativo", func(in *dto.CreateDocumentRequest) { in.Lines[0].UnitPrice = decimal.NewFromInt(-1) }},
		{"tipo desconocido", func(in *dto.CreateDocumentRequest) { in.DocType = "RECIBO" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newDocServiceFixture(t)
			in := invoiceRequest()
			tc.mutate(&in)
			_, err := f.service.Create(context.Background(), "co-1", in)
			require.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestDocumentService_GetVerificaEmpresa(t *testing.T) {
	f := newDocServiceFixture(t)
	out, err := f.service.Create(context.Background(), "co-1", invoiceRequest())
	require.NoError(t, err)

	_, err = f.service.Get(context.Background(), "otra-empresa", out.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := f.service.Get(context.Background(), "co-1", out.ID)
	require.NoError(t, err)
	assert.Equal(t, out.ID, got.ID)
}

func TestDocumentService_SignedXMLRequiereFirma(t *testing.T) {
	f := newDocServiceFixture(t)
	out, err := f.service.Create(context.Background(), "co-1", invoiceRequest())
	require.NoError(t, err)

	_, err = f.service.SignedXML(context.Background(), "co-1", out.ID)
	require.ErrorIs(t, err, domain.ErrConflict, "sin firmar no hay XML para descargar")

	require.NoError(t, f.docRepo.UpdateSigned(context.Background(), out.ID, "CUFE", "<Invoice/>", "qr"))
	xml, err := f.service.SignedXML(context.Background(), "co-1", out.ID)
	require.NoError(t, err)
	assert.Equal(t, "<Invoice/>", xml)
}

func TestDocumentService_ListFiltraPorEstado(t *testing.T) {
	f := newDocServiceFixture(t)
	out, err := f.service.Create(context.Background(), "co-1", invoiceRequest())
	require.NoError(t, err)
	require.NoError(t, f.docRepo.UpdateStatus(context.Background(), out.ID, entity.StatusFirmada))

	firmadas, err := f.service.List(context.Background(), "co-1", entity.StatusFirmada, 20, 0)
	require.NoError(t, err)
	assert.Len(t, firmadas, 1)

	creadas, err := f.service.List(context.Background(), "co-1", entity.StatusCreada, 20, 0)
	require.NoError(t, err)
	assert.Empty(t, creadas)
}
