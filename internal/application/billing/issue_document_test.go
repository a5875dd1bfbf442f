package billing

import (
	"context"
	"crypto/tls"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-api/internal/domain"
	domaindian "github.com/jhoicas/facturacion-api/internal/domain/dian"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
)

// fakeSigner marca el XML como firmado sin criptografía real.
type fakeSigner struct {
	calls int
	err   error
}

func (s *fakeSigner) Sign(xmlBytes []byte, _ tls.Certificate) ([]byte, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return append(xmlBytes, []byte("<!--firmado-->")...), nil
}

type issueFixture struct {
	orchestrator *IssueOrchestrator
	docRepo      *fakeDocRepo
	artifactRepo *fakeArtifactRepo
	eventRepo    *fakeEventRepo
	historyRepo  *fakeHistoryRepo
	submitter    *fakeSubmitter
	signer       *fakeSigner
}

func newIssueFixture(t *testing.T, docs []*entity.FiscalDocument, submitter *fakeSubmitter) *issueFixture {
	t.Helper()

	docRepo := newFakeDocRepo(docs...)
	artifactRepo := newFakeArtifactRepo()
	eventRepo := &fakeEventRepo{}
	historyRepo := &fakeHistoryRepo{}

	companyRepo := &fakeCompanyRepo{companies: map[string]*entity.Company{
		"co-1": {
			ID: "co-1", Name: "Comercializadora Andina SAS",
			NIT: "900123456", DV: "7",
			Address: "Cra 7 # 12-34", City: "Bogotá", CityCode: "11001",
			Department: "Bogotá D.C.", DepartmentCode: "11",
			TaxResponsibility: "O-13", TaxRegime: "48",
		},
	}}
	customerRepo := &fakeCustomerRepo{customers: map[string]*entity.Customer{
		"cu-1": {
			ID: "cu-1", CompanyID: "co-1", Name: "Distribuciones El Roble LTDA",
			IDType: "31", IDNumber: "800987654", DV: "1",
			Address: "Cl 45 # 8-20", City: "Medellín", CityCode: "05001",
		},
	}}
	resolutionRepo := &fakeResolutionRepo{resolutions: []*entity.BillingResolution{{
		ID: "res-1", CompanyID: "co-1",
		Number: "18764000000001", Prefix: "SETP",
		RangeFrom: 990000000, RangeTo: 995000000,
		TechnicalKey: "fc8eac422eba16e22ffd8c6f94b3f40a01234567890",
		ValidFrom:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:      time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC),
	}}}

	tx := &fakeTxRunner{docRepo: docRepo, artifactRepo: artifactRepo, eventRepo: eventRepo, historyRepo: historyRepo}
	sgn := &fakeSigner{}

	o := NewIssueOrchestrator(
		docRepo, artifactRepo, eventRepo,
		companyRepo, customerRepo, resolutionRepo,
		domaindian.NewCufeCalculatorService(),
		infradian.NewXMLBuilderService(),
		infradian.NewQRService(),
		sgn, submitter,
		NewResponseInterpreter(tx, testLogger()),
		DIANConfig{
			TechnicalKey: "fc8eac422eba16e22ffd8c6f94b3f40a01234567890",
			SoftwareID:   "sw-123",
			Environment:  "2",
			CertBase64:   "irrelevante-en-tests",
		},
		testLogger(),
	)
	o.loadCert = func() (tls.Certificate, error) { return tls.Certificate{}, nil }

	return &issueFixture{
		orchestrator: o,
		docRepo:      docRepo,
		artifactRepo: artifactRepo,
		eventRepo:    eventRepo,
		historyRepo:  historyRepo,
		submitter:    submitter,
		signer:       sgn,
	}
}

func newDraftInvoice() *entity.FiscalDocument {
	return &entity.FiscalDocument{
		ID:         "doc-1",
		CompanyID:  "co-1",
		CustomerID: "cu-1",
		DocType:    entity.DocTypeFacturaVenta,
		Prefix:     "SETP",
		Number:     "990000001",
		IssueDate:  time.Date(2024, 1, 15, 10, 30, 0, 0, time.FixedZone("-05:00", -5*3600)),
		Currency:   "COP",
		NetTotal:   decimal.NewFromInt(1000000),
		TaxTotal:   decimal.NewFromInt(190000),
		GrandTotal: decimal.NewFromInt(1190000),
		Status:     entity.StatusCreada,
		Lines: []entity.DocumentLine{{
			LineNumber:  1,
			ProductCode: "SKU-001",
			Description: "Monitor 24 pulgadas",
			Quantity:    decimal.NewFromInt(10),
			UnitCode:    "94",
			UnitPrice:   decimal.NewFromInt(100000),
			TaxRate:     decimal.NewFromInt(19),
			TaxAmount:   decimal.NewFromInt(190000),
			LineTotal:   decimal.NewFromInt(1000000),
		}},
	}
}

var cufePattern = regexp.MustCompile(`^[0-9A-F]{96}$`)

func TestProcessEmiteFacturaCompleta(t *testing.T) {
	submitter := &fakeSubmitter{result: &infradian.SubmitResult{
		Success: true,
		Status:  infradian.StatusAceptado,
		Message: "Documento validado por la DIAN",
	}}
	f := newIssueFixture(t, []*entity.FiscalDocument{newDraftInvoice()}, submitter)

	status, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAceptada, status)

	doc, err := f.docRepo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAceptada, doc.Status)
	assert.Regexp(t, cufePattern, doc.CUFE, "el CUFE debe ser SHA-384 en hex mayúsculas")
	assert.True(t, strings.HasSuffix(doc.XMLSigned, "<!--firmado-->"), "debe persistirse el XML firmado")
	assert.Contains(t, doc.QRData, doc.CUFE, "el QR debe incluir el CUFE")

	artifact, err := f.artifactRepo.GetByDocumentID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, doc.CUFE, artifact.CUFE)
	assert.Equal(t, doc.XMLSigned, artifact.XMLContent)
	assert.Equal(t, "2", artifact.Environment)

	envios, err := f.eventRepo.CountByType(context.Background(), "doc-1", entity.EventEnvio)
	require.NoError(t, err)
	assert.Equal(t, 1, envios, "la emisión debe registrar el envío inicial")

	aceptaciones, err := f.eventRepo.CountByType(context.Background(), "doc-1", entity.EventAceptacion)
	require.NoError(t, err)
	assert.Equal(t, 1, aceptaciones)

	assert.Equal(t, 1, f.signer.calls)
	assert.Equal(t, 1, f.submitter.callCount())
}

func TestProcessSinCanalQuedaFirmada(t *testing.T) {
	f := newIssueFixture(t, []*entity.FiscalDocument{newDraftInvoice()}, nil)
	f.orchestrator.submitter = nil

	status, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFirmada, status)

	doc, err := f.docRepo.GetByID(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusFirmada, doc.Status)
	assert.Empty(t, f.eventRepo.events, "sin envío no debe haber eventos")
}

func TestProcessRechazoQuedaRechazada(t *testing.T) {
	submitter := &fakeSubmitter{result: &infradian.SubmitResult{
		Status:  infradian.StatusRechazado,
		Message: "Regla FAD06",
	}}
	f := newIssueFixture(t, []*entity.FiscalDocument{newDraftInvoice()}, submitter)

	status, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRechazada, status)

	doc, _ := f.docRepo.GetByID(context.Background(), "doc-1")
	assert.Equal(t, "Regla FAD06", doc.DIANErrors)
}

func TestProcessRequiereEstadoCreada(t *testing.T) {
	doc := newDraftInvoice()
	doc.Status = entity.StatusEnviada
	f := newIssueFixture(t, []*entity.FiscalDocument{doc}, &fakeSubmitter{})

	_, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 0, f.signer.calls)
}

func TestProcessNotaCreditoSinReferencia(t *testing.T) {
	doc := newDraftInvoice()
	doc.DocType = entity.DocTypeNotaCredito
	doc.AffectedID = ""
	f := newIssueFixture(t, []*entity.FiscalDocument{doc}, &fakeSubmitter{})

	_, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingBillingReference)
}

func TestProcessNotaCreditoAfectadoSinCufe(t *testing.T) {
	affected := newDraftInvoice()
	affected.ID = "doc-0"
	affected.Number = "990000000"
	affected.CUFE = "" // aún sin emitir

	note := newDraftInvoice()
	note.DocType = entity.DocTypeNotaCredito
	note.AffectedID = "doc-0"

	f := newIssueFixture(t, []*entity.FiscalDocument{affected, note}, &fakeSubmitter{})

	_, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMissingBillingReference)
	assert.Equal(t, 0, f.signer.calls, "la nota no debe firmarse sin CUFE del afectado")
}

func TestProcessNotaCreditoConReferencia(t *testing.T) {
	affected := newDraftInvoice()
	affected.ID = "doc-0"
	affected.Number = "990000000"
	affected.Status = entity.StatusAceptada
	affected.CUFE = strings.Repeat("A", 96)

	note := newDraftInvoice()
	note.DocType = entity.DocTypeNotaCredito
	note.AffectedID = "doc-0"

	submitter := &fakeSubmitter{result: &infradian.SubmitResult{Success: true, Status: infradian.StatusAceptado}}
	f := newIssueFixture(t, []*entity.FiscalDocument{affected, note}, submitter)

	status, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusAceptada, status)

	doc, _ := f.docRepo.GetByID(context.Background(), "doc-1")
	assert.Contains(t, doc.XMLSigned, "CreditNote")
	assert.Contains(t, doc.XMLSigned, strings.Repeat("A", 96), "la nota debe referenciar el CUFE del documento afectado")
}

func TestProcessErrorDeFirmaNoEnvia(t *testing.T) {
	f := newIssueFixture(t, []*entity.FiscalDocument{newDraftInvoice()}, &fakeSubmitter{})
	f.signer.err = domain.ErrSigning

	_, err := f.orchestrator.Process(context.Background(), "doc-1")
	require.Error(t, err)
	assert.Equal(t, 0, f.submitter.callCount())

	doc, _ := f.docRepo.GetByID(context.Background(), "doc-1")
	assert.Equal(t, entity.StatusCreada, doc.Status, "un error de firma no debe cambiar el estado")
}

func TestProcessDocumentoSinLineas(t *testing.T) {
	doc := newDraftInvoice()
	doc.Lines = nil
	f := newIssueFixture(t, []*entity.FiscalDocument{doc}, &fakeSubmitter{})

	_, err := f.orchestrator.Process(context.Background(), "doc-1")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
