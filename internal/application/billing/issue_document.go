package billing

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-api/internal/domain"
	domaindian "github.com/jhoicas/facturacion-api/internal/domain/dian"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-api/internal/infrastructure/dian/signer"
	pkgdian "github.com/jhoicas/facturacion-api/pkg/dian"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// zona horaria fija de Colombia para FecFac/HorFac del CUFE.
var bogota = time.FixedZone("-05:00", -5*3600)

// IssueOrchestrator orquesta el ciclo completo de emisión de un documento:
//
//	CUFE → XML UBL 2.1 → Firma XAdES-EPES → Envío al WS DIAN → interpretación
//
// Se puede ejecutar en goroutine independiente (ProcessAsync) con su propio
// context.Background() + timeout 30 s, desacoplado del ciclo HTTP.
// Si submitter es nil el documento queda FIRMADA sin envío (modo desarrollo).
type IssueOrchestrator struct {
	docRepo        repository.FiscalDocumentRepository
	artifactRepo   repository.DIANDocumentRepository
	eventRepo      repository.DIANEventRepository
	companyRepo    repository.CompanyRepository
	customerRepo   repository.CustomerRepository
	resolutionRepo repository.BillingResolutionRepository
	cufeCalc       *domaindian.CufeCalculatorService
	xmlBuilder     *infradian.XMLBuilderService
	qrService      *infradian.QRService
	signer         pkgdian.Signer
	submitter      infradian.DIANSubmitter
	interpreter    *ResponseInterpreter
	cfg            DIANConfig
	log            *logger.Logger

	loadCert func() (tls.Certificate, error) // inyectable en tests
}

// NewIssueOrchestrator construye el orquestador con todas sus dependencias.
func NewIssueOrchestrator(
	docRepo repository.FiscalDocumentRepository,
	artifactRepo repository.DIANDocumentRepository,
	eventRepo repository.DIANEventRepository,
	companyRepo repository.CompanyRepository,
	customerRepo repository.CustomerRepository,
	resolutionRepo repository.BillingResolutionRepository,
	cufeCalc *domaindian.CufeCalculatorService,
	xmlBuilder *infradian.XMLBuilderService,
	qrService *infradian.QRService,
	sgn pkgdian.Signer,
	submitter infradian.DIANSubmitter,
	interpreter *ResponseInterpreter,
	cfg DIANConfig,
	log *logger.Logger,
) *IssueOrchestrator {
	o := &IssueOrchestrator{
		docRepo:        docRepo,
		artifactRepo:   artifactRepo,
		eventRepo:      eventRepo,
		companyRepo:    companyRepo,
		customerRepo:   customerRepo,
		resolutionRepo: resolutionRepo,
		cufeCalc:       cufeCalc,
		xmlBuilder:     xmlBuilder,
		qrService:      qrService,
		signer:         sgn,
		submitter:      submitter,
		interpreter:    interpreter,
		cfg:            cfg,
		log:            log,
	}
	o.loadCert = o.loadCertificate
	return o
}

// ProcessAsync dispara el procesamiento en una goroutine independiente.
// documentID es el ID de un documento ya persistido en estado CREADA.
func (o *IssueOrchestrator) ProcessAsync(documentID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if _, err := o.Process(ctx, documentID); err != nil {
			o.log.Error().Str("document_id", documentID).Err(err).Msg("emisión DIAN fallida")
		}
	}()
}

// Process ejecuta el ciclo completo de emisión y devuelve el estado final.
func (o *IssueOrchestrator) Process(ctx context.Context, documentID string) (string, error) {
	// ═══════════════════════════════════════════════════════════════════════════
	// 0. Re-fetch datos frescos
	// ═══════════════════════════════════════════════════════════════════════════
	doc, err := o.docRepo.GetByID(ctx, documentID)
	if err != nil {
		return "", fmt.Errorf("documento %s: %w", documentID, err)
	}
	if doc.Status != entity.StatusCreada {
		return "", fmt.Errorf("billing: documento %s en estado %q, se esperaba %s: %w",
			documentID, doc.Status, entity.StatusCreada, domain.ErrConflict)
	}
	if len(doc.Lines) == 0 {
		return "", fmt.Errorf("billing: documento %s sin líneas: %w", documentID, domain.ErrInvalidInput)
	}

	company, err := o.companyRepo.GetByID(ctx, doc.CompanyID)
	if err != nil {
		return "", fmt.Errorf("empresa %s: %w", doc.CompanyID, err)
	}
	customer, err := o.customerRepo.GetByID(ctx, doc.CustomerID)
	if err != nil {
		return "", fmt.Errorf("cliente %s: %w", doc.CustomerID, err)
	}
	resolution, err := o.resolutionRepo.GetActiveByCompanyAndPrefix(ctx, doc.CompanyID, doc.Prefix)
	if err != nil {
		return "", fmt.Errorf("resolución vigente para %s/%s: %w", doc.CompanyID, doc.Prefix, err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 1. CUFE (SHA-384, Anexo Técnico 1.9)
	// ═══════════════════════════════════════════════════════════════════════════
	env := o.cfg.Environment
	if env == "" {
		env = pkgdian.EnvironmentHabilitacion
	}
	clTec := resolution.TechnicalKey
	if clTec == "" {
		clTec = o.cfg.TechnicalKey
	}
	issuedAt := doc.IssueDate.In(bogota)

	cufe, err := o.cufeCalc.Calculate(&domaindian.CufeParams{
		NumFac:     doc.FullNumber(),
		FecFac:     issuedAt.Format("2006-01-02"),
		HorFac:     issuedAt.Format("15:04:05-07:00"),
		ValFac:     doc.NetTotal,
		ValImp:     doc.TaxTotal,
		ValPag:     doc.GrandTotal,
		NitOfe:     company.NIT,
		DocAdq:     customer.IDNumber,
		ClTec:      clTec,
		SoftwareID: o.cfg.SoftwareID,
		TipoDoc:    dianDocTypeCode(doc.DocType),
		TipoAmb:    env,
	})
	if err != nil {
		return "", fmt.Errorf("cufe: %w", err)
	}
	doc.CUFE = cufe

	// ═══════════════════════════════════════════════════════════════════════════
	// 2. XML UBL 2.1 (CUFE en cbc:UUID + DianExtensions de la resolución)
	// ═══════════════════════════════════════════════════════════════════════════
	buildCtx := &infradian.BuildContext{
		Document: doc,
		Company:  company,
		Customer: customer,
		Resolution: &infradian.BillingResolutionData{
			Number:   resolution.Number,
			Prefix:   resolution.Prefix,
			From:     resolution.RangeFrom,
			To:       resolution.RangeTo,
			DateFrom: resolution.ValidFrom,
			DateTo:   resolution.ValidTo,
		},
		Environment:     env,
		PaymentFormCode: doc.PaymentForm,
	}

	var xmlBytes []byte
	switch doc.DocType {
	case entity.DocTypeNotaCredito, entity.DocTypeNotaDebito:
		ref, refErr := o.billingReference(ctx, doc)
		if refErr != nil {
			return "", refErr
		}
		buildCtx.BillingReference = ref
		if doc.DocType == entity.DocTypeNotaCredito {
			xmlBytes, err = o.xmlBuilder.BuildCreditNote(buildCtx)
		} else {
			xmlBytes, err = o.xmlBuilder.BuildDebitNote(buildCtx)
		}
	default:
		xmlBytes, err = o.xmlBuilder.BuildInvoice(buildCtx)
	}
	if err != nil {
		return "", fmt.Errorf("xml-build: %w", err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 3. Firma digital XAdES-EPES
	// ═══════════════════════════════════════════════════════════════════════════
	cert, err := o.loadCert()
	if err != nil {
		return "", fmt.Errorf("cert-load: %w", err)
	}
	signedXML, err := o.signer.Sign(xmlBytes, cert)
	if err != nil {
		return "", fmt.Errorf("xml-sign: %w: %v", domain.ErrSigning, err)
	}

	// ═══════════════════════════════════════════════════════════════════════════
	// 4. Persistir FIRMADA: documento + artefacto
	// ═══════════════════════════════════════════════════════════════════════════
	qrData := o.qrService.BuildQRData(infradian.QRParams{
		NitEmisor:    company.NIT,
		NitReceptor:  customer.IDNumber,
		DocumentType: dianDocTypeCode(doc.DocType),
		Number:       doc.FullNumber(),
		CUFE:         cufe,
		IssueDate:    issuedAt,
		TotalAmount:  doc.GrandTotal,
		TotalTax:     doc.TaxTotal,
	})

	if err := o.docRepo.UpdateSigned(ctx, doc.ID, cufe, string(signedXML), qrData); err != nil {
		return "", fmt.Errorf("persistir FIRMADA: %w", err)
	}
	doc.Status = entity.StatusFirmada
	doc.XMLSigned = string(signedXML)
	doc.QRData = qrData

	if err := o.artifactRepo.Create(ctx, &entity.DIANDocument{
		ID:          uuid.New().String(),
		DocumentID:  doc.ID,
		CUFE:        cufe,
		XMLContent:  string(signedXML),
		QRData:      qrData,
		Environment: env,
		SignedAt:    time.Now(),
		CreatedAt:   time.Now(),
	}); err != nil {
		return "", fmt.Errorf("persistir artefacto: %w", err)
	}

	o.log.Info().
		Str("document_id", doc.ID).
		Str("cufe", cufe).
		Str("doc_type", doc.DocType).
		Msg("documento firmado")

	// ═══════════════════════════════════════════════════════════════════════════
	// 5. Envío al WS DIAN (opcional) e interpretación de la respuesta
	// ═══════════════════════════════════════════════════════════════════════════
	if o.submitter == nil {
		o.log.Warn().Str("document_id", doc.ID).Msg("sin canal DIAN configurado, documento queda FIRMADA")
		return entity.StatusFirmada, nil
	}

	if err := o.eventRepo.Create(ctx, &entity.DIANEvent{
		ID:         uuid.New().String(),
		DocumentID: doc.ID,
		EventType:  entity.EventEnvio,
		Detail:     "envío inicial",
		CreatedAt:  time.Now(),
	}); err != nil {
		return "", fmt.Errorf("registrar envío: %w", err)
	}
	if err := o.docRepo.UpdateStatus(ctx, doc.ID, entity.StatusEnviada); err != nil {
		return "", fmt.Errorf("persistir ENVIADA: %w", err)
	}
	doc.Status = entity.StatusEnviada

	result, err := o.submitter.Submit(ctx, signedXML)
	if err != nil {
		return "", fmt.Errorf("enviar a DIAN: %w", err)
	}

	status, err := o.interpreter.Handle(ctx, doc, result)
	if err != nil {
		return "", err
	}
	return status, nil
}

// billingReference arma la referencia al documento afectado por una nota.
func (o *IssueOrchestrator) billingReference(ctx context.Context, doc *entity.FiscalDocument) (*infradian.BillingReferenceData, error) {
	if doc.AffectedID == "" {
		return nil, fmt.Errorf("billing: nota %s sin documento afectado: %w", doc.ID, domain.ErrMissingBillingReference)
	}
	affected, err := o.docRepo.GetByID(ctx, doc.AffectedID)
	if err != nil {
		return nil, fmt.Errorf("documento afectado %s: %w", doc.AffectedID, err)
	}
	if affected.CUFE == "" {
		return nil, fmt.Errorf("billing: documento afectado %s sin CUFE, emitirlo primero: %w",
			affected.FullNumber(), domain.ErrMissingBillingReference)
	}
	return &infradian.BillingReferenceData{
		Number:    affected.FullNumber(),
		CUFE:      affected.CUFE,
		IssueDate: affected.IssueDate,
	}, nil
}

func (o *IssueOrchestrator) loadCertificate() (tls.Certificate, error) {
	if o.cfg.CertBase64 == "" {
		return tls.Certificate{}, fmt.Errorf("DIAN_CERT_BASE64 no configurado")
	}
	return signer.LoadFromBase64(o.cfg.CertBase64, o.cfg.CertPassword)
}

// dianDocTypeCode mapea el tipo de documento interno al código del Anexo Técnico.
func dianDocTypeCode(docType string) string {
	switch docType {
	case entity.DocTypeFacturaPOS:
		return pkgdian.DocTypeFacturaPOS
	case entity.DocTypeNotaCredito:
		return pkgdian.DocTypeNotaCredito
	case entity.DocTypeNotaDebito:
		return pkgdian.DocTypeNotaDebito
	default:
		return pkgdian.DocTypeFacturaVenta
	}
}
