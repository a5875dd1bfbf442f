package billing

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	infradian "github.com/jhoicas/facturacion-api/internal/infrastructure/dian"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// Fakes en memoria para los tests del ciclo de facturación.

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

type fakeDocRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.FiscalDocument

	updateSubmissionErr error
	submissions         []string // estados pasados a UpdateSubmission, en orden
}

func newFakeDocRepo(docs ...*entity.FiscalDocument) *fakeDocRepo {
	r := &fakeDocRepo{docs: make(map[string]*entity.FiscalDocument)}
	for _, d := range docs {
		r.docs[d.ID] = d
	}
	return r
}

func (r *fakeDocRepo) Create(_ context.Context, doc *entity.FiscalDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *fakeDocRepo) GetByID(_ context.Context, id string) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return doc, nil
}

func (r *fakeDocRepo) GetByNumber(_ context.Context, companyID, prefix, number string) (*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.Prefix == prefix && d.Number == number {
			return d, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDocRepo) UpdateStatus(_ context.Context, id, status string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	return nil
}

func (r *fakeDocRepo) UpdateSigned(_ context.Context, id, cufe, xmlSigned, qrData string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.CUFE = cufe
	doc.XMLSigned = xmlSigned
	doc.QRData = qrData
	doc.Status = entity.StatusFirmada
	return nil
}

func (r *fakeDocRepo) UpdateSubmission(_ context.Context, id, status, trackID, dianErrors string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateSubmissionErr != nil {
		return r.updateSubmissionErr
	}
	doc, ok := r.docs[id]
	if !ok {
		return domain.ErrNotFound
	}
	doc.Status = status
	doc.TrackID = trackID
	doc.DIANErrors = dianErrors
	r.submissions = append(r.submissions, status)
	return nil
}

func (r *fakeDocRepo) NextNumber(_ context.Context, _, _ string) (int64, error) {
	return 1, nil
}

func (r *fakeDocRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range r.docs {
		if d.CompanyID == companyID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (r *fakeDocRepo) ListByStatus(_ context.Context, companyID, status string, _, _ int) ([]*entity.FiscalDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FiscalDocument
	for _, d := range r.docs {
		if d.CompanyID == companyID && d.Status == status {
			out = append(out, d)
		}
	}
	return out, nil
}

type fakeArtifactRepo struct {
	mu        sync.Mutex
	artifacts map[string]*entity.DIANDocument // por document_id
}

func newFakeArtifactRepo() *fakeArtifactRepo {
	return &fakeArtifactRepo{artifacts: make(map[string]*entity.DIANDocument)}
}

func (r *fakeArtifactRepo) Create(_ context.Context, doc *entity.DIANDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.artifacts[doc.DocumentID] = doc
	return nil
}

func (r *fakeArtifactRepo) GetByDocumentID(_ context.Context, documentID string) (*entity.DIANDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.artifacts[documentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r *fakeArtifactRepo) GetByCUFE(_ context.Context, cufe string) (*entity.DIANDocument, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.artifacts {
		if a.CUFE == cufe {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []*entity.DIANEvent
}

func (r *fakeEventRepo) Create(_ context.Context, event *entity.DIANEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *fakeEventRepo) CountByType(_ context.Context, documentID, eventType string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.DocumentID == documentID && e.EventType == eventType {
			n++
		}
	}
	return n, nil
}

func (r *fakeEventRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.DIANEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DIANEvent
	for _, e := range r.events {
		if e.DocumentID == documentID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeHistoryRepo struct {
	mu      sync.Mutex
	records []*entity.DIANHistory
}

func (r *fakeHistoryRepo) Create(_ context.Context, record *entity.DIANHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *fakeHistoryRepo) ListByDocument(_ context.Context, documentID string) ([]*entity.DIANHistory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.DIANHistory
	for _, h := range r.records {
		if h.DocumentID == documentID {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeTxRunner ejecuta el callback directamente sobre los fakes, sin transacción.
type fakeTxRunner struct {
	docRepo      *fakeDocRepo
	artifactRepo *fakeArtifactRepo
	eventRepo    *fakeEventRepo
	historyRepo  *fakeHistoryRepo
}

func (r *fakeTxRunner) RunBilling(ctx context.Context, fn func(
	docRepo repository.FiscalDocumentRepository,
	artifactRepo repository.DIANDocumentRepository,
	eventRepo repository.DIANEventRepository,
	historyRepo repository.DIANHistoryRepository,
) error) error {
	return fn(r.docRepo, r.artifactRepo, r.eventRepo, r.historyRepo)
}

type fakeCompanyRepo struct {
	companies map[string]*entity.Company
}

func (r *fakeCompanyRepo) Create(_ context.Context, c *entity.Company) error {
	r.companies[c.ID] = c
	return nil
}

func (r *fakeCompanyRepo) GetByID(_ context.Context, id string) (*entity.Company, error) {
	c, ok := r.companies[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCompanyRepo) GetByNIT(_ context.Context, nit string) (*entity.Company, error) {
	for _, c := range r.companies {
		if c.NIT == nit {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCompanyRepo) Update(_ context.Context, c *entity.Company) error {
	r.companies[c.ID] = c
	return nil
}

type fakeCustomerRepo struct {
	customers map[string]*entity.Customer
}

func (r *fakeCustomerRepo) Create(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) GetByID(_ context.Context, id string) (*entity.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return c, nil
}

func (r *fakeCustomerRepo) GetByCompanyAndIDNumber(_ context.Context, companyID, idNumber string) (*entity.Customer, error) {
	for _, c := range r.customers {
		if c.CompanyID == companyID && c.IDNumber == idNumber {
			return c, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeCustomerRepo) Update(_ context.Context, c *entity.Customer) error {
	r.customers[c.ID] = c
	return nil
}

func (r *fakeCustomerRepo) ListByCompany(_ context.Context, companyID string, _, _ int) ([]*entity.Customer, error) {
	var out []*entity.Customer
	for _, c := range r.customers {
		if c.CompanyID == companyID {
			out = append(out, c)
		}
	}
	return out, nil
}

type fakeResolutionRepo struct {
	resolutions []*entity.BillingResolution
}

func (r *fakeResolutionRepo) Create(_ context.Context, res *entity.BillingResolution) error {
	r.resolutions = append(r.resolutions, res)
	return nil
}

func (r *fakeResolutionRepo) GetByID(_ context.Context, id string) (*entity.BillingResolution, error) {
	for _, res := range r.resolutions {
		if res.ID == id {
			return res, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeResolutionRepo) GetActiveByCompanyAndPrefix(_ context.Context, companyID, prefix string) (*entity.BillingResolution, error) {
	for _, res := range r.resolutions {
		if res.CompanyID == companyID && res.Prefix == prefix {
			return res, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeResolutionRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.BillingResolution, error) {
	var out []*entity.BillingResolution
	for _, res := range r.resolutions {
		if res.CompanyID == companyID {
			out = append(out, res)
		}
	}
	return out, nil
}

// fakeSubmitter registra las llamadas y devuelve un resultado fijo.
type fakeSubmitter struct {
	mu     sync.Mutex
	calls  int
	result *infradian.SubmitResult
	err    error
}

func (s *fakeSubmitter) Submit(_ context.Context, _ []byte) (*infradian.SubmitResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.result == nil {
		return nil, fmt.Errorf("fakeSubmitter sin resultado configurado")
	}
	return s.result, nil
}

func (s *fakeSubmitter) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
