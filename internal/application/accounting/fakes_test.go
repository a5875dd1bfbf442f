package accounting

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Env: "production", Level: "error"})
}

type fakeAccountRepo struct {
	accounts map[string]*entity.Account // por ID
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[string]*entity.Account)}
}

func (r *fakeAccountRepo) Create(_ context.Context, a *entity.Account) error {
	r.accounts[a.ID] = a
	return nil
}

func (r *fakeAccountRepo) GetByID(_ context.Context, id string) (*entity.Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r *fakeAccountRepo) GetByCompanyAndCode(_ context.Context, companyID, code string) (*entity.Account, error) {
	for _, a := range r.accounts {
		if a.CompanyID == companyID && a.Code == code {
			return a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeAccountRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.Account, error) {
	var out []*entity.Account
	for _, a := range r.accounts {
		if a.CompanyID == companyID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Upsert(_ context.Context, a *entity.Account) error {
	for _, existing := range r.accounts {
		if existing.CompanyID == a.CompanyID && existing.Code == a.Code {
			return nil
		}
	}
	r.accounts[a.ID] = a
	return nil
}

type fakeMappingRepo struct {
	mappings map[string]*entity.AccountMapping // por companyID+"/"+key
}

func newFakeMappingRepo() *fakeMappingRepo {
	return &fakeMappingRepo{mappings: make(map[string]*entity.AccountMapping)}
}

func mappingKey(companyID, key string) string { return companyID + "/" + key }

func (r *fakeMappingRepo) Create(_ context.Context, m *entity.AccountMapping) error {
	r.mappings[mappingKey(m.CompanyID, m.Key)] = m
	return nil
}

func (r *fakeMappingRepo) GetByKey(_ context.Context, companyID, key string) (*entity.AccountMapping, error) {
	m, ok := r.mappings[mappingKey(companyID, key)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return m, nil
}

func (r *fakeMappingRepo) ListByCompany(_ context.Context, companyID string) ([]*entity.AccountMapping, error) {
	var out []*entity.AccountMapping
	for _, m := range r.mappings {
		if m.CompanyID == companyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMappingRepo) Upsert(_ context.Context, m *entity.AccountMapping) error {
	k := mappingKey(m.CompanyID, m.Key)
	if _, ok := r.mappings[k]; ok {
		return nil
	}
	r.mappings[k] = m
	return nil
}

type fakeJournalRepo struct {
	entries  []*entity.JournalEntry
	accounts *fakeAccountRepo // para resolver naturaleza en TotalsByAccount
}

func (r *fakeJournalRepo) Create(_ context.Context, entry *entity.JournalEntry) error {
	r.entries = append(r.entries, entry)
	return nil
}

func (r *fakeJournalRepo) GetByID(_ context.Context, id string) (*entity.JournalEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeJournalRepo) GetByDocumentID(_ context.Context, documentID string) (*entity.JournalEntry, error) {
	for _, e := range r.entries {
		if e.DocumentID == documentID {
			return e, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeJournalRepo) ListByCompany(_ context.Context, companyID string, from, to time.Time, _, _ int) ([]*entity.JournalEntry, error) {
	var out []*entity.JournalEntry
	for _, e := range r.entries {
		if e.CompanyID == companyID && !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *fakeJournalRepo) TotalsByAccount(_ context.Context, companyID string, from, to time.Time) ([]repository.AccountTotals, error) {
	byAccount := make(map[string]*repository.AccountTotals)
	var order []string
	for _, e := range r.entries {
		if e.CompanyID != companyID || e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		for _, l := range e.Lines {
			t, ok := byAccount[l.AccountID]
			if !ok {
				t = &repository.AccountTotals{
					AccountID:   l.AccountID,
					AccountCode: l.AccountCode,
					Debits:      decimal.Zero,
					Credits:     decimal.Zero,
				}
				if r.accounts != nil {
					if a, ok := r.accounts.accounts[l.AccountID]; ok {
						t.AccountName = a.Name
						t.Nature = a.Nature
					}
				}
				byAccount[l.AccountID] = t
				order = append(order, l.AccountID)
			}
			t.Debits = t.Debits.Add(l.Debit)
			t.Credits = t.Credits.Add(l.Credit)
		}
	}
	out := make([]repository.AccountTotals, 0, len(order))
	for _, id := range order {
		out = append(out, *byAccount[id])
	}
	return out, nil
}
