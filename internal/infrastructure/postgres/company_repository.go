package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

var (
	_ repository.CompanyRepository  = (*CompanyRepo)(nil)
	_ repository.CustomerRepository = (*CustomerRepo)(nil)
)

// CompanyRepo implementa CompanyRepository sobre PostgreSQL.
type CompanyRepo struct {
	q Querier
}

// NewCompanyRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCompanyRepository(q Querier) *CompanyRepo {
	return &CompanyRepo{q: q}
}

const companyColumns = `
	id, name, nit, dv, address, city, city_code, department, department_code,
	email, phone, tax_responsibility, tax_regime, created_at, updated_at`

func (r *CompanyRepo) Create(ctx context.Context, company *entity.Company) error {
	if company.ID == "" {
		company.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO companies (` + companyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`
	_, err := r.q.Exec(ctx, q,
		company.ID, company.Name, company.NIT, company.DV,
		company.Address, company.City, company.CityCode,
		company.Department, company.DepartmentCode,
		nullIfEmpty(company.Email), nullIfEmpty(company.Phone),
		company.TaxResponsibility, company.TaxRegime,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("empresa con NIT %s ya existe: %w", company.NIT, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert company: %w", err)
	}
	return nil
}

func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*entity.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return scanCompany(r.q.QueryRow(ctx, q, id))
}

func (r *CompanyRepo) GetByNIT(ctx context.Context, nit string) (*entity.Company, error) {
	const q = `SELECT ` + companyColumns + ` FROM companies WHERE nit = $1`
	return scanCompany(r.q.QueryRow(ctx, q, nit))
}

func (r *CompanyRepo) Update(ctx context.Context, company *entity.Company) error {
	const q = `
		UPDATE companies
		SET name = $2, address = $3, city = $4, city_code = $5,
		    department = $6, department_code = $7, email = $8, phone = $9,
		    tax_responsibility = $10, tax_regime = $11, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		company.ID, company.Name, company.Address, company.City, company.CityCode,
		company.Department, company.DepartmentCode,
		nullIfEmpty(company.Email), nullIfEmpty(company.Phone),
		company.TaxResponsibility, company.TaxRegime,
	)
	if err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCompany(row pgx.Row) (*entity.Company, error) {
	var c entity.Company
	var email, phone *string
	err := row.Scan(
		&c.ID, &c.Name, &c.NIT, &c.DV, &c.Address, &c.City, &c.CityCode,
		&c.Department, &c.DepartmentCode, &email, &phone,
		&c.TaxResponsibility, &c.TaxRegime, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get company: %w", err)
	}
	c.Email = derefStr(email)
	c.Phone = derefStr(phone)
	return &c, nil
}

// CustomerRepo implementa CustomerRepository sobre PostgreSQL.
type CustomerRepo struct {
	q Querier
}

// NewCustomerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCustomerRepository(q Querier) *CustomerRepo {
	return &CustomerRepo{q: q}
}

const customerColumns = `
	id, company_id, name, id_type, id_number, dv, address, city, city_code,
	department, department_code, email, phone, created_at, updated_at`

func (r *CustomerRepo) Create(ctx context.Context, customer *entity.Customer) error {
	if customer.ID == "" {
		customer.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO customers (` + customerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, now(), now())`
	_, err := r.q.Exec(ctx, q,
		customer.ID, customer.CompanyID, customer.Name,
		customer.IDType, customer.IDNumber, nullIfEmpty(customer.DV),
		customer.Address, customer.City, customer.CityCode,
		customer.Department, customer.DepartmentCode,
		nullIfEmpty(customer.Email), nullIfEmpty(customer.Phone),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cliente %s ya existe para la empresa: %w", customer.IDNumber, domain.ErrDuplicate)
		}
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

func (r *CustomerRepo) GetByID(ctx context.Context, id string) (*entity.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`
	return scanCustomer(r.q.QueryRow(ctx, q, id))
}

func (r *CustomerRepo) GetByCompanyAndIDNumber(ctx context.Context, companyID, idNumber string) (*entity.Customer, error) {
	const q = `SELECT ` + customerColumns + ` FROM customers WHERE company_id = $1 AND id_number = $2`
	return scanCustomer(r.q.QueryRow(ctx, q, companyID, idNumber))
}

func (r *CustomerRepo) Update(ctx context.Context, customer *entity.Customer) error {
	const q = `
		UPDATE customers
		SET name = $2, id_type = $3, id_number = $4, dv = $5,
		    address = $6, city = $7, city_code = $8,
		    department = $9, department_code = $10,
		    email = $11, phone = $12, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q,
		customer.ID, customer.Name, customer.IDType, customer.IDNumber,
		nullIfEmpty(customer.DV), customer.Address, customer.City, customer.CityCode,
		customer.Department, customer.DepartmentCode,
		nullIfEmpty(customer.Email), nullIfEmpty(customer.Phone),
	)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CustomerRepo) ListByCompany(ctx context.Context, companyID string, limit, offset int) ([]*entity.Customer, error) {
	const q = `SELECT ` + customerColumns + `
		FROM customers
		WHERE company_id = $1
		ORDER BY name
		LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, q, companyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	var customers []*entity.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func scanCustomer(row pgx.Row) (*entity.Customer, error) {
	var c entity.Customer
	var dv, email, phone *string
	err := row.Scan(
		&c.ID, &c.CompanyID, &c.Name, &c.IDType, &c.IDNumber, &dv,
		&c.Address, &c.City, &c.CityCode, &c.Department, &c.DepartmentCode,
		&email, &phone, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c.DV = derefStr(dv)
	c.Email = derefStr(email)
	c.Phone = derefStr(phone)
	return &c, nil
}
