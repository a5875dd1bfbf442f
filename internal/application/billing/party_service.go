package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-api/internal/application/dto"
	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	pkgdian "github.com/jhoicas/facturacion-api/pkg/dian"
)

// CompanyService administra las empresas emisoras.
type CompanyService struct {
	repo repository.CompanyRepository
}

// NewCompanyService construye el servicio.
func NewCompanyService(repo repository.CompanyRepository) *CompanyService {
	return &CompanyService{repo: repo}
}

// Create registra una empresa emisora. Si DV va vacío se calcula con módulo 11;
// si viene, se valida contra el NIT.
func (s *CompanyService) Create(ctx context.Context, in dto.CreateCompanyRequest) (*dto.CompanyResponse, error) {
	if in.Name == "" || in.NIT == "" {
		return nil, fmt.Errorf("name y nit son obligatorios: %w", domain.ErrInvalidInput)
	}
	dv := in.DV
	if dv == "" {
		d, err := pkgdian.ComputeNITVerificationDigit(in.NIT)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
		dv = string(d)
	} else if err := pkgdian.ValidateNITVerificationDigit(in.NIT + "-" + dv); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}

	company := &entity.Company{
		ID:                uuid.New().String(),
		Name:              in.Name,
		NIT:               in.NIT,
		DV:                dv,
		Address:           in.Address,
		City:              in.City,
		CityCode:          in.CityCode,
		Department:        in.Department,
		DepartmentCode:    in.DepartmentCode,
		Email:             in.Email,
		Phone:             in.Phone,
		TaxResponsibility: in.TaxResponsibility,
		TaxRegime:         in.TaxRegime,
	}
	if err := s.repo.Create(ctx, company); err != nil {
		return nil, err
	}
	return companyResponse(company), nil
}

// Get devuelve la empresa por ID.
func (s *CompanyService) Get(ctx context.Context, id string) (*dto.CompanyResponse, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return companyResponse(company), nil
}

func companyResponse(c *entity.Company) *dto.CompanyResponse {
	return &dto.CompanyResponse{
		ID:                c.ID,
		Name:              c.Name,
		NIT:               c.NIT,
		DV:                c.DV,
		Address:           c.Address,
		City:              c.City,
		Email:             c.Email,
		Phone:             c.Phone,
		TaxResponsibility: c.TaxResponsibility,
		TaxRegime:         c.TaxRegime,
	}
}

// CustomerService administra los adquirientes de una empresa.
type CustomerService struct {
	repo repository.CustomerRepository
}

// NewCustomerService construye el servicio.
func NewCustomerService(repo repository.CustomerRepository) *CustomerService {
	return &CustomerService{repo: repo}
}

// Create registra un adquiriente. Si IDType es NIT (31) y falta el DV, se calcula.
func (s *CustomerService) Create(ctx context.Context, companyID string, in dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company_id requerido: %w", domain.ErrInvalidInput)
	}
	if in.Name == "" || in.IDNumber == "" {
		return nil, fmt.Errorf("name e id_number son obligatorios: %w", domain.ErrInvalidInput)
	}
	idType := in.IDType
	if idType == "" {
		idType = "13"
	}
	dv := in.DV
	if idType == "31" && dv == "" {
		d, err := pkgdian.ComputeNITVerificationDigit(in.IDNumber)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
		}
		dv = string(d)
	}

	customer := &entity.Customer{
		ID:             uuid.New().String(),
		CompanyID:      companyID,
		Name:           in.Name,
		IDType:         idType,
		IDNumber:       in.IDNumber,
		DV:             dv,
		Address:        in.Address,
		City:           in.City,
		CityCode:       in.CityCode,
		Department:     in.Department,
		DepartmentCode: in.DepartmentCode,
		Email:          in.Email,
		Phone:          in.Phone,
	}
	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, err
	}
	return customerResponse(customer), nil
}

// Get devuelve el adquiriente verificando pertenencia a la empresa.
func (s *CustomerService) Get(ctx context.Context, companyID, id string) (*dto.CustomerResponse, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if customer.CompanyID != companyID {
		return nil, domain.ErrForbidden
	}
	return customerResponse(customer), nil
}

// List lista los adquirientes de la empresa.
func (s *CustomerService) List(ctx context.Context, companyID string, limit, offset int) ([]*dto.CustomerResponse, error) {
	customers, err := s.repo.ListByCompany(ctx, companyID, limit, offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.CustomerResponse, 0, len(customers))
	for _, c := range customers {
		out = append(out, customerResponse(c))
	}
	return out, nil
}

func customerResponse(c *entity.Customer) *dto.CustomerResponse {
	return &dto.CustomerResponse{
		ID:        c.ID,
		CompanyID: c.CompanyID,
		Name:      c.Name,
		IDType:    c.IDType,
		IDNumber:  c.IDNumber,
		DV:        c.DV,
		Email:     c.Email,
		Phone:     c.Phone,
	}
}

// ResolutionService administra las resoluciones de numeración DIAN.
type ResolutionService struct {
	repo repository.BillingResolutionRepository
}

// NewResolutionService construye el servicio.
func NewResolutionService(repo repository.BillingResolutionRepository) *ResolutionService {
	return &ResolutionService{repo: repo}
}

// Create registra una resolución de numeración.
func (s *ResolutionService) Create(ctx context.Context, companyID string, in dto.CreateResolutionRequest) (*dto.ResolutionResponse, error) {
	if companyID == "" {
		return nil, fmt.Errorf("company_id requerido: %w", domain.ErrInvalidInput)
	}
	if in.Number == "" || in.Prefix == "" {
		return nil, fmt.Errorf("number y prefix son obligatorios: %w", domain.ErrInvalidInput)
	}
	if in.RangeFrom <= 0 || in.RangeTo < in.RangeFrom {
		return nil, fmt.Errorf("rango autorizado inválido %d-%d: %w", in.RangeFrom, in.RangeTo, domain.ErrInvalidInput)
	}
	validFrom, err := time.Parse("2006-01-02", in.ValidFrom)
	if err != nil {
		return nil, fmt.Errorf("valid_from %q: %w", in.ValidFrom, domain.ErrInvalidInput)
	}
	validTo, err := time.Parse("2006-01-02", in.ValidTo)
	if err != nil {
		return nil, fmt.Errorf("valid_to %q: %w", in.ValidTo, domain.ErrInvalidInput)
	}
	if validTo.Before(validFrom) {
		return nil, fmt.Errorf("vigencia invertida: %w", domain.ErrInvalidInput)
	}

	res := &entity.BillingResolution{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Number:       in.Number,
		Prefix:       in.Prefix,
		RangeFrom:    in.RangeFrom,
		RangeTo:      in.RangeTo,
		TechnicalKey: in.TechnicalKey,
		ValidFrom:    validFrom,
		ValidTo:      validTo,
	}
	if err := s.repo.Create(ctx, res); err != nil {
		return nil, err
	}
	return resolutionResponse(res), nil
}

// List lista las resoluciones de la empresa, vigentes y vencidas.
func (s *ResolutionService) List(ctx context.Context, companyID string) ([]*dto.ResolutionResponse, error) {
	resolutions, err := s.repo.ListByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.ResolutionResponse, 0, len(resolutions))
	for _, r := range resolutions {
		out = append(out, resolutionResponse(r))
	}
	return out, nil
}

func resolutionResponse(r *entity.BillingResolution) *dto.ResolutionResponse {
	return &dto.ResolutionResponse{
		ID:        r.ID,
		Number:    r.Number,
		Prefix:    r.Prefix,
		RangeFrom: r.RangeFrom,
		RangeTo:   r.RangeTo,
		ValidFrom: r.ValidFrom.Format("2006-01-02"),
		ValidTo:   r.ValidTo.Format("2006-01-02"),
	}
}
