package accounting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// defaultChart es el PUC mínimo que necesita el motor de asientos.
// Cada entrada asocia la clave lógica con su cuenta del plan único de cuentas.
// La naturaleza es explícita: 5110 es de naturaleza COSTO aunque el código
// empiece por 5.
var defaultChart = []struct {
	Key    string
	Code   string
	Name   string
	Nature string
}{
	{entity.AccCaja, "1105", "Caja", entity.NatureActivo},
	{entity.AccClientesNacionales, "1305", "Clientes nacionales", entity.NatureActivo},
	{entity.AccInventario, "1405", "Inventario de mercancías", entity.NatureActivo},
	{entity.AccProveedores, "2205", "Proveedores nacionales", entity.NaturePasivo},
	{entity.AccIVAGenerado, "240801", "IVA generado", entity.NaturePasivo},
	{entity.AccIVADescontable, "240802", "IVA descontable", entity.NatureActivo},
	{entity.AccRetencionFuente, "240803", "Retención en la fuente", entity.NaturePasivo},
	{entity.AccRetencionICA, "240804", "Retención ICA", entity.NaturePasivo},
	{entity.AccRetencionIVA, "240805", "Retención IVA", entity.NaturePasivo},
	{entity.AccIngresosVentas, "4135", "Ingresos operacionales - ventas", entity.NatureIngreso},
	{entity.AccCostosMercancias, "5110", "Costos de mercancías", entity.NatureCosto},
	{entity.AccGastos, "5195", "Gastos operacionales", entity.NatureGasto},
}

// PUCInitializer inicializa el plan de cuentas mínimo de una empresa.
// Es idempotente: reutiliza cuentas existentes y solo crea lo que falta.
type PUCInitializer struct {
	accountRepo repository.AccountRepository
	mappingRepo repository.AccountMappingRepository
	log         *logger.Logger
}

// NewPUCInitializer construye el inicializador.
func NewPUCInitializer(
	accountRepo repository.AccountRepository,
	mappingRepo repository.AccountMappingRepository,
	log *logger.Logger,
) *PUCInitializer {
	return &PUCInitializer{accountRepo: accountRepo, mappingRepo: mappingRepo, log: log}
}

// InitResult resume lo creado en una inicialización.
type InitResult struct {
	AccountsCreated int `json:"accounts_created"`
	MappingsCreated int `json:"mappings_created"`
}

// Init garantiza que la empresa tenga las cuentas y mapeos del PUC mínimo.
func (p *PUCInitializer) Init(ctx context.Context, companyID string) (*InitResult, error) {
	if companyID == "" {
		return nil, fmt.Errorf("accounting: companyID requerido: %w", domain.ErrInvalidInput)
	}

	result := &InitResult{}
	for _, def := range defaultChart {
		account, err := p.accountRepo.GetByCompanyAndCode(ctx, companyID, def.Code)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			account = &entity.Account{
				ID:        uuid.New().String(),
				CompanyID: companyID,
				Code:      def.Code,
				Name:      def.Name,
				Nature:    def.Nature,
				CreatedAt: time.Now(),
				UpdatedAt: time.Now(),
			}
			if err := p.accountRepo.Upsert(ctx, account); err != nil {
				return nil, fmt.Errorf("crear cuenta %s: %w", def.Code, err)
			}
			result.AccountsCreated++
		case err != nil:
			return nil, fmt.Errorf("consultar cuenta %s: %w", def.Code, err)
		}

		if _, err := p.mappingRepo.GetByKey(ctx, companyID, def.Key); errors.Is(err, domain.ErrNotFound) {
			if err := p.mappingRepo.Upsert(ctx, &entity.AccountMapping{
				ID:        uuid.New().String(),
				CompanyID: companyID,
				Key:       def.Key,
				AccountID: account.ID,
				CreatedAt: time.Now(),
			}); err != nil {
				return nil, fmt.Errorf("crear mapeo %s: %w", def.Key, err)
			}
			result.MappingsCreated++
		} else if err != nil {
			return nil, fmt.Errorf("consultar mapeo %s: %w", def.Key, err)
		}
	}

	p.log.Info().
		Str("company_id", companyID).
		Int("accounts_created", result.AccountsCreated).
		Int("mappings_created", result.MappingsCreated).
		Msg("PUC mínimo inicializado")
	return result, nil
}

// HasPUC indica si la empresa ya tiene mapeadas todas las claves del motor.
func (p *PUCInitializer) HasPUC(ctx context.Context, companyID string) (bool, error) {
	mappings, err := p.mappingRepo.ListByCompany(ctx, companyID)
	if err != nil {
		return false, err
	}
	mapped := make(map[string]bool, len(mappings))
	for _, m := range mappings {
		mapped[m.Key] = true
	}
	for _, def := range defaultChart {
		if !mapped[def.Key] {
			return false, nil
		}
	}
	return true, nil
}
