package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/accounting"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
)

// AccountLine es una cuenta con sus totales y saldo en el período.
type AccountLine struct {
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Saldo       decimal.Decimal `json:"saldo"`
}

// BalanceGroup agrupa las cuentas de una naturaleza en el balance general.
type BalanceGroup struct {
	Nature      string          `json:"nature"`
	Accounts    []AccountLine   `json:"accounts"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	Saldo       decimal.Decimal `json:"saldo"`
}

// BalanceReport es el balance general de un período.
// Valida la identidad contable: Activos = Pasivos + Patrimonio (± tolerancia).
type BalanceReport struct {
	From       time.Time    `json:"from"`
	To         time.Time    `json:"to"`
	Activos    BalanceGroup `json:"activos"`
	Pasivos    BalanceGroup `json:"pasivos"`
	Patrimonio BalanceGroup `json:"patrimonio"`
	Valid      bool         `json:"valid"`
	Error      string       `json:"error,omitempty"`
}

// IncomeStatement es el estado de resultados de un período.
type IncomeStatement struct {
	From                time.Time       `json:"from"`
	To                  time.Time       `json:"to"`
	Ingresos            []AccountLine   `json:"ingresos"`
	TotalIngresos       decimal.Decimal `json:"total_ingresos"`
	Costos              []AccountLine   `json:"costos"`
	TotalCostos         decimal.Decimal `json:"total_costos"`
	Gastos              []AccountLine   `json:"gastos"`
	TotalGastos         decimal.Decimal `json:"total_gastos"`
	UtilidadBruta       decimal.Decimal `json:"utilidad_bruta"`
	UtilidadOperacional decimal.Decimal `json:"utilidad_operacional"`
	UtilidadNeta        decimal.Decimal `json:"utilidad_neta"`
}

// ReportService genera balance general y estado de resultados a partir de los
// totales por cuenta que agrega la base de datos.
type ReportService struct {
	journalRepo repository.JournalRepository
}

// NewReportService construye el servicio de reportes.
func NewReportService(journalRepo repository.JournalRepository) *ReportService {
	return &ReportService{journalRepo: journalRepo}
}

// BalanceGeneral arma el balance general del período.
func (s *ReportService) BalanceGeneral(ctx context.Context, companyID string, from, to time.Time) (*BalanceReport, error) {
	if from.After(to) {
		return nil, fmt.Errorf("accounting: la fecha desde no puede ser mayor que la fecha hasta: %w", domain.ErrInvalidInput)
	}
	totals, err := s.journalRepo.TotalsByAccount(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	report := &BalanceReport{
		From:       from,
		To:         to,
		Activos:    buildGroup(entity.NatureActivo, totals),
		Pasivos:    buildGroup(entity.NaturePasivo, totals),
		Patrimonio: buildGroup(entity.NaturePatrimonio, totals),
	}

	diff := report.Activos.Saldo.Sub(report.Pasivos.Saldo.Add(report.Patrimonio.Saldo)).Abs()
	report.Valid = diff.LessThanOrEqual(entity.BalanceTolerance)
	if !report.Valid {
		report.Error = fmt.Sprintf("Descuadre: Activos (%s) != Pasivos (%s) + Patrimonio (%s)",
			report.Activos.Saldo.StringFixed(2),
			report.Pasivos.Saldo.StringFixed(2),
			report.Patrimonio.Saldo.StringFixed(2))
	}
	return report, nil
}

// EstadoResultados arma el estado de resultados del período:
// utilidad = ingresos - costos - gastos.
func (s *ReportService) EstadoResultados(ctx context.Context, companyID string, from, to time.Time) (*IncomeStatement, error) {
	if from.After(to) {
		return nil, fmt.Errorf("accounting: la fecha desde no puede ser mayor que la fecha hasta: %w", domain.ErrInvalidInput)
	}
	totals, err := s.journalRepo.TotalsByAccount(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	ingresos := buildLines(entity.NatureIngreso, totals)
	costos := buildLines(entity.NatureCosto, totals)
	gastos := buildLines(entity.NatureGasto, totals)

	st := &IncomeStatement{
		From:          from,
		To:            to,
		Ingresos:      ingresos,
		TotalIngresos: sumSaldos(ingresos),
		Costos:        costos,
		TotalCostos:   sumSaldos(costos),
		Gastos:        gastos,
		TotalGastos:   sumSaldos(gastos),
	}
	st.UtilidadBruta = st.TotalIngresos.Sub(st.TotalCostos)
	st.UtilidadOperacional = st.UtilidadBruta.Sub(st.TotalGastos)
	st.UtilidadNeta = st.UtilidadOperacional
	return st, nil
}

func buildLines(nature string, totals []repository.AccountTotals) []AccountLine {
	var out []AccountLine
	for _, t := range totals {
		if t.Nature != nature {
			continue
		}
		out = append(out, AccountLine{
			Code:        t.AccountCode,
			Name:        t.AccountName,
			TotalDebit:  t.Debits,
			TotalCredit: t.Credits,
			Saldo:       accounting.Balance(nature, t.Debits, t.Credits),
		})
	}
	return out
}

func buildGroup(nature string, totals []repository.AccountTotals) BalanceGroup {
	lines := buildLines(nature, totals)
	group := BalanceGroup{
		Nature:      nature,
		Accounts:    lines,
		TotalDebit:  decimal.Zero,
		TotalCredit: decimal.Zero,
	}
	for _, l := range lines {
		group.TotalDebit = group.TotalDebit.Add(l.TotalDebit)
		group.TotalCredit = group.TotalCredit.Add(l.TotalCredit)
	}
	group.Saldo = accounting.Balance(nature, group.TotalDebit, group.TotalCredit)
	return group
}

func sumSaldos(lines []AccountLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Saldo)
	}
	return total
}
