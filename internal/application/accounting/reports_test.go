package accounting

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

var (
	reportFrom = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	reportTo   = time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
)

// seedPeriod registra una venta POS con costo: los activos (caja + inventario)
// quedan cuadrados contra IVA por pagar y el resultado del período.
func seedPeriod(t *testing.T) (*ReportService, *fakeJournalRepo) {
	t.Helper()
	engine, journalRepo, _ := newChartedEngine(t)

	in := saleInput()
	in.DocType = entity.JournalFacturaPOS
	in.CostOfGoods = decimal.NewFromInt(600000)
	_, err := engine.GenerateAndPersist(context.Background(), in)
	require.NoError(t, err)

	return NewReportService(journalRepo), journalRepo
}

func TestEstadoResultados(t *testing.T) {
	reports, _ := seedPeriod(t)

	st, err := reports.EstadoResultados(context.Background(), testCompanyID, reportFrom, reportTo)
	require.NoError(t, err)

	assert.True(t, st.TotalIngresos.Equal(decimal.NewFromInt(1000000)))
	assert.True(t, st.TotalCostos.Equal(decimal.NewFromInt(600000)))
	assert.True(t, st.TotalGastos.IsZero())
	assert.True(t, st.UtilidadBruta.Equal(decimal.NewFromInt(400000)))
	assert.True(t, st.UtilidadNeta.Equal(decimal.NewFromInt(400000)))

	require.Len(t, st.Ingresos, 1)
	assert.Equal(t, "4135", st.Ingresos[0].Code)
	require.Len(t, st.Costos, 1)
	assert.Equal(t, "5110", st.Costos[0].Code)
}

func TestBalanceGeneralAgrupaPorNaturaleza(t *testing.T) {
	reports, _ := seedPeriod(t)

	report, err := reports.BalanceGeneral(context.Background(), testCompanyID, reportFrom, reportTo)
	require.NoError(t, err)

	// Caja 1.190.000 menos inventario -600.000.
	assert.True(t, report.Activos.Saldo.Equal(decimal.NewFromInt(590000)),
		"activos = %s", report.Activos.Saldo)
	// IVA generado por pagar.
	assert.True(t, report.Pasivos.Saldo.Equal(decimal.NewFromInt(190000)))
	assert.True(t, report.Patrimonio.Saldo.IsZero())

	assert.Equal(t, entity.NatureActivo, report.Activos.Nature)
	codes := make(map[string]bool)
	for _, a := range report.Activos.Accounts {
		codes[a.Code] = true
	}
	assert.True(t, codes["1105"] && codes["1405"], "caja e inventario van en activos")
}

func TestBalanceGeneralDescuadreReportado(t *testing.T) {
	// El resultado del período (utilidad 400.000) no está cerrado contra
	// patrimonio, así que Activos != Pasivos + Patrimonio y el reporte lo dice.
	reports, _ := seedPeriod(t)

	report, err := reports.BalanceGeneral(context.Background(), testCompanyID, reportFrom, reportTo)
	require.NoError(t, err)
	assert.False(t, report.Valid)
	assert.Contains(t, report.Error, "Descuadre")
	assert.Contains(t, report.Error, "590000.00")
}

func TestBalanceGeneralCuadradoSinMovimientos(t *testing.T) {
	reports := NewReportService(&fakeJournalRepo{})

	report, err := reports.BalanceGeneral(context.Background(), testCompanyID, reportFrom, reportTo)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Empty(t, report.Error)
}

func TestReportesValidanElRango(t *testing.T) {
	reports := NewReportService(&fakeJournalRepo{})

	_, err := reports.BalanceGeneral(context.Background(), testCompanyID, reportTo, reportFrom)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = reports.EstadoResultados(context.Background(), testCompanyID, reportTo, reportFrom)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEstadoResultadosFiltraPorPeriodo(t *testing.T) {
	reports, _ := seedPeriod(t)

	// Período sin movimientos.
	otro, err := reports.EstadoResultados(context.Background(), testCompanyID,
		time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, otro.TotalIngresos.IsZero())
	assert.Empty(t, otro.Ingresos)
}
