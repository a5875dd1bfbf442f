package accounting

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
)

func TestInitCreaPUCMinimo(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	mappingRepo := newFakeMappingRepo()
	init := NewPUCInitializer(accountRepo, mappingRepo, testLogger())

	result, err := init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Equal(t, 12, result.AccountsCreated)
	assert.Equal(t, 12, result.MappingsCreated)

	accounts, err := accountRepo.ListByCompany(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Len(t, accounts, 12)

	caja, err := accountRepo.GetByCompanyAndCode(context.Background(), testCompanyID, "1105")
	require.NoError(t, err)
	assert.Equal(t, "Caja", caja.Name)
	assert.Equal(t, entity.NatureActivo, caja.Nature)

	costo, err := accountRepo.GetByCompanyAndCode(context.Background(), testCompanyID, "5110")
	require.NoError(t, err)
	assert.Equal(t, entity.NatureCosto, costo.Nature, "5110 es de naturaleza COSTO aunque empiece por 5")
}

func TestInitEsIdempotente(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	mappingRepo := newFakeMappingRepo()
	init := NewPUCInitializer(accountRepo, mappingRepo, testLogger())

	_, err := init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)

	again, err := init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Zero(t, again.AccountsCreated, "la segunda corrida no crea cuentas")
	assert.Zero(t, again.MappingsCreated, "ni mapeos")

	accounts, _ := accountRepo.ListByCompany(context.Background(), testCompanyID)
	assert.Len(t, accounts, 12)
}

func TestInitCompletaMapeosFaltantes(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	mappingRepo := newFakeMappingRepo()
	init := NewPUCInitializer(accountRepo, mappingRepo, testLogger())

	_, err := init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)

	// Simular un mapeo borrado: la siguiente corrida lo repone sin duplicar cuentas.
	delete(mappingRepo.mappings, mappingKey(testCompanyID, entity.AccCaja))

	result, err := init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.Zero(t, result.AccountsCreated)
	assert.Equal(t, 1, result.MappingsCreated)
}

func TestInitRequiereEmpresa(t *testing.T) {
	init := NewPUCInitializer(newFakeAccountRepo(), newFakeMappingRepo(), testLogger())
	_, err := init.Init(context.Background(), "")
	assert.Error(t, err)
}

func TestHasPUC(t *testing.T) {
	accountRepo := newFakeAccountRepo()
	mappingRepo := newFakeMappingRepo()
	init := NewPUCInitializer(accountRepo, mappingRepo, testLogger())

	ok, err := init.HasPUC(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = init.Init(context.Background(), testCompanyID)
	require.NoError(t, err)

	ok, err = init.HasPUC(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.True(t, ok)

	delete(mappingRepo.mappings, mappingKey(testCompanyID, entity.AccGastos))
	ok, err = init.HasPUC(context.Background(), testCompanyID)
	require.NoError(t, err)
	assert.False(t, ok, "faltando una clave el PUC no está completo")
}
