package entity

import "time"

// Naturalezas contables según el PUC colombiano.
const (
	NatureActivo     = "ACTIVO"
	NaturePasivo     = "PASIVO"
	NaturePatrimonio = "PATRIMONIO"
	NatureIngreso    = "INGRESO"
	NatureGasto      = "GASTO"
	NatureCosto      = "COSTO"
)

// Claves lógicas de mapeo contable. El motor de asientos resuelve cada clave
// a una cuenta del PUC vía AccountMapping.
const (
	AccCaja               = "CAJA"
	AccClientesNacionales = "CLIENTES_NACIONALES"
	AccInventario         = "INVENTARIO"
	AccProveedores        = "PROVEEDORES"
	AccIVAGenerado        = "IVA_GENERADO"
	AccIVADescontable     = "IVA_DESCONTABLE"
	AccRetencionFuente    = "RETENCION_FUENTE"
	AccRetencionICA       = "RETENCION_ICA"
	AccRetencionIVA       = "RETENCION_IVA"
	AccIngresosVentas     = "INGRESOS_VENTAS"
	AccCostosMercancias   = "COSTOS_MERCANCIAS"
	AccGastos             = "GASTOS"
)

// Account es una cuenta del plan único de cuentas (PUC).
type Account struct {
	ID        string
	CompanyID string
	Code      string // Código PUC (1105, 1305, 2408, ...)
	Name      string
	Nature    string // ACTIVO | PASIVO | PATRIMONIO | INGRESO | GASTO | COSTO
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AccountMapping asocia una clave lógica del motor contable con una cuenta PUC.
type AccountMapping struct {
	ID        string
	CompanyID string
	Key       string // CAJA, CLIENTES_NACIONALES, IVA_GENERADO, ...
	AccountID string
	CreatedAt time.Time
}
