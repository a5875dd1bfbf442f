// Package accounting: reglas de partida doble independientes de la persistencia.
package accounting

import (
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Balance calcula el saldo de una cuenta según su naturaleza:
// débito (activo, gasto, costo) -> débitos - créditos;
// crédito (pasivo, patrimonio, ingreso) -> créditos - débitos.
func Balance(nature string, debits, credits decimal.Decimal) decimal.Decimal {
	if IsDebitNature(nature) {
		return debits.Sub(credits)
	}
	return credits.Sub(debits)
}

// IsDebitNature indica si la naturaleza de la cuenta es deudora.
func IsDebitNature(nature string) bool {
	switch nature {
	case entity.NatureActivo, entity.NatureGasto, entity.NatureCosto:
		return true
	default:
		return false
	}
}

// NatureForPUCCode deduce la naturaleza a partir del primer dígito del código PUC:
// 1 activo, 2 pasivo, 3 patrimonio, 4 ingreso, 5 gasto, 6 costo.
func NatureForPUCCode(code string) string {
	if code == "" {
		return ""
	}
	switch code[0] {
	case '1':
		return entity.NatureActivo
	case '2':
		return entity.NaturePasivo
	case '3':
		return entity.NaturePatrimonio
	case '4':
		return entity.NatureIngreso
	case '5':
		return entity.NatureGasto
	case '6':
		return entity.NatureCosto
	default:
		return ""
	}
}
