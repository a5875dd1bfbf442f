package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// AccountTotals son los débitos y créditos acumulados de una cuenta en un período.
// Lo produce la DB; los reportes lo convierten en saldo según la naturaleza.
type AccountTotals struct {
	AccountID   string
	AccountCode string
	AccountName string
	Nature      string
	Debits      decimal.Decimal
	Credits     decimal.Decimal
}

// JournalRepository define el puerto de persistencia para asientos contables.
type JournalRepository interface {
	// Create persiste el asiento con todas sus líneas en una sola transacción.
	// La verificación de partida doble ocurre en el motor antes de llamar aquí.
	Create(ctx context.Context, entry *entity.JournalEntry) error

	GetByID(ctx context.Context, id string) (*entity.JournalEntry, error)

	// GetByDocumentID devuelve el asiento generado por un documento fuente.
	GetByDocumentID(ctx context.Context, documentID string) (*entity.JournalEntry, error)

	ListByCompany(ctx context.Context, companyID string, from, to time.Time, limit, offset int) ([]*entity.JournalEntry, error)

	// TotalsByAccount agrega débitos y créditos por cuenta en el período.
	// Base de los reportes de balance y estado de resultados.
	TotalsByAccount(ctx context.Context, companyID string, from, to time.Time) ([]AccountTotals, error)
}
