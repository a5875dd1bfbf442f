// Package accounting implementa el motor de partida doble: generación de
// asientos a partir de documentos, inicialización del PUC mínimo y reportes.
package accounting

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/domain"
	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/internal/domain/repository"
	"github.com/jhoicas/facturacion-api/pkg/logger"
)

// DocumentInput son los datos del documento fuente que necesita el motor.
// Las retenciones y el costo de la mercancía vendida son opcionales (cero = no aplica).
type DocumentInput struct {
	CompanyID  string
	DocumentID string
	DocType    string // FACTURA_VENTA | FACTURA_POS | NOTA_CREDITO | NOTA_DEBITO | COMPRA
	Number     string
	Date       time.Time

	Subtotal decimal.Decimal // Base sin impuestos
	Tax      decimal.Decimal // IVA
	Total    decimal.Decimal // Subtotal + IVA

	RetencionFuente decimal.Decimal
	RetencionICA    decimal.Decimal
	RetencionIVA    decimal.Decimal

	CostOfGoods decimal.Decimal // Costo de la mercancía vendida (POS)
}

func (in *DocumentInput) totalWithholdings() decimal.Decimal {
	return in.RetencionFuente.Add(in.RetencionICA).Add(in.RetencionIVA)
}

// resolvedAccount es una cuenta PUC ya resuelta desde una clave lógica.
type resolvedAccount struct {
	ID   string
	Code string
}

// Engine genera asientos balanceados a partir de documentos según una tabla
// fija de reglas por tipo. El balance se verifica al generar y otra vez al
// persistir.
type Engine struct {
	accountRepo repository.AccountRepository
	mappingRepo repository.AccountMappingRepository
	journalRepo repository.JournalRepository
	log         *logger.Logger
}

// NewEngine construye el motor contable.
func NewEngine(
	accountRepo repository.AccountRepository,
	mappingRepo repository.AccountMappingRepository,
	journalRepo repository.JournalRepository,
	log *logger.Logger,
) *Engine {
	return &Engine{
		accountRepo: accountRepo,
		mappingRepo: mappingRepo,
		journalRepo: journalRepo,
		log:         log,
	}
}

// Generate construye el asiento del documento sin persistirlo.
func (e *Engine) Generate(ctx context.Context, in *DocumentInput) (*entity.JournalEntry, error) {
	if in == nil {
		return nil, fmt.Errorf("accounting: entrada requerida: %w", domain.ErrInvalidInput)
	}

	var lines []entity.JournalLine
	var err error

	switch in.DocType {
	case entity.JournalFacturaVenta, entity.JournalNotaDebito:
		lines, err = e.saleLines(ctx, in, entity.AccClientesNacionales)
	case entity.JournalFacturaPOS:
		lines, err = e.posLines(ctx, in)
	case entity.JournalCompra:
		lines, err = e.purchaseLines(ctx, in)
	case entity.JournalNotaCredito:
		lines, err = e.creditNoteLines(ctx, in)
	default:
		return nil, fmt.Errorf("accounting: tipo de documento %q no soportado: %w", in.DocType, domain.ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	entry := &entity.JournalEntry{
		ID:          uuid.New().String(),
		CompanyID:   in.CompanyID,
		DocumentID:  in.DocumentID,
		DocType:     in.DocType,
		Number:      in.Number,
		Date:        in.Date,
		Description: fmt.Sprintf("%s %s", in.DocType, in.Number),
		CreatedAt:   time.Now(),
		Lines:       lines,
	}
	for i := range entry.Lines {
		entry.Lines[i].ID = uuid.New().String()
		entry.Lines[i].EntryID = entry.ID
	}

	if err := checkBalance(entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// Persist verifica la partida doble de nuevo y guarda el asiento.
// La doble verificación protege contra mutaciones entre Generate y Persist.
func (e *Engine) Persist(ctx context.Context, entry *entity.JournalEntry) error {
	if entry == nil || len(entry.Lines) == 0 {
		return fmt.Errorf("accounting: asiento vacío: %w", domain.ErrInvalidInput)
	}
	if err := checkBalance(entry); err != nil {
		return err
	}
	if err := e.journalRepo.Create(ctx, entry); err != nil {
		return fmt.Errorf("persistir asiento: %w", err)
	}
	e.log.Info().
		Str("entry_id", entry.ID).
		Str("document_id", entry.DocumentID).
		Str("doc_type", entry.DocType).
		Int("lines", len(entry.Lines)).
		Msg("asiento contable registrado")
	return nil
}

// GenerateAndPersist genera y guarda el asiento en un solo paso.
func (e *Engine) GenerateAndPersist(ctx context.Context, in *DocumentInput) (*entity.JournalEntry, error) {
	entry, err := e.Generate(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := e.Persist(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// saleLines arma las líneas de una venta a crédito (factura o nota débito):
// débito a cartera por el total, crédito a ingresos por la base menos
// retenciones, crédito al IVA generado y crédito a cada retención aplicada.
func (e *Engine) saleLines(ctx context.Context, in *DocumentInput, debitKey string) ([]entity.JournalLine, error) {
	accounts, err := e.resolveKeys(ctx, in.CompanyID, e.saleKeys(in, debitKey))
	if err != nil {
		return nil, err
	}

	lines := []entity.JournalLine{
		debitLine(accounts[debitKey], "Total documento", in.Total),
		creditLine(accounts[entity.AccIngresosVentas], "Ingreso por ventas", in.Subtotal.Sub(in.totalWithholdings())),
	}
	if in.Tax.IsPositive() {
		lines = append(lines, creditLine(accounts[entity.AccIVAGenerado], "IVA generado", in.Tax))
	}
	if in.RetencionFuente.IsPositive() {
		lines = append(lines, creditLine(accounts[entity.AccRetencionFuente], "Retención en la fuente", in.RetencionFuente))
	}
	if in.RetencionICA.IsPositive() {
		lines = append(lines, creditLine(accounts[entity.AccRetencionICA], "Retención ICA", in.RetencionICA))
	}
	if in.RetencionIVA.IsPositive() {
		lines = append(lines, creditLine(accounts[entity.AccRetencionIVA], "Retención IVA", in.RetencionIVA))
	}
	return lines, nil
}

// posLines es la venta de contado: el débito va a caja y, si se informa el
// costo, se agrega el par costo de ventas / inventario.
func (e *Engine) posLines(ctx context.Context, in *DocumentInput) ([]entity.JournalLine, error) {
	lines, err := e.saleLines(ctx, in, entity.AccCaja)
	if err != nil {
		return nil, err
	}
	if in.CostOfGoods.IsPositive() {
		accounts, err := e.resolveKeys(ctx, in.CompanyID, []string{entity.AccCostosMercancias, entity.AccInventario})
		if err != nil {
			return nil, err
		}
		lines = append(lines,
			debitLine(accounts[entity.AccCostosMercancias], "Costo de ventas", in.CostOfGoods),
			creditLine(accounts[entity.AccInventario], "Salida de inventario", in.CostOfGoods),
		)
	}
	return lines, nil
}

// purchaseLines es la compra a crédito: débito al costo y al IVA descontable,
// crédito a proveedores por el total.
func (e *Engine) purchaseLines(ctx context.Context, in *DocumentInput) ([]entity.JournalLine, error) {
	keys := []string{entity.AccCostosMercancias, entity.AccProveedores}
	if in.Tax.IsPositive() {
		keys = append(keys, entity.AccIVADescontable)
	}
	accounts, err := e.resolveKeys(ctx, in.CompanyID, keys)
	if err != nil {
		return nil, err
	}

	lines := []entity.JournalLine{
		debitLine(accounts[entity.AccCostosMercancias], "Compra de mercancía", in.Subtotal),
	}
	if in.Tax.IsPositive() {
		lines = append(lines, debitLine(accounts[entity.AccIVADescontable], "IVA descontable", in.Tax))
	}
	lines = append(lines, creditLine(accounts[entity.AccProveedores], "Cuenta por pagar", in.Total))
	return lines, nil
}

// creditNoteLines arma el asiento de la venta y lo invierte línea a línea.
func (e *Engine) creditNoteLines(ctx context.Context, in *DocumentInput) ([]entity.JournalLine, error) {
	lines, err := e.saleLines(ctx, in, entity.AccClientesNacionales)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("NC %s - ", in.Number)
	for i := range lines {
		lines[i].Debit, lines[i].Credit = lines[i].Credit, lines[i].Debit
		lines[i].Description = prefix + lines[i].Description
	}
	return lines, nil
}

// saleKeys calcula las claves requeridas de una venta según los montos informados.
func (e *Engine) saleKeys(in *DocumentInput, debitKey string) []string {
	keys := []string{debitKey, entity.AccIngresosVentas}
	if in.Tax.IsPositive() {
		keys = append(keys, entity.AccIVAGenerado)
	}
	if in.RetencionFuente.IsPositive() {
		keys = append(keys, entity.AccRetencionFuente)
	}
	if in.RetencionICA.IsPositive() {
		keys = append(keys, entity.AccRetencionICA)
	}
	if in.RetencionIVA.IsPositive() {
		keys = append(keys, entity.AccRetencionIVA)
	}
	return keys
}

// resolveKeys resuelve cada clave lógica a su cuenta del PUC.
// Falla rápido nombrando la primera clave sin mapeo.
func (e *Engine) resolveKeys(ctx context.Context, companyID string, keys []string) (map[string]resolvedAccount, error) {
	out := make(map[string]resolvedAccount, len(keys))
	for _, key := range keys {
		mapping, err := e.mappingRepo.GetByKey(ctx, companyID, key)
		if err != nil {
			return nil, fmt.Errorf("accounting: clave %s sin cuenta asignada: %w", key, domain.ErrMissingAccountMapping)
		}
		account, err := e.accountRepo.GetByID(ctx, mapping.AccountID)
		if err != nil {
			return nil, fmt.Errorf("accounting: cuenta %s de la clave %s: %w", mapping.AccountID, key, err)
		}
		out[key] = resolvedAccount{ID: account.ID, Code: account.Code}
	}
	return out, nil
}

func debitLine(acc resolvedAccount, description string, amount decimal.Decimal) entity.JournalLine {
	return entity.JournalLine{
		AccountID:   acc.ID,
		AccountCode: acc.Code,
		Description: description,
		Debit:       amount.Round(2),
		Credit:      decimal.Zero,
	}
}

func creditLine(acc resolvedAccount, description string, amount decimal.Decimal) entity.JournalLine {
	return entity.JournalLine{
		AccountID:   acc.ID,
		AccountCode: acc.Code,
		Description: description,
		Debit:       decimal.Zero,
		Credit:      amount.Round(2),
	}
}

// checkBalance valida la partida doble citando ambas sumas.
func checkBalance(entry *entity.JournalEntry) error {
	debits := entry.TotalDebits()
	credits := entry.TotalCredits()
	if debits.Sub(credits).Abs().GreaterThan(entity.BalanceTolerance) {
		return fmt.Errorf("accounting: débitos %s vs créditos %s: %w",
			debits.StringFixed(2), credits.StringFixed(2), domain.ErrUnbalancedEntry)
	}
	return nil
}
