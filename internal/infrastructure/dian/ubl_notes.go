package dian

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/jhoicas/facturacion-api/internal/domain"
)

// BuildCreditNote genera el []byte del documento CreditNote según UBL 2.1.
// La referencia al documento afectado es obligatoria.
func (s *XMLBuilderService) BuildCreditNote(ctx *BuildContext) ([]byte, error) {
	return s.buildNote(creditNoteRoot, ctx)
}

// BuildDebitNote genera el []byte del documento DebitNote según UBL 2.1.
// La referencia al documento afectado es obligatoria.
func (s *XMLBuilderService) BuildDebitNote(ctx *BuildContext) ([]byte, error) {
	return s.buildNote(debitNoteRoot, ctx)
}

func (s *XMLBuilderService) buildNote(spec rootSpec, ctx *BuildContext) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	// Sin número o sin CUFE del documento afectado la nota no es válida ante la DIAN.
	if ctx.BillingReference == nil || ctx.BillingReference.Number == "" || ctx.BillingReference.CUFE == "" {
		return nil, fmt.Errorf("dian: %w", domain.ErrMissingBillingReference)
	}

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := startRoot(spec)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	writeUBLExtensions(enc, ctx)
	writeCommonHeader(enc, spec, ctx)

	writeDiscrepancyResponse(enc, ctx)
	writeBillingReference(enc, ctx.BillingReference)

	writeSupplierParty(enc, ctx)
	writeCustomerParty(enc, ctx)
	writeTaxTotals(enc, ctx)
	writeLegalMonetaryTotal(enc, spec, ctx)

	currency := currencyOf(ctx.Document)
	for i, line := range ctx.Document.Lines {
		writeLine(enc, spec, i+1, line, currency)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
