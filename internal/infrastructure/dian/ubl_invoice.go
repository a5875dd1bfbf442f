package dian

import (
	"bytes"
	"encoding/xml"
)

// XMLBuilderService construye el XML UBL 2.1 de los documentos electrónicos
// (factura de venta, nota crédito y nota débito), sin firma XAdES.
type XMLBuilderService struct{}

// NewXMLBuilderService crea el servicio.
func NewXMLBuilderService() *XMLBuilderService {
	return &XMLBuilderService{}
}

// BuildInvoice genera el []byte del documento Invoice según UBL 2.1 y extensiones DIAN.
func (s *XMLBuilderService) BuildInvoice(ctx *BuildContext) ([]byte, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	root := startRoot(invoiceRoot)
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}

	// ext:UBLExtensions siempre como primer hijo (requerido por el firmador)
	writeUBLExtensions(enc, ctx)

	writeCommonHeader(enc, invoiceRoot, ctx)
	if !ctx.Document.DueDate.IsZero() {
		writeCbc(enc, "DueDate", ctx.Document.DueDate.Format("2006-01-02"))
	}

	writeSupplierParty(enc, ctx)
	writeCustomerParty(enc, ctx)
	writePaymentMeans(enc, ctx)
	writeTaxTotals(enc, ctx)
	writeLegalMonetaryTotal(enc, invoiceRoot, ctx)

	currency := currencyOf(ctx.Document)
	for i, line := range ctx.Document.Lines {
		writeLine(enc, invoiceRoot, i+1, line, currency)
	}

	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
