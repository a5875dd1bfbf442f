package dian

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-api/internal/domain/entity"
	"github.com/jhoicas/facturacion-api/pkg/dian"
)

// Namespaces oficiales UBL 2.1 y DIAN (Anexo Técnico).
const (
	NsInvoice    = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCreditNote = "urn:oasis:names:specification:ubl:schema:xsd:CreditNote-2"
	NsDebitNote  = "urn:oasis:names:specification:ubl:schema:xsd:DebitNote-2"
	// Common Aggregate Components
	NsCac = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	// Common Basic Components
	NsCbc = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	// Extension Components
	NsExt = "urn:oasis:names:specification:ubl:schema:xsd:CommonExtensionComponents-2"
	// DIAN Extensions
	NsSts = "dian:gov:co:facturaelectronica:v1"
	// XML Digital Signature
	NsDs = "http://www.w3.org/2000/09/xmldsig#"
	// XAdES (para la firma)
	NsXades = "http://uri.etsi.org/01903/v1.3.2#"
	// XML Schema Instance (para schemaLocation)
	nsXsi = "http://www.w3.org/2001/XMLSchema-instance"
)

// rootSpec parámetros del documento raíz según el tipo UBL.
type rootSpec struct {
	Namespace       string // Namespace por defecto del documento
	Local           string // Invoice | CreditNote | DebitNote
	CustomizationID string
	ProfileID       string
	LineLocal       string // InvoiceLine | CreditNoteLine | DebitNoteLine
	QuantityLocal   string // InvoicedQuantity | CreditedQuantity | DebitedQuantity
	SchemaLocation  string
}

var (
	invoiceRoot = rootSpec{
		Namespace:       NsInvoice,
		Local:           "Invoice",
		CustomizationID: "10",
		ProfileID:       "DIAN 2.1: Factura Electrónica de Venta",
		LineLocal:       "InvoiceLine",
		QuantityLocal:   "InvoicedQuantity",
		SchemaLocation:  NsInvoice + " http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-Invoice-2.1.xsd",
	}
	creditNoteRoot = rootSpec{
		Namespace:       NsCreditNote,
		Local:           "CreditNote",
		CustomizationID: "20",
		ProfileID:       "DIAN 2.1: Nota Crédito de Factura Electrónica de Venta",
		LineLocal:       "CreditNoteLine",
		QuantityLocal:   "CreditedQuantity",
		SchemaLocation:  NsCreditNote + " http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-CreditNote-2.1.xsd",
	}
	debitNoteRoot = rootSpec{
		Namespace:       NsDebitNote,
		Local:           "DebitNote",
		CustomizationID: "30",
		ProfileID:       "DIAN 2.1: Nota Débito de Factura Electrónica de Venta",
		LineLocal:       "DebitNoteLine",
		QuantityLocal:   "DebitedQuantity",
		SchemaLocation:  NsDebitNote + " http://docs.oasis-open.org/ubl/os-UBL-2.1/xsd/maindoc/UBL-DebitNote-2.1.xsd",
	}
)

// Los elementos se escriben con prefijo en el nombre local (cbc:ID) y los
// prefijos declarados una sola vez en la raíz. El encoding/xml de la stdlib
// no reutiliza prefijos declarados cuando se usa Name.Space, así que esta es
// la única forma de producir el XML prefijado que exige el validador DIAN.
func name(prefixed string) xml.Name {
	return xml.Name{Local: prefixed}
}

func startRoot(spec rootSpec) xml.StartElement {
	return xml.StartElement{
		Name: name(spec.Local),
		Attr: []xml.Attr{
			{Name: name("Id"), Value: "document-id"},
			{Name: name("xmlns"), Value: spec.Namespace},
			{Name: name("xmlns:cac"), Value: NsCac},
			{Name: name("xmlns:cbc"), Value: NsCbc},
			{Name: name("xmlns:ds"), Value: NsDs},
			{Name: name("xmlns:ext"), Value: NsExt},
			{Name: name("xmlns:sts"), Value: NsSts},
			{Name: name("xmlns:xades"), Value: NsXades},
			{Name: name("xmlns:xsi"), Value: nsXsi},
			{Name: name("xsi:schemaLocation"), Value: spec.SchemaLocation},
		},
	}
}

func writeStart(enc *xml.Encoder, prefixed string) {
	_ = enc.EncodeToken(xml.StartElement{Name: name(prefixed)})
}

func writeEnd(enc *xml.Encoder, prefixed string) {
	_ = enc.EncodeToken(xml.EndElement{Name: name(prefixed)})
}

func writeText(enc *xml.Encoder, prefixed, value string) {
	writeStart(enc, prefixed)
	_ = enc.EncodeToken(xml.CharData(value))
	writeEnd(enc, prefixed)
}

func writeCbc(enc *xml.Encoder, local, value string) {
	writeText(enc, "cbc:"+local, value)
}

func writeSts(enc *xml.Encoder, local, value string) {
	writeText(enc, "sts:"+local, value)
}

func writeCbcAmount(enc *xml.Encoder, local, value, currency string) {
	attr := []xml.Attr{}
	if currency != "" {
		attr = append(attr, xml.Attr{Name: name("currencyID"), Value: currency})
	}
	_ = enc.EncodeToken(xml.StartElement{Name: name("cbc:" + local), Attr: attr})
	_ = enc.EncodeToken(xml.CharData(value))
	writeEnd(enc, "cbc:"+local)
}

func writeCbcWithAttr(enc *xml.Encoder, local, value, attrLocal, attrValue string) {
	_ = enc.EncodeToken(xml.StartElement{
		Name: name("cbc:" + local),
		Attr: []xml.Attr{{Name: name(attrLocal), Value: attrValue}},
	})
	_ = enc.EncodeToken(xml.CharData(value))
	writeEnd(enc, "cbc:"+local)
}

// writeUBLExtensions escribe siempre ext:UBLExtensions como primer hijo del documento.
// Extensión 1: DIAN (DianExtensions si hay Resolution, si no ExtensionContent vacío).
// Extensión 2: ExtensionContent vacío; el firmador inyectará aquí <ds:Signature>.
func writeUBLExtensions(enc *xml.Encoder, ctx *BuildContext) {
	writeStart(enc, "ext:UBLExtensions")

	// 1. Extensión DIAN (datos de resolución o placeholder vacío)
	writeStart(enc, "ext:UBLExtension")
	writeStart(enc, "ext:ExtensionContent")
	if ctx.Resolution != nil {
		writeStart(enc, "sts:DianExtensions")
		writeStart(enc, "sts:InvoiceControl")
		writeSts(enc, "InvoiceAuthorization", ctx.Resolution.Number)
		writeStart(enc, "sts:AuthorizationPeriod")
		writeSts(enc, "StartDate", ctx.Resolution.DateFrom.Format("2006-01-02"))
		writeSts(enc, "EndDate", ctx.Resolution.DateTo.Format("2006-01-02"))
		writeEnd(enc, "sts:AuthorizationPeriod")
		writeStart(enc, "sts:AuthorizedInvoices")
		writeSts(enc, "Prefix", ctx.Resolution.Prefix)
		writeSts(enc, "From", strconv.FormatInt(ctx.Resolution.From, 10))
		writeSts(enc, "To", strconv.FormatInt(ctx.Resolution.To, 10))
		writeEnd(enc, "sts:AuthorizedInvoices")
		writeEnd(enc, "sts:InvoiceControl")
		writeEnd(enc, "sts:DianExtensions")
	}
	writeEnd(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:UBLExtension")

	// 2. Extensión para la firma (placeholder vacío; el signer inyectará <ds:Signature>)
	writeStart(enc, "ext:UBLExtension")
	writeStart(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:ExtensionContent")
	writeEnd(enc, "ext:UBLExtension")

	writeEnd(enc, "ext:UBLExtensions")
}

// writeCommonHeader escribe los cbc obligatorios del encabezado tras las extensiones.
func writeCommonHeader(enc *xml.Encoder, spec rootSpec, ctx *BuildContext) {
	doc := ctx.Document
	writeCbc(enc, "UBLVersionID", "UBL 2.1")
	writeCbc(enc, "CustomizationID", spec.CustomizationID)
	writeCbc(enc, "ProfileID", spec.ProfileID)
	writeCbc(enc, "ProfileExecutionID", profileExecutionID(ctx))
	writeCbc(enc, "ID", doc.FullNumber())
	if doc.CUFE != "" {
		_ = enc.EncodeToken(xml.StartElement{
			Name: name("cbc:UUID"),
			Attr: []xml.Attr{
				{Name: name("schemeID"), Value: profileExecutionID(ctx)},
				{Name: name("schemeName"), Value: "CUFE"},
			},
		})
		_ = enc.EncodeToken(xml.CharData(doc.CUFE))
		writeEnd(enc, "cbc:UUID")
	}
	writeCbc(enc, "IssueDate", doc.IssueDate.Format("2006-01-02"))
	writeCbc(enc, "IssueTime", doc.IssueDate.Format("15:04:05-07:00"))
	writeCbc(enc, "DocumentCurrencyCode", currencyOf(doc))
	writeCbc(enc, "LineCountNumeric", strconv.Itoa(len(doc.Lines)))
}

// profileExecutionID devuelve el código de ambiente para el XML ("1" producción por defecto).
func profileExecutionID(ctx *BuildContext) string {
	if ctx.Environment != "" {
		return ctx.Environment
	}
	return dian.EnvironmentProduccion
}

func currencyOf(doc *entity.FiscalDocument) string {
	if doc.Currency != "" {
		return doc.Currency
	}
	return "COP"
}

// writeBillingReference escribe la referencia al documento afectado.
// Obligatoria en notas; el builder valida antes que número y CUFE existan.
func writeBillingReference(enc *xml.Encoder, ref *BillingReferenceData) {
	writeStart(enc, "cac:BillingReference")
	writeStart(enc, "cac:InvoiceDocumentReference")
	writeCbc(enc, "ID", ref.Number)
	writeCbcWithAttr(enc, "UUID", ref.CUFE, "schemeName", "CUFE")
	writeCbc(enc, "IssueDate", ref.IssueDate.Format("2006-01-02"))
	writeEnd(enc, "cac:InvoiceDocumentReference")
	writeEnd(enc, "cac:BillingReference")
}

// writeDiscrepancyResponse escribe el concepto de corrección de una nota.
func writeDiscrepancyResponse(enc *xml.Encoder, ctx *BuildContext) {
	if ctx.DiscrepancyCode == "" && ctx.DiscrepancyReason == "" {
		return
	}
	writeStart(enc, "cac:DiscrepancyResponse")
	if ctx.DiscrepancyCode != "" {
		writeCbc(enc, "ResponseCode", ctx.DiscrepancyCode)
	}
	if ctx.DiscrepancyReason != "" {
		writeCbc(enc, "Description", ctx.DiscrepancyReason)
	}
	writeEnd(enc, "cac:DiscrepancyResponse")
}

func writeSupplierParty(enc *xml.Encoder, ctx *BuildContext) {
	writeStart(enc, "cac:AccountingSupplierParty")
	writeStart(enc, "cac:Party")

	// Identificación fiscal (NIT)
	writeStart(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", normalizeNIT(ctx.Company.NIT), "schemeID", dian.IdentificationTypeNIT)
	writeEnd(enc, "cac:PartyIdentification")

	writeStart(enc, "cac:PartyName")
	writeCbc(enc, "Name", ctx.Company.Name)
	writeEnd(enc, "cac:PartyName")

	if ctx.Company.Address != "" {
		writeStart(enc, "cac:PostalAddress")
		writeCbc(enc, "StreetName", ctx.Company.Address)
		if ctx.Company.City != "" {
			writeCbc(enc, "CityName", ctx.Company.City)
		}
		writeEnd(enc, "cac:PostalAddress")
	}

	writeEnd(enc, "cac:Party")
	writeEnd(enc, "cac:AccountingSupplierParty")
}

func writeCustomerParty(enc *xml.Encoder, ctx *BuildContext) {
	idType := ctx.Customer.IDType
	if idType == "" {
		idType = dian.IdentificationTypeNIT
	}
	writeStart(enc, "cac:AccountingCustomerParty")
	writeStart(enc, "cac:Party")

	writeStart(enc, "cac:PartyIdentification")
	writeCbcWithAttr(enc, "ID", normalizeNIT(ctx.Customer.IDNumber), "schemeID", idType)
	writeEnd(enc, "cac:PartyIdentification")

	writeStart(enc, "cac:PartyName")
	writeCbc(enc, "Name", ctx.Customer.Name)
	writeEnd(enc, "cac:PartyName")

	writeEnd(enc, "cac:Party")
	writeEnd(enc, "cac:AccountingCustomerParty")
}

func writePaymentMeans(enc *xml.Encoder, ctx *BuildContext) {
	form := ctx.PaymentFormCode
	if form == "" {
		form = dian.PaymentFormContado
	}
	method := ctx.PaymentMethodCode
	if method == "" {
		method = dian.PaymentMethodEfectivo
	}
	writeStart(enc, "cac:PaymentMeans")
	writeCbc(enc, "ID", form)
	writeCbc(enc, "PaymentMeansCode", method)
	if form == dian.PaymentFormCredito && !ctx.Document.DueDate.IsZero() {
		writeCbc(enc, "PaymentDueDate", ctx.Document.DueDate.Format("2006-01-02"))
	}
	writeEnd(enc, "cac:PaymentMeans")
}

// taxGroup acumulado de base gravable e IVA de las líneas con una misma tarifa.
type taxGroup struct {
	percent decimal.Decimal
	taxable decimal.Decimal
	tax     decimal.Decimal
}

// taxGroupsOf agrupa las líneas con IVA por tarifa, en el orden en que aparecen.
func taxGroupsOf(lines []entity.DocumentLine) []*taxGroup {
	byRate := map[string]*taxGroup{}
	var groups []*taxGroup
	for _, l := range lines {
		if !l.TaxAmount.IsPositive() {
			continue
		}
		key := l.TaxRate.Round(2).StringFixed(2)
		g, ok := byRate[key]
		if !ok {
			g = &taxGroup{percent: l.TaxRate}
			byRate[key] = g
			groups = append(groups, g)
		}
		g.taxable = g.taxable.Add(l.LineTotal)
		g.tax = g.tax.Add(l.TaxAmount)
	}
	return groups
}

// writeTaxTotals escribe un cac:TaxTotal por cada tarifa de IVA presente en las
// líneas, cada uno con su base gravable. Las líneas sin detalle de impuesto
// (documentos antiguos) caen a un solo bloque con los totales del documento.
func writeTaxTotals(enc *xml.Encoder, ctx *BuildContext) {
	doc := ctx.Document
	currency := currencyOf(doc)
	groups := taxGroupsOf(doc.Lines)
	if len(groups) == 0 {
		percent := decimal.Zero
		if doc.NetTotal.IsPositive() {
			percent = doc.TaxTotal.Div(doc.NetTotal).Mul(decimal.NewFromInt(100))
		}
		writeTaxTotalBlock(enc, doc.TaxTotal, doc.NetTotal, percent, currency)
		return
	}
	for _, g := range groups {
		writeTaxTotalBlock(enc, g.tax, g.taxable, g.percent, currency)
	}
}

func writeTaxTotalBlock(enc *xml.Encoder, tax, taxable, percent decimal.Decimal, currency string) {
	writeStart(enc, "cac:TaxTotal")
	writeCbcAmount(enc, "TaxAmount", formatDecimal(tax), currency)
	writeStart(enc, "cac:TaxSubtotal")
	writeCbcAmount(enc, "TaxableAmount", formatDecimal(taxable), currency)
	writeCbcAmount(enc, "TaxAmount", formatDecimal(tax), currency)
	writeStart(enc, "cac:TaxCategory")
	writeCbc(enc, "Percent", percent.Round(2).StringFixed(2))
	writeStart(enc, "cac:TaxScheme")
	writeCbc(enc, "ID", dian.TaxCodeIVA)
	writeCbc(enc, "Name", "IVA")
	writeEnd(enc, "cac:TaxScheme")
	writeEnd(enc, "cac:TaxCategory")
	writeEnd(enc, "cac:TaxSubtotal")
	writeEnd(enc, "cac:TaxTotal")
}

func writeLegalMonetaryTotal(enc *xml.Encoder, spec rootSpec, ctx *BuildContext) {
	doc := ctx.Document
	currency := currencyOf(doc)
	local := "cac:LegalMonetaryTotal"
	if spec.Local != "Invoice" {
		// CreditNote y DebitNote usan RequestedMonetaryTotal en UBL 2.1
		local = "cac:RequestedMonetaryTotal"
	}
	writeStart(enc, local)
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(doc.NetTotal), currency)
	writeCbcAmount(enc, "TaxExclusiveAmount", formatDecimal(doc.NetTotal), currency)
	writeCbcAmount(enc, "TaxInclusiveAmount", formatDecimal(doc.NetTotal.Add(doc.TaxTotal)), currency)
	if doc.Discount.IsPositive() {
		writeCbcAmount(enc, "AllowanceTotalAmount", formatDecimal(doc.Discount), currency)
	}
	writeCbcAmount(enc, "PayableAmount", formatDecimal(doc.GrandTotal), currency)
	writeEnd(enc, local)
}

func writeLine(enc *xml.Encoder, spec rootSpec, lineNum int, line entity.DocumentLine, currency string) {
	unitCode := line.UnitCode
	if unitCode == "" {
		unitCode = dian.UnitUnit
	}
	writeStart(enc, "cac:"+spec.LineLocal)
	writeCbc(enc, "ID", strconv.Itoa(lineNum))
	writeCbcWithAttr(enc, spec.QuantityLocal, formatDecimal(line.Quantity), "unitCode", unitCode)
	writeCbcAmount(enc, "LineExtensionAmount", formatDecimal(line.LineTotal), currency)

	// IVA de la línea con su tarifa. Las líneas excluidas no llevan TaxTotal.
	if line.TaxAmount.IsPositive() {
		writeTaxTotalBlock(enc, line.TaxAmount, line.LineTotal, line.TaxRate, currency)
	}

	// cac:Item
	writeStart(enc, "cac:Item")
	desc := line.Description
	if desc == "" {
		desc = "Item " + strconv.Itoa(lineNum)
	}
	writeCbc(enc, "Description", desc)
	if line.ProductCode != "" {
		writeStart(enc, "cac:SellersItemIdentification")
		writeCbc(enc, "ID", line.ProductCode)
		writeEnd(enc, "cac:SellersItemIdentification")
	}
	writeEnd(enc, "cac:Item")

	// cac:Price
	writeStart(enc, "cac:Price")
	writeCbcAmount(enc, "PriceAmount", formatDecimal(line.UnitPrice), currency)
	writeCbcWithAttr(enc, "BaseQuantity", "1", "unitCode", unitCode)
	writeEnd(enc, "cac:Price")

	writeEnd(enc, "cac:"+spec.LineLocal)
}

func normalizeNIT(nit string) string {
	var out []byte
	for _, b := range []byte(nit) {
		if b >= '0' && b <= '9' {
			out = append(out, b)
		}
	}
	return string(out)
}

func formatDecimal(d decimal.Decimal) string {
	return d.Round(2).StringFixed(2)
}

func validateContext(ctx *BuildContext) error {
	if ctx == nil || ctx.Document == nil || ctx.Company == nil || ctx.Customer == nil {
		return fmt.Errorf("dian: faltan document, company o customer en el contexto")
	}
	return nil
}
