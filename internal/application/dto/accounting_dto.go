package dto

import "github.com/shopspring/decimal"

// JournalEntryResponse asiento contable con sus líneas.
type JournalEntryResponse struct {
	ID          string                `json:"id"`
	DocumentID  string                `json:"document_id,omitempty"`
	DocType     string                `json:"doc_type"`
	Number      string                `json:"number"`
	Date        string                `json:"date"`
	Description string                `json:"description"`
	Lines       []JournalLineResponse `json:"lines"`
	TotalDebit  decimal.Decimal       `json:"total_debit"`
	TotalCredit decimal.Decimal       `json:"total_credit"`
}

// JournalLineResponse línea del asiento (débito o crédito sobre una cuenta PUC).
type JournalLineResponse struct {
	AccountCode string          `json:"account_code"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}
