package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BankStatementTransaction is one row of an imported bank statement.
// Credit is money into the account and Debit money out, from the bank's side.
type BankStatementTransaction struct {
	ID          string
	Date        time.Time
	Description string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
	Reference   string
	Type        string // bank transaction type (ACH_DEBIT, etc.)
}
