package model

// AccountType classifies accounts in the chart of accounts.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeRevenue   AccountType = "revenue"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether t is one of the five classifications.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeRevenue, AccountTypeExpense:
		return true
	}
	return false
}

// DebitNormal reports whether balances of this type grow on the debit side.
func (t AccountType) DebitNormal() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// Temporary reports whether the account is zeroed at year end.
func (t AccountType) Temporary() bool {
	return t == AccountTypeRevenue || t == AccountTypeExpense
}

// AccountRole tags an account for a reporting or closing purpose.
// At most one account in a chart carries each non-empty role.
type AccountRole string

const (
	RoleNone             AccountRole = ""
	RolePrimaryRevenue   AccountRole = "primary_revenue"
	RoleCOGS             AccountRole = "cogs"
	RoleRetainedEarnings AccountRole = "retained_earnings"
	RoleBank             AccountRole = "bank"
)

// Account represents a row in chart-of-accounts.csv.
type Account struct {
	ID          int
	Name        string
	Type        AccountType
	Role        AccountRole
	ParentID    int // 0 = top-level
	TaxLine     string
	Description string
}
