package accounts

import "github.com/cleared-dev/books/internal/model"

// DefaultChart returns the default chart of accounts for an entity type.
func DefaultChart(entityType string) []model.Account {
	switch entityType {
	case "llc_single_member":
		return llcSingleMemberChart()
	case "trading":
		return tradingChart()
	default:
		return llcSingleMemberChart()
	}
}

func llcSingleMemberChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Role: model.RoleBank, Description: "Primary checking account"},
		{ID: 1020, Name: "Business Savings", Type: model.AccountTypeAsset, Description: "Savings account"},
		{ID: 2010, Name: "Credit Card", Type: model.AccountTypeLiability, Description: "Business credit card"},
		{ID: 3010, Name: "Owner's Equity", Type: model.AccountTypeEquity, Description: "Owner's equity"},
		{ID: 3900, Name: "Retained Earnings", Type: model.AccountTypeEquity, Role: model.RoleRetainedEarnings, Description: "Accumulated profit carried from closed years"},
		{ID: 4010, Name: "Service Revenue", Type: model.AccountTypeRevenue, Role: model.RolePrimaryRevenue},
		{ID: 4020, Name: "Product Revenue", Type: model.AccountTypeRevenue},
		{ID: 5010, Name: "Advertising & Marketing", Type: model.AccountTypeExpense, TaxLine: "schedule_c_8", Description: "Advertising costs"},
		{ID: 5020, Name: "Software & SaaS", Type: model.AccountTypeExpense, TaxLine: "schedule_c_18", Description: "Software subscriptions"},
		{ID: 5030, Name: "Office Supplies", Type: model.AccountTypeExpense, TaxLine: "schedule_c_18", Description: "Office supplies and expenses"},
		{ID: 5040, Name: "Professional Services", Type: model.AccountTypeExpense, TaxLine: "schedule_c_17", Description: "Legal, accounting, consulting"},
		{ID: 5050, Name: "Shipping & Postage", Type: model.AccountTypeExpense, TaxLine: "schedule_c_18", Description: "Postage and shipping costs"},
	}
}

// tradingChart adds inventory and cost of goods sold for businesses that sell stock.
func tradingChart() []model.Account {
	return []model.Account{
		{ID: 1010, Name: "Business Checking", Type: model.AccountTypeAsset, Role: model.RoleBank, Description: "Primary checking account"},
		{ID: 1200, Name: "Inventory", Type: model.AccountTypeAsset, Description: "Goods held for sale"},
		{ID: 1300, Name: "Accounts Receivable", Type: model.AccountTypeAsset},
		{ID: 2010, Name: "Credit Card", Type: model.AccountTypeLiability, Description: "Business credit card"},
		{ID: 2100, Name: "Accounts Payable", Type: model.AccountTypeLiability},
		{ID: 2200, Name: "Sales Tax Payable", Type: model.AccountTypeLiability},
		{ID: 3010, Name: "Owner's Capital", Type: model.AccountTypeEquity},
		{ID: 3900, Name: "Retained Earnings", Type: model.AccountTypeEquity, Role: model.RoleRetainedEarnings},
		{ID: 4010, Name: "Sales", Type: model.AccountTypeRevenue, Role: model.RolePrimaryRevenue},
		{ID: 4900, Name: "Other Income", Type: model.AccountTypeRevenue},
		{ID: 5000, Name: "Cost of Goods Sold", Type: model.AccountTypeExpense, Role: model.RoleCOGS, TaxLine: "schedule_c_4"},
		{ID: 5110, Name: "Rent", Type: model.AccountTypeExpense, TaxLine: "schedule_c_20b"},
		{ID: 5120, Name: "Wages", Type: model.AccountTypeExpense, TaxLine: "schedule_c_26"},
		{ID: 5130, Name: "Utilities", Type: model.AccountTypeExpense, TaxLine: "schedule_c_25"},
	}
}
