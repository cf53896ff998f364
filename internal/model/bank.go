package model

// ManualAccountID is the pseudo-account that pools future entries in cash-flow views.
const ManualAccountID = "manual"

// BankAccount represents a row in the banks table.
type BankAccount struct {
	ID            string
	CompanyID     string
	Name          string
	AccountNumber string
	Agency        string
}
