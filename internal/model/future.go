package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType says whether a future entry is money going out or coming in.
type EntryType string

const (
	EntryPayable    EntryType = "payable"
	EntryReceivable EntryType = "receivable"
)

// Valid reports whether t is a known entry type.
func (t EntryType) Valid() bool {
	return t == EntryPayable || t == EntryReceivable
}

// EntryStatus is the lifecycle state of a future entry.
type EntryStatus string

const (
	StatusPending   EntryStatus = "pending"
	StatusSettled   EntryStatus = "settled"
	StatusCancelled EntryStatus = "cancelled"
)

// EntrySource records how a future entry was created.
type EntrySource string

const (
	SourceManual EntrySource = "manual"
	SourceNFe    EntrySource = "nfe"
)

// FutureEntry is a projected payable or receivable not yet seen on a bank statement.
type FutureEntry struct {
	ID             string
	CompanyID      string
	DueDate        time.Time
	Amount         decimal.Decimal
	Type           EntryType
	Description    string
	Status         EntryStatus
	Source         EntrySource
	DocumentKey    string // "<nfe key>/<installment>" for imported invoices
	Classification Classification
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Projects reports whether the entry still counts toward projected cash flow.
func (f FutureEntry) Projects() bool {
	return f.Status == StatusPending || f.Status == ""
}

// Closed reports whether the entry can no longer be edited.
func (f FutureEntry) Closed() bool {
	return f.Status == StatusSettled || f.Status == StatusCancelled
}

// Signed returns the amount with receivables positive and payables negative.
func (f FutureEntry) Signed() decimal.Decimal {
	if f.Type == EntryPayable {
		return f.Amount.Neg()
	}
	return f.Amount
}
