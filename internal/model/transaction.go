package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction is the side of a bank movement.
type Direction string

const (
	DirectionCredit Direction = "credit"
	DirectionDebit  Direction = "debit"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Transaction is an imported bank movement. Amount is always non-negative;
// the sign lives in Direction.
type Transaction struct {
	ID             string
	CompanyID      string
	BankID         string
	Date           time.Time
	Amount         decimal.Decimal
	Direction      Direction
	Description    string
	FITID          string // OFX unique id, used to skip re-imported rows
	Classification Classification
}

// Signed returns the amount with credits positive and debits negative.
func (t Transaction) Signed() decimal.Decimal {
	if t.Direction == DirectionDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// Classified reports whether the transaction links into the hierarchy.
func (t Transaction) Classified() bool {
	return !t.Classification.IsZero()
}

// TransactionClassification is a row in transaction_classifications.
type TransactionClassification struct {
	TransactionID string
	CompanyID     string
	TypeID        string
	GroupID       string
	CommitmentID  string
}
