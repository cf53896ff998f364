package importer

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// OFXParser reads OFX 1.x (SGML) and 2.x (XML) bank and credit card statements.
type OFXParser struct{}

// Format returns the parser name.
func (p *OFXParser) Format() string { return "ofx" }

// Parse returns the first statement in the file.
func (p *OFXParser) Parse(r io.Reader) (*Statement, error) {
	resp, err := ofxgo.ParseResponse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing OFX: %w", err)
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			info := BankInfo{
				BankID:      stmt.BankAcctFrom.BankID.String(),
				BranchID:    stmt.BankAcctFrom.BranchID.String(),
				AccountID:   stmt.BankAcctFrom.AcctID.String(),
				AccountType: stmt.BankAcctFrom.AcctType.String(),
			}
			return newStatement(info, stmt.BankTranList)
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			info := BankInfo{AccountID: stmt.CCAcctFrom.AcctID.String(), AccountType: "CREDITCARD"}
			return newStatement(info, stmt.BankTranList)
		}
	}
	return nil, fmt.Errorf("parsing OFX: no bank or credit card statement found")
}

func newStatement(info BankInfo, list *ofxgo.TransactionList) (*Statement, error) {
	stmt := &Statement{BankInfo: info}
	if list == nil {
		return stmt, nil
	}
	stmt.StartDate = day(list.DtStart.Time)
	stmt.EndDate = day(list.DtEnd.Time)

	for i, tr := range list.Transactions {
		amount, err := decimal.NewFromString(tr.TrnAmt.String())
		if err != nil {
			return nil, fmt.Errorf("transaction %d: parsing amount %q: %w", i+1, tr.TrnAmt.String(), err)
		}
		magnitude, dir := store.NormalizeAmount(amount, "")
		stmt.Transactions = append(stmt.Transactions, model.Transaction{
			Date:        day(tr.DtPosted.Time),
			Amount:      magnitude,
			Direction:   dir,
			Description: describe(tr.Name.String(), tr.Memo.String()),
			FITID:       strings.TrimSpace(tr.FiTID.String()),
		})
	}
	return stmt, nil
}

// day keeps the calendar date as written in the file.
func day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func describe(name, memo string) string {
	name, memo = strings.TrimSpace(name), strings.TrimSpace(memo)
	switch {
	case name == "":
		return memo
	case memo == "" || strings.EqualFold(name, memo):
		return name
	default:
		return name + " - " + memo
	}
}
