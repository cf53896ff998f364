// Package nfe reads Brazilian electronic invoices (NF-e) and turns their
// installments into future entries.
package nfe

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// ErrNotParty is returned when the company neither issued nor received the invoice.
var ErrNotParty = errors.New("company is neither emitter nor recipient of the invoice")

// Party is an invoice emitter or recipient.
type Party struct {
	CNPJ string
	CPF  string
	Name string
}

// TaxID returns the CNPJ, or the CPF for individuals, digits only.
func (p Party) TaxID() string {
	if p.CNPJ != "" {
		return digits(p.CNPJ)
	}
	return digits(p.CPF)
}

// Installment is one duplicata of the invoice's billing section.
type Installment struct {
	Number  string
	DueDate time.Time
	Amount  decimal.Decimal
}

// Invoice is the subset of an NF-e needed for cash planning.
type Invoice struct {
	Key          string // 44-digit access key
	Number       string
	Operation    string
	IssuedAt     time.Time
	Emitter      Party
	Recipient    Party
	Total        decimal.Decimal
	Installments []Installment
}

type xmlParty struct {
	CNPJ string `xml:"CNPJ"`
	CPF  string `xml:"CPF"`
	Name string `xml:"xNome"`
}

type xmlInfNFe struct {
	ID  string `xml:"Id,attr"`
	Ide struct {
		Number    string `xml:"nNF"`
		Operation string `xml:"natOp"`
		IssuedAt  string `xml:"dhEmi"`
		IssuedOn  string `xml:"dEmi"` // layout 2.00
	} `xml:"ide"`
	Emit  xmlParty `xml:"emit"`
	Dest  xmlParty `xml:"dest"`
	Total string   `xml:"total>ICMSTot>vNF"`
	Dups  []struct {
		Number  string `xml:"nDup"`
		DueDate string `xml:"dVenc"`
		Amount  string `xml:"vDup"`
	} `xml:"cobr>dup"`
}

// xmlDocument matches both an nfeProc envelope and a bare NFe root.
type xmlDocument struct {
	Proc   xmlInfNFe `xml:"NFe>infNFe"`
	Bare   xmlInfNFe `xml:"infNFe"`
	ProtID string    `xml:"protNFe>infProt>chNFe"`
}

// Parse decodes an NF-e XML document.
func Parse(r io.Reader) (*Invoice, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding NF-e: %w", err)
	}

	inf := doc.Proc
	if inf.ID == "" && inf.Ide.Number == "" {
		inf = doc.Bare
	}

	key := strings.TrimPrefix(inf.ID, "NFe")
	if key == "" {
		key = doc.ProtID
	}
	if key == "" {
		return nil, fmt.Errorf("decoding NF-e: missing access key")
	}

	inv := &Invoice{
		Key:       key,
		Number:    strings.TrimSpace(inf.Ide.Number),
		Operation: strings.TrimSpace(inf.Ide.Operation),
		Emitter:   Party(inf.Emit),
		Recipient: Party(inf.Dest),
	}

	issued := inf.Ide.IssuedAt
	if issued == "" {
		issued = inf.Ide.IssuedOn
	}
	var err error
	if inv.IssuedAt, err = parseDate(issued); err != nil {
		return nil, fmt.Errorf("invoice %s: issue date: %w", key, err)
	}
	if inv.Total, err = parseAmount(inf.Total); err != nil {
		return nil, fmt.Errorf("invoice %s: total: %w", key, err)
	}

	for i, d := range inf.Dups {
		inst := Installment{Number: strings.TrimSpace(d.Number)}
		if inst.Number == "" {
			inst.Number = fmt.Sprintf("%03d", i+1)
		}
		if inst.DueDate, err = parseDate(d.DueDate); err != nil {
			return nil, fmt.Errorf("invoice %s: installment %s: due date: %w", key, inst.Number, err)
		}
		if inst.Amount, err = parseAmount(d.Amount); err != nil {
			return nil, fmt.Errorf("invoice %s: installment %s: amount: %w", key, inst.Number, err)
		}
		inv.Installments = append(inv.Installments, inst)
	}
	return inv, nil
}

// ToFutureEntries returns one pending entry per installment, or a single
// entry due on the issue date when the invoice has none. Entries are
// payable when companyTaxID received the invoice and receivable when it
// issued it. IDs and company ids are left for the caller.
func ToFutureEntries(inv *Invoice, companyTaxID string) ([]model.FutureEntry, error) {
	company := digits(companyTaxID)
	var (
		typ          model.EntryType
		counterparty Party
	)
	switch {
	case company != "" && inv.Recipient.TaxID() == company:
		typ, counterparty = model.EntryPayable, inv.Emitter
	case company != "" && inv.Emitter.TaxID() == company:
		typ, counterparty = model.EntryReceivable, inv.Recipient
	default:
		return nil, fmt.Errorf("invoice %s: %w", inv.Key, ErrNotParty)
	}

	installments := inv.Installments
	if len(installments) == 0 {
		installments = []Installment{{Number: "001", DueDate: inv.IssuedAt, Amount: inv.Total}}
	}

	entries := make([]model.FutureEntry, 0, len(installments))
	for _, inst := range installments {
		if !inst.Amount.IsPositive() {
			continue
		}
		entries = append(entries, model.FutureEntry{
			DueDate:     inst.DueDate,
			Amount:      inst.Amount,
			Type:        typ,
			Description: describe(inv, counterparty, inst, len(installments)),
			Status:      model.StatusPending,
			Source:      model.SourceNFe,
			DocumentKey: inv.Key + "/" + inst.Number,
		})
	}
	return entries, nil
}

func describe(inv *Invoice, counterparty Party, inst Installment, count int) string {
	desc := "NF-e " + inv.Number
	if counterparty.Name != "" {
		desc += " " + counterparty.Name
	}
	if count > 1 {
		desc += " parcela " + inst.Number
	}
	return desc
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty date")
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", s, err)
	}
	return t, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing %q: %w", s, err)
	}
	return d, nil
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
