// Package classify applies ordered substring rules to imported transactions.
package classify

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/log"
	"github.com/fluxo-dev/fluxo/internal/model"
	"github.com/fluxo-dev/fluxo/internal/store"
)

// Matcher evaluates rules in list order; the first match wins.
type Matcher struct {
	rules    []Rule
	patterns []string
	h        *hierarchy.Service
}

// NewMatcher prepares rules for matching. h may be nil, in which case rule
// ids are used as written.
func NewMatcher(rules []Rule, h *hierarchy.Service) *Matcher {
	m := &Matcher{rules: rules, patterns: make([]string, len(rules)), h: h}
	for i, r := range rules {
		m.patterns[i] = fold(r.Contains)
	}
	return m
}

// fold normalizes s for case-insensitive comparison. A Caser holds state,
// so each call gets its own.
func fold(s string) string {
	return cases.Fold().String(norm.NFC.String(strings.TrimSpace(s)))
}

// Rules returns the rules in evaluation order.
func (m *Matcher) Rules() []Rule { return m.rules }

// Match returns the first rule whose pattern is contained in description.
func (m *Matcher) Match(description string) (Rule, bool) {
	desc := fold(description)
	for i, p := range m.patterns {
		if p == "" {
			continue
		}
		if strings.Contains(desc, p) {
			return m.rules[i], true
		}
	}
	return Rule{}, false
}

// Classify returns one classification row per unclassified transaction
// that matches a rule.
func (m *Matcher) Classify(txns []model.Transaction) []model.TransactionClassification {
	var rows []model.TransactionClassification
	for _, t := range txns {
		if t.Classified() {
			continue
		}
		r, ok := m.Match(t.Description)
		if !ok {
			continue
		}
		c := model.Classification{TypeID: r.TypeID, GroupID: r.GroupID, CommitmentID: r.CommitmentID}
		if m.h != nil {
			c = m.h.Resolve(c)
		}
		rows = append(rows, model.TransactionClassification{
			TransactionID: t.ID,
			CompanyID:     t.CompanyID,
			TypeID:        c.TypeID,
			GroupID:       c.GroupID,
			CommitmentID:  c.CommitmentID,
		})
	}
	return rows
}

// Apply classifies txns and writes the resulting rows. It returns how many
// transactions were classified.
func Apply(ctx context.Context, w store.Writer, m *Matcher, txns []model.Transaction, logger *log.Logger) (int, error) {
	rows := m.Classify(txns)
	if len(rows) == 0 {
		return 0, nil
	}
	if err := w.InsertClassifications(ctx, rows); err != nil {
		return 0, fmt.Errorf("writing classifications: %w", err)
	}
	if logger != nil {
		logger.WithComponent(log.ComponentClassify).InfoContext(ctx, "transactions classified",
			log.FieldCount, len(rows),
			"candidates", len(txns),
		)
	}
	return len(rows), nil
}
