package model

// LineKind controls how a DRE line gets its value.
type LineKind string

const (
	// LineSum adds the rollup values of the listed commitment types.
	LineSum LineKind = "sum"
	// LineSubtotal repeats the running total of every preceding sum line.
	LineSubtotal LineKind = "subtotal"
)

// DRELine is a row in dre_line_configurations.
type DRELine struct {
	ID        string
	CompanyID string
	Position  int
	Label     string
	Kind      LineKind
	TypeIDs   []string
}
