package model

// Nature groups commitment types for margin analysis.
type Nature string

const (
	NatureRevenue      Nature = "revenue"
	NatureVariableCost Nature = "variable_cost"
	NatureFixedCost    Nature = "fixed_cost"
	NatureInvestment   Nature = "investment"
	NatureOther        Nature = "other"
)

// CommitmentType is the top level of the commitment hierarchy.
type CommitmentType struct {
	ID        string
	CompanyID string
	Name      string
	Nature    Nature
	Position  int
}

// CommitmentGroup is the middle level, owned by a type.
type CommitmentGroup struct {
	ID        string
	CompanyID string
	TypeID    string
	Name      string
	TeamCost  bool // personnel groups, summed by the team cost report
}

// Commitment is the leaf level, owned by a group.
type Commitment struct {
	ID        string
	CompanyID string
	GroupID   string
	Name      string
}

// Classification is the normalized link of a transaction or future entry
// into the hierarchy. Names are filled in by the store loader.
type Classification struct {
	TypeID         string
	TypeName       string
	GroupID        string
	GroupName      string
	CommitmentID   string
	CommitmentName string
}

// IsZero reports whether no hierarchy node is referenced.
func (c Classification) IsZero() bool {
	return c.TypeID == "" && c.GroupID == "" && c.CommitmentID == ""
}
