package hierarchy

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// Service provides in-memory lookup over the commitment hierarchy.
type Service struct {
	types       []model.CommitmentType
	groups      []model.CommitmentGroup
	commitments []model.Commitment

	typeByID       map[string]model.CommitmentType
	groupByID      map[string]model.CommitmentGroup
	commitmentByID map[string]model.Commitment
}

// NewService creates a Service from the three hierarchy levels.
// Types are kept in position order.
func NewService(types []model.CommitmentType, groups []model.CommitmentGroup, commitments []model.Commitment) *Service {
	sorted := append([]model.CommitmentType(nil), types...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Position != sorted[j].Position {
			return sorted[i].Position < sorted[j].Position
		}
		return sorted[i].Name < sorted[j].Name
	})

	s := &Service{
		types:          sorted,
		groups:         groups,
		commitments:    commitments,
		typeByID:       make(map[string]model.CommitmentType, len(types)),
		groupByID:      make(map[string]model.CommitmentGroup, len(groups)),
		commitmentByID: make(map[string]model.Commitment, len(commitments)),
	}
	for _, t := range sorted {
		s.typeByID[t.ID] = t
	}
	for _, g := range groups {
		s.groupByID[g.ID] = g
	}
	for _, c := range commitments {
		s.commitmentByID[c.ID] = c
	}
	return s
}

// Load reads hierarchy/commitments.csv from a repo root and returns a Service.
func Load(repoRoot string) (*Service, error) {
	path := filepath.Join(repoRoot, "hierarchy", "commitments.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening commitment hierarchy: %w", err)
	}
	defer f.Close()

	types, groups, commitments, err := ReadHierarchy(f)
	if err != nil {
		return nil, fmt.Errorf("reading commitment hierarchy: %w", err)
	}
	return NewService(types, groups, commitments), nil
}

// Save writes the hierarchy to hierarchy/commitments.csv.
func (s *Service) Save(repoRoot string) error {
	dir := filepath.Join(repoRoot, "hierarchy")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating hierarchy dir: %w", err)
	}

	f, err := os.Create(filepath.Join(dir, "commitments.csv"))
	if err != nil {
		return fmt.Errorf("creating hierarchy file: %w", err)
	}
	defer f.Close()

	if err := WriteHierarchy(f, s); err != nil {
		return fmt.Errorf("writing commitment hierarchy: %w", err)
	}
	return nil
}

// Types returns commitment types in position order.
func (s *Service) Types() []model.CommitmentType { return s.types }

// Groups returns all commitment groups.
func (s *Service) Groups() []model.CommitmentGroup { return s.groups }

// Commitments returns all commitments.
func (s *Service) Commitments() []model.Commitment { return s.commitments }

// Type returns a commitment type by ID.
func (s *Service) Type(id string) (model.CommitmentType, bool) {
	t, ok := s.typeByID[id]
	return t, ok
}

// Group returns a commitment group by ID.
func (s *Service) Group(id string) (model.CommitmentGroup, bool) {
	g, ok := s.groupByID[id]
	return g, ok
}

// Commitment returns a commitment by ID.
func (s *Service) Commitment(id string) (model.Commitment, bool) {
	c, ok := s.commitmentByID[id]
	return c, ok
}

// GroupsOf returns the groups owned by a type, in input order.
func (s *Service) GroupsOf(typeID string) []model.CommitmentGroup {
	var result []model.CommitmentGroup
	for _, g := range s.groups {
		if g.TypeID == typeID {
			result = append(result, g)
		}
	}
	return result
}

// CommitmentsOf returns the commitments owned by a group, in input order.
func (s *Service) CommitmentsOf(groupID string) []model.Commitment {
	var result []model.Commitment
	for _, c := range s.commitments {
		if c.GroupID == groupID {
			result = append(result, c)
		}
	}
	return result
}

// ByNature returns all types of the given nature.
func (s *Service) ByNature(n model.Nature) []model.CommitmentType {
	var result []model.CommitmentType
	for _, t := range s.types {
		if t.Nature == n {
			result = append(result, t)
		}
	}
	return result
}

// Resolve completes a classification: missing parent ids are derived from the
// commitment or group, and names are filled in from the hierarchy.
func (s *Service) Resolve(c model.Classification) model.Classification {
	if c.CommitmentID != "" {
		if cm, ok := s.commitmentByID[c.CommitmentID]; ok {
			c.CommitmentName = cm.Name
			if c.GroupID == "" {
				c.GroupID = cm.GroupID
			}
		}
	}
	if c.GroupID != "" {
		if g, ok := s.groupByID[c.GroupID]; ok {
			c.GroupName = g.Name
			if c.TypeID == "" {
				c.TypeID = g.TypeID
			}
		}
	}
	if c.TypeID != "" {
		if t, ok := s.typeByID[c.TypeID]; ok {
			c.TypeName = t.Name
		}
	}
	return c
}
