package hierarchy

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// One row per commitment; type and group columns repeat. A type or group
// without children is written with the trailing columns empty.
const (
	numFields         = 9
	colTypeID         = 0
	colTypeName       = 1
	colNature         = 2
	colPosition       = 3
	colGroupID        = 4
	colGroupName      = 5
	colTeamCost       = 6
	colCommitmentID   = 7
	colCommitmentName = 8
)

var header = []string{"type_id", "type_name", "nature", "position", "group_id", "group_name", "team_cost", "commitment_id", "commitment_name"}

// ReadHierarchy reads hierarchy/commitments.csv.
func ReadHierarchy(r io.Reader) ([]model.CommitmentType, []model.CommitmentGroup, []model.Commitment, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("reading hierarchy CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil, nil
	}

	var (
		types       []model.CommitmentType
		groups      []model.CommitmentGroup
		commitments []model.Commitment
	)
	seenType := make(map[string]bool)
	seenGroup := make(map[string]bool)
	for i, rec := range records[1:] {
		t, g, c, err := unmarshalRow(rec)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if !seenType[t.ID] {
			seenType[t.ID] = true
			types = append(types, t)
		}
		if g.ID != "" && !seenGroup[g.ID] {
			seenGroup[g.ID] = true
			groups = append(groups, g)
		}
		if c.ID != "" {
			commitments = append(commitments, c)
		}
	}
	return types, groups, commitments, nil
}

// WriteHierarchy writes hierarchy/commitments.csv.
func WriteHierarchy(w io.Writer, s *Service) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	row := 2
	write := func(rec []string) error {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing row %d: %w", row, err)
		}
		row++
		return nil
	}

	for _, t := range s.Types() {
		groups := s.GroupsOf(t.ID)
		if len(groups) == 0 {
			if err := write(marshalRow(t, model.CommitmentGroup{}, model.Commitment{})); err != nil {
				return err
			}
			continue
		}
		for _, g := range groups {
			commitments := s.CommitmentsOf(g.ID)
			if len(commitments) == 0 {
				if err := write(marshalRow(t, g, model.Commitment{})); err != nil {
					return err
				}
				continue
			}
			for _, c := range commitments {
				if err := write(marshalRow(t, g, c)); err != nil {
					return err
				}
			}
		}
	}
	return cw.Error()
}

func marshalRow(t model.CommitmentType, g model.CommitmentGroup, c model.Commitment) []string {
	row := make([]string, numFields)
	row[colTypeID] = t.ID
	row[colTypeName] = t.Name
	row[colNature] = string(t.Nature)
	row[colPosition] = strconv.Itoa(t.Position)
	row[colGroupID] = g.ID
	row[colGroupName] = g.Name
	if g.ID != "" {
		row[colTeamCost] = strconv.FormatBool(g.TeamCost)
	}
	row[colCommitmentID] = c.ID
	row[colCommitmentName] = c.Name
	return row
}

func unmarshalRow(rec []string) (model.CommitmentType, model.CommitmentGroup, model.Commitment, error) {
	if len(rec) != numFields {
		return model.CommitmentType{}, model.CommitmentGroup{}, model.Commitment{}, fmt.Errorf("expected %d fields, got %d", numFields, len(rec))
	}
	if rec[colTypeID] == "" {
		return model.CommitmentType{}, model.CommitmentGroup{}, model.Commitment{}, fmt.Errorf("missing type_id")
	}

	pos, err := strconv.Atoi(rec[colPosition])
	if err != nil {
		return model.CommitmentType{}, model.CommitmentGroup{}, model.Commitment{}, fmt.Errorf("parsing position %q: %w", rec[colPosition], err)
	}

	var team bool
	if rec[colTeamCost] != "" {
		team, err = strconv.ParseBool(rec[colTeamCost])
		if err != nil {
			return model.CommitmentType{}, model.CommitmentGroup{}, model.Commitment{}, fmt.Errorf("parsing team_cost %q: %w", rec[colTeamCost], err)
		}
	}

	t := model.CommitmentType{ID: rec[colTypeID], Name: rec[colTypeName], Nature: model.Nature(rec[colNature]), Position: pos}

	var g model.CommitmentGroup
	if rec[colGroupID] != "" {
		g = model.CommitmentGroup{ID: rec[colGroupID], TypeID: t.ID, Name: rec[colGroupName], TeamCost: team}
	}

	var c model.Commitment
	if rec[colCommitmentID] != "" {
		if g.ID == "" {
			return model.CommitmentType{}, model.CommitmentGroup{}, model.Commitment{}, fmt.Errorf("commitment %q has no group", rec[colCommitmentID])
		}
		c = model.Commitment{ID: rec[colCommitmentID], GroupID: g.ID, Name: rec[colCommitmentName]}
	}
	return t, g, c, nil
}
