package classify

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// RulesPath is the rules file location relative to the project root.
const RulesPath = "rules/classification-rules.yaml"

// Rule classifies any transaction whose description contains Contains.
// Missing parent ids are derived from the hierarchy when matching.
type Rule struct {
	Contains     string `yaml:"contains"`
	TypeID       string `yaml:"type,omitempty"`
	GroupID      string `yaml:"group,omitempty"`
	CommitmentID string `yaml:"commitment,omitempty"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads the ordered rule list from a project root. A missing
// file means no rules.
func LoadRules(root string) ([]Rule, error) {
	data, err := os.ReadFile(filepath.Join(root, RulesPath))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading rules: %w", err)
	}
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules: %w", err)
	}
	return f.Rules, nil
}

// SaveRules writes the rule list, preserving order.
func SaveRules(root string, rules []Rule) error {
	path := filepath.Join(root, RulesPath)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating rules dir: %w", err)
	}
	data, err := yaml.Marshal(rulesFile{Rules: rules})
	if err != nil {
		return fmt.Errorf("marshaling rules: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}
	return nil
}
