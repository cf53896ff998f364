package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/fluxo-dev/fluxo/internal/classify"
	"github.com/fluxo-dev/fluxo/internal/config"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
	"github.com/fluxo-dev/fluxo/internal/store/backend"
)

func newInitCommand() *cobra.Command {
	var (
		name        string
		companyID   string
		cnpj        string
		backendType string
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new fluxo project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), absDir, initParams{
				name:        name,
				companyID:   companyID,
				cnpj:        cnpj,
				backendType: backendType,
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "business name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&companyID, "company-id", "", "company id (defaults to a slug of the name)")
	cmd.Flags().StringVar(&cnpj, "cnpj", "", "company CNPJ, used to import NF-e")
	cmd.Flags().StringVar(&backendType, "backend", config.BackendSQLite, "data store: sqlite, postgres or memory")

	return cmd
}

type initParams struct {
	name        string
	companyID   string
	cnpj        string
	backendType string
}

// defaultRules ship with every new project as a starting point.
var defaultRules = []classify.Rule{
	{Contains: "tarifa", CommitmentID: "tarifas-bancarias"},
	{Contains: "aluguel", CommitmentID: "aluguel"},
	{Contains: "simples nacional", CommitmentID: "simples-nacional"},
	{Contains: "pro labore", CommitmentID: "pro-labore"},
	{Contains: "energia", CommitmentID: "energia"},
}

func runInit(ctx context.Context, dir string, p initParams) error {
	// Create directory structure.
	dirs := []string{
		"hierarchy",
		"rules",
		"logs",
		"data",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	companyID := p.companyID
	if companyID == "" {
		companyID = slug(p.name)
	}

	// Write fluxo.yaml.
	cfg := config.Default(companyID, p.name)
	cfg.Company.CNPJ = p.cnpj
	cfg.Backend.Type = p.backendType

	effective := *cfg
	effective.ApplyEnv()
	if err := effective.Validate(); err != nil {
		return err
	}
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write the commitment hierarchy.
	if err := hierarchy.Default().Save(dir); err != nil {
		return fmt.Errorf("writing commitment hierarchy: %w", err)
	}

	if err := classify.SaveRules(dir, defaultRules); err != nil {
		return fmt.Errorf("writing rules: %w", err)
	}

	// Write .gitignore.
	gitignore := "data/\nexports/\nimport/processed/\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	if err := seedHierarchy(ctx, dir, &effective); err != nil {
		return err
	}

	fmt.Printf("Initialized fluxo project %q at %s (company %s, %s backend)\n", p.name, dir, companyID, cfg.Backend.Type)
	return nil
}

// seedHierarchy copies hierarchy/commitments.csv into the store.
func seedHierarchy(ctx context.Context, dir string, cfg *config.Config) error {
	h, err := hierarchy.Load(dir)
	if err != nil {
		return err
	}

	backendCfg := cfg.Backend
	if backendCfg.Type == config.BackendSQLite && !filepath.IsAbs(backendCfg.SQLitePath) {
		backendCfg.SQLitePath = filepath.Join(dir, backendCfg.SQLitePath)
	}
	s, err := backend.Open(ctx, backendCfg, nil)
	if err != nil {
		return fmt.Errorf("opening %s store: %w", backendCfg.Type, err)
	}
	defer s.Close()

	types, groups, commitments := h.WithCompany(cfg.Company.ID)
	if err := s.SaveHierarchy(ctx, types, groups, commitments); err != nil {
		return fmt.Errorf("seeding commitment hierarchy: %w", err)
	}
	return nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slug turns "Padaria São João" into "padaria-sao-joao".
func slug(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if plain, _, err := transform.String(t, s); err == nil {
		s = plain
	}
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}
