package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project config file at the repo root.
const FileName = "fluxo.yaml"

// Backend types.
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// DefaultChunkSize is the upstream limit on ids per IN filter.
const DefaultChunkSize = 100

// Config represents the top-level fluxo.yaml configuration.
type Config struct {
	Company       CompanyConfig       `yaml:"company"`
	Backend       BackendConfig       `yaml:"backend"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Export        ExportConfig        `yaml:"export"`
	CashFlow      CashFlowConfig      `yaml:"cashflow"`
	DRE           DREConfig           `yaml:"dre"`
	Log           LogConfig           `yaml:"log"`
}

// CompanyConfig identifies the tenant every query is scoped to.
type CompanyConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	CNPJ string `yaml:"cnpj,omitempty"`
}

// BackendConfig selects the data store.
type BackendConfig struct {
	Type        string `yaml:"type"`
	SQLitePath  string `yaml:"sqlite_path,omitempty"`
	PostgresURL string `yaml:"postgres_url,omitempty"`
	ChunkSize   int    `yaml:"chunk_size"`
}

// NotificationsConfig controls AMQP change notifications. Empty URL disables them.
type NotificationsConfig struct {
	AMQPURL  string `yaml:"amqp_url,omitempty"`
	Exchange string `yaml:"exchange"`
	Queue    string `yaml:"queue"`
}

// ExportConfig holds Google Sheets export settings.
type ExportConfig struct {
	SpreadsheetID   string `yaml:"spreadsheet_id,omitempty"`
	CredentialsFile string `yaml:"credentials_file,omitempty"`
}

// CashFlowConfig holds cash-flow view defaults.
type CashFlowConfig struct {
	HideEmptyAccounts bool   `yaml:"hide_empty_accounts"`
	CarryBalance      bool   `yaml:"carry_balance"`
	ManualAccountName string `yaml:"manual_account_name"`
}

// DREConfig holds income statement defaults.
type DREConfig struct {
	UnclassifiedLabel string `yaml:"unclassified_label"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads a fluxo.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// LoadProject reads <root>/fluxo.yaml, applies <root>/.env and FLUXO_* overrides,
// and validates the result.
func LoadProject(root string) (*Config, error) {
	if err := godotenv.Load(filepath.Join(root, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := Load(filepath.Join(root, FileName))
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	if cfg.Backend.Type == BackendSQLite && !filepath.IsAbs(cfg.Backend.SQLitePath) {
		cfg.Backend.SQLitePath = filepath.Join(root, cfg.Backend.SQLitePath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(companyID, companyName string) *Config {
	cfg := &Config{
		Company: CompanyConfig{
			ID:   companyID,
			Name: companyName,
		},
		Backend: BackendConfig{
			Type:       BackendSQLite,
			SQLitePath: filepath.Join("data", "fluxo.db"),
		},
	}
	cfg.fillDefaults()
	return cfg
}

func (c *Config) fillDefaults() {
	if c.Backend.Type == "" {
		c.Backend.Type = BackendSQLite
	}
	if c.Backend.ChunkSize == 0 {
		c.Backend.ChunkSize = DefaultChunkSize
	}
	if c.Notifications.Exchange == "" {
		c.Notifications.Exchange = "fluxo"
	}
	if c.Notifications.Queue == "" {
		c.Notifications.Queue = "fluxo_changes"
	}
	if c.CashFlow.ManualAccountName == "" {
		c.CashFlow.ManualAccountName = "Lançamentos Manuais"
	}
	if c.DRE.UnclassifiedLabel == "" {
		c.DRE.UnclassifiedLabel = "Não Classificado"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ApplyEnv overrides config values from FLUXO_* environment variables.
func (c *Config) ApplyEnv() {
	c.Company.ID = getEnv("FLUXO_COMPANY_ID", c.Company.ID)
	c.Backend.Type = getEnv("FLUXO_BACKEND", c.Backend.Type)
	c.Backend.SQLitePath = getEnv("FLUXO_SQLITE_PATH", c.Backend.SQLitePath)
	c.Backend.PostgresURL = getEnv("FLUXO_DATABASE_URL", c.Backend.PostgresURL)
	c.Backend.ChunkSize = getEnvInt("FLUXO_CHUNK_SIZE", c.Backend.ChunkSize)
	c.Notifications.AMQPURL = getEnv("FLUXO_AMQP_URL", c.Notifications.AMQPURL)
	c.Export.SpreadsheetID = getEnv("FLUXO_SPREADSHEET_ID", c.Export.SpreadsheetID)
	c.Export.CredentialsFile = getEnv("GOOGLE_APPLICATION_CREDENTIALS", c.Export.CredentialsFile)
	c.Log.Level = getEnv("FLUXO_LOG_LEVEL", c.Log.Level)
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var problems []string

	if strings.TrimSpace(c.Company.ID) == "" {
		problems = append(problems, "company id is required")
	}

	switch c.Backend.Type {
	case BackendSQLite:
		if c.Backend.SQLitePath == "" {
			problems = append(problems, "sqlite_path cannot be empty when using sqlite backend")
		}
	case BackendPostgres:
		if c.Backend.PostgresURL == "" {
			problems = append(problems, "postgres_url (or FLUXO_DATABASE_URL) is required when using postgres backend")
		}
	case BackendMemory:
	default:
		problems = append(problems, fmt.Sprintf("invalid backend %q: must be one of sqlite, postgres, memory", c.Backend.Type))
	}

	if c.Backend.ChunkSize < 1 || c.Backend.ChunkSize > DefaultChunkSize {
		problems = append(problems, fmt.Sprintf("invalid chunk_size %d: must be between 1 and %d", c.Backend.ChunkSize, DefaultChunkSize))
	}

	if c.Notifications.AMQPURL != "" {
		if u, err := url.Parse(c.Notifications.AMQPURL); err != nil {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL: %v", err))
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			problems = append(problems, fmt.Sprintf("invalid AMQP URL scheme %q: must be amqp or amqps", u.Scheme))
		}
		if c.Notifications.Exchange == "" || c.Notifications.Queue == "" {
			problems = append(problems, "AMQP exchange and queue are required when amqp_url is set")
		}
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		problems = append(problems, fmt.Sprintf("invalid log format %q: must be text or json", c.Log.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
