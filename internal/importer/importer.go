// Package importer reads bank statements and invoices dropped into the
// project's import/ directory and writes them through the store.
package importer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fluxo-dev/fluxo/internal/model"
)

// ErrUnknownFormat is returned when no parser handles a file.
var ErrUnknownFormat = errors.New("unknown import format")

// BankInfo identifies the account a statement belongs to.
type BankInfo struct {
	BankID      string
	BranchID    string
	AccountID   string
	AccountType string
}

// Key is a stable bank account id derived from the statement.
func (b BankInfo) Key() string {
	parts := []string{}
	for _, p := range []string{b.BankID, b.BranchID, b.AccountID} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "-")
}

// Statement is a parsed bank statement. Transactions carry magnitude,
// direction, date, description and FITID only.
type Statement struct {
	BankInfo     BankInfo
	Transactions []model.Transaction
	StartDate    time.Time
	EndDate      time.Time
}

// Parser converts a statement file into a Statement.
type Parser interface {
	Parse(r io.Reader) (*Statement, error)
	Format() string
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// FileInfo describes a file in the import directory.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Kind is the lowercased extension without the dot: "ofx" or "xml".
func (f FileInfo) Kind() string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(f.Name)), ".")
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// DefaultRegistry returns a registry with all built-in statement parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&OFXParser{})
	return r
}

const (
	importDir    = "import"
	processedDir = "import/processed"
)

var importExtensions = map[string]bool{".ofx": true, ".xml": true}

// Scan returns OFX and NFe XML files in <root>/import/, sorted by name.
func Scan(root string) ([]FileInfo, error) {
	dir := filepath.Join(root, importDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading import dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() || !importExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	return files, nil
}

// MarkProcessed moves a file from import/ to import/processed/.
func MarkProcessed(root, fileName string) error {
	dstDir := filepath.Join(root, processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return fmt.Errorf("creating processed dir: %w", err)
	}

	src := filepath.Join(root, importDir, fileName)
	if err := os.Rename(src, filepath.Join(dstDir, fileName)); err != nil {
		return fmt.Errorf("moving %s to processed: %w", fileName, err)
	}
	return nil
}
