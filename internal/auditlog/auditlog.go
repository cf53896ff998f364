// Package auditlog appends a CSV trail of imports and future-entry edits
// under the project's logs/ directory.
package auditlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Actions recorded in the log.
const (
	ActionImportStatement = "import_statement"
	ActionImportInvoice   = "import_invoice"
	ActionClassify        = "classify"
	ActionFutureCreate    = "future_create"
	ActionFutureUpdate    = "future_update"
	ActionFutureDelete    = "future_delete"
	ActionFutureSettle    = "future_settle"
	ActionFutureCancel    = "future_cancel"
)

// Entry is one row of logs/audit-log.csv.
type Entry struct {
	Timestamp time.Time
	CompanyID string
	Action    string
	SubjectID string
	Details   string
}

// Header is the CSV header for audit-log.csv.
const Header = "timestamp,company_id,action,subject_id,details"

const (
	numFields    = 5
	logDir       = "logs"
	logFile      = "logs/audit-log.csv"
	colTimestamp = 0
	colCompany   = 1
	colAction    = 2
	colSubject   = 3
	colDetails   = 4
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.UTC().Format(time.RFC3339)
	row[colCompany] = e.CompanyID
	row[colAction] = e.Action
	row[colSubject] = e.SubjectID
	row[colDetails] = e.Details
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}
	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}
	return Entry{
		Timestamp: ts,
		CompanyID: record[colCompany],
		Action:    record[colAction],
		SubjectID: record[colSubject],
		Details:   record[colDetails],
	}, nil
}

// Log appends to the audit file of one project root. The zero value, or a
// Log with an empty root, discards entries.
type Log struct {
	root string
	now  func() time.Time
}

// New returns a Log writing under root.
func New(root string) *Log {
	return &Log{root: root, now: time.Now}
}

// Record appends a single entry stamped with the current time.
func (l *Log) Record(companyID, action, subjectID, details string) error {
	if l == nil || l.root == "" {
		return nil
	}
	return Append(l.root, []Entry{{
		Timestamp: l.now(),
		CompanyID: companyID,
		Action:    action,
		SubjectID: subjectID,
		Details:   details,
	}})
}

// Append writes entries to <root>/logs/audit-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	if err := os.MkdirAll(filepath.Join(root, logDir), 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	_, statErr := os.Stat(path)
	needsHeader := errors.Is(statErr, fs.ErrNotExist)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}
	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read returns every entry in <root>/logs/audit-log.csv, or nil if the file
// does not exist.
func Read(root string) ([]Entry, error) {
	f, err := os.Open(filepath.Join(root, logFile))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()
	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading audit log CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
