package importer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubParser struct{ format string }

func (p *stubParser) Format() string                     { return p.format }
func (p *stubParser) Parse(io.Reader) (*Statement, error) { return &Statement{}, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register(&stubParser{format: "CNAB"})

	assert.NotNil(t, r.Get("cnab"))
	assert.NotNil(t, r.Get("CNAB"))
	assert.Nil(t, r.Get("ofx"))
	assert.Panics(t, func() { r.Register(&stubParser{format: "cnab"}) })

	assert.NotNil(t, DefaultRegistry().Get("ofx"))
}

func TestScan(t *testing.T) {
	root := t.TempDir()

	files, err := Scan(root)
	require.NoError(t, err)
	assert.Nil(t, files)

	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "processed"), 0o755))
	for _, name := range []string{"extrato.OFX", "nota.xml", "notes.txt", "b.ofx"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err = Scan(root)
	require.NoError(t, err)
	require.Len(t, files, 3)

	names := map[string]string{}
	for _, f := range files {
		names[f.Name] = f.Kind()
		assert.Equal(t, int64(1), f.Size)
	}
	assert.Equal(t, map[string]string{"extrato.OFX": "ofx", "nota.xml": "xml", "b.ofx": "ofx"}, names)
}

func TestMarkProcessed(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "import")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jan.ofx"), []byte("x"), 0o644))

	require.NoError(t, MarkProcessed(root, "jan.ofx"))

	_, err := os.Stat(filepath.Join(dir, "jan.ofx"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, "processed", "jan.ofx"))
	assert.NoError(t, err)

	assert.Error(t, MarkProcessed(root, "missing.ofx"))
}

func TestBankInfoKey(t *testing.T) {
	assert.Equal(t, "0341-1234-567890", BankInfo{BankID: "0341", BranchID: "1234", AccountID: "567890"}.Key())
	assert.Equal(t, "4111", BankInfo{AccountID: " 4111 "}.Key())
	assert.Empty(t, BankInfo{}.Key())
}
