package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/classify"
	"github.com/fluxo-dev/fluxo/internal/hierarchy"
)

var binaryPath string

func TestMain(m *testing.M) {
	// Build the binary once for all tests.
	tmpDir, err := os.MkdirTemp("", "fluxo-test-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmpDir)

	binaryPath = filepath.Join(tmpDir, "fluxo")
	cmd := exec.Command("go", "build", "-o", binaryPath, "../../cmd/fluxo")
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

func runFluxo(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binaryPath, args...)
	cmd.Env = append(os.Environ(), "FLUXO_AMQP_URL=", "FLUXO_LOG_LEVEL=error")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func TestInit_CreatesStructure(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Padaria Fluxo")
	require.NoError(t, err)

	expectedDirs := []string{
		"hierarchy",
		"rules",
		"logs",
		"data",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range expectedDirs {
		info, err := os.Stat(filepath.Join(dir, d))
		require.NoError(t, err, "directory %s should exist", d)
		assert.True(t, info.IsDir(), "%s should be a directory", d)
	}

	_, err = os.Stat(filepath.Join(dir, "data", "fluxo.db"))
	require.NoError(t, err, "sqlite database should be created")
}

func TestInit_Config(t *testing.T) {
	dir := t.TempDir()
	out, err := runFluxo(t, "init", dir, "--name", "Padaria São João", "--cnpj", "98765432000110")
	require.NoError(t, err, out)
	assert.Contains(t, out, "company padaria-sao-joao")

	data, err := os.ReadFile(filepath.Join(dir, "fluxo.yaml"))
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "id: padaria-sao-joao")
	assert.Contains(t, contents, "cnpj: \"98765432000110\"")
	assert.Contains(t, contents, "type: sqlite")
}

func TestInit_CompanyIDFlag(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Padaria", "--company-id", "c-42")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "fluxo.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "id: c-42")
}

func TestInit_Hierarchy(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	h, err := hierarchy.Load(dir)
	require.NoError(t, err)
	def := hierarchy.Default()
	assert.Len(t, h.Types(), len(def.Types()))
	assert.Len(t, h.Commitments(), len(def.Commitments()))

	out, err := runFluxo(t, "--repo", dir, "hierarchy", "show")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Despesas Fixas")
	assert.Contains(t, out, "tarifas-bancarias")
}

func TestInit_Rules(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	rules, err := classify.LoadRules(dir)
	require.NoError(t, err)
	require.NotEmpty(t, rules)
	assert.Equal(t, "tarifa", rules[0].Contains)
	assert.Equal(t, "tarifas-bancarias", rules[0].CommitmentID)
}

func TestInit_Gitignore(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir, "--name", "Test Biz")
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	contents := string(data)

	for _, pattern := range []string{"data/", "exports/", "import/processed/", ".env"} {
		assert.Contains(t, contents, pattern, ".gitignore should contain %s", pattern)
	}
}

func TestInit_RequiresName(t *testing.T) {
	dir := t.TempDir()
	_, err := runFluxo(t, "init", dir)
	require.Error(t, err, "init without --name should fail")
}

func TestInit_InvalidBackend(t *testing.T) {
	dir := t.TempDir()
	out, err := runFluxo(t, "init", dir, "--name", "Test Biz", "--backend", "mysql")
	require.Error(t, err)
	assert.Contains(t, out, "invalid backend")
}
