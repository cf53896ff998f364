package commands_test

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	out, err := runFluxo(t, "init", dir, "--name", "Padaria Fluxo", "--cnpj", "98765432000110")
	require.NoError(t, err, out)
	return dir
}

func copyFixture(t *testing.T, name, dst string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}

func TestImportOFXAndCashFlow(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "--repo", dir, "import", "ofx", filepath.Join("testdata", "itau_checking.ofx"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "bank 0341-1234-567890, 4 transactions, 4 new, 0 duplicates, 2 classified")

	out, err = runFluxo(t, "--repo", dir, "import", "ofx", filepath.Join("testdata", "itau_checking.ofx"))
	require.NoError(t, err, out)
	assert.Contains(t, out, "0 new, 4 duplicates")

	out, err = runFluxo(t, "--repo", dir, "cashflow", "--month", "2025-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "1500.00")
	assert.Contains(t, out, "1089.90")
	assert.Contains(t, out, "410.10")

	xlsx := filepath.Join(dir, "exports", "caixa.xlsx")
	out, err = runFluxo(t, "--repo", dir, "cashflow", "--month", "2025-01", "--xlsx", xlsx)
	require.NoError(t, err, out)

	f, err := excelize.OpenFile(xlsx)
	require.NoError(t, err)
	defer f.Close()
	sheets := f.GetSheetList()
	require.Len(t, sheets, 2)
	assert.Equal(t, "Consolidado", sheets[0])
}

func TestImportScan(t *testing.T) {
	dir := newProject(t)
	copyFixture(t, "itau_checking.ofx", filepath.Join(dir, "import", "extrato.ofx"))
	copyFixture(t, "nfe_compra.xml", filepath.Join(dir, "import", "nota.xml"))

	out, err := runFluxo(t, "--repo", dir, "import", "scan")
	require.NoError(t, err, out)
	assert.Contains(t, out, "extrato.ofx: bank 0341-1234-567890")
	assert.Contains(t, out, "nota.xml: NF-e")
	assert.Contains(t, out, "2 future entries")

	for _, name := range []string{"extrato.ofx", "nota.xml"} {
		_, err := os.Stat(filepath.Join(dir, "import", "processed", name))
		assert.NoError(t, err, "%s should be moved to processed/", name)
	}

	out, err = runFluxo(t, "--repo", dir, "import", "scan")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Nothing to import.")

	out, err = runFluxo(t, "--repo", dir, "future", "list", "--month", "2025-02")
	require.NoError(t, err, out)
	assert.Contains(t, out, "450.00")
	assert.Contains(t, out, "nfe")
}

var entryID = regexp.MustCompile(`\(([0-9a-f-]{36})\)`)

func TestFutureLifecycle(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "--repo", dir, "future", "add",
		"--due", "2025-02-05", "--amount", "2500.00", "--type", "payable",
		"--description", "Aluguel fevereiro", "--commitment", "aluguel")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added payable 2500.00 Aluguel fevereiro due 2025-02-05")
	m := entryID.FindStringSubmatch(out)
	require.Len(t, m, 2, out)
	id := m[1]

	out, err = runFluxo(t, "--repo", dir, "cashflow", "--month", "2025-02")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2500.00")

	out, err = runFluxo(t, "--repo", dir, "future", "update", id, "--amount", "2600")
	require.NoError(t, err, out)

	out, err = runFluxo(t, "--repo", dir, "future", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "2600.00")
	assert.Contains(t, out, "pending")

	out, err = runFluxo(t, "--repo", dir, "future", "settle", id)
	require.NoError(t, err, out)
	assert.Contains(t, out, id+" is now settled")

	out, err = runFluxo(t, "--repo", dir, "future", "update", id, "--amount", "10")
	require.Error(t, err)

	out, err = runFluxo(t, "--repo", dir, "future", "delete", id)
	require.Error(t, err, "settled entries cannot be deleted")

	out, err = runFluxo(t, "--repo", dir, "future", "list", "--status", "pending")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No future entries.")
}

func TestFutureAddInvalid(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "--repo", dir, "future", "add",
		"--due", "2025-02-05", "--amount", "-5", "--type", "payable", "--description", "x")
	require.Error(t, err)
	assert.Contains(t, out, "amount")
}

func TestDRE(t *testing.T) {
	dir := newProject(t)
	out, err := runFluxo(t, "--repo", dir, "import", "ofx", filepath.Join("testdata", "itau_checking.ofx"))
	require.NoError(t, err, out)

	out, err = runFluxo(t, "--repo", dir, "dre", "--year", "2025")
	require.NoError(t, err, out)
	assert.Contains(t, out, "DRE 2025")
	assert.Contains(t, out, "Aluguel")
	assert.Contains(t, out, "Tarifas Bancárias")

	xlsx := filepath.Join(dir, "exports", "dre.xlsx")
	out, err = runFluxo(t, "--repo", dir, "dre", "--year", "2025", "--xlsx", xlsx)
	require.NoError(t, err, out)
	_, err = os.Stat(xlsx)
	require.NoError(t, err)
}

func TestDRELines(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "--repo", dir, "dre", "lines", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "No DRE lines configured")

	out, err = runFluxo(t, "--repo", dir, "dre", "lines", "add", "--label", "Receita", "--type", "receitas")
	require.NoError(t, err, out)
	assert.Contains(t, out, "at position 1")

	out, err = runFluxo(t, "--repo", dir, "dre", "lines", "add", "--label", "Resultado", "--kind", "subtotal")
	require.NoError(t, err, out)
	assert.Contains(t, out, "at position 2")

	out, err = runFluxo(t, "--repo", dir, "dre", "lines", "add", "--label", "X", "--type", "nope")
	require.Error(t, err)

	out, err = runFluxo(t, "--repo", dir, "dre", "lines", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Receita")
	assert.Contains(t, out, "subtotal")
}

func TestRules(t *testing.T) {
	dir := newProject(t)

	out, err := runFluxo(t, "--repo", dir, "rules", "list")
	require.NoError(t, err, out)
	assert.Contains(t, out, "tarifa")

	out, err = runFluxo(t, "--repo", dir, "rules", "add", "posto", "--commitment", "nope")
	require.Error(t, err)
	assert.Contains(t, out, "unknown commitment")

	out, err = runFluxo(t, "--repo", dir, "import", "ofx", filepath.Join("testdata", "itau_checking.ofx"))
	require.NoError(t, err, out)

	out, err = runFluxo(t, "--repo", dir, "rules", "add", "posto", "--group", "administrativo")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Added rule \"posto\"")

	out, err = runFluxo(t, "--repo", dir, "rules", "apply", "--month", "2025-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Classified 1 of 4 transactions")

	out, err = runFluxo(t, "--repo", dir, "rules", "apply")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Classified 0 of 4 transactions")
}

func TestReports(t *testing.T) {
	dir := newProject(t)
	out, err := runFluxo(t, "--repo", dir, "import", "ofx", filepath.Join("testdata", "itau_checking.ofx"))
	require.NoError(t, err, out)

	out, err = runFluxo(t, "--repo", dir, "indicators", "--month", "2025-01")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Receitas")
	assert.Contains(t, out, "Resultado")

	out, err = runFluxo(t, "--repo", dir, "margins", "--year", "2025")
	require.NoError(t, err, out)

	out, err = runFluxo(t, "--repo", dir, "teamcost", "--year", "2025")
	require.NoError(t, err, out)
}

func TestWatchRequiresBroker(t *testing.T) {
	dir := newProject(t)
	out, err := runFluxo(t, "--repo", dir, "watch")
	require.Error(t, err)
	assert.Contains(t, out, "amqp_url")
}

func TestHierarchySync(t *testing.T) {
	dir := newProject(t)
	out, err := runFluxo(t, "--repo", dir, "hierarchy", "sync")
	require.NoError(t, err, out)
	assert.Contains(t, out, "Synced 4 types, 8 groups, 12 commitments")
}
