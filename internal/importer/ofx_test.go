package importer

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fluxo-dev/fluxo/internal/model"
)

func TestOFXParserParse(t *testing.T) {
	f, err := os.Open("testdata/itau_checking.ofx")
	require.NoError(t, err)
	defer f.Close()

	stmt, err := (&OFXParser{}).Parse(f)
	require.NoError(t, err)

	assert.Equal(t, "0341", stmt.BankInfo.BankID)
	assert.Equal(t, "1234", stmt.BankInfo.BranchID)
	assert.Equal(t, "567890", stmt.BankInfo.AccountID)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), stmt.StartDate)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), stmt.EndDate)

	require.Len(t, stmt.Transactions, 4)

	first := stmt.Transactions[0]
	assert.Equal(t, "PIX RECEBIDO CLIENTE A", first.Description)
	assert.Equal(t, "1500.00", first.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionCredit, first.Direction)
	assert.Equal(t, "202501050001", first.FITID)
	assert.Equal(t, 5, first.Date.Day())

	rent := stmt.Transactions[1]
	assert.Equal(t, "800.00", rent.Amount.StringFixed(2))
	assert.Equal(t, model.DirectionDebit, rent.Direction)

	assert.Equal(t, "TARIFA - PACOTE SERVICOS", stmt.Transactions[2].Description)
	assert.Equal(t, "39.90", stmt.Transactions[2].Amount.StringFixed(2))
}

func TestOFXParserRejectsGarbage(t *testing.T) {
	_, err := (&OFXParser{}).Parse(strings.NewReader("Data,Valor\n01/01/2025,10\n"))
	assert.ErrorContains(t, err, "parsing OFX")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "memo", describe("", " memo "))
	assert.Equal(t, "NAME", describe("NAME", ""))
	assert.Equal(t, "SAME", describe("SAME", "same"))
	assert.Equal(t, "A - B", describe("A", "B"))
}
