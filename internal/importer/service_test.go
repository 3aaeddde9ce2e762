package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
	"github.com/MrJamesThe3rd/txsync/internal/transaction/memstore"
)

const ruralviaExport = `Fecha Ejecución;Descripcion;Importe;Saldo
01/03/2024;RECIBO LUZ;-60,10;940,00
02/03/2024;BAD AMOUNT;abc;939,00
03/03/2024;NOMINA;1.500,00;2.440,00
`

func newImporter(t *testing.T) (*importer.Service, *memstore.Store) {
	t.Helper()

	store := memstore.New()
	store.AddBank(1, "U1")
	store.AddAccount(transaction.Account{ID: 3, BankID: 1})
	store.AddAccount(transaction.Account{ID: 5, BankID: 1, Type: transaction.AccountTypeVirtual})

	svc := ingest.NewService(store, ingest.Config{CategoryID: 1, SubcategoryID: 1})

	return importer.NewService(svc, "U1", nil), store
}

func TestService_Import(t *testing.T) {
	svc, store := newImporter(t)
	target := importer.Target{Format: importer.FormatAuto, AccountID: 3, BankID: 1}

	report, err := svc.Import(context.Background(), strings.NewReader(ruralviaExport), target)
	require.NoError(t, err)
	assert.Equal(t, "ruralvia", report.Profile)
	assert.Equal(t, ingest.Summary{Attempted: 3, Inserted: 2, Malformed: 1}, report.Summary)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, 3, report.Rejected[0].Line)

	again, err := svc.Import(context.Background(), strings.NewReader(ruralviaExport), target)
	require.NoError(t, err)
	assert.Equal(t, ingest.Summary{Attempted: 3, Skipped: 2, Malformed: 1}, again.Summary)

	assert.Len(t, store.Transactions(), 2)
	assert.Len(t, store.Categories(), 2)
}

func TestService_ImportAccountErrors(t *testing.T) {
	svc, store := newImporter(t)

	_, err := svc.Import(context.Background(), strings.NewReader(ruralviaExport),
		importer.Target{AccountID: 3, BankID: 2})
	assert.ErrorIs(t, err, transaction.ErrAccountBankMismatch)

	_, err = svc.Import(context.Background(), strings.NewReader(ruralviaExport),
		importer.Target{AccountID: 99, BankID: 1})
	assert.ErrorIs(t, err, transaction.ErrAccountNotFound)

	assert.Empty(t, store.Transactions())
}

func TestService_ImportParseError(t *testing.T) {
	svc, _ := newImporter(t)

	_, err := svc.Import(context.Background(), strings.NewReader("nothing;useful\n"),
		importer.Target{Format: "caixa", AccountID: 3, BankID: 1})
	assert.ErrorIs(t, err, importer.ErrNoProfile)
}

func TestService_Sync(t *testing.T) {
	svc, store := newImporter(t)
	dir := t.TempDir()

	write := func(name, content string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}

	// The older export must be ignored.
	write("20240301_ruralvia_ahorro_menores.csv", "garbage")
	write("20240305_ruralvia_ahorro_menores.csv", ruralviaExport)
	write("20240305_ruralvia_tarjeta_virtual.csv", `Fecha del movimiento;Concepto;Importe;Comercio
05/03/2024;COMPRA;-12,00;AMAZON
`)

	manifest := &importer.Manifest{Sources: []importer.Source{
		{Name: "ruralvia-account", Match: "ahorro_menores", Format: "ruralvia", AccountID: 3, BankID: 1},
		{Name: "ruralvia-card", Match: "tarjeta_virtual", AccountID: 5, BankID: 1},
		{Name: "santander", Match: "santander", AccountID: 3, BankID: 1},
	}}

	reports, err := svc.Sync(context.Background(), manifest, dir)
	require.NoError(t, err)
	require.Len(t, reports, 2)

	assert.Equal(t, "ruralvia-account", reports[0].Source)
	assert.Equal(t, filepath.Join(dir, "20240305_ruralvia_ahorro_menores.csv"), reports[0].File)
	assert.Equal(t, 2, reports[0].Summary.Inserted)

	assert.Equal(t, "ruralvia-card", reports[1].Source)
	assert.Equal(t, "ruralvia-virtual", reports[1].Profile)
	assert.Equal(t, 1, reports[1].Summary.Inserted)

	assert.Len(t, store.Transactions(), 3)
}

func TestService_SyncContinuesPastFailingSource(t *testing.T) {
	svc, store := newImporter(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240305_broken.csv"), []byte("x;y\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "20240305_ruralvia.csv"), []byte(ruralviaExport), 0o600))

	manifest := &importer.Manifest{Sources: []importer.Source{
		{Name: "broken", Match: "broken", AccountID: 3, BankID: 1},
		{Name: "ruralvia", Match: "ruralvia", AccountID: 3, BankID: 1},
	}}

	reports, err := svc.Sync(context.Background(), manifest, dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrNoProfile)
	assert.Contains(t, err.Error(), "source broken")

	require.Len(t, reports, 1)
	assert.Equal(t, "ruralvia", reports[0].Source)
	assert.Len(t, store.Transactions(), 2)
}
