package importer_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/txsync/internal/importer"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()

	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o600))
	}
}

func TestLatestExport(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"20250610_bbva_cuentas_personales.csv",
		"20250611_091000_bbva_cuentas_personales.csv",
		"20250611_173908_bbva_cuentas_personales.csv",
		"20250612_bbva_virtual_card.csv",
		"latest_bbva_cuentas_personales.csv",
		"20250701_bbva_cuentas_personales.txt",
	)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "20250801_cuentas_personales.csv"), 0o700))

	got, err := importer.LatestExport(dir, "CUENTAS_PERSONALES")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250611_173908_bbva_cuentas_personales.csv"), got)

	got, err = importer.LatestExport(dir, "virtual_card")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20250612_bbva_virtual_card.csv"), got)

	_, err = importer.LatestExport(dir, "santander")
	assert.ErrorIs(t, err, importer.ErrNoExport)

	_, err = importer.LatestExport(filepath.Join(dir, "missing"), "bbva")
	assert.Error(t, err)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")

	require.NoError(t, os.WriteFile(path, []byte(`sources:
  - name: bbva-personal
    match: bbva_cuentas_personales
    format: bbva
    account_id: 3
    bank_id: 1
  - name: ruralvia-card
    match: tarjeta_virtual
    account_id: 5
    bank_id: 2
`), 0o600))

	m, err := importer.LoadManifest(path)
	require.NoError(t, err)
	require.Len(t, m.Sources, 2)
	assert.Equal(t, importer.Source{
		Name: "bbva-personal", Match: "bbva_cuentas_personales", Format: "bbva", AccountID: 3, BankID: 1,
	}, m.Sources[0])
	assert.Empty(t, m.Sources[1].Format)
}

func TestManifest_Validate(t *testing.T) {
	m := importer.Manifest{Sources: []importer.Source{
		{Name: "a", Match: "x", Format: "nope", AccountID: 1, BankID: 1},
		{Name: "a", Match: "", AccountID: 1, BankID: 1},
		{Name: "", Match: "y"},
	}}

	err := m.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, importer.ErrUnknownFormat)
	assert.Contains(t, err.Error(), `source "a": duplicate name`)
	assert.Contains(t, err.Error(), `source "a": match is required`)
	assert.Contains(t, err.Error(), "source 2: name is required")
}
