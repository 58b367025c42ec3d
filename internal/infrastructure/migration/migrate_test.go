package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/erp/reconciler/internal/domain/finance"
	"github.com/erp/reconciler/migrations"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readUpMigrations(t *testing.T) string {
	t.Helper()

	files, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	var all strings.Builder
	for _, name := range files {
		data, err := fs.ReadFile(migrations.FS, name)
		require.NoError(t, err)
		all.Write(data)
	}
	return all.String()
}

func TestEmbeddedMigrations_ArePaired(t *testing.T) {
	ups, err := fs.Glob(migrations.FS, "*.up.sql")
	require.NoError(t, err)

	for _, up := range ups {
		down := strings.TrimSuffix(up, ".up.sql") + ".down.sql"
		_, err := fs.Stat(migrations.FS, down)
		assert.NoError(t, err, "missing rollback for %s", up)
	}
}

func TestEmbeddedMigrations_ParseAsSource(t *testing.T) {
	source, err := iofs.New(migrations.FS, ".")
	require.NoError(t, err)
	defer source.Close()

	first, err := source.First()
	require.NoError(t, err)
	assert.Equal(t, uint(1), first)

	next, err := source.Next(first)
	require.NoError(t, err)
	assert.Equal(t, uint(2), next)
}

func TestEmbeddedMigrations_CoverDescriptorTables(t *testing.T) {
	schema := readUpMigrations(t)

	for _, desc := range finance.AllDescriptors() {
		for _, table := range []string{
			desc.DocumentTable,
			desc.InstallmentTable,
			desc.AllocationTable,
			desc.InstallmentAllocationTable,
			desc.CounterpartyTable,
		} {
			assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table+" (", table)
		}
		assert.Contains(t, schema, "REFERENCES "+desc.InstallmentTable+" (id) ON DELETE CASCADE")
	}
	assert.Contains(t, schema, "UNIQUE (origin_screen, origin_installment_id)")
}
