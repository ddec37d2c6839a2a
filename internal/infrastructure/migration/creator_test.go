package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add sales table", "add_sales_table"},
		{"Add-Sales-Table", "add_sales_table"},
		{"ADD__SALES__TABLE", "add_sales_table"},
		{"index sale date 2", "index_sale_date_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "special_chars"},
		{"_leading and trailing_", "leading_and_trailing"},
		{"vérifié", "v_rifi"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	dir := t.TempDir()

	first, err := CreateMigration(dir, "create sales")
	require.NoError(t, err)
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, filepath.Join(dir, "000001_create_sales.up.sql"), first.UpPath)
	assert.Equal(t, filepath.Join(dir, "000001_create_sales.down.sql"), first.DownPath)
	assert.FileExists(t, first.UpPath)
	assert.FileExists(t, first.DownPath)

	second, err := CreateMigration(dir, "Add Sale Notes")
	require.NoError(t, err)
	assert.Equal(t, 2, second.Version)
	assert.Equal(t, "add_sale_notes", second.Name)

	t.Run("creates missing directory", func(t *testing.T) {
		nested := filepath.Join(t.TempDir(), "a", "b")
		mf, err := CreateMigration(nested, "init")
		require.NoError(t, err)
		assert.Equal(t, 1, mf.Version)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := CreateMigration(dir, "!!!")
		assert.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000010_tenth.up.sql", "000010_tenth.down.sql",
		"000002_second.up.sql", "000002_second.down.sql",
		"README.md",
		"draft.up.sql",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "000003_dir.up.sql"), 0o755))

	names, err := ListMigrations(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"000002_second", "000010_tenth"}, names)

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(dir, "nope"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestEmbeddedMigrationsAreListed(t *testing.T) {
	for _, driver := range []string{"postgres", "sqlite"} {
		names, err := ListMigrations(filepath.Join("..", "..", "..", "migrations", driver))
		require.NoError(t, err)
		assert.Contains(t, names, "000001_create_sales_schema", driver)
	}
}
