package persistence

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ispdesk/ops-console/migrations"
)

func TestPendingMigrations(t *testing.T) {
	files := fstest.MapFS{
		"002_more.sql": {Data: []byte("SELECT 2")},
		"001_init.sql": {Data: []byte("SELECT 1")},
		"README.md":    {Data: []byte("notes")},
		"embed.go":     {Data: []byte("package migrations")},
	}

	pending, err := PendingMigrations(files, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"001_init.sql", "002_more.sql"}, pending)

	pending, err = PendingMigrations(files, map[string]bool{"001_init.sql": true})
	require.NoError(t, err)
	assert.Equal(t, []string{"002_more.sql"}, pending)
}

func TestEmbeddedSchemaIsPending(t *testing.T) {
	pending, err := PendingMigrations(migrations.FS, nil)
	require.NoError(t, err)
	assert.Contains(t, pending, "001_init.sql")
}
