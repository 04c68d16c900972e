package migrations

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedPostgresMigrations(t *testing.T) {
	entries, err := fs.ReadDir(postgresFS, "postgres")
	require.NoError(t, err)

	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Contains(t, names, "000001_create_anpr_events.up.sql")
	assert.Contains(t, names, "000001_create_anpr_events.down.sql")

	up, err := fs.ReadFile(postgresFS, "postgres/000001_create_anpr_events.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "CREATE TABLE IF NOT EXISTS anpr_events")
}

func TestEventIndexes(t *testing.T) {
	idx := EventIndexes("anpr_events")
	require.Len(t, idx, 3)
	assert.Equal(t, "idx_anpr_events_received_at", *idx[1].Options.Name)
}
