package bootstrap

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plategate/internal/config"
	"plategate/internal/logger"
)

func TestPostgresDSN(t *testing.T) {
	dsn := PostgresDSN(config.PostgresConfig{
		Host: "db", Port: 5432, User: "ingest", Password: "secret", DBName: "anpr",
	})
	assert.Equal(t, "postgres://ingest:secret@db:5432/anpr?sslmode=disable", dsn)

	dsn = PostgresDSN(config.PostgresConfig{
		Host: "db", Port: 5432, User: "u", Password: "p", DBName: "d", SSLMode: "require",
	})
	assert.Equal(t, "postgres://u:p@db:5432/d?sslmode=require", dsn)
}

func TestBase_ShutdownReverseOrder(t *testing.T) {
	b := NewBase(&config.Config{}, logger.NopLogger())

	var order []string
	b.OnShutdown("first", func(ctx context.Context) error {
		order = append(order, "first")
		return nil
	})
	b.OnShutdown("second", func(ctx context.Context) error {
		order = append(order, "second")
		return errors.New("boom")
	})

	err := b.Shutdown(context.Background(), func(ctx context.Context) []error {
		order = append(order, "additional")
		return nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "second close error: boom")
	assert.Equal(t, []string{"additional", "second", "first"}, order)
}

func TestDatabaseConnector_PrepareMongoDBSkipped(t *testing.T) {
	dc := NewDatabaseConnector(&config.Config{}, logger.NopLogger())
	assert.NoError(t, dc.PrepareMongoDB(context.Background()))
}
