package db

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPoolRejectsBadSettings(t *testing.T) {
	ctx := context.Background()

	_, err := NewPool(ctx, "", PoolOptions{})
	assert.EqualError(t, err, "database URL not set")

	_, err = NewPool(ctx, "postgres://localhost:5432/ledger", PoolOptions{QueryLogLevel: "loud"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query log level")
}

func TestQueryLoggerForwardsToZerolog(t *testing.T) {
	var buf bytes.Buffer
	l := queryLogger(zerolog.New(&buf))

	l.Log(context.Background(), tracelog.LogLevelWarn, "Query", map[string]any{"sql": "SELECT 1", "rows": 1})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Query", entry["message"])
	assert.Equal(t, "SELECT 1", entry["sql"])
}
