package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerRenamesKeysAndRedacts(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Service: "auctiond", Env: "test", Level: "debug"})

	logger.Debug("audit connected", slog.String("audit_dsn", "postgres://user:pw@db/audit"), slog.Uint64("lot", 7))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "DEBUG", line["severity"])
	require.Equal(t, "audit connected", line["message"])
	require.Contains(t, line, "timestamp")
	require.Equal(t, "auctiond", line["service"])
	require.Equal(t, "test", line["env"])
	require.Equal(t, RedactedValue, line["audit_dsn"])
	require.EqualValues(t, 7, line["lot"])
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, Options{Service: "auctiond", Level: "warn"})
	logger.Info("dropped")
	require.Zero(t, buf.Len())
	logger.Warn("kept")
	require.NotZero(t, buf.Len())
}

func TestMaskField(t *testing.T) {
	require.Equal(t, RedactedValue, MaskField("JWTSecret", "abc").Value.String())
	require.Equal(t, "", MaskField("redis_password", "").Value.String())
	require.Equal(t, "0xabc", MaskField("bidder", "0xabc").Value.String())
}
