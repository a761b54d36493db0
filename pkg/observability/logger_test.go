package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"info", InfoLevel},
		{"warning", WarnLevel},
		{" warn ", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"bogus", InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLogLevel(tt.in))
		})
	}
}

func TestNewLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(WarnLevel, &buf, "text")

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf, "json")

	logger.WithField("module", "widgets").Info("discovered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "discovered", entry["msg"])
	assert.Equal(t, "widgets", entry["module"])
	assert.Equal(t, "info", entry["level"])
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(InfoLevel, &buf, "json")

	ctx := WithLogger(context.Background(), logger)
	ctx = WithRequestID(ctx, "req-1")

	assert.Same(t, logger, GetLogger(ctx))
	assert.Equal(t, "req-1", GetRequestID(ctx))

	FromContext(ctx).Info("hello")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "req-1", entry["request_id"])

	assert.Same(t, logrus.StandardLogger(), GetLogger(context.Background()))
	assert.Empty(t, GetRequestID(context.Background()))
}
