package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw     string
		want    zapcore.Level
		wantErr bool
	}{
		{raw: "debug", want: zapcore.DebugLevel},
		{raw: "INFO", want: zapcore.InfoLevel},
		{raw: " warn ", want: zapcore.WarnLevel},
		{raw: "error", want: zapcore.ErrorLevel},
		{raw: "loud", want: zapcore.InfoLevel, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLevel(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSetLoggerCapturesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	SetLogger(zap.New(core))
	t.Cleanup(func() { SetLogger(nil) })

	Info("split report", zap.Int("blocks", 3))
	Warn("skipped block", zap.String("block", "Q3.txt"))

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "split report", entries[0].Message)
	assert.Equal(t, int64(3), entries[0].ContextMap()["blocks"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestDefaultLoggerIsSafe(t *testing.T) {
	SetLogger(nil)
	assert.NotPanics(t, func() {
		Debug("nothing to see")
		_ = Sync()
	})
}
