package logging

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWithPath(t *testing.T) {
	t.Run("ConsoleOnly", func(t *testing.T) {
		result := NewLoggerWithPath(Config{Level: "info", Format: FormatConsole, Output: OutputStderr})

		assert.False(t, result.UsingFile)
		assert.False(t, result.FallbackUsed)
		assert.NoError(t, result.Close())
	})

	t.Run("FileOutput", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "trialstat.log")
		result := NewLoggerWithPath(Config{Level: "debug", Format: FormatJSON, Output: OutputFile, File: logPath})

		require.True(t, result.UsingFile)
		assert.Equal(t, logPath, result.FilePath)

		result.Logger.Info().Str("component", "test").Msg("file logging works")
		require.NoError(t, result.Close())

		data, err := os.ReadFile(logPath)
		require.NoError(t, err)
		assert.Contains(t, string(data), "file logging works")
		assert.Contains(t, string(data), `"component":"test"`)
	})

	t.Run("FallbackOnUnwritablePath", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "missing", "nested", "trialstat.log")
		result := NewLoggerWithPath(Config{Level: "info", Format: FormatJSON, Output: OutputFile, File: logPath})

		assert.False(t, result.UsingFile)
		assert.True(t, result.FallbackUsed)
		assert.NotEmpty(t, result.FallbackReason)
		assert.NoError(t, result.Close())
	})

	t.Run("CloseIsIdempotent", func(t *testing.T) {
		logPath := filepath.Join(t.TempDir(), "trialstat.log")
		result := NewLoggerWithPath(Config{Level: "info", Output: OutputFile, File: logPath})

		require.NoError(t, result.Close())
		assert.NoError(t, result.Close())
	})
}

func TestComponentLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	comp := ComponentLogger(logger, "ingest")
	comp.Info().Msg("loading tables")

	assert.Contains(t, buf.String(), `"component":"ingest"`)
	assert.Contains(t, buf.String(), "loading tables")
}

func TestFromContext(t *testing.T) {
	t.Run("RoundTrip", func(t *testing.T) {
		var buf bytes.Buffer
		logger := zerolog.New(&buf)

		ctx := WithContext(context.Background(), logger)
		fromCtx := FromContext(ctx)
		fromCtx.Info().Msg("carried on context")

		assert.Contains(t, buf.String(), "carried on context")
	})

	t.Run("MissingLoggerIsDisabled", func(t *testing.T) {
		logger := FromContext(context.Background())

		// Must not panic; the disabled logger swallows the event.
		logger.Info().Msg("dropped")
		assert.Equal(t, zerolog.Disabled, logger.GetLevel())
	})
}

func TestRunID(t *testing.T) {
	t.Run("NewRunIDIsULID", func(t *testing.T) {
		id := NewRunID()
		assert.Len(t, id, 26)
	})

	t.Run("GetOrGenerateReusesExisting", func(t *testing.T) {
		ctx := ContextWithRunID(context.Background(), "01ARZ3NDEKTSV4RRFFQ69G5FAV")
		assert.Equal(t, "01ARZ3NDEKTSV4RRFFQ69G5FAV", GetOrGenerateRunID(ctx))
	})

	t.Run("GetOrGenerateCreatesWhenMissing", func(t *testing.T) {
		id := GetOrGenerateRunID(context.Background())
		assert.Len(t, id, 26)
	})
}

func TestLevelParsing(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  zerolog.Level
	}{
		{name: "Debug", level: "debug", want: zerolog.DebugLevel},
		{name: "Warn", level: "warn", want: zerolog.WarnLevel},
		{name: "InvalidDefaultsToInfo", level: "loud", want: zerolog.InfoLevel},
		{name: "EmptyDefaultsToInfo", level: "", want: zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(Config{Level: tt.level, Format: FormatJSON})
			assert.Equal(t, tt.want, logger.GetLevel())
		})
	}
}
