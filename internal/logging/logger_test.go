package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quillcms/quill/internal/config"
)

func testLoggingConfig(dir string) config.LoggingConfig {
	cfg := config.DefaultLoggingConfig()
	cfg.Dir = dir
	cfg.Console.Enabled = false
	return cfg
}

func TestNewLoggerWritesFiles(t *testing.T) {
	dir := t.TempDir()
	logger, err := NewLogger(testLoggingConfig(dir))
	require.NoError(t, err)

	logger.Info("hello", "key", "value")
	logger.Error("boom")
	require.NoError(t, Shutdown())

	mainLog, err := os.ReadFile(filepath.Join(dir, "quill.log"))
	require.NoError(t, err)
	assert.Contains(t, string(mainLog), "hello")
	assert.Contains(t, string(mainLog), "boom")

	errorLog, err := os.ReadFile(filepath.Join(dir, "errors.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(errorLog), "hello")
	assert.Contains(t, string(errorLog), "boom")
}

func TestNewLoggerJSONFormat(t *testing.T) {
	dir := t.TempDir()
	cfg := testLoggingConfig(dir)
	cfg.File.Format = "json"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("structured")
	require.NoError(t, Shutdown())

	data, err := os.ReadFile(filepath.Join(dir, "quill.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"structured"`)
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	dir := t.TempDir()
	cfg := testLoggingConfig(dir)
	cfg.File.Level = "warn"

	logger, err := NewLogger(cfg)
	require.NoError(t, err)

	logger.Info("quiet")
	logger.Warn("loud")
	require.NoError(t, Shutdown())

	data, err := os.ReadFile(filepath.Join(dir, "quill.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "quiet")
	assert.Contains(t, string(data), "loud")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("debug"))
	assert.Equal(t, slog.LevelInfo, parseLevel("info"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel("bogus"))
}

func TestMultiHandlerFansOut(t *testing.T) {
	var a, b bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	)

	logger := slog.New(h)
	logger.Info("both")

	assert.Contains(t, a.String(), "both")
	assert.Contains(t, b.String(), "both")
}

func TestMultiHandlerEnabled(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelError}),
		slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}),
	)

	assert.True(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, h.Enabled(context.Background(), slog.LevelDebug))
}

func TestLevelFilterDropsBelowMin(t *testing.T) {
	var buf bytes.Buffer
	h := NewLevelFilter(slog.NewTextHandler(&buf, nil), slog.LevelWarn)

	logger := slog.New(h)
	logger.Info("dropped")
	logger.Warn("kept")

	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "kept")
}

func TestLevelFilterWithAttrs(t *testing.T) {
	var buf bytes.Buffer
	h := NewLevelFilter(slog.NewTextHandler(&buf, nil), slog.LevelInfo)

	logger := slog.New(h.WithAttrs([]slog.Attr{slog.String("component", "rules")}))
	logger.Info("tagged")

	assert.Contains(t, buf.String(), "component=rules")
}
