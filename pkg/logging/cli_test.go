package logging

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{" info ", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	} {
		assert.Equal(t, tc.want, ParseLogLevel(tc.in), tc.in)
	}
}

func TestCLIHandler(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewCLIHandler(&sb, slog.LevelInfo))

	log.Info("imported", "count", 3)
	out := sb.String()
	assert.Contains(t, out, "imported")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, colorGreen)
}

func TestCLIHandler_LevelColors(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewCLIHandler(&sb, slog.LevelDebug))

	log.Warn("careful")
	assert.Contains(t, sb.String(), colorYellow)

	sb.Reset()
	log.Error("broken")
	assert.Contains(t, sb.String(), colorRed)
}

func TestCLIHandler_LevelFilter(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewCLIHandler(&sb, slog.LevelWarn))

	log.Info("quiet")
	assert.Empty(t, sb.String())

	log.Warn("loud")
	assert.Contains(t, sb.String(), "loud")
}

func TestCLIHandler_WithAttrs(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewCLIHandler(&sb, slog.LevelInfo)).With("cmd", "train")

	log.Info("done", "samples", 12)
	out := sb.String()
	assert.Contains(t, out, "cmd=train")
	assert.Contains(t, out, "samples=12")
}

func TestCLIHandler_WithGroup(t *testing.T) {
	var sb strings.Builder
	log := slog.New(NewCLIHandler(&sb, slog.LevelInfo)).WithGroup("ingest")

	log.Info("parsed")
	assert.Contains(t, sb.String(), "[ingest] parsed")
}

func TestNewCLILogger(t *testing.T) {
	ctx := context.Background()

	log := NewCLILogger("debug")
	require.NotNil(t, log)
	assert.True(t, log.Enabled(ctx, slog.LevelDebug))

	log = NewCLILogger("error")
	assert.False(t, log.Enabled(ctx, slog.LevelInfo))
}
