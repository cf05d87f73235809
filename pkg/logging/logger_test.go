package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/agentstation/sightline/pkg/logging"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"":        zerolog.InfoLevel,
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"off":     zerolog.Disabled,
		"loud":    zerolog.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, logging.ParseLevel(in), in)
	}
}

func TestNew_Levels(t *testing.T) {
	original := zerolog.GlobalLevel()
	t.Cleanup(func() { zerolog.SetGlobalLevel(original) })

	var buf bytes.Buffer
	logger := logging.New(logging.Config{Level: "warn", Format: "json", Output: "discard"}).Output(&buf)
	logger.Info().Msg("hidden")
	logger.Warn().Msg("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"level":"warn"`)
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())
}

func TestDefaultLogger(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)

	logging.Info().Str("run_id", "r1").Msg("captured")
	logging.Warn().Msg("careful")
	logging.Debug().Msg("detail")

	tl.AssertContains(t, "captured")
	tl.AssertContains(t, `"run_id":"r1"`)
	assert.Len(t, tl.Lines(), 3)
}

func TestDisableLoggingForTest(t *testing.T) {
	logging.DisableLoggingForTest(t)
	assert.Equal(t, zerolog.Disabled, logging.Default().GetLevel())
}

func TestContextLogger(t *testing.T) {
	tl := logging.NewTestLogger(t)

	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithSourceFile(ctx, "sccm.csv")
	ctx = logging.WithMachine(ctx, "pc01")
	logging.FromContext(ctx).Info().Msg("normalized")

	assert.True(t, tl.ContainsAll(`"source_file":"sccm.csv"`, `"machine":"pc01"`, "normalized"))
	tl.AssertNotContains(t, "run_id")

	tl.Reset()
	assert.Empty(t, tl.Lines())
}
