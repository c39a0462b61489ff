package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
		enabled    zapcore.Level
		disabled   zapcore.Level
	}{
		{
			name:       "JSON output, default verbosity",
			jsonOutput: true,
			verbosity:  0,
			enabled:    zapcore.WarnLevel,
			disabled:   zapcore.InfoLevel,
		},
		{
			name:       "Console output, -v",
			jsonOutput: false,
			verbosity:  1,
			enabled:    zapcore.InfoLevel,
			disabled:   zapcore.DebugLevel,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Initialize(tt.jsonOutput, tt.verbosity)
			require.NoError(t, err)
			defer Cleanup()

			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)

			core := Logger.Desugar().Core()
			assert.True(t, core.Enabled(tt.enabled))
			assert.False(t, core.Enabled(tt.disabled))
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, VerbosityToLevel(0))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(1))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(2))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(7))
}

func TestShouldOutput(t *testing.T) {
	assert.True(t, ShouldOutput(VerbosityUser, OutputSummary))
	assert.False(t, ShouldOutput(VerbosityUser, OutputStages))
	assert.True(t, ShouldOutput(VerbosityInfo, OutputDirty))
	assert.False(t, ShouldOutput(VerbosityInfo, OutputTiming))
	assert.True(t, ShouldOutput(VerbosityTrace, OutputSQL))
	assert.False(t, ShouldOutput(VerbosityDebug, OutputCategory(99)))
}

func TestFieldsFromContext(t *testing.T) {
	ctx := WithRunID(context.Background(), "run-1")
	ctx = WithComponent(ctx, "generator")

	fields := FieldsFromContext(ctx)
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "generator"}, fields)

	assert.Empty(t, FieldsFromContext(context.Background()))
}
