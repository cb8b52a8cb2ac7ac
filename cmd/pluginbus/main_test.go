package main

import (
	"context"
	"testing"

	"github.com/aescanero/pluginbus/internal/config"
	"github.com/aescanero/pluginbus/pkg/adapters/journal/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLogger(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"info":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"unknown": zapcore.InfoLevel,
	}

	for level, want := range tests {
		t.Run(level, func(t *testing.T) {
			logger := initLogger(level)
			assert.True(t, logger.Core().Enabled(want))
			if want > zapcore.DebugLevel {
				assert.False(t, logger.Core().Enabled(want-1))
			}
		})
	}
}

func TestInitJournal(t *testing.T) {
	ctx := context.Background()
	logger := zap.NewNop()

	journal, client, err := initJournal(ctx, &config.Config{Journal: config.JournalConfig{Backend: config.JournalNone}}, logger)
	require.NoError(t, err)
	assert.Nil(t, journal)
	assert.Nil(t, client)

	journal, client, err = initJournal(ctx, &config.Config{Journal: config.JournalConfig{Backend: config.JournalMemory, MaxLen: 5}}, logger)
	require.NoError(t, err)
	assert.IsType(t, &memory.Journal{}, journal)
	assert.Nil(t, client)

	_, _, err = initJournal(ctx, &config.Config{Journal: config.JournalConfig{Backend: "kafka"}}, logger)
	assert.Error(t, err)
}
