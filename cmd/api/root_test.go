package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		port, storeDriver, autoMigrate = 0, "", false
	})
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	resetFlags(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "postgres")

	cfg := loadConfig()
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)

	port, storeDriver = 7000, "memory"
	cfg = loadConfig()
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "memory", cfg.Store)
}

func TestServeRejectsUnknownStore(t *testing.T) {
	resetFlags(t)
	storeDriver = "redis"

	err := runServe(serveCmd, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown store "redis"`)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["serve"])
	assert.True(t, names["migrate"])
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("store"))
}
