package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands(t *testing.T) {
	app := newApp()

	names := make([]string, 0, len(app.Commands))
	for _, cmd := range app.Commands {
		names = append(names, cmd.Name)
	}
	assert.Equal(t, []string{"sync", "count", "bestsellers", "health", "usage"}, names)
}

func TestMissingConfig(t *testing.T) {
	for _, cmd := range []string{"sync", "count", "bestsellers", "health", "usage"} {
		t.Run(cmd, func(t *testing.T) {
			app := newApp()
			app.Writer = &bytes.Buffer{}

			err := app.Run([]string{"perfunctl", "--env", "does-not-exist", cmd})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "failed to read config")
		})
	}
}

func TestSyncFlags(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"perfunctl", "--env", "does-not-exist", "sync", "--batch-size", "notanumber"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-size")
}

func TestUsageBadPeriod(t *testing.T) {
	app := newApp()
	app.Writer = &bytes.Buffer{}

	err := app.Run([]string{"perfunctl", "usage", "--period", "week"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown period")
}
