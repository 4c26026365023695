package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("MAILER", "log")
	t.Setenv("MAILER_DELAY", "0s")
	t.Setenv("LOG_LEVEL", "error")

	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAppsListsSeededCatalog(t *testing.T) {
	out, err := run(t, "apps")
	require.NoError(t, err)
	assert.Contains(t, out, "Clip Stash")
	assert.Contains(t, out, "PixelForge Studio")

	out, err = run(t, "apps", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "Clip Stash")
	assert.NotContains(t, out, "Night Owl Games")

	_, err = run(t, "apps", "--status", "archived")
	assert.ErrorContains(t, err, "unknown status")
}

func TestDecisionCommands(t *testing.T) {
	out, err := run(t, "approve", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Clip Stash")
	assert.Contains(t, out, "approved")

	out, err = run(t, "reject", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "rejected")

	_, err = run(t, "approve", "404")
	assert.Error(t, err)

	_, err = run(t, "approve")
	assert.Error(t, err)
}

func TestTierCommand(t *testing.T) {
	out, err := run(t, "tier", "1", "premium")
	require.NoError(t, err)
	assert.Contains(t, out, "PixelForge Studio is now premium")

	_, err = run(t, "tier", "1", "gold")
	assert.Error(t, err)
}

func TestResetNeedsConfirmation(t *testing.T) {
	_, err := run(t, "reset")
	assert.ErrorContains(t, err, "--yes")

	out, err := run(t, "reset", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "store reset")
}

func TestStats(t *testing.T) {
	out, err := run(t, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "pending")
	assert.Contains(t, out, "Calm Tools")
	assert.Contains(t, out, "Night Owl Games")
}
