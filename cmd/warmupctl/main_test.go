package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mikey/mailbox-warmup/internal/core"
	"github.com/mikey/mailbox-warmup/internal/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	flags, err := di.ParseFlags(append([]string{"--store", "memory", "--provider", "none"}, args...))
	require.NoError(t, err)
	container, err := di.BuildCLIContainer(flags)
	require.NoError(t, err)

	var out bytes.Buffer
	err = dispatch(context.Background(), container, flags, &out)
	return out.String(), err
}

func TestInsightsCommand(t *testing.T) {
	out, err := runCommand(t, "insights")
	require.NoError(t, err)

	var insights []core.Insight
	require.NoError(t, json.Unmarshal([]byte(out), &insights))
	assert.Equal(t, core.Insights(), insights)
}

func TestStatusCommandEmpty(t *testing.T) {
	out, err := runCommand(t, "status")
	require.NoError(t, err)
	assert.JSONEq(t, `[]`, out)
}

func TestQuotaCommandHeader(t *testing.T) {
	out, err := runCommand(t, "quota")
	require.NoError(t, err)
	assert.Contains(t, out, "QUOTA")

	_, err = runCommand(t, "quota", "abc")
	assert.Error(t, err)
}

func TestCommandErrors(t *testing.T) {
	_, err := runCommand(t, "stats")
	assert.ErrorContains(t, err, "--user")

	_, err = runCommand(t, "domain")
	assert.Error(t, err)

	_, err = runCommand(t, "launch")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCommand(t, "migrate")
	assert.ErrorContains(t, err, "no schema")
}

func TestMigrateCommandOnSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "warmup.db")

	flags, err := di.ParseFlags([]string{"--sqlite-path", path, "--provider", "none", "migrate"})
	require.NoError(t, err)
	container, err := di.BuildCLIContainer(flags)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, dispatch(context.Background(), container, flags, &out))
	assert.Contains(t, out.String(), "Schema at version 1")
}
