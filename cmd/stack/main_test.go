package main

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/offline"
	"github.com/SscSPs/stack_budget/internal/platform/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTotals() derivation.Totals {
	return derivation.Totals{
		Accounts:  decimal.NewFromInt(800),
		Budget:    decimal.NewFromInt(75),
		Bills:     decimal.NewFromInt(25),
		Goals:     decimal.NewFromInt(100),
		Available: decimal.NewFromInt(600),
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, render(&buf, formatJSON, sampleTotals()))
	assert.Contains(t, buf.String(), `"available": 600`)

	buf.Reset()
	require.NoError(t, render(&buf, formatYAML, sampleTotals()))
	assert.Contains(t, buf.String(), "available: \"600\"")

	assert.Error(t, render(&buf, "xml", sampleTotals()))
}

func TestPrintTotals(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printTotals(&buf, sampleTotals()))
	assert.Contains(t, buf.String(), "Available")
	assert.Contains(t, buf.String(), "$600.00")
}

func TestPrintStatus_PassesErrorThrough(t *testing.T) {
	var buf bytes.Buffer
	want := errors.New("boom")
	err := printStatus(&buf, dto.SyncStatus{Message: "Missing access token"}, want)
	assert.Same(t, want, err)
	assert.Contains(t, buf.String(), "Missing access token")
	assert.Contains(t, buf.String(), "No access token cached")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestHostOf(t *testing.T) {
	assert.Equal(t, "api.github.com", hostOf("https://api.github.com"))
	assert.Equal(t, "", hostOf("://bad"))
}

func TestRemoteAPIHost_FollowsBackend(t *testing.T) {
	gistCfg := &config.Config{RemoteBackend: config.RemoteBackendGist, GistAPIURL: "https://github.example.com/api/v3"}
	assert.Equal(t, "github.example.com", remoteAPIHost(gistCfg))

	gcsCfg := &config.Config{RemoteBackend: config.RemoteBackendGCS, GistAPIURL: "https://api.github.com"}
	assert.Equal(t, "storage.googleapis.com", remoteAPIHost(gcsCfg))
	assert.Equal(t, offline.NetworkOnly, offline.DefaultPolicy(remoteAPIHost(gcsCfg)).Strategy("https://storage.googleapis.com/storage/v1/b/x/o"))
}

func TestRootCmd_HasSubcommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd().Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"serve", "sync", "export", "import", "totals", "token", "version"} {
		assert.True(t, names[want], want)
	}
}
