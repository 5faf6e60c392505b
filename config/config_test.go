package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/burntcarrot/richpad/command"
	"github.com/burntcarrot/richpad/geom"
	"github.com/burntcarrot/richpad/toolbar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "richpad.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yaml")} {
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), *cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
toolbar:
  margin: 4
  width: 120
links:
  target: _self
  rel: nofollow
layout:
  columns: 40
initial_html: "<p>hi</p>"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, toolbar.Positioner{Margin: 4, Fallback: geom.Size{W: 120, H: toolbar.DefaultHeight}}, cfg.Positioner())
	assert.Equal(t, command.Options{LinkTarget: "_self", LinkRel: "nofollow", ImageStyle: command.DefaultImageStyle}, cfg.CommandOptions())
	assert.Equal(t, 40, cfg.Metrics().Cols)
	assert.Equal(t, geom.Rect{W: 320, H: 384}, cfg.Container())
	assert.Equal(t, "<p>hi</p>", cfg.InitialHTML)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		description string
		body        string
	}{
		{description: "negative margin", body: "toolbar:\n  margin: -1\n"},
		{description: "negative rows", body: "layout:\n  rows: -3\n"},
		{description: "negative cell size", body: "layout:\n  cell_width: -8\n"},
		{description: "malformed yaml", body: "toolbar: [\n"},
	}

	for _, tc := range tests {
		_, err := Load(writeConfig(t, tc.body))
		assert.Error(t, err, tc.description)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Layout.Columns = 0
	assert.EqualError(t, cfg.Validate(), "layout.columns must be at least 1")
}
