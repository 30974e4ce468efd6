package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/steerkit/internal/config"
	"github.com/zeusync/steerkit/internal/core/npc"
)

func TestPresetsCmd(t *testing.T) {
	var out bytes.Buffer
	c := PresetsCmd()
	c.SetOut(&out)
	c.SetArgs([]string{})
	require.NoError(t, c.Execute())
	assert.Equal(t, strings.Join(npc.Presets(), "\n")+"\n", out.String())

	out.Reset()
	c.SetArgs([]string{"destroyer"})
	require.NoError(t, c.Execute())
	assert.Contains(t, out.String(), "root: root")
	assert.Contains(t, out.String(), "WithinDistance")

	c.SetArgs([]string{"kraken"})
	assert.ErrorIs(t, c.Execute(), npc.ErrUnknownPreset)
}

func TestRunCmd(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: silent
entities:
  - {name: d, controller: destroyer, speed: 2}
  - {name: crate, tags: [box], position: [0, 3], radius: 0.5}
`), 0o600))

	c := RunCmd()
	c.SetArgs([]string{"--config", path, "--ticks", "5"})
	require.NoError(t, c.Execute())

	c = RunCmd()
	c.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, c.Execute(), os.ErrNotExist)
}

func TestRunCmdAgentSnapshot(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_level: silent
entities:
  - {name: wolf, controller: hunter, speed: 2}
  - {name: rabbit, tags: [prey], position: [0, 4]}
`), 0o600))
	state := filepath.Join(dir, "agents.gob")

	c := RunCmd()
	c.SetArgs([]string{"--config", path, "--ticks", "3", "--save-agents", state})
	require.NoError(t, c.Execute())
	info, err := os.Stat(state)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())

	c = RunCmd()
	c.SetArgs([]string{"--config", path, "--ticks", "1", "--load-agents", state})
	require.NoError(t, c.Execute())

	c = RunCmd()
	c.SetArgs([]string{"--config", path, "--load-agents", filepath.Join(dir, "none.gob")})
	assert.ErrorIs(t, c.Execute(), os.ErrNotExist)
}

func TestLoadConfigDefault(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
