package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "miex.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	p := writeFile(t, `
resource_pack: ./pack
world: ./world.snap.zst
workers: 3
seed: 42
double_sided: [glass, "minecraft:ice"]
strict_conditions: true
`)
	c, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "./pack", c.ResourcePack)
	assert.Equal(t, 3, c.Workers)
	assert.Equal(t, int64(42), c.Seed)
	assert.Equal(t, []string{"glass", "minecraft:ice"}, c.DoubleSided)
	assert.True(t, c.StrictConditions)
	assert.Equal(t, "export.jsonl.zst", c.Output)
	assert.Equal(t, "info", c.LogLevel)
}

func TestLoad_EmptyPath(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Defaults(), c)
}

func TestLoad_Invalid(t *testing.T) {
	_, err := Load(writeFile(t, "workers: 0\nlog_level: loud\n"))
	require.Error(t, err)
	assert.ErrorContains(t, err, "workers")
	assert.ErrorContains(t, err, "log_level")

	_, err = Load(writeFile(t, "workers: [\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
