package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fran-cois/MATILDA/internal/discover"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, discover.DefaultConfig(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "matilda.toml", `
max_tables = 4
strategy = "astar"
heuristic = "table_size"
support_threshold = 0.25

[hybrid_weights]
naive = 0.5
table_size = 0.25
join_selectivity = 0.25
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxTables)
	assert.Equal(t, "astar", cfg.Strategy)
	assert.Equal(t, "table_size", cfg.Heuristic)
	assert.Equal(t, 0.25, cfg.SupportThreshold)
	assert.Equal(t, 0.5, cfg.Weights.Naive)

	// Untouched keys keep their defaults.
	assert.Equal(t, discover.DefaultConfig().MaxVars, cfg.MaxVars)
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "matilda.yaml", `
max_vars: 4
strategy: bfs
confidence_threshold: "0.75"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.MaxVars)
	assert.Equal(t, "bfs", cfg.Strategy)
	assert.Equal(t, 0.75, cfg.ConfidenceThreshold, "string scalars are coerced")
}

func TestLoadRejectsUnknownKey(t *testing.T) {
	path := writeFile(t, "matilda.toml", `max_depth = 4`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown config key")
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	path := writeFile(t, "matilda.ini", `strategy=dfs`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
}
