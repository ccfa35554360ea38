package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readYAML(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, yaml.Unmarshal(data, &out))
	return out
}

func TestSetValue_UpdatesExistingKeyAndKeepsComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	require.NoError(t, SetValue(path, []string{"render", "format"}, "txt"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "# PlantUML backend", "comments survive")

	cfg := readYAML(t, path)
	render := cfg["render"].(map[string]any)
	require.Equal(t, "txt", render["format"])
	require.Equal(t, "exec", render["backend"], "siblings untouched")
}

func TestSetValue_CreatesMissingSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, SetValue(path, []string{"preview", "extra_scopes"}, []string{"source.gfm"}))
	require.NoError(t, SetValue(path, []string{"watch", "enabled"}, false))

	cfg := readYAML(t, path)
	require.Equal(t, []any{"source.gfm"}, cfg["preview"].(map[string]any)["extra_scopes"])
	require.Equal(t, false, cfg["watch"].(map[string]any)["enabled"])
}

func TestSetValue_FillsEmptySection(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("ui:\nrender:\n  format: svg\n"), 0o600))

	require.NoError(t, SetValue(path, []string{"ui", "markdown_style"}, "light"))

	cfg := readYAML(t, path)
	require.Equal(t, "light", cfg["ui"].(map[string]any)["markdown_style"])
	require.Equal(t, "svg", cfg["render"].(map[string]any)["format"])
}

func TestSetValue_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.Error(t, SetValue(path, nil, "x"))

	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))
	require.ErrorContains(t, SetValue(path, []string{"render"}, "x"), "not a mapping")
}
