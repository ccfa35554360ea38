package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/pumlview/internal/tracing"
)

func TestDefaults_AreValid(t *testing.T) {
	cfg := Defaults()
	if cfg.State.Path == "" {
		cfg.State.Path = filepath.Join(t.TempDir(), "state.db")
	}
	require.NoError(t, Validate(cfg))
	require.Equal(t, "exec", cfg.Render.Backend)
	require.Equal(t, []string{"plantuml"}, cfg.Render.Command)
	require.Equal(t, "utxt", cfg.Render.Format)
	require.True(t, cfg.Watch.Enabled)
	require.False(t, cfg.Tracing.Enabled)
}

func TestValidateRender(t *testing.T) {
	valid := Defaults().Render

	tests := []struct {
		name   string
		mutate func(*RenderConfig)
		errMsg string
	}{
		{name: "unknown backend", mutate: func(r *RenderConfig) { r.Backend = "docker" }, errMsg: "render.backend"},
		{name: "unknown format", mutate: func(r *RenderConfig) { r.Format = "pdf" }, errMsg: "render.format"},
		{name: "server without url", mutate: func(r *RenderConfig) { r.Backend = "server"; r.ServerURL = "" }, errMsg: "server_url is required"},
		{name: "exec without command", mutate: func(r *RenderConfig) { r.Command = nil }, errMsg: "command is required"},
		{name: "negative timeout", mutate: func(r *RenderConfig) { r.Timeout = -time.Second }, errMsg: "must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid
			tt.mutate(&r)
			err := ValidateRender(r)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errMsg)
		})
	}

	server := valid
	server.Backend = "server"
	require.NoError(t, ValidateRender(server))
}

func TestValidateGrammars(t *testing.T) {
	require.NoError(t, ValidateGrammars(nil))
	require.NoError(t, ValidateGrammars([]GrammarConfig{{Scope: "source.c4", Extensions: []string{"c4"}}}))
	require.NoError(t, ValidateGrammars([]GrammarConfig{{Scope: "source.c4", FirstLine: "^@startc4"}}))

	err := ValidateGrammars([]GrammarConfig{{Extensions: []string{"c4"}}})
	require.ErrorContains(t, err, "grammar 0: scope is required")

	err = ValidateGrammars([]GrammarConfig{{Scope: "source.c4"}})
	require.ErrorContains(t, err, "extensions or first_line")

	err = ValidateGrammars([]GrammarConfig{{Scope: "source.c4", FirstLine: "(unclosed"}})
	require.ErrorContains(t, err, "invalid first_line")
}

func TestValidateTracing(t *testing.T) {
	require.NoError(t, ValidateTracing(tracing.Config{}))

	err := ValidateTracing(tracing.Config{SampleRate: 1.5})
	require.ErrorContains(t, err, "sample_rate")

	err = ValidateTracing(tracing.Config{Exporter: "jaeger"})
	require.ErrorContains(t, err, "tracing.exporter")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "file"})
	require.ErrorContains(t, err, "file_path is required")

	err = ValidateTracing(tracing.Config{Enabled: true, Exporter: "otlp"})
	require.ErrorContains(t, err, "otlp_endpoint is required")

	require.NoError(t, ValidateTracing(tracing.Config{Exporter: "file"}), "paths only matter when enabled")
}

func TestValidate_State(t *testing.T) {
	cfg := Defaults()
	cfg.State = StateConfig{Enabled: true}
	require.ErrorContains(t, Validate(cfg), "state.path")

	cfg.State.Enabled = false
	require.NoError(t, Validate(cfg))
}

func TestWriteDefaultConfig_LoadsThroughViper(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".pumlview", "config.yaml")
	require.NoError(t, WriteDefaultConfig(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	require.Equal(t, "exec", cfg.Render.Backend)
	require.Equal(t, []string{"plantuml"}, cfg.Render.Command)
	require.Equal(t, 30*time.Second, cfg.Render.Timeout)
	require.Equal(t, 10*time.Minute, cfg.Render.CacheTTL)
	require.Equal(t, 300*time.Millisecond, cfg.Watch.Debounce)
	require.True(t, cfg.Preview.RestoreSession)
	require.Equal(t, "dark", cfg.UI.MarkdownStyle)
}
