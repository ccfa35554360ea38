// Package config provides configuration types and defaults for pumlview.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/tracing"
)

// Config holds all configuration options for pumlview.
type Config struct {
	Render   RenderConfig    `mapstructure:"render"`
	Preview  PreviewConfig   `mapstructure:"preview"`
	Watch    WatchConfig     `mapstructure:"watch"`
	Grammars []GrammarConfig `mapstructure:"grammars"`
	State    StateConfig     `mapstructure:"state"`
	Tracing  tracing.Config  `mapstructure:"tracing"`
	UI       UIConfig        `mapstructure:"ui"`
}

// RenderConfig selects the PlantUML backend.
type RenderConfig struct {
	Backend   string        `mapstructure:"backend"`    // "exec" (default) or "server"
	Command   []string      `mapstructure:"command"`    // exec: launcher and leading args
	ServerURL string        `mapstructure:"server_url"` // server: base url
	Format    string        `mapstructure:"format"`     // utxt, txt, svg or png
	Timeout   time.Duration `mapstructure:"timeout"`
	CacheTTL  time.Duration `mapstructure:"cache_ttl"` // 0 disables the render cache
}

// PreviewConfig controls which documents can be previewed and how.
type PreviewConfig struct {
	// ExtraScopes are grammar scopes previewable besides PlantUML, plain
	// text and the null grammar.
	ExtraScopes    []string `mapstructure:"extra_scopes"`
	RestoreSession bool     `mapstructure:"restore_session"`
	ExportDir      string   `mapstructure:"export_dir"`
}

// WatchConfig controls re-rendering when files change on disk.
type WatchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// GrammarConfig registers an extra grammar.
type GrammarConfig struct {
	Scope      string   `mapstructure:"scope"`
	Name       string   `mapstructure:"name"`
	Extensions []string `mapstructure:"extensions"`
	FirstLine  string   `mapstructure:"first_line"` // regexp matched against the first line
}

// StateConfig locates the session/history database.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// UIConfig holds user interface configuration options.
type UIConfig struct {
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// Backends and formats accepted by Validate.
var (
	validBackends = []string{"exec", "server"}
	validFormats  = []string{"utxt", "txt", "svg", "png"}
)

// Defaults returns the configuration used when no file sets a value.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()
	return Config{
		Render: RenderConfig{
			Backend:   "exec",
			Command:   []string{"plantuml"},
			ServerURL: "https://www.plantuml.com/plantuml",
			Format:    "utxt",
			Timeout:   30 * time.Second,
			CacheTTL:  10 * time.Minute,
		},
		Preview: PreviewConfig{
			RestoreSession: true,
			ExportDir:      ".",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Debounce: 300 * time.Millisecond,
		},
		State: StateConfig{
			Enabled: true,
			Path:    DefaultStatePath(),
		},
		Tracing: tc,
		UI: UIConfig{
			MarkdownStyle: "dark",
		},
	}
}

// DefaultDir is ~/.config/pumlview, or empty when home is unknown.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pumlview")
}

// DefaultStatePath returns ~/.config/pumlview/state.db.
func DefaultStatePath() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "state.db")
}

// DefaultTracesFilePath returns ~/.config/pumlview/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Validate checks the whole configuration.
func Validate(cfg Config) error {
	if err := ValidateRender(cfg.Render); err != nil {
		return err
	}
	if err := ValidateGrammars(cfg.Grammars); err != nil {
		return err
	}
	if cfg.State.Enabled && cfg.State.Path == "" {
		return fmt.Errorf("state.path is required when state is enabled")
	}
	if cfg.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %v", cfg.Watch.Debounce)
	}
	return ValidateTracing(cfg.Tracing)
}

// ValidateRender checks the backend selection.
func ValidateRender(r RenderConfig) error {
	if !contains(validBackends, r.Backend) {
		return fmt.Errorf("render.backend must be \"exec\" or \"server\", got %q", r.Backend)
	}
	if !contains(validFormats, r.Format) {
		return fmt.Errorf("render.format must be one of %v, got %q", validFormats, r.Format)
	}
	if r.Backend == "server" && r.ServerURL == "" {
		return fmt.Errorf("render.server_url is required when backend is \"server\"")
	}
	if r.Backend == "exec" && len(r.Command) == 0 {
		return fmt.Errorf("render.command is required when backend is \"exec\"")
	}
	if r.Timeout < 0 || r.CacheTTL < 0 {
		return fmt.Errorf("render.timeout and render.cache_ttl must not be negative")
	}
	return nil
}

// ValidateGrammars checks extra grammar registrations.
func ValidateGrammars(grammars []GrammarConfig) error {
	for i, g := range grammars {
		if g.Scope == "" {
			return fmt.Errorf("grammar %d: scope is required", i)
		}
		if len(g.Extensions) == 0 && g.FirstLine == "" {
			return fmt.Errorf("grammar %d (%s): extensions or first_line is required", i, g.Scope)
		}
		if g.FirstLine != "" {
			if _, err := regexp.Compile(g.FirstLine); err != nil {
				return fmt.Errorf("grammar %d (%s): invalid first_line: %w", i, g.Scope, err)
			}
		}
	}
	return nil
}

// ValidateTracing checks tracing settings.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" {
		switch tc.Exporter {
		case tracing.ExporterNone, tracing.ExporterFile, tracing.ExporterStdout, tracing.ExporterOTLP:
		default:
			return fmt.Errorf("tracing.exporter must be \"none\", \"file\", \"stdout\", or \"otlp\", got %q", tc.Exporter)
		}
	}

	// Only validate path requirements when tracing is enabled
	if tc.Enabled {
		if tc.Exporter == tracing.ExporterFile && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == tracing.ExporterOTLP && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultConfigTemplate is the commented file written on first run.
func DefaultConfigTemplate() string {
	return `# pumlview configuration

# PlantUML backend
render:
  backend: exec              # "exec" runs a local plantuml, "server" calls a PlantUML server
  command: [plantuml]        # e.g. [java, -jar, /opt/plantuml.jar]
  # server_url: https://www.plantuml.com/plantuml
  format: utxt               # utxt, txt, svg or png (only text formats display in the terminal)
  timeout: 30s
  cache_ttl: 10m             # 0 disables the render cache

preview:
  # extra_scopes: [source.gfm]   # preview other grammars too
  restore_session: true      # reopen previews that were open at exit
  export_dir: .

# Re-render previews when their file changes on disk
watch:
  enabled: true
  debounce: 300ms

# Extra grammars
# grammars:
#   - scope: source.c4
#     name: C4 PlantUML
#     extensions: [c4]
#     first_line: "^@startc4"

# Open previews and render history
state:
  enabled: true
  # path: ~/.config/pumlview/state.db

ui:
  markdown_style: dark       # "dark" (default) or "light"

# Tracing (disabled by default)
# tracing:
#   enabled: true
#   exporter: file           # none, file, stdout, otlp
#   file_path: ~/.config/pumlview/traces/traces.jsonl
#   otlp_endpoint: localhost:4317
#   sample_rate: 1.0
`
}

// WriteDefaultConfig creates a config file at configPath with default
// settings and comments, creating the parent directory if needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
