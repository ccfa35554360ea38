package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/pumlview/internal/app"
	"github.com/zjrosen/pumlview/internal/config"
	"github.com/zjrosen/pumlview/internal/grammar"
	"github.com/zjrosen/pumlview/internal/infrastructure/sqlite"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/store"
	"github.com/zjrosen/pumlview/internal/tracing"
	"github.com/zjrosen/pumlview/internal/watcher"
	"github.com/zjrosen/pumlview/internal/workspace"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in the editor pane.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".pumlview/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "pumlview [FILE...]",
	Short: "Preview PlantUML diagrams in the terminal",
	Long: `A terminal PlantUML previewer. Files given on the command line open in
editor panes; ctrl+p toggles a rendered preview of the focused file in a
second pane.

Diagrams are rendered by a local plantuml command or a PlantUML server.`,
	Version: version,
	RunE:    runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/pumlview/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also PUMLVIEW_DEBUG=1, path from PUMLVIEW_LOG)")
	rootCmd.PersistentFlags().String("backend", "",
		"render backend: exec or server")
	rootCmd.PersistentFlags().String("server-url", "",
		"PlantUML server base url for the server backend")
	rootCmd.Flags().Bool("no-watch", false,
		"do not re-render when files change on disk")

	// Bind flags to viper
	_ = viper.BindPFlag("render.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("render.server_url", rootCmd.PersistentFlags().Lookup("server-url"))
}

func initConfig() {
	setDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .pumlview/config.yaml (current directory)
		// 2. ~/.config/pumlview/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			viper.AddConfigPath(config.DefaultDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create default in the user config dir
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if defaultPath := defaultConfigPath(); defaultPath != "" {
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// setDefaults registers every config key so env, flags and Unmarshal see
// it even without a config file.
func setDefaults(v *viper.Viper) {
	d := config.Defaults()
	v.SetDefault("render.backend", d.Render.Backend)
	v.SetDefault("render.command", d.Render.Command)
	v.SetDefault("render.server_url", d.Render.ServerURL)
	v.SetDefault("render.format", d.Render.Format)
	v.SetDefault("render.timeout", d.Render.Timeout)
	v.SetDefault("render.cache_ttl", d.Render.CacheTTL)
	v.SetDefault("preview.extra_scopes", d.Preview.ExtraScopes)
	v.SetDefault("preview.restore_session", d.Preview.RestoreSession)
	v.SetDefault("preview.export_dir", d.Preview.ExportDir)
	v.SetDefault("watch.enabled", d.Watch.Enabled)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("state.enabled", d.State.Enabled)
	v.SetDefault("state.path", d.State.Path)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)
	v.SetDefault("tracing.exporter", d.Tracing.Exporter)
	v.SetDefault("tracing.file_path", d.Tracing.FilePath)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("ui.markdown_style", d.UI.MarkdownStyle)
}

func defaultConfigPath() string {
	dir := config.DefaultDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// initLogging installs the debug log when requested. The returned func
// closes it and is never nil.
func initLogging(name string) (func(), error) {
	if os.Getenv("PUMLVIEW_DEBUG") == "" && !debugFlag {
		return func() {}, nil
	}
	logPath := os.Getenv("PUMLVIEW_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, name+" starting", "version", version, "logPath", logPath)
	return cleanup, nil
}

// newRegistry returns the builtin grammars plus the configured ones.
func newRegistry(extra []config.GrammarConfig) (*grammar.Registry, error) {
	reg := grammar.NewDefaultRegistry()
	for _, gc := range extra {
		g := &grammar.Grammar{ScopeName: gc.Scope, Name: gc.Name, Extensions: gc.Extensions}
		if gc.FirstLine != "" {
			re, err := regexp.Compile(gc.FirstLine)
			if err != nil {
				return nil, fmt.Errorf("grammar %s: first_line: %w", gc.Scope, err)
			}
			g.FirstLine = re
		}
		if err := reg.Register(g); err != nil {
			return nil, fmt.Errorf("registering grammar %s: %w", gc.Scope, err)
		}
	}
	return reg, nil
}

// newController builds the workspace, backend and preview controller
// described by c, with the preview commands registered.
func newController(c config.Config, tp *tracing.Provider) (*workspace.Workspace, *preview.Controller, error) {
	reg, err := newRegistry(c.Grammars)
	if err != nil {
		return nil, nil, err
	}
	backend, err := render.New(render.Options{
		Kind:      c.Render.Backend,
		Command:   c.Render.Command,
		ServerURL: c.Render.ServerURL,
		Timeout:   c.Render.Timeout,
		CacheTTL:  c.Render.CacheTTL,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("creating render backend: %w", err)
	}
	format, err := render.ParseFormat(c.Render.Format)
	if err != nil {
		return nil, nil, err
	}

	ws := workspace.New(reg)
	ctrl := preview.NewController(ws, preview.Options{
		Backend:     backend,
		Format:      format,
		Timeout:     c.Render.Timeout,
		ExtraScopes: c.Preview.ExtraScopes,
		Tracer:      tp.Tracer(),
	})
	preview.RegisterCommands(ws, ctrl)
	log.Info(log.CatRender, "render backend ready", "backend", backend.Name(), "format", format)
	return ws, ctrl, nil
}

func runApp(cmd *cobra.Command, args []string) error {
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	cleanup, err := initLogging("pumlview")
	if err != nil {
		return err
	}
	defer cleanup()

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tp.Shutdown(ctx)
	}()

	ws, ctrl, err := newController(cfg, tp)
	if err != nil {
		return err
	}

	// Handle --no-watch flag (negated logic)
	if noWatch, _ := cmd.Flags().GetBool("no-watch"); noWatch {
		cfg.Watch.Enabled = false
	}

	svc := app.Services{
		Config:     cfg,
		ConfigPath: viper.ConfigFileUsed(),
		Workspace:  ws,
		Controller: ctrl,
		Files:      args,
	}

	if cfg.Watch.Enabled {
		w, err := watcher.New(watcher.Config{DebounceDur: cfg.Watch.Debounce})
		if err != nil {
			// Previews still work, they just don't follow the disk.
			log.ErrorErr(log.CatWatcher, "Failed to create watcher", err)
		} else {
			w.Start()
			svc.Watcher = w
		}
	}

	if cfg.State.Enabled {
		db, err := sqlite.NewDB(cfg.State.Path)
		if err != nil {
			log.ErrorErr(log.CatStore, "Failed to open state database", err, "path", cfg.State.Path)
		} else {
			defer func() { _ = db.Close() }()
			svc.Previews = db.PreviewRepository()
			svc.Recorder = store.NewRecorder(db.PreviewRepository(), db.HistoryRepository())
		}
	}

	zone.NewGlobal()
	model := app.New(svc)
	p := tea.NewProgram(
		&model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err = p.Run()

	// Clean up previews, watcher and recorder
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
