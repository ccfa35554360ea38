package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/zjrosen/pumlview/internal/config"
	"github.com/zjrosen/pumlview/internal/document"
	"github.com/zjrosen/pumlview/internal/log"
	"github.com/zjrosen/pumlview/internal/preview"
	"github.com/zjrosen/pumlview/internal/render"
	"github.com/zjrosen/pumlview/internal/tracing"
)

// errOutputCollision marks a file whose export path belongs to an earlier
// file.
var errOutputCollision = errors.New("output path collision")

var (
	renderFormat string
	renderOutDir string
	renderJobs   int
)

var renderCmd = &cobra.Command{
	Use:   "render FILE...",
	Short: "Render diagrams to files without the TUI",
	Long: `Render each FILE with the configured backend and write the output into
the output directory as <name>.<ext>.

Files are rendered in parallel. A file that fails to render is reported
with the backend diagnostic and the command exits non-zero after the rest
have finished.

Examples:
  # Render to svg in the current directory
  pumlview render -f svg docs/*.puml

  # Text diagrams into ./out
  pumlview render -o out sequence.puml`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := cfg
		if cmd.Flags().Changed("format") {
			c.Render.Format = renderFormat
		}
		if err := config.Validate(c); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		cleanup, err := initLogging("pumlview render")
		if err != nil {
			return err
		}
		defer cleanup()

		tp, err := tracing.NewProvider(c.Tracing)
		if err != nil {
			return fmt.Errorf("initializing tracing: %w", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(ctx)
		}()

		failures, err := renderFiles(cmd.Context(), cmd.OutOrStdout(), c, tp, args, renderOutDir, renderJobs)
		if err != nil {
			return err
		}
		for _, f := range failures {
			_, _ = fmt.Fprintln(cmd.ErrOrStderr(), describeRenderError(f))
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d files failed to render", len(failures), len(args))
		}
		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderFormat, "format", "f", "", "output format: utxt, txt, svg or png (default from config)")
	renderCmd.Flags().StringVarP(&renderOutDir, "out", "o", ".", "directory to write rendered files to")
	renderCmd.Flags().IntVarP(&renderJobs, "jobs", "j", 4, "number of files rendered at once")
	rootCmd.AddCommand(renderCmd)
}

// renderFiles opens a preview for every file on a headless workspace and
// exports it to outDir. Every file is attempted; per-file failures are
// returned in argument order and err is set only when nothing could start.
func renderFiles(ctx context.Context, w io.Writer, c config.Config, tp *tracing.Provider, files []string, outDir string, jobs int) ([]error, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ws, ctrl, err := newController(c, tp)
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	format, err := render.ParseFormat(c.Render.Format)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	errs := make([]error, len(files))

	// Two files with the same base name would export to one path.
	claimed := make(map[string]string, len(files))
	skip := make([]bool, len(files))
	for i, file := range files {
		abs, err := filepath.Abs(file)
		if err != nil {
			errs[i] = fmt.Errorf("%s: %w", file, err)
			skip[i] = true
			continue
		}
		target := preview.ExportTarget(document.New(abs, "", nil), format, outDir)
		if first, ok := claimed[target]; ok {
			errs[i] = fmt.Errorf("%s: %w: %s is also written by %s", file, errOutputCollision, target, first)
			skip[i] = true
			continue
		}
		claimed[target] = file
	}

	g, gctx := errgroup.WithContext(ctx)
	if jobs > 0 {
		g.SetLimit(jobs)
	}
	for i, file := range files {
		if skip[i] {
			continue
		}
		g.Go(func() error {
			doc, err := ws.OpenDocument(gctx, file)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", file, err)
				return nil
			}
			res, err := ctrl.Open(gctx, doc)
			if err != nil {
				errs[i] = err
				return nil
			}
			if res.RenderErr != nil {
				errs[i] = res.RenderErr
				return nil
			}
			written, err := preview.Export(res.View, outDir)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", file, err)
				return nil
			}
			log.Info(log.CatRender, "exported", "path", doc.Path(), "out", written)

			mu.Lock()
			_, _ = fmt.Fprintf(w, "%s -> %s\n", file, written)
			mu.Unlock()
			return nil
		})
	}
	// Workers record failures in errs so one bad file does not cancel the
	// others.
	_ = g.Wait()

	var failures []error
	for _, err := range errs {
		if err != nil {
			failures = append(failures, err)
		}
	}
	return failures, nil
}

// describeRenderError formats err for the terminal, adding the backend
// diagnostic when there is one.
func describeRenderError(err error) string {
	var rerr *preview.RenderError
	if errors.As(err, &rerr) {
		if diag := render.Diagnostic(rerr.Err); diag != "" {
			return fmt.Sprintf("%s: render failed\n%s", filepath.Base(rerr.Path), diag)
		}
	}
	return err.Error()
}
