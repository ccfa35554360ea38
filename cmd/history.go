package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/zjrosen/pumlview/internal/infrastructure/sqlite"
	"github.com/zjrosen/pumlview/internal/store"
	"github.com/zjrosen/pumlview/internal/ui/styles"
)

var (
	historyLimit int
	historyPath  string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent renders",
	Long: `Show the most recent preview renders recorded by the TUI, newest first.

Examples:
  pumlview history
  pumlview history -n 50
  pumlview history --file docs/sequence.puml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if !cfg.State.Enabled || cfg.State.Path == "" {
			return fmt.Errorf("render history is disabled (state.enabled is false)")
		}
		db, err := sqlite.NewDB(cfg.State.Path)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		var records []store.RenderRecord
		if historyPath != "" {
			abs, err := filepath.Abs(historyPath)
			if err != nil {
				return err
			}
			records, err = db.HistoryRepository().ForPath(abs, historyLimit)
			if err != nil {
				return err
			}
		} else {
			records, err = db.HistoryRepository().Recent(historyLimit)
			if err != nil {
				return err
			}
		}
		return renderHistory(cmd.OutOrStdout(), records)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of renders to show")
	historyCmd.Flags().StringVar(&historyPath, "file", "", "only show renders of this file")
	rootCmd.AddCommand(historyCmd)
}

func renderHistory(w io.Writer, records []store.RenderRecord) error {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "(no renders)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Rendered", "File", "Format", "Backend", "Size", "Took", "Result"})

	for _, r := range records {
		result := "ok"
		if !r.Succeeded {
			result = styles.TruncateString(r.Diagnostic, 40)
			if result == "" {
				result = "failed"
			}
		}
		t.AppendRow(table.Row{
			r.RenderedAt.Local().Format("2006-01-02 15:04:05"),
			filepath.Base(r.Path),
			r.Format,
			r.Backend,
			styles.FormatBytes(r.Bytes),
			r.Duration.Round(time.Millisecond).String(),
			result,
		})
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d renders)\n", len(records))
	return nil
}
