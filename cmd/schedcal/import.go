package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"schedcal/internal/agenda"
	"schedcal/internal/backup"
	"schedcal/internal/importer"
	"schedcal/internal/ui"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

var errImportFailed = errors.New("import failed")

func newImportCmd(a *app) *cobra.Command {
	var (
		dryRun bool
		yes    bool
		format string
	)

	cmd := &cobra.Command{
		Use:   "import [flags] FILE",
		Short: "Import activities from a JSON, CSV or iCalendar file",
		Long: `Import activities from a file, or from standard input when FILE is "-".

The format is detected from the content unless --format is given:
  json  a previous export, or an object with "activities" and/or "categories"
  csv   a header row plus one activity per row, comma or semicolon separated
  ics   an iCalendar file; recurring events are expanded over the calendar's
        configured season

Rows that cannot be read are reported and skipped. Unless --yes is given
(or import.review is false) the result is shown for review before it is
merged. Activities whose id already exists replace the stored ones.`,
		Example: `  schedcal import temporada.csv
  schedcal import --dry-run export.json
  schedcal import --yes --format ics feriados.ics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runImport(cmd, args[0], format, dryRun, yes)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be imported without saving")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "merge without the interactive review")
	cmd.Flags().StringVarP(&format, "format", "f", "auto", "input format: auto, json, csv or ics")
	return cmd
}

func (a *app) runImport(cmd *cobra.Command, path, format string, dryRun, yes bool) error {
	out := cmd.OutOrStdout()

	content, source, err := readInput(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	store, state, err := a.loadState()
	if err != nil {
		return err
	}

	from, to := agenda.CalendarRange(state.Config)
	opts := importer.Options{
		Now:            a.now,
		DateOrder:      a.dateOrder(),
		RecurrenceFrom: from,
		RecurrenceTo:   to,
		MaxOccurrences: a.cfg.Import.MaxOccurrences,
	}

	var res *importer.Result
	if format == "" || format == "auto" {
		res = importer.Import(content, state.Categories, opts)
	} else {
		imp := importer.GetImporter(importer.Format(strings.ToLower(format)), opts)
		if imp == nil {
			return fmt.Errorf("unknown format %q (supported: %s)", format, formatList())
		}
		res = imp.Import(content, state.Categories)
	}

	if dryRun || !res.Success {
		fmt.Fprint(out, ui.ImportSummary(res, source, a.styles))
		if !res.Success {
			return errImportFailed
		}
		fmt.Fprintln(out, "\nDry run: nothing was saved.")
		return nil
	}

	if a.cfg.Import.Review && !yes {
		decision, err := a.review(cmd, res, source)
		if err != nil {
			return err
		}
		if decision != ui.DecisionMerge {
			fmt.Fprintln(out, "Import discarded.")
			return nil
		}
	} else {
		fmt.Fprint(out, ui.ImportSummary(res, source, a.styles))
	}

	if a.cfg.Backup.BeforeImport {
		if err := a.backupBeforeImport(); err != nil {
			return err
		}
	}

	stats, err := store.MergeImport(res.Data, res.Message)
	if err != nil {
		return fmt.Errorf("merge import: %w", err)
	}

	fmt.Fprintf(out, "\nMerged: %d activities added, %d replaced; %d categories added, %d replaced; %d day styles added, %d replaced\n",
		stats.ActivitiesAdded, stats.ActivitiesReplaced,
		stats.CategoriesAdded, stats.CategoriesReplaced,
		stats.DayStylesAdded, stats.DayStylesReplaced)
	if stats.ConfigReplaced {
		fmt.Fprintln(out, "Calendar settings replaced.")
	}
	return nil
}

// review runs the interactive review. It needs a terminal on both ends.
func (a *app) review(cmd *cobra.Command, res *importer.Result, source string) (ui.Decision, error) {
	in, out := cmd.InOrStdin(), cmd.OutOrStdout()
	if !isTerminal(in) || !isTerminal(out) {
		return ui.DecisionPending, errors.New("import review needs a terminal; pass --yes to merge without it")
	}
	keys := ui.NewReviewKeyMap(&a.cfg.Keys)
	return ui.RunReview(res, source, a.styles, keys, in, out)
}

func (a *app) backupBeforeImport() error {
	m := a.backupManager()
	name, err := m.Create(backup.ReasonImport)
	if err != nil {
		return fmt.Errorf("backup before import: %w", err)
	}
	slog.Info("backup created", "name", name, "reason", backup.ReasonImport)

	if keep := a.cfg.Backup.Keep; keep > 0 {
		deleted, err := m.Prune(keep)
		if err != nil {
			// The new backup exists; a failed prune only leaves extra copies.
			slog.Warn("prune backups", "error", err)
		} else if deleted > 0 {
			slog.Info("backups pruned", "deleted", deleted, "kept", keep)
		}
	}
	return nil
}

// readInput reads path, or r when path is "-".
func readInput(r io.Reader, path string) (content, source string, err error) {
	if path == "-" {
		data, err := io.ReadAll(r)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), "stdin", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", err
	}
	return string(data), filepath.Base(path), nil
}

func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatList() string {
	var names []string
	for _, f := range importer.SupportedFormats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}
