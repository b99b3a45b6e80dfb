// Package main is the entry point for the schedcal command.
// It loads configuration, sets up logging and dispatches to the subcommands.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"schedcal/internal/config"
	"schedcal/internal/dateparse"
	"schedcal/internal/storage"
	"schedcal/internal/ui"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// app carries what every subcommand needs once flags and config are loaded.
type app struct {
	configPath string
	dataDir    string
	logLevel   string

	cfg    *config.Config
	styles *ui.Styles
	store  *storage.Storage
	now    func() time.Time
}

func main() {
	if err := newRootCmd(time.Now).Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. now names backups, stamps
// notifications and picks the default agenda range.
func newRootCmd(now func() time.Time) *cobra.Command {
	a := &app{now: now}

	root := &cobra.Command{
		Use:   "schedcal",
		Short: "Import, export and review an ensemble's season calendar",
		Long: `schedcal keeps a season calendar of rehearsals, concerts and holidays in
a single JSON file (~/.schedcal/calendar.json by default).

It imports activities from JSON, CSV and iCalendar files, exports them
back, lists a day-by-day agenda and keeps backups of the calendar.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/schedcal/config.yaml)")
	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "data directory (overrides data_dir from config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(
		newImportCmd(a),
		newExportCmd(a),
		newAgendaCmd(a),
		newActivityCmd(a),
		newPostponeCmd(a),
		newCategoryCmd(a),
		newStyleCmd(a),
		newBackupCmd(a),
		newRestoreCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads the configuration and installs the default logger.
func (a *app) setup(logOut io.Writer) error {
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, err = config.LoadFile(a.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	logger, err := newLogger(cfg, logOut)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	a.cfg = cfg
	a.styles = ui.NewStyles(cfg)
	return nil
}

// newLogger builds a text or JSON slog logger according to cfg.Log.
func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var h slog.Handler
	if strings.EqualFold(cfg.Log.Format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h), nil
}

// openStore opens the calendar in the configured data directory.
func (a *app) openStore() (*storage.Storage, error) {
	if a.store != nil {
		return a.store, nil
	}

	store, err := storage.New(a.cfg.GetDataDir())
	if err != nil {
		return nil, fmt.Errorf("open data directory: %w", err)
	}
	store.SetNowFunc(a.now)
	store.SetOnSave(func(ctx storage.SaveContext) {
		slog.Debug("saved",
			"file", ctx.Filename,
			"op", ctx.Operation,
			"type", ctx.ItemType,
			"item", ctx.ItemName,
		)
	})
	a.store = store
	return store, nil
}

// loadState opens the store and loads the state. A recovered state is
// still returned; the recovery is logged.
func (a *app) loadState() (*storage.Storage, *storage.State, error) {
	store, err := a.openStore()
	if err != nil {
		return nil, nil, err
	}
	state, err := store.Load()
	if err != nil {
		if state == nil {
			return nil, nil, err
		}
		slog.Warn("calendar recovered", "path", store.StatePath(), "error", err)
	}
	return store, state, nil
}

func (a *app) dateOrder() dateparse.Order {
	if a.cfg.Import.MonthFirst {
		return dateparse.MonthFirst
	}
	return dateparse.DayFirst
}

// parseDate accepts any date the importers accept and returns it as YYYY-MM-DD.
func (a *app) parseDate(s string) (string, error) {
	t, ok := dateparse.ParseOrder(s, a.dateOrder())
	if !ok {
		return "", fmt.Errorf("invalid date %q", s)
	}
	return dateparse.Format(t), nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("schedcal %s\n", version)
			cmd.Printf("  commit: %s\n", commit)
			cmd.Printf("  built:  %s\n", date)
		},
	}
}
