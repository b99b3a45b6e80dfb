package main

import (
	"fmt"
	"log/slog"
	"strings"

	"schedcal/internal/exporter"
	"schedcal/internal/fsutil"

	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the calendar as JSON, CSV or iCalendar",
		Long: `Writes the whole calendar to standard output or to --output.

  json  a versioned envelope with config, categories, activities and day
        styles; it can be imported back without loss
  csv   one quoted row per activity
  ics   one all-day event per activity`,
		Example: `  schedcal export > backup.json
  schedcal export -f csv -o temporada.csv
  schedcal export -f ics -o temporada.ics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, state, err := a.loadState()
			if err != nil {
				return err
			}

			data, err := exporter.Export(exporter.Format(strings.ToLower(format)), state, a.now(), a.cfg.Export.Application)
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := fsutil.WriteFileAtomic(output, data, 0644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			slog.Info("export written", "path", output, "format", format, "bytes", len(data))
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d activities to %s\n", len(state.Activities), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, csv or ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}
