package main

import (
	"fmt"
	"strings"
	"time"

	"schedcal/internal/agenda"
	"schedcal/internal/dateparse"
	"schedcal/internal/ui"

	"github.com/spf13/cobra"
)

func newAgendaCmd(a *app) *cobra.Command {
	var from, to, format string
	var season bool

	cmd := &cobra.Command{
		Use:   "agenda",
		Short: "List activities and day styles day by day",
		Long: `Lists each day of a range with its day style and activities.

Without --from and --to the current month is shown. --season shows the
range configured in the calendar settings. Dates accept the same formats
as imports (2026-03-01, 01/03/2026, ...).`,
		Example: `  schedcal agenda
  schedcal agenda --from 2026-04-01 --to 2026-04-30
  schedcal agenda --season --format markdown > temporada.md`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, state, err := a.loadState()
			if err != nil {
				return err
			}

			var start, end time.Time
			if season {
				start, end = agenda.CalendarRange(state.Config)
			} else if start, end, err = a.agendaRange(from, to); err != nil {
				return err
			}

			ag, err := agenda.NewGenerator(store).Build(start, end)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch strings.ToLower(format) {
			case "text":
				fmt.Fprint(out, ui.Agenda(ag, a.styles))
			case "markdown", "md":
				fmt.Fprint(out, agenda.FormatMarkdown(ag))
			case "json":
				data, err := agenda.FormatJSON(ag)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown format %q (use text, markdown or json)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "first day (default: first day of this month)")
	cmd.Flags().StringVar(&to, "to", "", "last day (default: end of the --from month)")
	cmd.Flags().BoolVar(&season, "season", false, "show the configured calendar range")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, markdown or json")
	cmd.MarkFlagsMutuallyExclusive("season", "from")
	cmd.MarkFlagsMutuallyExclusive("season", "to")
	return cmd
}

// agendaRange resolves the --from/--to flags. A missing start is the first
// of the current month; a missing end is the last day of the start's month.
func (a *app) agendaRange(from, to string) (time.Time, time.Time, error) {
	start, _ := agenda.MonthRange(dateparse.Day(a.now()))
	if from != "" {
		t, ok := dateparse.ParseOrder(from, a.dateOrder())
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --from date %q", from)
		}
		start = t
	}

	_, end := agenda.MonthRange(start)
	if to != "" {
		t, ok := dateparse.ParseOrder(to, a.dateOrder())
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --to date %q", to)
		}
		end = t
	}
	return start, end, nil
}
