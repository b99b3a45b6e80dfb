package main

import (
	"fmt"
	"strings"

	"schedcal/internal/importer"
	"schedcal/internal/storage"

	"github.com/spf13/cobra"
)

func newActivityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "activity",
		Aliases: []string{"act"},
		Short:   "Add, complete, change or remove activities",
	}
	cmd.AddCommand(
		newActivityAddCmd(a),
		newActivityDoneCmd(a),
		newActivityStatusCmd(a),
		newActivityRemoveCmd(a),
	)
	return cmd
}

func newActivityAddCmd(a *app) *cobra.Command {
	var start, end, program, category, description string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add an activity",
		Example: `  schedcal activity add "Ensayo general" --start 2026-03-10 --program coro
  schedcal activity add "Gira" --start 01/07/2026 --end 05/07/2026 --program orquesta`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}

			act := storage.Activity{
				Title:       args[0],
				Program:     importer.CoerceProgram(program),
				CategoryID:  category,
				Description: description,
			}
			if act.StartDate, err = a.parseDate(start); err != nil {
				return err
			}
			if end != "" {
				if act.EndDate, err = a.parseDate(end); err != nil {
					return err
				}
			}

			added, err := store.AddActivity(act)
			if err != nil {
				return err
			}
			cmd.Printf("Added %s (%s, %s..%s)\n", added.ID, added.Title, added.StartDate, added.EndDate)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "start date (required)")
	cmd.Flags().StringVar(&end, "end", "", "end date (default: start date)")
	cmd.Flags().StringVarP(&program, "program", "p", "", "program: orquesta, coro, coro infantil, coro juvenil or general")
	cmd.Flags().StringVarP(&category, "category", "c", "", "category id")
	cmd.Flags().StringVarP(&description, "description", "d", "", "description")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newActivityDoneCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Toggle an activity's completed flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.ToggleActivityCompleted(args[0]); err != nil {
				return err
			}
			cmd.Printf("Toggled %s\n", args[0])
			return nil
		},
	}
}

func newActivityStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Set an activity's status (active, postponed or suspended)",
		Long: `Sets the status directly. To move an activity to new dates and keep
a link between the old and new entries, use 'schedcal postpone'.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			status := storage.Status(strings.ToLower(strings.TrimSpace(args[1])))
			switch status {
			case storage.StatusActive, storage.StatusPostponed, storage.StatusSuspended:
			default:
				return fmt.Errorf("unknown status %q (use active, postponed or suspended)", args[1])
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.SetActivityStatus(args[0], status); err != nil {
				return err
			}
			cmd.Printf("%s is now %s\n", args[0], status)
			return nil
		},
	}
}

func newActivityRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Remove an activity",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.DeleteActivity(args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed %s\n", args[0])
			return nil
		},
	}
}

func newPostponeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "postpone ID START [END]",
		Short: "Move an activity to new dates",
		Long: `Marks the activity as postponed and adds a new active copy on the new
dates. The two are linked both ways. Without END the new copy keeps the
original length.`,
		Example: `  schedcal postpone 6f1c... 2026-05-12`,
		Args:    cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := a.parseDate(args[1])
			if err != nil {
				return err
			}
			var end string
			if len(args) == 3 {
				if end, err = a.parseDate(args[2]); err != nil {
					return err
				}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			moved, err := store.PostponeActivity(args[0], start, end)
			if err != nil {
				return err
			}
			cmd.Printf("Postponed %s to %s..%s (new id %s)\n", moved.Title, moved.StartDate, moved.EndDate, moved.ID)
			return nil
		},
	}
}

func newCategoryCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "category",
		Short: "Manage activity categories",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add NAME COLOR",
			Short: "Add a category with a hex colour such as #ef4444",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				c, err := store.AddCategory(args[0], args[1])
				if err != nil {
					return err
				}
				cmd.Printf("Added category %s (%s)\n", c.ID, c.Name)
				return nil
			},
		},
		&cobra.Command{
			Use:   "list",
			Short: "List categories",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				_, state, err := a.loadState()
				if err != nil {
					return err
				}
				for _, c := range state.Categories {
					cmd.Printf("%s %s  %s  %s\n", a.styles.Swatch(c.Color), c.ID, c.Color, c.Name)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:     "rm ID",
			Aliases: []string{"delete"},
			Short:   "Remove a category; activities keep their colour",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				store, err := a.openStore()
				if err != nil {
					return err
				}
				if err := store.DeleteCategory(args[0]); err != nil {
					return err
				}
				cmd.Printf("Removed category %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}

func newStyleCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "style",
		Short: "Manage day styles (holidays, tours, terms)",
	}
	cmd.AddCommand(newStyleAddCmd(a), newStyleListCmd(a), newStyleRemoveCmd(a))
	return cmd
}

func newStyleAddCmd(a *app) *cobra.Command {
	var d storage.DayStyle
	var start, end string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Style a day or an inclusive range of days",
		Long: `Adds a day style. Without --end the style covers --start only. When
styles overlap, the one covering the fewest days governs a day.`,
		Example: `  schedcal style add --start 2026-04-02 --label Feriado --holiday
  schedcal style add --start 2026-03-30 --end 2026-04-05 --label "Semana Santa" --icon "*"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if d.StartDate, err = a.parseDate(start); err != nil {
				return err
			}
			if end != "" {
				if d.EndDate, err = a.parseDate(end); err != nil {
					return err
				}
			}

			store, err := a.openStore()
			if err != nil {
				return err
			}
			added, err := store.AddDayStyle(d)
			if err != nil {
				return err
			}
			cmd.Printf("Added day style %s\n", added.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&start, "start", "", "first day (required)")
	cmd.Flags().StringVar(&end, "end", "", "last day (default: --start only)")
	cmd.Flags().StringVar(&d.Label, "label", "", "label shown for the day")
	cmd.Flags().StringVar(&d.Icon, "icon", "", "icon shown for the day")
	cmd.Flags().BoolVar(&d.IsHoliday, "holiday", false, "mark the days as holidays")
	cmd.Flags().StringVar(&d.CategoryID, "category", "", "category id used for the colour")
	cmd.Flags().StringVar(&d.Shape, "shape", "", "marker shape (e.g. circle, square)")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

func newStyleListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List day styles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, state, err := a.loadState()
			if err != nil {
				return err
			}
			for _, d := range state.DayStyles {
				span := d.StartDate
				if d.EndDate != "" && d.EndDate != d.StartDate {
					span += ".." + d.EndDate
				}
				line := fmt.Sprintf("%s  %-22s %s", d.ID, span, strings.TrimSpace(d.Icon+" "+d.Label))
				if d.IsHoliday {
					line += " " + a.styles.HolidayStyle.Render("holiday")
				}
				cmd.Println(line)
			}
			return nil
		},
	}
}

func newStyleRemoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "rm ID",
		Aliases: []string{"delete"},
		Short:   "Remove a day style",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openStore()
			if err != nil {
				return err
			}
			if err := store.DeleteDayStyle(args[0]); err != nil {
				return err
			}
			cmd.Printf("Removed day style %s\n", args[0])
			return nil
		},
	}
}
