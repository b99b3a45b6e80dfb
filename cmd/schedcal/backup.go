package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedcal/internal/backup"

	"github.com/spf13/cobra"
)

func newBackupCmd(a *app) *cobra.Command {
	var (
		list  bool
		prune int
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Create, list or prune backups of the calendar",
		Long: `Creates a timestamped copy of calendar.json under <data dir>/backups.
Backups are also taken automatically before every import.`,
		Example: `  schedcal backup
  schedcal backup --list
  schedcal backup --prune 5`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.backupManager()
			switch {
			case list:
				return a.listBackups(cmd, m)
			case cmd.Flags().Changed("prune"):
				deleted, err := m.Prune(prune)
				if err != nil {
					return err
				}
				cmd.Printf("Pruned %d backups, kept the %d most recent.\n", deleted, prune)
				return nil
			default:
				return a.createBackup(cmd, m)
			}
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "list available backups")
	cmd.Flags().IntVar(&prune, "prune", 0, "delete all but the N most recent backups")
	cmd.MarkFlagsMutuallyExclusive("list", "prune")
	return cmd
}

func newRestoreCmd(a *app) *cobra.Command {
	var latest, force bool

	cmd := &cobra.Command{
		Use:   "restore [NAME]",
		Short: "Restore the calendar from a backup",
		Long: `Replaces calendar.json with the copy kept in a backup. The current
calendar is backed up first, so a restore can itself be undone.`,
		Example: `  schedcal restore --latest
  schedcal restore --force 2026-03-01_143022_000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := a.backupManager()

			var name string
			switch {
			case latest && len(args) > 0:
				return errors.New("give a backup name or --latest, not both")
			case latest:
				backups, err := m.List()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					return errors.New("no backups available")
				}
				name = backups[0].Name
			case len(args) == 1:
				name = args[0]
			default:
				return errors.New("no backup specified; run 'schedcal backup --list' to see available backups")
			}

			info, err := m.GetBackup(name)
			if err != nil {
				return err
			}

			cmd.Printf("Restoring from backup: %s\n", info.Name)
			cmd.Printf("  Created: %s\n", info.CreatedAt.Format("2006-01-02 15:04:05"))
			cmd.Printf("  %s\n\n", describeStats(info.Stats))

			if !force {
				cmd.Print("This will overwrite your current calendar. Continue? [y/N] ")
				response, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && response == "" {
					return fmt.Errorf("read confirmation: %w", err)
				}
				response = strings.TrimSpace(strings.ToLower(response))
				if response != "y" && response != "yes" {
					cmd.Println("Restore cancelled.")
					return nil
				}
			}

			if err := m.Restore(name); err != nil {
				return err
			}
			cmd.Printf("Restored successfully from %s\n", name)
			return nil
		},
	}

	cmd.Flags().BoolVar(&latest, "latest", false, "restore the most recent backup")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "skip the confirmation prompt")
	return cmd
}

func (a *app) backupManager() *backup.Manager {
	m := backup.NewManager(a.cfg.GetDataDir(), version)
	m.SetNowFunc(a.now)
	return m
}

func (a *app) createBackup(cmd *cobra.Command, m *backup.Manager) error {
	name, err := m.Create(backup.ReasonManual)
	if err != nil {
		return err
	}
	info, err := m.GetBackup(name)
	if err != nil {
		return err
	}

	cmd.Printf("Backup created: %s\n", name)
	cmd.Printf("  %s\n", describeStats(info.Stats))
	cmd.Printf("  Location: %s\n", info.Path)
	return nil
}

func (a *app) listBackups(cmd *cobra.Command, m *backup.Manager) error {
	backups, err := m.List()
	if err != nil {
		return err
	}

	if len(backups) == 0 {
		cmd.Println("No backups available.")
		cmd.Println("Run 'schedcal backup' to create one.")
		return nil
	}

	cmd.Println("Available backups:")
	now := a.now()
	for _, b := range backups {
		reason := b.Reason
		if reason == "" {
			reason = "-"
		}
		cmd.Printf("  %s  %-11s (%s)  %s\n", b.Name, reason, formatAge(now.Sub(b.CreatedAt)), describeStats(b.Stats))
	}
	return nil
}

func describeStats(stats map[string]int) string {
	return fmt.Sprintf("Activities: %d, Categories: %d, Day styles: %d",
		stats["activities"], stats["categories"], stats["day_styles"])
}

// formatAge returns a human-readable age string.
func formatAge(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d.Minutes()), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d.Hours()), "hour") + " ago"
	case d < 7*24*time.Hour:
		return plural(int(d.Hours()/24), "day") + " ago"
	default:
		return plural(int(d.Hours()/24/7), "week") + " ago"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
