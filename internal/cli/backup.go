package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dukerupert/listkeeper/internal/backup"
)

func newBackupCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Encrypted backups in S3-compatible storage",
	}
	var passphrase string
	cmd.PersistentFlags().StringVar(&passphrase, "passphrase", "", "encryption passphrase (default: backup.passphrase from config)")

	resolve := func(a *app) string {
		if passphrase != "" {
			return passphrase
		}
		return a.cfg.Backup.Passphrase
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "run",
			Short: "Upload a backup now",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, g, func(ctx context.Context, a *app) error {
					id, err := a.backups.RunNow(ctx, resolve(a))
					if err != nil {
						return err
					}
					if g.jsonMode {
						return printJSON(cmd.OutOrStdout(), map[string]string{"id": id})
					}
					fmt.Fprintln(cmd.OutOrStdout(), id)
					return nil
				})
			},
		},
		newBackupLsCmd(g),
		&cobra.Command{
			Use:   "restore <backup-id>",
			Short: "Replace local data with a backup",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return withApp(cmd, g, func(ctx context.Context, a *app) error {
					n, err := a.backups.Restore(ctx, args[0], resolve(a))
					if err != nil {
						return err
					}
					if err := a.lists.RefreshLists(ctx); err != nil {
						return fmt.Errorf("reload lists: %w", err)
					}
					if g.jsonMode {
						return printJSON(cmd.OutOrStdout(), map[string]int{"keys": n})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "restored %d keys, %d lists\n", n, len(a.lists.Lists()))
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "decrypt <src> <dst>",
			Short: "Decrypt a downloaded backup file",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				if passphrase == "" {
					return backup.ErrNoPassphrase
				}
				if err := backup.DecryptFile(args[0], args[1], passphrase); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[1])
				return nil
			},
		},
	)
	return cmd
}

func newBackupLsCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "Show the backup history, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			if limit < 0 {
				return usagef("limit must be >= 0")
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				backups, err := a.backups.List(ctx, limit)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), backups)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tSTATUS\tKEYS\tBYTES\tCREATED")
				for _, b := range backups {
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", b.ID, b.Status, b.KeyCount, b.SizeBytes, b.CreatedAt.Format("2006-01-02 15:04"))
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().Int("limit", 20, "maximum entries (0 for all)")
	return cmd
}
