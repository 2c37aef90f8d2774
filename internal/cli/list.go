package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/listkeeper/internal/grocery"
	"github.com/dukerupert/listkeeper/internal/model"
)

func newListCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Manage shopping lists",
	}
	cmd.AddCommand(
		newListCreateCmd(g),
		newListLsCmd(g),
		newListShowCmd(g),
		newListUpdateCmd(g),
		newListDeleteCmd(g),
		newListClearCmd(g),
	)
	return cmd
}

func newListCreateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := floatFlag(cmd, "budget")
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				l, err := a.lists.CreateList(ctx, args[0], budget)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), l)
				}
				say(cmd, g, a)
				fmt.Fprintln(cmd.OutOrStdout(), l.ID)
				return nil
			})
		},
	}
	cmd.Flags().Float64("budget", 0, "spending limit for the list")
	return cmd
}

func newListLsCmd(g *globals) *cobra.Command {
	var opts grocery.FilterOptions
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List shopping lists",
		Long: `List shopping lists, optionally filtered and sorted.

Sort keys: createdAt, updatedAt, name, total.

Example:
  listkeeper list ls --completed=false --sort total --desc
  listkeeper list ls --category carnes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Completed = boolFlag(cmd, "completed")
			if opts.Category != "" && !grocery.IsCategory(opts.Category) {
				return usagef("unknown category %q", opts.Category)
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				lists := a.lists.Filter(opts)
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), lists)
				}
				printLists(cmd.OutOrStdout(), lists)
				return nil
			})
		},
	}
	cmd.Flags().Bool("completed", false, "only completed (true) or open (false) lists")
	cmd.Flags().StringVar(&opts.Category, "category", "", "only lists with an item in this category")
	cmd.Flags().StringVar(&opts.SortBy, "sort", grocery.SortByCreatedAt, "sort key")
	cmd.Flags().BoolVar(&opts.Desc, "desc", false, "sort descending")
	return cmd
}

func newListShowCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "show <list-id>",
		Short: "Show a list grouped by section",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				l, err := requireList(ctx, a, args[0])
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), l)
				}
				printList(cmd.OutOrStdout(), *l)
				return nil
			})
		},
	}
}

func newListUpdateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <list-id>",
		Short: "Rename a list or change its budget or completion",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			budget, err := floatFlag(cmd, "budget")
			if err != nil {
				return err
			}
			clearBudget, _ := cmd.Flags().GetBool("clear-budget")
			patch := model.ListPatch{
				Name:        stringFlag(cmd, "name"),
				Budget:      budget,
				ClearBudget: clearBudget,
				Completed:   boolFlag(cmd, "completed"),
			}
			if cmd.Flags().Changed("expected-version") {
				v, _ := cmd.Flags().GetInt64("expected-version")
				patch.ExpectedVersion = &v
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				l, err := a.lists.UpdateList(ctx, args[0], patch)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), l)
				}
				say(cmd, g, a)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().Float64("budget", 0, "new budget")
	cmd.Flags().Bool("clear-budget", false, "remove the budget")
	cmd.Flags().Bool("completed", false, "mark the list completed or open")
	cmd.Flags().Int64("expected-version", 0, "fail unless the list is at this version")
	cmd.MarkFlagsMutuallyExclusive("budget", "clear-budget")
	return cmd
}

func newListDeleteCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <list-id>",
		Short: "Delete a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				if err := a.lists.DeleteList(ctx, args[0]); err != nil {
					return err
				}
				say(cmd, g, a)
				return nil
			})
		},
	}
}

func newListClearCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "clear-checked <list-id>",
		Short: "Remove every checked item from a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				n, err := a.lists.ClearChecked(ctx, args[0])
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), map[string]int{"removed": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %d\n", n)
				return nil
			})
		},
	}
}
