package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dukerupert/listkeeper/internal/model"
)

func newItemCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Manage the items of a list",
	}
	cmd.AddCommand(
		newItemAddCmd(g),
		newItemUpdateCmd(g),
		newItemCheckCmd(g),
		newItemRmCmd(g),
	)
	return cmd
}

func newItemAddCmd(g *globals) *cobra.Command {
	var in model.ItemInput
	cmd := &cobra.Command{
		Use:   "add <list-id> <name>",
		Short: "Add an item to a list",
		Long: `Add an item to a list. The category is derived from the name
unless one is given.

Example:
  listkeeper item add 0192... "Arroz" --qty 2 --price 5
  listkeeper item add 0192... "Leite" --unit L --category laticinios`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := floatFlag(cmd, "price")
			if err != nil {
				return err
			}
			in.Name = args[1]
			in.Price = price
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				item, err := a.lists.AddItem(ctx, args[0], in)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), item)
				}
				say(cmd, g, a)
				fmt.Fprintln(cmd.OutOrStdout(), item.ID)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&in.Quantity, "qty", 1, "quantity")
	cmd.Flags().StringVar(&in.Unit, "unit", model.DefaultUnit, "unit of measure")
	cmd.Flags().Float64("price", 0, "unit price")
	cmd.Flags().StringVar(&in.Category, "category", "", "category id (derived from the name when empty)")
	return cmd
}

func newItemUpdateCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <list-id> <item-id>",
		Short: "Change fields of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := floatFlag(cmd, "price")
			if err != nil {
				return err
			}
			clearPrice, _ := cmd.Flags().GetBool("clear-price")
			patch := model.ItemPatch{
				Name:       stringFlag(cmd, "name"),
				Quantity:   intFlag(cmd, "qty"),
				Unit:       stringFlag(cmd, "unit"),
				Price:      price,
				ClearPrice: clearPrice,
				Checked:    boolFlag(cmd, "checked"),
				Category:   stringFlag(cmd, "category"),
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				item, err := a.lists.UpdateItem(ctx, args[0], args[1], patch)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), item)
				}
				say(cmd, g, a)
				return nil
			})
		},
	}
	cmd.Flags().String("name", "", "new name")
	cmd.Flags().Int("qty", 1, "new quantity")
	cmd.Flags().String("unit", "", "new unit")
	cmd.Flags().Float64("price", 0, "new unit price")
	cmd.Flags().Bool("clear-price", false, "remove the price")
	cmd.Flags().Bool("checked", false, "set the checked state")
	cmd.Flags().String("category", "", "new category id")
	cmd.MarkFlagsMutuallyExclusive("price", "clear-price")
	return cmd
}

func newItemCheckCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "check <list-id> <item-id>",
		Short: "Toggle the checked state of an item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				item, err := a.lists.ToggleItem(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), item)
				}
				state := "unchecked"
				if item.Checked {
					state = "checked"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", item.Name, state)
				return nil
			})
		},
	}
}

func newItemRmCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <list-id> <item-id>",
		Short: "Remove an item from a list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				if err := a.lists.RemoveItem(ctx, args[0], args[1]); err != nil {
					return err
				}
				say(cmd, g, a)
				return nil
			})
		},
	}
}

func newVoiceCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "voice",
		Short: "Add items from speech parsing output",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "import <list-id> <file|->",
		Short: "Import a JSON array of voice records into a list",
		Long: `Import a JSON array of voice records into a list. Each record has
"produto", "quantidade" and an optional "unidade". Use - to read stdin.

Example:
  echo '[{"produto":"leite","quantidade":2,"unidade":"litros"}]' | listkeeper voice import 0192... -`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readVoiceRecords(cmd, args[1])
			if err != nil {
				return err
			}
			return withApp(cmd, g, func(ctx context.Context, a *app) error {
				items, err := a.lists.AddVoiceItems(ctx, args[0], records)
				if err != nil {
					return err
				}
				if g.jsonMode {
					return printJSON(cmd.OutOrStdout(), items)
				}
				say(cmd, g, a)
				printItems(cmd.OutOrStdout(), items)
				return nil
			})
		},
	})
	return cmd
}

func readVoiceRecords(cmd *cobra.Command, path string) ([]model.VoiceItem, error) {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, usagef("open %s: %v", path, err)
		}
		defer f.Close()
		r = f
	}
	var records []model.VoiceItem
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, usagef("parse voice records: %v", err)
	}
	return records, nil
}
