package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/listkeeper/internal/model"
	"github.com/dukerupert/listkeeper/internal/store"
)

// withApp opens the app for one command and closes it afterwards.
func withApp(cmd *cobra.Command, g *globals, fn func(ctx context.Context, a *app) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := openApp(ctx, g)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(ctx, a)
}

// requireList fetches a list or reports it missing.
func requireList(ctx context.Context, a *app, id string) (*model.ShoppingList, error) {
	l, err := a.lists.GetListByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("list %s: %w", id, store.ErrNotFound)
	}
	return l, nil
}

// say prints the latest notification in text mode.
func say(cmd *cobra.Command, g *globals, a *app) {
	if g.jsonMode {
		return
	}
	if msg, ok := a.notes.Last(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), msg.Text)
	}
}

// floatFlag returns a pointer to the flag value when it was set.
func floatFlag(cmd *cobra.Command, name string) (*float64, error) {
	if !cmd.Flags().Changed(name) {
		return nil, nil
	}
	v, err := cmd.Flags().GetFloat64(name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func stringFlag(cmd *cobra.Command, name string) *string {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetString(name)
	return &v
}

func intFlag(cmd *cobra.Command, name string) *int {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetInt(name)
	return &v
}

func boolFlag(cmd *cobra.Command, name string) *bool {
	if !cmd.Flags().Changed(name) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(name)
	return &v
}
