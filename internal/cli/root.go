// Package cli implements the listkeeper command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/listkeeper/internal/backup"
	"github.com/dukerupert/listkeeper/internal/store"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// globals holds persistent flag values shared by all subcommands.
type globals struct {
	configPath string
	jsonMode   bool
}

// NewRootCmd creates the top-level "listkeeper" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "listkeeper",
		Short: "Shopping lists with resilient local storage",
		Long: "listkeeper keeps shopping lists in a local key/value store, serves them\n" +
			"over HTTP and WebSocket, and backs them up to S3-compatible storage.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configPath, "config", "", "config file (default: $LISTKEEPER_CONFIG or ./listkeeper.yaml)")
	root.PersistentFlags().BoolVar(&g.jsonMode, "json", false, "output in JSON format")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd(g))
	root.AddCommand(newListCmd(g))
	root.AddCommand(newItemCmd(g))
	root.AddCommand(newVoiceCmd(g))
	root.AddCommand(newBackupCmd(g))

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, args []string) int {
	root := NewRootCmd()
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// usageError marks mistakes in the command line itself.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// exitCode maps errors caused by the caller to 1 and everything else to 2.
func exitCode(err error) int {
	var ue usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, backup.ErrNoPassphrase),
		errors.Is(err, backup.ErrBackupNotFound),
		errors.Is(err, backup.ErrNotConfigured):
		return exitUserError
	case isCobraUsage(err):
		return exitUserError
	default:
		return exitSysError
	}
}

// isCobraUsage recognizes cobra's own argument and flag errors, which are
// plain errors without a sentinel.
func isCobraUsage(err error) bool {
	msg := err.Error()
	for _, prefix := range []string{"unknown command", "unknown flag", "unknown shorthand flag", "accepts ", "requires at least", "invalid argument", "flag needs an argument", "required flag"} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}
