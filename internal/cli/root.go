package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/example/reservation-service/internal/app"
	"github.com/spf13/cobra"
)

// Opener собирает зависимости сервиса для одной команды.
type Opener func(ctx context.Context) (*app.App, error)

// RootOptions — глобальные флаги resvctl.
type RootOptions struct {
	Format string // "text" | "json"
	Open   Opener
}

var ValidFormats = []string{"text", "json"}

// NewRootCommand — корневая команда resvctl.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{Open: open}

	cmd := &cobra.Command{
		Use:   "resvctl",
		Short: "Inspect and maintain the reservation store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			for _, f := range ValidFormats {
				if f == opts.Format {
					return nil
				}
			}
			return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newHealCommand(opts))
	cmd.AddCommand(newDebugCommand(opts))
	cmd.AddCommand(newWipeCommand(opts))
	return cmd
}

// withApp открывает зависимости, выполняет fn и закрывает подключения.
func withApp(cmd *cobra.Command, opts *RootOptions, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := opts.Open(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
