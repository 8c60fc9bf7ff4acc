package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/example/reservation-service/internal/app"
	"github.com/example/reservation-service/internal/domain"
	"github.com/example/reservation-service/internal/usecase"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	okMark   = color.New(color.FgGreen).Sprint("✓")
	warnMark = color.New(color.FgYellow).Sprint("!")
	dim      = color.New(color.Faint)
)

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List reservations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				list, err := a.Repo.List(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, list)
				}
				for _, r := range list {
					printReservation(out, r)
				}
				fmt.Fprintf(out, "%d reservations\n", len(list))
				return nil
			})
		},
	}
}

func newGetCommand(opts *RootOptions) *cobra.Command {
	var reserveNo, waybillNo string
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Find one reservation by reservation or waybill number",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (reserveNo == "") == (waybillNo == "") {
				return errors.New("exactly one of --reserve or --waybill is required")
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				var rec domain.Reservation
				var err error
				if reserveNo != "" {
					rec, err = a.Repo.GetByReserve(ctx, reserveNo)
				} else {
					rec, err = a.Repo.GetByWaybill(ctx, waybillNo)
				}
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), rec)
				}
				printReservation(cmd.OutOrStdout(), rec)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&reserveNo, "reserve", "", "reservation number")
	cmd.Flags().StringVar(&waybillNo, "waybill", "", "waybill number (any formatting)")
	return cmd
}

func newHealCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "heal",
		Short: "Consolidate legacy locations into the canonical set if it is empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				res, err := a.Reconciler.Heal(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, map[string]any{"healed": res.Healed, "total": len(res.Records), "sources": res.Sources})
				}
				if !res.Healed {
					fmt.Fprintf(out, "%s nothing to heal, canonical set has %d records\n", okMark, len(res.Records))
					return nil
				}
				for _, s := range res.Sources {
					fmt.Fprintf(out, "  %-40s %d\n", s.Key, s.Count)
				}
				fmt.Fprintf(out, "%s healed %d records into %s\n", okMark, len(res.Records), a.Reconciler.Layout.CanonicalKey)
				return nil
			})
		},
	}
}

func newDebugCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "debug",
		Short: "Show record counts for every storage location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				d, err := a.Inspect.Execute(ctx)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if opts.Format == "json" {
					return writeJSON(out, d)
				}
				printLocation(out, "canonical", d.Canonical)
				for _, lc := range d.Legacy {
					printLocation(out, "legacy", lc)
				}
				for _, lc := range d.LegacyPrefixes {
					printLocation(out, "prefix", lc)
				}
				fmt.Fprintf(out, "migration: %s\n", d.Migration)
				return nil
			})
		},
	}
}

func newWipeCommand(opts *RootOptions) *cobra.Command {
	var confirm string
	cmd := &cobra.Command{
		Use:   "wipe",
		Short: "Delete every key under the wipe prefixes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if confirm != usecase.WipeConfirmPhrase {
				return fmt.Errorf("%w: pass --confirm %s", domain.ErrConfirmationRequired, usecase.WipeConfirmPhrase)
			}
			return withApp(cmd, opts, func(ctx context.Context, a *app.App) error {
				n, err := a.Wipe.Execute(ctx, confirm)
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]any{"ok": true, "deleted": n})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %d keys\n", warnMark, n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&confirm, "confirm", "", "confirmation phrase")
	return cmd
}

func printReservation(w io.Writer, r domain.Reservation) {
	fmt.Fprintf(w, "%-12s %-20s %s\n", r.ReserveNo, r.WaybillNo, dim.Sprint(r.UpdatedAt))
}

func printLocation(w io.Writer, kind string, lc usecase.LocationCount) {
	mark := okMark
	if !lc.Exists {
		mark = dim.Sprint("-")
	}
	if lc.Error != "" {
		mark = warnMark
	}
	fmt.Fprintf(w, "%s %-9s %-40s %d\n", mark, kind, lc.Key, lc.Count)
}
