package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/dafibh/pocketbook/pocketbook-backend/internal/app"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/domain"
	"github.com/dafibh/pocketbook/pocketbook-backend/internal/util"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newInitCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Seed example categories and transactions on an empty store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				seeded, err := a.Store.Initialize(ctx)
				if err != nil {
					return err
				}
				if seeded {
					fmt.Fprintln(cmd.OutOrStdout(), "store seeded with example data")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "store already initialized")
				}
				return nil
			})
		},
	}
}

func newResetCmd(open Opener) *cobra.Command {
	var reseed bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete every ledger key",
		Long: `The command reset wipes transactions, categories, budgets, monthly totals,
settings, profile and family data. With --reseed the example data is written again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if err := a.Export.Reset(ctx, reseed); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "store reset")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reseed, "reseed", false, "Write the example data after clearing")
	return cmd
}

func newSummaryCmd(open Opener) *cobra.Command {
	var year, month int

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print income, expenses and the category breakdown of a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if year == 0 {
				year = now.Year()
			}
			if month == 0 {
				month = int(now.Month())
			}
			y, m, err := util.FromCalendar(year, month)
			if err != nil {
				return err
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				return printSummary(ctx, cmd, a, y, m)
			})
		},
	}
	cmd.Flags().IntVar(&year, "year", 0, "Year (default current year)")
	cmd.Flags().IntVar(&month, "month", 0, "Month 1-12 (default current month)")
	return cmd
}

func printSummary(ctx context.Context, cmd *cobra.Command, a *app.App, year, month int) error {
	out := cmd.OutOrStdout()

	current, err := a.Ledger.MonthlyOverview(ctx, month, year)
	if err != nil {
		return err
	}
	if current == nil {
		fmt.Fprintf(out, "%d-%02d: no transactions\n", year, util.CalendarMonth(month))
		return nil
	}

	prevYear, prevMonth := util.PreviousMonth(year, month)
	previous, err := a.Ledger.MonthlyOverview(ctx, prevMonth, prevYear)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "%d-%02d\n", year, util.CalendarMonth(month))
	fmt.Fprintf(w, "income\t%s\n", current.Income.StringFixed(2))
	fmt.Fprintf(w, "expenses\t%s\n", current.Expenses.StringFixed(2))
	fmt.Fprintf(w, "balance\t%s\n", current.Balance().StringFixed(2))
	if previous != nil {
		fmt.Fprintf(w, "expenses vs %d-%02d\t%s\n", prevYear, util.CalendarMonth(prevMonth),
			signed(current.Expenses.Sub(previous.Expenses)))
	}

	breakdown, err := a.Ledger.CategoryBreakdown(ctx, month, year)
	if err != nil {
		return err
	}
	if len(breakdown) > 0 {
		fmt.Fprintln(w)
		for _, c := range breakdown {
			fmt.Fprintf(w, "%s %s\t%s\n", c.Icon, c.Name, c.Amount.StringFixed(2))
		}
	}
	return w.Flush()
}

func signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + d.StringFixed(2)
	}
	return d.StringFixed(2)
}

func newRebuildCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute monthly totals and budget spend from the transaction log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if err := a.Ledger.RebuildAggregates(ctx); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "aggregates rebuilt")
				return nil
			})
		},
	}
}

func newExportCmd(open Opener) *cobra.Command {
	var toBlob bool

	cmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Write a snapshot of the ledger as JSON",
		Long: `The command export writes a snapshot to the given file, or to standard output
when no file is given. With --blob the snapshot is stored in blob storage instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				if toBlob {
					result, err := a.Export.Export(ctx)
					if err != nil {
						return err
					}
					fmt.Fprintln(cmd.OutOrStdout(), result.Key, result.URL)
					return nil
				}

				snap, err := a.Export.Snapshot(ctx)
				if err != nil {
					return err
				}
				data, err := json.MarshalIndent(snap, "", "  ")
				if err != nil {
					return err
				}

				if len(args) == 0 {
					_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
					return err
				}
				if err := os.WriteFile(args[0], data, 0o644); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), args[0], len(snap.Transactions), "transactions")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&toBlob, "blob", false, "Store the snapshot in blob storage")
	return cmd
}

func newImportCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the ledger with a snapshot file",
		Args:  requiredFileWithType(".json"),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			var snap domain.Snapshot
			if err := json.Unmarshal(data, &snap); err != nil {
				return fmt.Errorf("%v: %w", args[0], err)
			}

			return withApp(cmd, open, func(ctx context.Context, a *app.App) error {
				summary, err := a.Export.Import(ctx, &snap)
				if err != nil {
					return fmt.Errorf("%v: %w", args[0], err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), args[0], summary.Transactions, "transactions,",
					summary.Categories, "categories,", summary.Budgets, "budgets")
				return nil
			})
		},
	}
}

func requiredFileWithType(ext string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != 1 {
			return fmt.Errorf("expected exactly one file")
		}
		if _, err := os.Stat(args[0]); err != nil {
			return err
		}
		if filepath.Ext(args[0]) != ext {
			return fmt.Errorf("%v: unsupported file extension, only %q is supported", args[0], ext)
		}
		return nil
	}
}
