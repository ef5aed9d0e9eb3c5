package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/currency"

	"fintrack/internal/chart"
	"fintrack/internal/core"
	"fintrack/internal/services"
)

// App is what the command tree needs from the process.
type App struct {
	// Open is called once per command invocation.
	Open     func(ctx context.Context) (*services.LedgerService, func() error, error)
	Currency currency.Unit
}

// NewRootCommand builds the fintrackctl command tree.
func NewRootCommand(app App) *cobra.Command {
	if app.Currency == (currency.Unit{}) {
		app.Currency = core.DefaultCurrency
	}

	root := &cobra.Command{
		Use:           "fintrackctl",
		Short:         "Manage the fintrack expense ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newAddCmd(app),
		newListCmd(app),
		newDeleteCmd(app),
		newImportCmd(app),
		newExportCmd(app),
		newRenderCmd(app),
		newThemeCmd(app),
	)
	return root
}

// withLedger opens the ledger for the duration of fn.
func withLedger(cmd *cobra.Command, app App, fn func(context.Context, *services.LedgerService) error) (err error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ledger, cleanup, err := app.Open(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := cleanup(); cerr != nil && err == nil {
			err = fmt.Errorf("close ledger: %w", cerr)
		}
	}()
	return fn(ctx, ledger)
}

// addFilterFlags registers the selection flags shared by the read commands.
func addFilterFlags(cmd *cobra.Command) *cobra.Command {
	f := cmd.Flags()
	f.String("from", "", "Only records on or after this date (YYYY-MM-DD)")
	f.String("to", "", "Only records on or before this date (YYYY-MM-DD)")
	f.String("category", "", "Only records in this category")
	f.String("min", "", "Minimum amount, inclusive")
	f.String("max", "", "Maximum amount, inclusive")
	f.String("q", "", "Case-insensitive text to look for in notes")
	return cmd
}

func filterFromFlags(cmd *cobra.Command) (core.FilterCriteria, error) {
	get := func(name string) string {
		v, _ := cmd.Flags().GetString(name)
		return v
	}
	c, err := core.ParseFilter(core.FilterParams{
		From:     get("from"),
		To:       get("to"),
		Category: get("category"),
		Min:      get("min"),
		Max:      get("max"),
		Query:    get("q"),
	})
	if err != nil {
		return core.FilterCriteria{}, fmt.Errorf("invalid filter: %w", err)
	}
	return c, nil
}

func newAddCmd(app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			date, _ := cmd.Flags().GetString("date")
			rawAmount, _ := cmd.Flags().GetString("amount")
			rawCategory, _ := cmd.Flags().GetString("category")
			notes, _ := cmd.Flags().GetString("notes")

			amount, err := core.ParseAmount(rawAmount)
			if err != nil {
				return fmt.Errorf("amount %q: %w", rawAmount, err)
			}
			category, err := core.ParseCategory(rawCategory)
			if err != nil {
				return err
			}
			in := core.RecordInput{Date: strings.TrimSpace(date), Amount: amount, Category: category, Notes: notes}

			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				rec, err := l.Create(ctx, in)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s %s on %s\n",
					rec.ID, rec.Category, core.FormatMoney(rec.Amount, app.Currency), rec.Date)
				return nil
			})
		},
	}
	cmd.Flags().String("date", time.Now().Format(core.DateLayout), "Expense date (YYYY-MM-DD)")
	cmd.Flags().String("amount", "", "Amount, e.g. 12.50")
	cmd.Flags().String("category", "", "One of Food, Travel, Bills, Shopping, Other")
	cmd.Flags().String("notes", "", "Free text")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("category")
	return cmd
}

func newListCmd(app App) *cobra.Command {
	return addFilterFlags(&cobra.Command{
		Use:   "list",
		Short: "List records matching the filter, oldest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				d, err := l.Dashboard(ctx, c)
				if err != nil {
					return err
				}
				return printDashboard(cmd.OutOrStdout(), d, app.Currency)
			})
		},
	})
}

func printDashboard(w io.Writer, d services.Dashboard, unit currency.Unit) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tAMOUNT\tCATEGORY\tNOTES")
	for _, r := range d.Records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.ID, r.Date, r.Amount.StringFixed(2), r.Category, r.Notes)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	top := "-"
	if d.Summary.HasTop {
		top = d.Summary.Top.Category.String()
	}
	_, err := fmt.Fprintf(w, "\nTotal: %s  Records: %d  Top category: %s\n",
		core.FormatMoney(d.Summary.Total, unit), d.Summary.Count, top)
	return err
}

func newDeleteCmd(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID...",
		Short: "Delete records by ID",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				for _, id := range args {
					if err := l.Delete(ctx, id); err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
				}
				return nil
			})
		},
	}
}

func newImportCmd(app App) *cobra.Command {
	return &cobra.Command{
		Use:   "import FILE.json",
		Short: "Append records from a JSON dump of the browser widget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open import file: %w", err)
			}
			defer f.Close()

			records, err := core.DecodeRecords(f)
			if err != nil {
				return err
			}
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				n, err := l.Import(ctx, records)
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d of %d records\n", n, len(records))
				return err
			})
		},
	}
}

func newExportCmd(app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write records matching the filter as CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				if out == "" {
					return l.ExportCSV(ctx, c, cmd.OutOrStdout())
				}
				return writeFile(out, func(w io.Writer) error { return l.ExportCSV(ctx, c, w) })
			})
		},
	}
	cmd.Flags().String("out", "", "Output file (default stdout)")
	return addFilterFlags(cmd)
}

func newRenderCmd(app App) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "render pie|line",
		Short:     "Render a chart of the filtered records as PNG",
		ValidArgs: []string{services.ChartPie, services.ChartLine},
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			out, _ := cmd.Flags().GetString("out")
			themeName, _ := cmd.Flags().GetString("theme")
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				theme, err := resolveTheme(ctx, l, themeName)
				if err != nil {
					return err
				}
				if err := writeFile(out, func(w io.Writer) error {
					return l.Render(ctx, args[0], c, theme, w)
				}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s chart to %s\n", args[0], out)
				return nil
			})
		},
	}
	cmd.Flags().String("out", "", "Output PNG file")
	cmd.Flags().String("theme", "", "dark or light (default: the saved theme)")
	_ = cmd.MarkFlagRequired("out")
	return addFilterFlags(cmd)
}

func resolveTheme(ctx context.Context, l *services.LedgerService, name string) (chart.Theme, error) {
	if name == "" {
		return l.Theme(ctx)
	}
	return chart.ParseTheme(name)
}

func newThemeCmd(app App) *cobra.Command {
	return &cobra.Command{
		Use:       "theme [toggle|dark|light]",
		Short:     "Show, toggle or set the chart theme",
		ValidArgs: []string{"toggle", chart.Dark.Name, chart.Light.Name},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, app, func(ctx context.Context, l *services.LedgerService) error {
				var (
					theme chart.Theme
					err   error
				)
				switch {
				case len(args) == 0:
					theme, err = l.Theme(ctx)
				case args[0] == "toggle":
					theme, err = l.ToggleTheme(ctx)
				default:
					if theme, err = chart.ParseTheme(args[0]); err == nil {
						err = l.SetTheme(ctx, theme)
					}
				}
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), theme.Name)
				return nil
			})
		},
	}
}

// writeFile streams fn into a temp file next to path and renames it into
// place, so a failure leaves any existing file at path untouched.
func writeFile(path string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := errors.Join(fn(tmp), tmp.Chmod(0o644)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
