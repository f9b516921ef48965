package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	errx "github.com/bowlmetrics/server/internal/core/error"
	"github.com/bowlmetrics/server/internal/report"
	logx "github.com/bowlmetrics/server/pkg/logger"
)

const dateLayout = "2006-01-02"

// cli owns the app built for one invocation; Close releases it whether or
// not the command succeeded.
type cli struct {
	cfg AppConfig
	app *app
}

func (c *cli) get() *app { return c.app }

func (c *cli) Close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "bowlmetrics",
		Short:         "Bowl-count metrics from POS order exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			c.app = a
			return nil
		},
	}

	get := c.get
	root.AddCommand(
		newDailyCmd(get),
		newWeeklyCmd(get),
		newImportOrdersCmd(get),
		newImportModifiersCmd(get),
		newInferCmd(get),
	)

	return root
}

func newDailyCmd(get func() *app) *cobra.Command {
	var (
		date      string
		asJSON    bool
		debugUnit bool
	)
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Daily operational report for one date",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := parseDate("date", date); err != nil {
				return err
			}
			a := get()
			out := cmd.OutOrStdout()

			if debugUnit {
				diag, err := a.reports.UnitPriceDiagnostics(cmd.Context(), date)
				if err != nil {
					return err
				}
				if diag == nil {
					return noData(out, date)
				}
				return writeJSON(out, diag)
			}

			d, err := a.reports.Daily(cmd.Context(), date)
			if err != nil {
				return err
			}
			if d == nil {
				return noData(out, date)
			}
			if asJSON {
				return writeJSON(out, d)
			}
			_, err = fmt.Fprintln(out, report.RenderDaily(d))
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "report date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&debugUnit, "debug-avg-unit-price", false, "print average unit price diagnostics instead")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newWeeklyCmd(get func() *app) *cobra.Command {
	var (
		start, end string
		asJSON     bool
	)
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Structural report for a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := checkRange(start, end); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			w, err := get().reports.Weekly(cmd.Context(), start, end)
			if err != nil {
				return err
			}
			if w == nil {
				return noData(out, start+" to "+end)
			}
			if asJSON {
				return writeJSON(out, w)
			}
			_, err = fmt.Fprintln(out, report.RenderWeekly(w))
			return err
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "last date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newImportOrdersCmd(get func() *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-orders",
		Short: "Import a POS payment CSV export",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			res, err := a.store.ImportOrdersCSV(cmd.Context(), a.resolve(file))
			if err != nil {
				return err
			}
			if err := a.reports.Invalidate(cmd.Context()); err != nil {
				logx.Warn().Err(err).Msg("failed to invalidate report cache")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV path, absolute or relative to RAW_DIR")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newImportModifiersCmd(get func() *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "import-modifiers",
		Short: "Import a modifier summary CSV (file name carries the date range)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := get()
			n, err := a.store.ImportModifiersCSV(cmd.Context(), a.resolve(file), a.catalog.MentionsProtein)
			if err != nil {
				return err
			}
			if err := a.reports.Invalidate(cmd.Context()); err != nil {
				logx.Warn().Err(err).Msg("failed to invalidate report cache")
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Modifier import finished: rows=%d\n", n)
			return err
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "CSV path, absolute or relative to RAW_DIR")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newInferCmd(get func() *app) *cobra.Command {
	var (
		name  string
		price float64
	)
	cmd := &cobra.Command{
		Use:   "infer",
		Short: "Show the inferred meal quantity for one item line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := get().catalog
			base, known := c.BasePrice(name)
			q := c.InferQuantity(name, price)
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "name=%s price=%.2f base=%.0f known=%t quantity=%d\n",
				name, price, base, known, q)
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "item name as printed on the order")
	cmd.Flags().Float64Var(&price, "price", 0, "observed line price")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

// parseDate accepts only zero-padded YYYY-MM-DD, the form the store compares against.
func parseDate(flag, v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, errx.InvalidInput("--%s must be YYYY-MM-DD, got %q", flag, v)
	}
	return t, nil
}

func checkRange(start, end string) error {
	s, err := parseDate("start", start)
	if err != nil {
		return err
	}
	e, err := parseDate("end", end)
	if err != nil {
		return err
	}
	if e.Before(s) {
		return errx.InvalidInput("--end %s is before --start %s", end, start)
	}
	return nil
}

// resolve finds file as given, falling back to RAW_DIR.
func (a *app) resolve(file string) string {
	if filepath.IsAbs(file) {
		return file
	}
	if _, err := os.Stat(file); err == nil {
		return file
	}
	alt := filepath.Join(a.cfg.RawDir, file)
	if _, err := os.Stat(alt); err == nil {
		return alt
	}
	return file
}

func noData(out io.Writer, period string) error {
	_, err := fmt.Fprintf(out, "No data found for %s.\n", period)
	return err
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return errx.Internal(err)
	}
	return nil
}
