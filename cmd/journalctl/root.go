package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"tradeJournal/config"
	"tradeJournal/internal/adapters/logger"
	"tradeJournal/internal/adapters/sqlite"
	"tradeJournal/internal/analytics"
	"tradeJournal/internal/app"
	"tradeJournal/internal/domain"
)

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	dbPath   string
	owner    string
	timezone string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "journalctl",
		Short: "Record trades and report on their performance",
		Long: `journalctl records trades in a SQLite journal and reports on them.

Subcommands:
  add, close, cancel, rm, show, list  - manage trades
  summary, breakdown, top, compare    - performance reports
  export, import                      - CSV transfer
  settings                            - owner preferences

Examples:
  journalctl add AAPL buy 10 150.25 --date 2024-01-15
  journalctl close <trade-id> --price 162.10
  journalctl breakdown --by month`,
		SilenceUsage: true,
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&opts.dbPath, "db", "d", envOr("DB_PATH", "./data/journal.db"), "path to SQLite journal DB")
	pf.StringVarP(&opts.owner, "owner", "o", envOr("JOURNAL_OWNER", "default"), "owner whose journal is used")
	pf.StringVar(&opts.timezone, "tz", envOr("TIMEZONE", "UTC"), "time zone for dates and calendar periods")
	pf.StringVar(&opts.logLevel, "log-level", "WARN", "log level (DEBUG, INFO, WARN, ERROR)")

	cmd.AddCommand(
		newAddCmd(opts),
		newCloseCmd(opts),
		newCancelCmd(opts),
		newRemoveCmd(opts),
		newShowCmd(opts),
		newListCmd(opts),
		newSettingsCmd(opts),
		newSummaryCmd(opts),
		newBreakdownCmd(opts),
		newTopCmd(opts),
		newCompareCmd(opts),
		newExportCmd(opts),
		newImportCmd(opts),
	)
	return cmd
}

// open wires the journal service on top of the SQLite repository. The
// returned func closes the database.
func (o *rootOptions) open(cmd *cobra.Command) (*app.JournalService, func(), error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid time zone %q: %w", o.timezone, err)
	}
	level := logger.ParseLevel(o.logLevel)
	log := logger.NewZerologLogger(logger.Config{Level: level, Output: cmd.ErrOrStderr()})

	repo, err := sqlite.NewRepository(sqlite.Config{DBPath: o.dbPath, Logger: log})
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}

	cfg := &config.Config{
		DBPath:                     o.dbPath,
		LogLevel:                   level,
		DefaultAutoCalculateProfit: true,
		Location:                   loc,
	}
	svc, err := app.NewJournalService(cfg, log, repo, repo)
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	return svc, func() { repo.Close() }, nil
}

// filterFlags are the trade filters shared by list and the report commands.
type filterFlags struct {
	symbol   string
	strategy string
	side     string
	status   string
	from     string
	to       string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.symbol, "symbol", "s", "", "only this symbol")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "only this strategy")
	cmd.Flags().StringVar(&f.side, "side", "", "only BUY or SELL")
	cmd.Flags().StringVar(&f.status, "status", "", "only OPEN, CLOSED or CANCELLED")
	cmd.Flags().StringVar(&f.from, "from", "", "entered on or after (YYYY-MM-DD or RFC 3339)")
	cmd.Flags().StringVar(&f.to, "to", "", "entered before; a date includes the whole day")
}

func (f *filterFlags) filter(loc *time.Location) (analytics.Filter, error) {
	out := analytics.Filter{Symbol: f.symbol, Strategy: f.strategy}
	if f.side != "" {
		side, ok := domain.ParseSide(f.side)
		if !ok {
			return out, fmt.Errorf("invalid side %q", f.side)
		}
		out.Side = side
	}
	if f.status != "" {
		status, ok := domain.ParseStatus(f.status)
		if !ok {
			return out, fmt.Errorf("invalid status %q", f.status)
		}
		out.Status = status
	}
	w, err := analytics.ParseWindow(f.from, f.to, loc)
	if err != nil {
		return out, err
	}
	out.Window = w
	return out, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func parseDecimal(name, v string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(v))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", name, v)
	}
	return d, nil
}

// optionalDecimal returns a null decimal unless the flag was given.
func optionalDecimal(cmd *cobra.Command, name, v string) (decimal.NullDecimal, error) {
	if !cmd.Flags().Changed(name) {
		return decimal.NullDecimal{}, nil
	}
	d, err := parseDecimal(name, v)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}
