package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"tradeJournal/internal/analytics"
)

func newSummaryCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print aggregate statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			f, err := filters.filter(svc.Location())
			if err != nil {
				return err
			}
			report, err := svc.Summary(cmd.Context(), opts.owner, f)
			if err != nil {
				return err
			}
			s, r := report.Summary.Rounded(), report.Risk

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "Trades\t%d (open %d, closed %d, cancelled %d)\n",
				s.TotalTrades, s.OpenTrades, s.ClosedTrades, s.CancelledTrades)
			fmt.Fprintf(w, "Wins / Losses\t%d / %d\n", s.WinningTrades, s.LosingTrades)
			fmt.Fprintf(w, "Win rate\t%s%%\n", money(s.WinRate))
			fmt.Fprintf(w, "Total profit\t%s\n", money(s.TotalProfit))
			fmt.Fprintf(w, "Average profit\t%s\n", money(s.AverageProfit))
			fmt.Fprintf(w, "Average win / loss\t%s / %s\n", money(s.AverageWin), money(s.AverageLoss))
			fmt.Fprintf(w, "Biggest win / loss\t%s / %s\n", money(s.BiggestWin), money(s.BiggestLoss))
			fmt.Fprintf(w, "Profit factor\t%s\n", s.ProfitFactor)
			fmt.Fprintf(w, "Volume\t%s\n", money(s.TotalVolume))
			fmt.Fprintf(w, "Commissions\t%s\n", money(s.TotalCommissions))
			fmt.Fprintf(w, "Net profit\t%s\n", money(s.NetProfit))
			fmt.Fprintf(w, "ROI\t%s%%\n", money(s.ROI))
			fmt.Fprintf(w, "Avg hold\t%s days\n", money(s.AverageHoldDurationDays))
			fmt.Fprintf(w, "Max drawdown\t%s\n", money(r.MaxDrawdown))
			fmt.Fprintf(w, "Streaks\t%d wins / %d losses\n", r.MaxConsecutiveWins, r.MaxConsecutiveLosses)
			fmt.Fprintf(w, "Sharpe\t%.2f\n", r.SharpeRatio)
			return w.Flush()
		},
	}
	filters.register(cmd)
	return cmd
}

func newBreakdownCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	var by string
	var top int

	cmd := &cobra.Command{
		Use:   "breakdown",
		Short: "Summarize trades per symbol, strategy, side, day, month or year",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			f, err := filters.filter(svc.Location())
			if err != nil {
				return err
			}
			groups, err := svc.Breakdown(cmd.Context(), opts.owner, by, top, f)
			if err != nil {
				return err
			}
			if len(groups) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No trades found.")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "Key\tTrades\tClosed\tWin%\tProfit\tPF")
			for _, g := range groups {
				s := g.Summary.Rounded()
				key := g.Key
				if key == "" {
					key = "(none)"
				}
				fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
					key, s.TotalTrades, s.ClosedTrades, money(s.WinRate), money(s.TotalProfit), s.ProfitFactor)
			}
			return w.Flush()
		},
	}
	filters.register(cmd)
	cmd.Flags().StringVar(&by, "by", "symbol", "grouping: symbol, strategy, side, day, month or year")
	cmd.Flags().IntVar(&top, "top", 0, "keep only the first N groups")
	return cmd
}

func newTopCmd(opts *rootOptions) *cobra.Command {
	var filters filterFlags
	var n int
	var losers bool

	cmd := &cobra.Command{
		Use:   "top",
		Short: "List the biggest winning or losing trades",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			f, err := filters.filter(svc.Location())
			if err != nil {
				return err
			}
			items, err := svc.TopTrades(cmd.Context(), opts.owner, n, !losers, f)
			if err != nil {
				return err
			}
			return printTrades(cmd, items, svc.Location())
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVarP(&n, "number", "n", 5, "number of trades")
	cmd.Flags().BoolVar(&losers, "losers", false, "list losers instead of winners")
	return cmd
}

func newCompareCmd(opts *rootOptions) *cobra.Command {
	var period, ref, from, to string

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a period with the one before it",
		Long: `Compare the calendar period containing --ref with the previous one, or an
explicit --from/--to range with the range of equal length right before it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			loc := svc.Location()

			var res analytics.ComparisonResult
			if from != "" || to != "" {
				if from == "" || to == "" {
					return fmt.Errorf("--from and --to are both required for a range comparison")
				}
				w, err := analytics.ParseWindow(from, to, loc)
				if err != nil {
					return err
				}
				if res, err = svc.CompareRange(cmd.Context(), opts.owner, *w); err != nil {
					return err
				}
			} else {
				unit, err := analytics.ParseCalendarUnit(period)
				if err != nil {
					return err
				}
				at := time.Now()
				if ref != "" {
					if at, err = analytics.ParseTime(ref, loc); err != nil {
						return fmt.Errorf("invalid ref %q", ref)
					}
				}
				if res, err = svc.ComparePeriods(cmd.Context(), opts.owner, unit, at); err != nil {
					return err
				}
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "\tPrevious\tCurrent\tChange\tChange%%\n")
			fmt.Fprintf(w, "Period\t%s\t%s\t\t\n", formatWindow(res.PreviousWindow, loc), formatWindow(res.CurrentWindow, loc))
			printDelta(w, "Trades", res.TotalTrades)
			printDelta(w, "Profit", res.TotalProfit)
			printDelta(w, "Win rate", res.WinRate)
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&period, "period", "month", "calendar period: day, week, month or year")
	cmd.Flags().StringVar(&ref, "ref", "", "date inside the current period (default today)")
	cmd.Flags().StringVar(&from, "from", "", "range start")
	cmd.Flags().StringVar(&to, "to", "", "range end; a date includes the whole day")
	return cmd
}

func printDelta(w io.Writer, label string, d analytics.Delta) {
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
		label, money(d.Previous), money(d.Current), money(d.Absolute), money(d.PercentChange))
}

// formatWindow shows the inclusive day range of a half-open window.
func formatWindow(w analytics.Window, loc *time.Location) string {
	last := w.End.Add(-time.Nanosecond)
	return w.Start.In(loc).Format(analytics.DateLayout) + ".." + last.In(loc).Format(analytics.DateLayout)
}
