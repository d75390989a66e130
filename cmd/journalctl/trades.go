package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/app"
	"tradeJournal/internal/domain"
)

func newAddCmd(opts *rootOptions) *cobra.Command {
	var date, strategy, notes, commission, fees string

	cmd := &cobra.Command{
		Use:   "add <symbol> <BUY|SELL> <quantity> <price>",
		Short: "Record a new open trade",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			side, _ := domain.ParseSide(args[1])
			t := domain.Trade{
				Symbol:   args[0],
				Side:     side,
				Strategy: strings.TrimSpace(strategy),
				Notes:    notes,
				Status:   domain.StatusOpen,
			}
			if t.Quantity, err = parseDecimal("quantity", args[2]); err != nil {
				return err
			}
			if t.EntryPrice, err = parseDecimal("price", args[3]); err != nil {
				return err
			}
			if commission != "" {
				if t.Commission, err = parseDecimal("commission", commission); err != nil {
					return err
				}
			}
			if fees != "" {
				if t.Fees, err = parseDecimal("fees", fees); err != nil {
					return err
				}
			}
			t.EntryDate = time.Now()
			if date != "" {
				if t.EntryDate, err = analytics.ParseTime(date, svc.Location()); err != nil {
					return fmt.Errorf("invalid date %q", date)
				}
			}

			created, err := svc.CreateTrade(cmd.Context(), opts.owner, t)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created trade %s\n", created.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "entry date (YYYY-MM-DD or RFC 3339, default now)")
	cmd.Flags().StringVar(&strategy, "strategy", "", "strategy label")
	cmd.Flags().StringVar(&notes, "notes", "", "free text notes")
	cmd.Flags().StringVar(&commission, "commission", "", "commission paid")
	cmd.Flags().StringVar(&fees, "fees", "", "other fees paid")
	return cmd
}

func newCloseCmd(opts *rootOptions) *cobra.Command {
	var price, date, commission, fees, profit string

	cmd := &cobra.Command{
		Use:   "close <trade-id>",
		Short: "Close an open trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			var in app.CloseInput
			if in.ExitPrice, err = parseDecimal("price", price); err != nil {
				return err
			}
			if date != "" {
				if in.ExitDate, err = analytics.ParseTime(date, svc.Location()); err != nil {
					return fmt.Errorf("invalid date %q", date)
				}
			}
			if in.Commission, err = optionalDecimal(cmd, "commission", commission); err != nil {
				return err
			}
			if in.Fees, err = optionalDecimal(cmd, "fees", fees); err != nil {
				return err
			}
			if in.ManualProfit, err = optionalDecimal(cmd, "profit", profit); err != nil {
				return err
			}

			if _, err := svc.CloseTrade(cmd.Context(), opts.owner, args[0], in); err != nil {
				return err
			}
			item, err := svc.GetTrade(cmd.Context(), opts.owner, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Closed trade %s: profit %s (%s%%)\n",
				item.Trade.ID, money(item.Metrics.Profit), money(item.Metrics.ProfitPercentage))
			return nil
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "exit price (required)")
	cmd.Flags().StringVar(&date, "date", "", "exit date (default now)")
	cmd.Flags().StringVar(&commission, "commission", "", "total commission, replaces the entry value")
	cmd.Flags().StringVar(&fees, "fees", "", "total fees, replaces the entry value")
	cmd.Flags().StringVar(&profit, "profit", "", "manual profit, used when auto calculation is off")
	cmd.MarkFlagRequired("price")
	return cmd
}

func newCancelCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <trade-id>",
		Short: "Cancel an open trade",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if _, err := svc.CancelTrade(cmd.Context(), opts.owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled trade %s\n", args[0])
			return nil
		},
	}
}

func newRemoveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <trade-id>",
		Aliases: []string{"delete"},
		Short:   "Delete a trade",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if err := svc.DeleteTrade(cmd.Context(), opts.owner, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted trade %s\n", args[0])
			return nil
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <trade-id>",
		Short: "Show a trade with its metrics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			item, err := svc.GetTrade(cmd.Context(), opts.owner, args[0])
			if err != nil {
				return err
			}
			loc := svc.Location()
			t, m := item.Trade, item.Metrics

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintf(w, "ID\t%s\n", t.ID)
			fmt.Fprintf(w, "Symbol\t%s\n", t.Symbol)
			fmt.Fprintf(w, "Side\t%s\n", t.Side)
			fmt.Fprintf(w, "Status\t%s\n", t.Status)
			fmt.Fprintf(w, "Strategy\t%s\n", t.Strategy)
			fmt.Fprintf(w, "Entry\t%s @ %s\n", formatDate(&t.EntryDate, loc), t.EntryPrice)
			if t.ExitPrice.Valid {
				fmt.Fprintf(w, "Exit\t%s @ %s\n", formatDate(t.ExitDate, loc), t.ExitPrice.Decimal)
			}
			fmt.Fprintf(w, "Quantity\t%s\n", t.Quantity)
			fmt.Fprintf(w, "Costs\t%s\n", money(t.Costs()))
			fmt.Fprintf(w, "Profit\t%s (%s%%)\n", money(m.Profit), money(m.ProfitPercentage))
			if m.DurationDays != nil {
				fmt.Fprintf(w, "Duration\t%d days\n", *m.DurationDays)
			}
			if t.Notes != "" {
				fmt.Fprintf(w, "Notes\t%s\n", t.Notes)
			}
			return w.Flush()
		},
	}
}

func newListCmd(opts *rootOptions) *cobra.Command {
	var (
		filters filterFlags
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List trades ordered by entry date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if limit < 0 {
				return fmt.Errorf("--limit must not be negative")
			}
			f, err := filters.filter(svc.Location())
			if err != nil {
				return err
			}
			f.Limit = limit
			items, err := svc.ListTrades(cmd.Context(), opts.owner, f)
			if err != nil {
				return err
			}
			return printTrades(cmd, items, svc.Location())
		},
	}
	filters.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "show at most this many trades, 0 for all")
	return cmd
}

func printTrades(cmd *cobra.Command, items []analytics.NormalizedTrade, loc *time.Location) error {
	if len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No trades found.")
		return nil
	}
	w := newTable(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tSymbol\tSide\tStatus\tEntered\tEntry\tExit\tQty\tProfit\t%")
	for _, it := range items {
		t := it.Trade
		exit := "-"
		if t.ExitPrice.Valid {
			exit = t.ExitPrice.Decimal.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.Symbol, t.Side, t.Status,
			formatDate(&t.EntryDate, loc),
			t.EntryPrice, exit, t.Quantity,
			money(it.Metrics.Profit), money(it.Metrics.ProfitPercentage),
		)
	}
	return w.Flush()
}

func newSettingsCmd(opts *rootOptions) *cobra.Command {
	var auto bool

	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change owner settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			if cmd.Flags().Changed("auto-profit") {
				if _, err := svc.UpdateSettings(cmd.Context(), opts.owner, auto); err != nil {
					return err
				}
			}
			s, err := svc.GetSettings(cmd.Context(), opts.owner)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "owner: %s\nauto-profit: %t\n", s.OwnerID, s.AutoCalculateProfit)
			return nil
		},
	}
	cmd.Flags().BoolVar(&auto, "auto-profit", true, "derive profit from prices instead of the manual value")
	return cmd
}
