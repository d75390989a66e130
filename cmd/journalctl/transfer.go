package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"tradeJournal/internal/analytics"
	"tradeJournal/internal/export"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var out, from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write trades as CSV",
		Long: `Write the owner's trades as CSV to stdout, to a file, or into a directory
using a name derived from the date range.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			w, err := analytics.ParseWindow(from, to, svc.Location())
			if err != nil {
				return err
			}
			if out == "" || out == "-" {
				return svc.ExportCSV(cmd.Context(), opts.owner, w, cmd.OutOrStdout())
			}

			path := out
			if info, err := os.Stat(out); err == nil && info.IsDir() {
				path = filepath.Join(out, export.Filename(w))
			}
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("create %s: %w", path, err)
			}
			if err := svc.ExportCSV(cmd.Context(), opts.owner, w, f); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "file or directory to write (default stdout)")
	cmd.Flags().StringVar(&from, "from", "", "entered on or after")
	cmd.Flags().StringVar(&to, "to", "", "entered before; a date includes the whole day")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Create trades from a CSV export",
		Long:  `Create a trade for every row of a CSV export. Nothing is stored unless every row is valid.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, closeDB, err := opts.open(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			created, err := svc.ImportCSV(cmd.Context(), opts.owner, f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d trades\n", len(created))
			return nil
		},
	}
}
