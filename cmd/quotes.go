package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/export"
	"github.com/deelab/costcalc/internal/store"
)

var (
	quotesListLimit   int
	quotesExportLimit int
	quotesOut         string
)

var quotesCmd = &cobra.Command{
	Use:   "quotes",
	Short: "Inspect and export captured quote requests",
}

var quotesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print recent quote requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		quotes, err := st.ListQuotes(ctx, store.QuoteFilter{Limit: quotesListLimit})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, q := range quotes {
			fmt.Fprintf(out, "%s  %-20s %-28s $%.2f  %s\n",
				q.CreatedAt.UTC().Format("2006-01-02 15:04"),
				q.Name, q.Email, q.TotalCost, q.Status)
		}
		return nil
	},
}

var quotesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export quote requests to a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		quotes, err := st.ListQuotes(ctx, store.QuoteFilter{Limit: quotesExportLimit})
		if err != nil {
			return err
		}

		out := quotesOut
		if out == "" {
			out = export.Filename("csv")
		}

		f, err := os.Create(out)
		if err != nil {
			return eris.Wrapf(err, "create %s", out)
		}
		defer f.Close()

		switch {
		case strings.HasSuffix(out, ".csv"):
			err = export.WriteCSV(f, quotes)
		case strings.HasSuffix(out, ".xlsx"):
			err = export.WriteXLSX(f, quotes)
		default:
			return eris.Errorf("output file must end in .csv or .xlsx, got %s", out)
		}
		if err != nil {
			return err
		}

		zap.L().Info("quotes exported", zap.String("file", out), zap.Int("count", len(quotes)))
		return nil
	},
}

func init() {
	quotesListCmd.Flags().IntVar(&quotesListLimit, "limit", 50, "maximum quotes to list")
	quotesExportCmd.Flags().IntVar(&quotesExportLimit, "limit", 0, "maximum quotes to export (0 = store default)")
	quotesExportCmd.Flags().StringVar(&quotesOut, "out", "", "output file (.csv or .xlsx)")
	quotesCmd.AddCommand(quotesListCmd, quotesExportCmd)
	rootCmd.AddCommand(quotesCmd)
}
