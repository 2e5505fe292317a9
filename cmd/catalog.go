package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/deelab/costcalc/internal/catalog"
	"github.com/deelab/costcalc/internal/model"
)

var (
	catalogAll      bool
	catalogSeedFile string
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Inspect and seed the annotation-type catalog",
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print the catalog with rates and input modes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		provider := catalog.NewProvider(st)
		var types []model.AnnotationType
		if catalogAll {
			types, err = provider.All(ctx)
		} else {
			types, err = provider.Active(ctx)
		}
		if err != nil {
			return err
		}

		renderCatalog(cmd.OutOrStdout(), types)
		return nil
	},
}

func renderCatalog(w io.Writer, types []model.AnnotationType) {
	for _, t := range types {
		status := "active"
		if !t.IsActive {
			status = "inactive"
		}
		fmt.Fprintf(w, "%-24s %-28s $%.2f %-18s %-24s %s\n",
			t.ID, t.Name, t.Rate, t.Unit, t.Mode(), status)
		if t.AltRate != nil {
			fmt.Fprintf(w, "%-24s   alt: $%.2f %s\n", "", *t.AltRate, t.AltUnit)
		}
	}
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the catalog, from a YAML file or the shipped defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return err
		}

		types := catalog.DefaultAnnotationTypes()
		faq := catalog.DefaultFAQItems()
		if catalogSeedFile != "" {
			types, faq, err = catalog.LoadFile(catalogSeedFile)
			if err != nil {
				return err
			}
			// A file seed is an explicit request: upsert every row,
			// not just into an empty catalog.
			for _, t := range types {
				if err := st.UpsertAnnotationType(ctx, t); err != nil {
					return err
				}
			}
			for _, item := range faq {
				if err := st.UpsertFAQItem(ctx, item); err != nil {
					return err
				}
			}
			zap.L().Info("catalog seeded from file",
				zap.String("file", catalogSeedFile),
				zap.Int("types", len(types)),
				zap.Int("faq", len(faq)),
			)
			return nil
		}

		if err := st.Seed(ctx, types, faq); err != nil {
			return err
		}
		zap.L().Info("catalog seeded with defaults", zap.Int("types", len(types)))
		return nil
	},
}

func init() {
	catalogListCmd.Flags().BoolVar(&catalogAll, "all", false, "include inactive types")
	catalogSeedCmd.Flags().StringVar(&catalogSeedFile, "file", "", "YAML catalog file")
	catalogCmd.AddCommand(catalogListCmd, catalogSeedCmd)
	rootCmd.AddCommand(catalogCmd)
}
