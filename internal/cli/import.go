package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/olegborzov/themesearcher/internal/catalog"
	"github.com/olegborzov/themesearcher/pkg/postgres"
)

func (a *app) importCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Copy a file catalog into Postgres",
		Long: "Reads phrases and stop words from the data directory, validates them and " +
			"replaces the catalog stored in Postgres in one transaction.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = a.cfg.Catalog.DataDir
			}
			ctx := cmd.Context()
			src := catalog.NewFileSource(dir, a.cfg.Catalog.PhrasesFile, a.cfg.Catalog.StopWordsFile)
			cat, err := src.Catalog(ctx)
			if err != nil {
				return err
			}
			if err := cat.Validate(); err != nil {
				return err
			}
			stopWords, err := src.StopWords(ctx)
			if err != nil {
				return err
			}

			pg, err := postgres.New(ctx, a.cfg.Postgres)
			if err != nil {
				return err
			}
			defer pg.Close()

			if err := importCatalog(ctx, pg, cat, stopWords); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d themes, %d phrases, %d stop words (fingerprint %s)\n",
				len(cat.Themes), cat.PhraseCount(), len(stopWords), cat.Fingerprint())
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "data directory to import (default: catalog.dataDir)")
	return cmd
}

func importCatalog(ctx context.Context, pg *postgres.Client, cat *catalog.Catalog, stopWords []string) error {
	if err := catalog.NewPostgresSource(pg.DB).Migrate(ctx); err != nil {
		return fmt.Errorf("migrating catalog schema: %w", err)
	}
	return pg.InTx(ctx, func(tx *sql.Tx) error {
		return catalog.Import(ctx, tx, cat, stopWords)
	})
}
