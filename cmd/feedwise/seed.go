package feedwise

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed <catalog.yaml>",
	Short: "Load a product catalog into the record store",
	Long: `Load pets and products from a YAML catalog file into the record store.
Seeding is idempotent: records with known ids are overwritten.`,
	Args: cobra.ExactArgs(1),
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("store-path", "./feedwise_db", "Record store path")
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cmd.Flags().Changed("store-path") {
		cfg.Store.Path, _ = cmd.Flags().GetString("store-path")
	}

	catalog, err := store.LoadCatalog(args[0])
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	recordStore, err := store.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer recordStore.Close()

	count, err := recordStore.Seed(context.Background(), catalog)
	if err != nil {
		return fmt.Errorf("seeding failed after %d records: %w", count, err)
	}

	fmt.Printf("Seeded %d records (%d products, %d pets)\n", count, len(catalog.Products), len(catalog.Pets))
	return nil
}
