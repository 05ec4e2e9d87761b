package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/feedwise/feedwise/pkg/types"
)

// Catalog is the on-disk seed format: a YAML document holding the product
// catalog and optionally a set of sample pet profiles.
type Catalog struct {
	Products []types.Product    `yaml:"products"`
	Pets     []types.PetProfile `yaml:"pets"`
}

// LoadCatalog reads and validates a seed catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}

	for i := range catalog.Products {
		if err := catalog.Products[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog product %d: %w", i, err)
		}
	}
	for i := range catalog.Pets {
		if err := catalog.Pets[i].Validate(); err != nil {
			return nil, fmt.Errorf("catalog pet %d: %w", i, err)
		}
	}
	return &catalog, nil
}

// Seed writes every catalog record into the store. Existing records with the
// same id are overwritten, so seeding is idempotent.
func (s *Store) Seed(ctx context.Context, catalog *Catalog) (int, error) {
	count := 0
	for i := range catalog.Products {
		if err := s.SaveProduct(ctx, &catalog.Products[i]); err != nil {
			return count, fmt.Errorf("seeding product %s: %w", catalog.Products[i].Name, err)
		}
		count++
	}
	for i := range catalog.Pets {
		if err := s.SavePet(ctx, &catalog.Pets[i]); err != nil {
			return count, fmt.Errorf("seeding pet %s: %w", catalog.Pets[i].Name, err)
		}
		count++
	}
	return count, nil
}
