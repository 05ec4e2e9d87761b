package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(config.StoreConfig{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPetRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	pet := &types.PetProfile{
		Species:   "cat",
		Name:      "Mochi",
		AgeMonths: 18,
		WeightKg:  4.2,
		Allergies: "chicken",
	}
	require.NoError(t, s.SavePet(ctx, pet))
	require.NotEmpty(t, pet.ID, "SavePet should assign an id")

	got, err := s.GetPet(ctx, pet.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mochi", got.Name)
	assert.Equal(t, "chicken", got.Allergies)
	assert.Equal(t, 4.2, got.WeightKg)
}

func TestSavePetValidates(t *testing.T) {
	s := newTestStore(t)

	err := s.SavePet(context.Background(), &types.PetProfile{Name: "no-species"})
	assert.ErrorIs(t, err, types.ErrEmptySpecies)
}

func TestGetPetNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPet(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetProductsPreservesOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ids := make([]string, 0, 3)
	for _, name := range []string{"Salmon Feast", "Chicken Dinner", "Tuna Pate"} {
		p := &types.Product{Name: name, Species: "cat"}
		require.NoError(t, s.SaveProduct(ctx, p))
		ids = append(ids, p.ID)
	}

	// Lookup order, not storage order, must win.
	reversed := []string{ids[2], ids[1], ids[0]}
	products, err := s.GetProducts(ctx, reversed)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Tuna Pate", products[0].Name)
	assert.Equal(t, "Salmon Feast", products[2].Name)
}

func TestGetProductsFailsOnMissingID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	p := &types.Product{Name: "Salmon Feast"}
	require.NoError(t, s.SaveProduct(ctx, p))

	_, err := s.GetProducts(ctx, []string{p.ID, "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	done := time.Now().UTC()
	session := &types.AnalysisSession{
		ID:          "session-1",
		ProductIDs:  []string{"p1", "p2"},
		Status:      types.StatusCompleted,
		CreatedAt:   done.Add(-time.Minute),
		CompletedAt: &done,
		Aggregate: &types.Aggregate{
			Results: []types.ScoreRecord{{ProductID: "p1", ProductName: "A", Overall: 80}},
		},
	}
	require.NoError(t, s.SaveSession(ctx, session))

	got, err := s.GetSession(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusCompleted, got.Status)
	require.NotNil(t, got.Aggregate)
	assert.Equal(t, 80.0, got.Aggregate.Results[0].Overall)
}

func TestSaveSessionRequiresID(t *testing.T) {
	s := newTestStore(t)

	err := s.SaveSession(context.Background(), &types.AnalysisSession{})
	assert.ErrorIs(t, err, types.ErrEmptyID)
}

func TestSeedFromCatalogFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	catalogYAML := `
products:
  - id: prod-1
    brand: Acme
    name: Salmon Feast
    species: cat
    price: 42.5
  - id: prod-2
    name: Chicken Dinner
    species: cat
pets:
  - id: pet-1
    species: cat
    name: Mochi
`
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o644))

	catalog, err := LoadCatalog(path)
	require.NoError(t, err)
	require.Len(t, catalog.Products, 2)
	require.Len(t, catalog.Pets, 1)

	s := newTestStore(t)
	ctx := context.Background()
	count, err := s.Seed(ctx, catalog)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	products, err := s.ListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, products, 2)

	got, err := s.GetProduct(ctx, "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme - Salmon Feast", got.Label())
}

func TestLoadCatalogRejectsInvalidProduct(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("products:\n  - brand: NoName\n"), 0o644))

	_, err := LoadCatalog(path)
	assert.ErrorIs(t, err, types.ErrEmptyName)
}
