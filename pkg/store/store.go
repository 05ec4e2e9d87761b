// Package store persists pets, the product catalog, and finished analysis
// sessions in an embedded Badger key-value database.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Key prefixes partition the keyspace per record kind.
const (
	prefixPet     = "pet:"
	prefixProduct = "product:"
	prefixSession = "session:"
)

// Store wraps a Badger database with typed CRUD for the application's
// records. Values are stored as JSON.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at the configured path. With
// cfg.InMemory set the store lives entirely in memory, which tests use.
func Open(cfg config.StoreConfig) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening record store: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SavePet stores a pet profile, assigning an id when absent.
func (s *Store) SavePet(ctx context.Context, pet *types.PetProfile) error {
	if err := pet.Validate(); err != nil {
		return err
	}
	if pet.ID == "" {
		pet.ID = uuid.NewString()
	}
	return s.put(prefixPet+pet.ID, pet)
}

// GetPet loads a pet profile by id.
func (s *Store) GetPet(ctx context.Context, id string) (*types.PetProfile, error) {
	var pet types.PetProfile
	if err := s.get(prefixPet+id, &pet); err != nil {
		return nil, err
	}
	return &pet, nil
}

// ListPets returns all stored pet profiles.
func (s *Store) ListPets(ctx context.Context) ([]types.PetProfile, error) {
	var pets []types.PetProfile
	err := s.list(prefixPet, func(val []byte) error {
		var pet types.PetProfile
		if err := json.Unmarshal(val, &pet); err != nil {
			return err
		}
		pets = append(pets, pet)
		return nil
	})
	return pets, err
}

// SaveProduct stores a product, assigning an id when absent.
func (s *Store) SaveProduct(ctx context.Context, product *types.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	return s.put(prefixProduct+product.ID, product)
}

// GetProduct loads a product by id.
func (s *Store) GetProduct(ctx context.Context, id string) (*types.Product, error) {
	var product types.Product
	if err := s.get(prefixProduct+id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts loads all products for the given ids, preserving the input
// order. A single missing id fails the whole lookup so an analysis run never
// starts with a silently shortened candidate list.
func (s *Store) GetProducts(ctx context.Context, ids []string) ([]types.Product, error) {
	products := make([]types.Product, 0, len(ids))
	for _, id := range ids {
		product, err := s.GetProduct(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", id, err)
		}
		products = append(products, *product)
	}
	return products, nil
}

// ListProducts returns the whole product catalog.
func (s *Store) ListProducts(ctx context.Context) ([]types.Product, error) {
	var products []types.Product
	err := s.list(prefixProduct, func(val []byte) error {
		var product types.Product
		if err := json.Unmarshal(val, &product); err != nil {
			return err
		}
		products = append(products, product)
		return nil
	})
	return products, err
}

// SaveSession stores a finished analysis session.
func (s *Store) SaveSession(ctx context.Context, session *types.AnalysisSession) error {
	if session.ID == "" {
		return types.ErrEmptyID
	}
	return s.put(prefixSession+session.ID, session)
}

// GetSession loads a finished analysis session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*types.AnalysisSession, error) {
	var session types.AnalysisSession
	if err := s.get(prefixSession+id, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (s *Store) put(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (s *Store) get(key string, out interface{}) error {
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, out)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return ErrNotFound
	}
	return err
}

func (s *Store) list(prefix string, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}
