package dto

import (
	"errors"
	"fmt"
	"strings"

	"github.com/feedwise/feedwise/pkg/types"
)

// Validation errors
var (
	ErrMissingProfile   = errors.New("either profile or pet_id must be provided")
	ErrMissingProducts  = errors.New("either products or product_ids must be provided")
	ErrTooManyProducts  = errors.New("product count exceeds maximum (50)")
	ErrMixedProductMode = errors.New("products and product_ids cannot be mixed")
	ErrIDTooLong        = errors.New("id exceeds maximum length (128)")
)

// Field limits to prevent abuse
const (
	MaxProductsCount = 50
	MaxIDLength      = 128
)

// StartAnalysisRequest starts one analysis run. The pet comes either inline
// as a full profile or by id of a stored pet; candidate products likewise
// come inline or as catalog ids, but not both ways at once.
type StartAnalysisRequest struct {
	PetID   string            `json:"pet_id,omitempty"`
	Profile *types.PetProfile `json:"profile,omitempty"`

	ProductIDs []string        `json:"product_ids,omitempty"`
	Products   []types.Product `json:"products,omitempty"`

	CallerID string `json:"caller_id,omitempty"`
}

// Validate performs validation on StartAnalysisRequest
func (r *StartAnalysisRequest) Validate() error {
	if r.Profile == nil && strings.TrimSpace(r.PetID) == "" {
		return ErrMissingProfile
	}
	if r.Profile != nil {
		if err := r.Profile.Validate(); err != nil {
			return err
		}
	}
	if len(r.PetID) > MaxIDLength {
		return ErrIDTooLong
	}

	if len(r.Products) == 0 && len(r.ProductIDs) == 0 {
		return ErrMissingProducts
	}
	if len(r.Products) > 0 && len(r.ProductIDs) > 0 {
		return ErrMixedProductMode
	}
	if len(r.Products) > MaxProductsCount || len(r.ProductIDs) > MaxProductsCount {
		return ErrTooManyProducts
	}

	for i := range r.Products {
		if err := r.Products[i].Validate(); err != nil {
			return fmt.Errorf("product %d: %w", i, err)
		}
	}
	for i, id := range r.ProductIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("product id %d: %w", i, types.ErrEmptyID)
		}
		if len(id) > MaxIDLength {
			return fmt.Errorf("product id %d: %w", i, ErrIDTooLong)
		}
	}
	return nil
}

// StartAnalysisResponse acknowledges a started run.
type StartAnalysisResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// RevealResponse resolves one anonymous code back to its product.
type RevealResponse struct {
	SessionID   string `json:"session_id"`
	Code        string `json:"code"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Brand       string `json:"brand,omitempty"`
}
