package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedwise/feedwise/pkg/server/dto"
	"github.com/feedwise/feedwise/pkg/store"
	"github.com/feedwise/feedwise/pkg/types"
)

// CatalogHandler manages stored pets and the product catalog.
type CatalogHandler struct {
	store *store.Store
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(st *store.Store) *CatalogHandler {
	return &CatalogHandler{store: st}
}

// CreatePet handles POST /api/v1/pets.
func (h *CatalogHandler) CreatePet(c *gin.Context) {
	var pet types.PetProfile
	if err := c.ShouldBindJSON(&pet); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := pet.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.store.SavePet(c.Request.Context(), &pet); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, pet)
}

// GetPet handles GET /api/v1/pets/:id.
func (h *CatalogHandler) GetPet(c *gin.Context) {
	pet, err := h.store.GetPet(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "pet not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, pet)
}

// ListPets handles GET /api/v1/pets.
func (h *CatalogHandler) ListPets(c *gin.Context) {
	pets, err := h.store.ListPets(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pets": pets, "count": len(pets)})
}

// CreateProduct handles POST /api/v1/products.
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var product types.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := product.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	if err := h.store.SaveProduct(c.Request.Context(), &product); err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// ListProducts handles GET /api/v1/products.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.store.ListProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}
