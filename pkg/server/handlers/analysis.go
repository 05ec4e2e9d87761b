package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feedwise/feedwise"
	"github.com/feedwise/feedwise/pkg/server/dto"
	"github.com/feedwise/feedwise/pkg/store"
	"github.com/feedwise/feedwise/pkg/types"
)

// AnalysisHandler exposes the analysis lifecycle: start, poll, fetch the
// terminal result, and reveal anonymous codes.
type AnalysisHandler struct {
	advisor *feedwise.Advisor
	store   *store.Store
}

// NewAnalysisHandler creates a new analysis handler.
func NewAnalysisHandler(advisor *feedwise.Advisor, st *store.Store) *AnalysisHandler {
	return &AnalysisHandler{
		advisor: advisor,
		store:   st,
	}
}

// Start handles POST /api/v1/analysis. Scoring happens in the background;
// the response only acknowledges the session.
func (h *AnalysisHandler) Start(c *gin.Context) {
	var req dto.StartAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid_request", Message: err.Error()})
		return
	}

	ctx := c.Request.Context()

	profile := req.Profile
	if profile == nil {
		stored, err := h.store.GetPet(ctx, req.PetID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "pet " + req.PetID + " not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
			return
		}
		profile = stored
	}

	products := req.Products
	if len(products) == 0 {
		resolved, err := h.store.GetProducts(ctx, req.ProductIDs)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
			return
		}
		products = resolved
	}

	callerID := req.CallerID
	if callerID == "" {
		if v, ok := ctx.Value(types.ContextKeyUserID).(string); ok {
			callerID = v
		}
	}

	sessionID := h.advisor.StartAnalysis(profile, products, callerID)
	c.JSON(http.StatusAccepted, dto.StartAnalysisResponse{
		SessionID: sessionID,
		Status:    string(types.StatusRunning),
	})
}

// Progress handles GET /api/v1/analysis/:session_id/progress.
func (h *AnalysisHandler) Progress(c *gin.Context) {
	snap := h.advisor.Progress(c.Param("session_id"))
	if snap.Status == types.StatusNotFound {
		c.JSON(http.StatusNotFound, snap)
		return
	}
	c.JSON(http.StatusOK, snap)
}

// Result handles GET /api/v1/analysis/:session_id/result. Unlike progress
// snapshots, terminal sessions outlive progress-store eviction through the
// record store.
func (h *AnalysisHandler) Result(c *gin.Context) {
	sessionID := c.Param("session_id")

	if snap := h.advisor.Progress(sessionID); snap.Status == types.StatusCompleted && snap.Aggregate != nil {
		c.JSON(http.StatusOK, snap)
		return
	}

	session, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "session " + sessionID + " not found or not finished"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, session)
}

// Reveal handles POST /api/v1/analysis/:session_id/reveal/:code.
func (h *AnalysisHandler) Reveal(c *gin.Context) {
	sessionID := c.Param("session_id")
	code := c.Param("code")

	aggregate := h.terminalAggregate(c, sessionID)
	if aggregate == nil {
		return
	}

	var productID string
	for id, assigned := range aggregate.AnonymousMapping {
		if assigned == code {
			productID = id
			break
		}
	}
	if productID == "" {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "code " + code + " not assigned in this session"})
		return
	}

	resp := dto.RevealResponse{
		SessionID: sessionID,
		Code:      code,
		ProductID: productID,
	}
	for _, record := range aggregate.Results {
		if record.ProductID == productID {
			resp.ProductName = record.ProductName
			resp.Brand = record.Brand
			break
		}
	}
	c.JSON(http.StatusOK, resp)
}

// terminalAggregate loads the aggregate for a completed session from the
// progress store first, then the record store. On failure it writes the
// error response and returns nil.
func (h *AnalysisHandler) terminalAggregate(c *gin.Context, sessionID string) *types.Aggregate {
	if snap := h.advisor.Progress(sessionID); snap.Status == types.StatusCompleted && snap.Aggregate != nil {
		return snap.Aggregate
	}

	session, err := h.store.GetSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "session " + sessionID + " not found or not finished"})
			return nil
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "store_error", Message: err.Error()})
		return nil
	}
	if session.Aggregate == nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "not_found", Message: "session " + sessionID + " has no result"})
		return nil
	}
	return session.Aggregate
}
