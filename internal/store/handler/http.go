// Package handler exposes the store catalog over HTTP. All routes are
// admin-only.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storehub/backend/internal/server/middleware"
	"storehub/backend/internal/store/service"
	userdomain "storehub/backend/internal/user/domain"
)

// Handler groups the /stores HTTP handlers.
type Handler struct {
	stores *service.Service
}

// NewHandler returns a Handler over the given store service.
func NewHandler(stores *service.Service) *Handler {
	return &Handler{stores: stores}
}

// RegisterRoutes registers the store routes on rg, which must already be
// guarded by Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	admin := rg.Group("", middleware.RequireRole(userdomain.RoleAdmin))
	admin.POST("/stores/create", h.Create)
	admin.GET("/stores", h.List)
	admin.GET("/stores/:id", h.Get)
	admin.PATCH("/stores/:id", h.Update)
	admin.DELETE("/stores/:id", h.Delete)
}

type createStoreRequest struct {
	Name    string `json:"name" binding:"required,min=1"`
	Address string `json:"address" binding:"required,min=1"`
}

// Create inserts a new store with 201.
func (h *Handler) Create(c *gin.Context) {
	var req createStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, err := h.stores.Create(c.Request.Context(), service.CreateParams{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, store)
}

// List returns all stores.
func (h *Handler) List(c *gin.Context) {
	stores, err := h.stores.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stores)
}

// Get returns one store by id.
func (h *Handler) Get(c *gin.Context) {
	store, err := h.stores.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

type updateStoreRequest struct {
	Name    *string `json:"name" binding:"omitempty,min=1"`
	Address *string `json:"address" binding:"omitempty,min=1"`
}

// Update applies a partial update to a store.
func (h *Handler) Update(c *gin.Context) {
	var req updateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	store, err := h.stores.Update(c.Request.Context(), c.Param("id"), service.UpdateParams{
		Name:    req.Name,
		Address: req.Address,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, store)
}

// Delete removes a store with 204.
func (h *Handler) Delete(c *gin.Context) {
	if err := h.stores.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStoreNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
	case errors.Is(err, service.ErrStoreExists):
		c.JSON(http.StatusConflict, gin.H{"error": "store with this name or address already exists"})
	default:
		log.Error().Err(err).Msg("store request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
