// Package handler exposes user management over HTTP. All routes require
// authentication; everything except /users/identify is admin-only.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"storehub/backend/internal/server/middleware"
	"storehub/backend/internal/user/domain"
	"storehub/backend/internal/user/service"
)

// Handler groups the /users HTTP handlers.
type Handler struct {
	users *service.Service
}

// NewHandler returns a Handler over the given user service.
func NewHandler(users *service.Service) *Handler {
	return &Handler{users: users}
}

// RegisterRoutes registers the user routes on rg, which must already be
// guarded by Authenticate.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/identify", h.Identify)

	admin := rg.Group("", middleware.RequireRole(domain.RoleAdmin))
	admin.GET("/users", h.List)
	admin.GET("/users/:id", h.Get)
	admin.PATCH("/users/:id", h.Update)
	admin.DELETE("/users/:id", h.Delete)
}

// Identify echoes the authenticated caller's profile.
func (h *Handler) Identify(c *gin.Context) {
	identity, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, identity)
}

// List returns all user profiles.
func (h *Handler) List(c *gin.Context) {
	profiles, err := h.users.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list users failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	c.JSON(http.StatusOK, profiles)
}

// Get returns one user profile by id.
func (h *Handler) Get(c *gin.Context) {
	profile, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

type updateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"firstName" binding:"omitempty,min=1"`
	LastName  *string `json:"lastName" binding:"omitempty,min=1"`
	Password  *string `json:"password" binding:"omitempty,min=1"`
}

// Update applies a partial update to a user.
func (h *Handler) Update(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile, err := h.users.Update(c.Request.Context(), c.Param("id"), service.UpdateParams{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Delete removes a user and returns an id/email receipt.
func (h *Handler) Delete(c *gin.Context) {
	deleted, err := h.users.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already taken"})
	default:
		log.Error().Err(err).Msg("user request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
