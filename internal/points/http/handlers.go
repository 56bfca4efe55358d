package http

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/service"
)

// maxImageBytes caps a single point photo.
const maxImageBytes = 10 << 20

// CreatePoint stores a new point from a multipart form with an optional
// "image" file.
func (h *Handler) CreatePoint(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var form createPointForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat, lng, category and status are required"})
		return
	}

	in := service.CreateInput{
		Lat:       *form.Lat,
		Lng:       *form.Lng,
		Category:  domain.Category(form.Category),
		Condition: domain.Condition(form.Status),
		Comments:  form.Comments,
	}

	if file, err := c.FormFile("image"); err == nil {
		if file.Size > maxImageBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image exceeds the 10MB limit"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "could not read image"})
			return
		}

		in.Image = &domain.ImageUpload{
			Filename:    file.Filename,
			ContentType: file.Header.Get("Content-Type"),
			Data:        data,
		}
	}

	id, err := h.points.Create(c.Request.Context(), ident, in)
	if err != nil {
		writePointError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// ListPoints returns the public listing. ?status=approved (default) or
// ?status=all.
func (h *Handler) ListPoints(c *gin.Context) {
	filter, ok := domain.ParseStatusFilter(c.Query("status"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be 'approved' or 'all'"})
		return
	}

	points, err := h.points.List(c.Request.Context(), filter)
	if err != nil {
		writePointError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

// ListOwnPoints returns the caller's points, newest first.
func (h *Handler) ListOwnPoints(c *gin.Context) {
	h.listForCaller(c, h.points.ListOwned)
}

// ListPendingPoints returns the moderation queue. Admin only.
func (h *Handler) ListPendingPoints(c *gin.Context) {
	h.listForCaller(c, h.points.ListPending)
}

// ListSavedPoints returns the caller's bookmarked points.
func (h *Handler) ListSavedPoints(c *gin.Context) {
	h.listForCaller(c, h.points.ListSaved)
}

// TransitionPoint approves or rejects a pending point.
func (h *Handler) TransitionPoint(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	err := h.points.Transition(c.Request.Context(), ident, c.Param("id"), domain.ModerationStatus(req.Status))
	if err != nil {
		writePointError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// SavePoint bookmarks a point for the caller. Idempotent.
func (h *Handler) SavePoint(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.points.Save(c.Request.Context(), ident, c.Param("id")); err != nil {
		writePointError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": true})
}

// UnsavePoint removes a bookmark. Removing an absent bookmark succeeds.
func (h *Handler) UnsavePoint(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	if err := h.points.Unsave(c.Request.Context(), ident, c.Param("id")); err != nil {
		writePointError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": false})
}

// GetBookmark reports whether the caller bookmarked the point.
func (h *Handler) GetBookmark(c *gin.Context) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	saved, err := h.points.IsSaved(c.Request.Context(), ident, c.Param("id"))
	if err != nil {
		writePointError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saved": saved})
}

func (h *Handler) listForCaller(c *gin.Context, list func(ctx context.Context, caller auth.Identity) ([]domain.Point, error)) {
	ident, ok := auth.IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	points, err := list(c.Request.Context(), ident)
	if err != nil {
		writePointError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"points": points})
}

func writePointError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidCoordinates),
		errors.Is(err, domain.ErrMissingCategory),
		errors.Is(err, domain.ErrInvalidCondition),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrAlreadyModerated):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPointNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUploadPermission):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete point operation"})
	}
}
