package http

import (
	"context"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/service"
)

// PointService is the slice of the point service the handlers need.
type PointService interface {
	Create(ctx context.Context, caller auth.Identity, in service.CreateInput) (string, error)
	List(ctx context.Context, filter domain.StatusFilter) ([]domain.Point, error)
	ListOwned(ctx context.Context, caller auth.Identity) ([]domain.Point, error)
	ListPending(ctx context.Context, caller auth.Identity) ([]domain.Point, error)
	ListSaved(ctx context.Context, caller auth.Identity) ([]domain.Point, error)
	Transition(ctx context.Context, caller auth.Identity, pointID string, newStatus domain.ModerationStatus) error
	Save(ctx context.Context, caller auth.Identity, pointID string) error
	Unsave(ctx context.Context, caller auth.Identity, pointID string) error
	IsSaved(ctx context.Context, caller auth.Identity, pointID string) (bool, error)
}

type Handler struct {
	points PointService
}

func New(points PointService) *Handler {
	return &Handler{points: points}
}

// Lat/Lng are pointers so that the valid zero coordinates (equator,
// prime meridian) survive the presence check.
type createPointForm struct {
	Lat      *float64 `form:"lat" binding:"required"`
	Lng      *float64 `form:"lng" binding:"required"`
	Category string   `form:"category" binding:"required"`
	Status   string   `form:"status" binding:"required"`
	Comments string   `form:"comments"`
}

type transitionRequest struct {
	Status string `json:"status" binding:"required"`
}
