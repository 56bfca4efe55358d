package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

// PointStore persists point records.
type PointStore interface {
	Create(ctx context.Context, p *domain.Point) (string, error)
	Get(ctx context.Context, id string) (*domain.Point, error)
	ListAll(ctx context.Context) ([]domain.Point, error)
	ListByStatus(ctx context.Context, st domain.ModerationStatus) ([]domain.Point, error)
	ListByOwner(ctx context.Context, ownerUID string) ([]domain.Point, error)
	Transition(ctx context.Context, id string, newStatus domain.ModerationStatus) error
}

// BookmarkStore persists saved-point relations.
type BookmarkStore interface {
	Save(ctx context.Context, userID, pointID string) error
	Delete(ctx context.Context, userID, pointID string) error
	Exists(ctx context.Context, userID, pointID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error)
}

// ImageStore persists point photos.
type ImageStore interface {
	Put(ctx context.Context, ownerUID string, up domain.ImageUpload) (downloadURL, objectPath string, err error)
	Delete(ctx context.Context, objectPath string) error
}

// ApprovedCache caches the approved-points listing.
type ApprovedCache interface {
	Get(ctx context.Context) ([]domain.Point, bool)
	Set(ctx context.Context, points []domain.Point)
	Invalidate(ctx context.Context)
}

type Service struct {
	points    PointStore
	bookmarks BookmarkStore
	images    ImageStore
	cache     ApprovedCache
	log       zerolog.Logger
}

// New builds the point service. cache may be nil, in which case every
// listing goes to the store.
func New(points PointStore, bookmarks BookmarkStore, images ImageStore, cache ApprovedCache, log zerolog.Logger) *Service {
	return &Service{
		points:    points,
		bookmarks: bookmarks,
		images:    images,
		cache:     cache,
		log:       log.With().Str("component", "points").Logger(),
	}
}

// CreateInput carries a new point. Image is optional.
type CreateInput struct {
	Lat       float64
	Lng       float64
	Category  domain.Category
	Condition domain.Condition
	Comments  string
	Image     *domain.ImageUpload
}

// Create validates the input, uploads the photo first (no point is ever
// written without its intended image) and stores the point as PENDIENTE.
// If the point write fails after a successful upload, the blob is removed
// again on a best-effort basis.
func (s *Service) Create(ctx context.Context, caller auth.Identity, in CreateInput) (string, error) {
	if !caller.Authenticated() {
		return "", domain.ErrUnauthenticated
	}
	if in.Lat < -90 || in.Lat > 90 || in.Lng < -180 || in.Lng > 180 {
		return "", domain.ErrInvalidCoordinates
	}
	if in.Category == "" {
		return "", domain.ErrMissingCategory
	}
	if !in.Condition.Valid() {
		return "", domain.ErrInvalidCondition
	}

	var imageURL, objectPath string
	if in.Image != nil && len(in.Image.Data) > 0 {
		var err error
		imageURL, objectPath, err = s.images.Put(ctx, caller.UID, *in.Image)
		if err != nil {
			return "", err
		}
	}

	point := &domain.Point{
		Lat:       in.Lat,
		Lng:       in.Lng,
		Category:  in.Category,
		Condition: in.Condition,
		Comments:  strings.TrimSpace(in.Comments),
		ImageURL:  imageURL,
		OwnerUID:  caller.UID,
		Status:    domain.StatusPendiente,
		CreatedAt: time.Now().UTC(),
	}

	id, err := s.points.Create(ctx, point)
	if err != nil {
		if objectPath != "" {
			if delErr := s.images.Delete(ctx, objectPath); delErr != nil {
				s.log.Warn().Err(delErr).Str("object", objectPath).Msg("failed to clean up orphaned image")
			}
		}
		return "", fmt.Errorf("store point: %w", err)
	}

	s.log.Info().Str("id", id).Str("owner", caller.UID).Str("category", string(in.Category)).Msg("point created")
	return id, nil
}

// List returns the public point listing. The default filter is
// approved-only; FilterAll returns every point regardless of moderation
// state. The approved listing is served through the cache when available.
func (s *Service) List(ctx context.Context, filter domain.StatusFilter) ([]domain.Point, error) {
	switch filter {
	case domain.FilterAll:
		return s.points.ListAll(ctx)
	case domain.FilterApproved, "":
		if s.cache != nil {
			if points, ok := s.cache.Get(ctx); ok {
				return points, nil
			}
		}
		points, err := s.points.ListByStatus(ctx, domain.StatusAprobado)
		if err != nil {
			return nil, err
		}
		if s.cache != nil {
			s.cache.Set(ctx, points)
		}
		return points, nil
	}
	return nil, fmt.Errorf("unknown status filter %q", filter)
}

// ListOwned returns the caller's own points, newest first.
func (s *Service) ListOwned(ctx context.Context, caller auth.Identity) ([]domain.Point, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	return s.points.ListByOwner(ctx, caller.UID)
}

// ListPending returns the moderation queue. Admin only; the check lives
// here at the service boundary, not in the UI.
func (s *Service) ListPending(ctx context.Context, caller auth.Identity) ([]domain.Point, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}
	if !caller.Role.IsAdmin() {
		return nil, domain.ErrPermissionDenied
	}
	return s.points.ListByStatus(ctx, domain.StatusPendiente)
}

// Transition moves a pending point to APROBADO or RECHAZADO. Terminal
// states are one-shot; re-transition fails with ErrAlreadyModerated.
func (s *Service) Transition(ctx context.Context, caller auth.Identity, pointID string, newStatus domain.ModerationStatus) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if !caller.Role.IsAdmin() {
		return domain.ErrPermissionDenied
	}
	if !newStatus.ValidTransitionTarget() {
		return domain.ErrInvalidTransition
	}

	if err := s.points.Transition(ctx, pointID, newStatus); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}

	s.log.Info().Str("id", pointID).Str("status", string(newStatus)).Str("admin", caller.UID).Msg("point moderated")
	return nil
}

// ListSaved resolves the caller's bookmarks into points, newest first.
// Bookmarks whose point no longer resolves are silently dropped.
func (s *Service) ListSaved(ctx context.Context, caller auth.Identity) ([]domain.Point, error) {
	if !caller.Authenticated() {
		return nil, domain.ErrUnauthenticated
	}

	bookmarks, err := s.bookmarks.ListByUser(ctx, caller.UID)
	if err != nil {
		return nil, err
	}

	points := make([]domain.Point, 0, len(bookmarks))
	for _, b := range bookmarks {
		p, err := s.points.Get(ctx, b.PointID)
		if errors.Is(err, domain.ErrPointNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		points = append(points, *p)
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CreatedAt.After(points[j].CreatedAt)
	})
	return points, nil
}

// Save bookmarks a point for the caller. Idempotent.
func (s *Service) Save(ctx context.Context, caller auth.Identity, pointID string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	if pointID == "" {
		return domain.ErrPointNotFound
	}
	return s.bookmarks.Save(ctx, caller.UID, pointID)
}

// Unsave removes a bookmark. Removing an absent bookmark succeeds.
func (s *Service) Unsave(ctx context.Context, caller auth.Identity, pointID string) error {
	if !caller.Authenticated() {
		return domain.ErrUnauthenticated
	}
	return s.bookmarks.Delete(ctx, caller.UID, pointID)
}

// IsSaved reports whether the caller bookmarked the point. Read errors
// default to "not saved".
func (s *Service) IsSaved(ctx context.Context, caller auth.Identity, pointID string) (bool, error) {
	if !caller.Authenticated() {
		return false, domain.ErrUnauthenticated
	}

	saved, err := s.bookmarks.Exists(ctx, caller.UID, pointID)
	if err != nil {
		s.log.Warn().Err(err).Str("point", pointID).Msg("bookmark check failed, defaulting to not saved")
		return false, nil
	}
	return saved, nil
}
