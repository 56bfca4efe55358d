package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

// pointsCollection keeps the original collection name.
const pointsCollection = "punto"

const fieldPointStatus = "pointStatus"

// PointRepo persists points in Firestore.
type PointRepo struct {
	db  *firestore.Client
	log zerolog.Logger
}

func NewPointRepo(db *firestore.Client, log zerolog.Logger) *PointRepo {
	return &PointRepo{
		db:  db,
		log: log.With().Str("component", "point-repo").Logger(),
	}
}

// Create writes a new point document and returns its generated id.
// Optional fields are omitted entirely when empty.
func (r *PointRepo) Create(ctx context.Context, p *domain.Point) (string, error) {
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	ref, _, err := r.db.Collection(pointsCollection).Add(ctx, p)
	if err != nil {
		return "", fmt.Errorf("create point: %w", err)
	}
	return ref.ID, nil
}

// Get returns a single point by id.
func (r *PointRepo) Get(ctx context.Context, id string) (*domain.Point, error) {
	doc, err := r.db.Collection(pointsCollection).Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrPointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get point %s: %w", id, err)
	}

	var p domain.Point
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("decode point %s: %w", id, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

// ListAll returns every point, newest first.
func (r *PointRepo) ListAll(ctx context.Context) ([]domain.Point, error) {
	q := r.db.Collection(pointsCollection).
		OrderBy("createdAt", firestore.Desc)

	points, err := r.collect(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list points: %w", err)
	}
	return points, nil
}

// ListByStatus returns points in a moderation state, newest first. A
// missing composite index degrades to an unordered fetch plus an
// in-process sort instead of failing.
func (r *PointRepo) ListByStatus(ctx context.Context, st domain.ModerationStatus) ([]domain.Point, error) {
	base := r.db.Collection(pointsCollection).
		Where(fieldPointStatus, "==", string(st))

	points, err := r.collect(ctx, base.OrderBy("createdAt", firestore.Desc))
	if status.Code(err) == codes.FailedPrecondition {
		r.log.Warn().Str("status", string(st)).Msg("missing composite index, falling back to client-side sort")
		points, err = r.collect(ctx, base)
		sortNewestFirst(points)
	}
	if err != nil {
		return nil, fmt.Errorf("list points by status %s: %w", st, err)
	}
	return points, nil
}

// ListByOwner returns a user's own points, newest first, with the same
// missing-index fallback as ListByStatus.
func (r *PointRepo) ListByOwner(ctx context.Context, ownerUID string) ([]domain.Point, error) {
	base := r.db.Collection(pointsCollection).
		Where("userId", "==", ownerUID)

	points, err := r.collect(ctx, base.OrderBy("createdAt", firestore.Desc))
	if status.Code(err) == codes.FailedPrecondition {
		r.log.Warn().Str("owner", ownerUID).Msg("missing composite index, falling back to client-side sort")
		points, err = r.collect(ctx, base)
		sortNewestFirst(points)
	}
	if err != nil {
		return nil, fmt.Errorf("list points by owner: %w", err)
	}
	return points, nil
}

// Transition moves a pending point to a terminal state inside a
// transaction: the write is accepted only while the document is still
// PENDIENTE, so terminal states are one-shot.
func (r *PointRepo) Transition(ctx context.Context, id string, newStatus domain.ModerationStatus) error {
	ref := r.db.Collection(pointsCollection).Doc(id)

	err := r.db.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if status.Code(err) == codes.NotFound {
			return domain.ErrPointNotFound
		}
		if err != nil {
			return err
		}

		current, err := doc.DataAt(fieldPointStatus)
		if err != nil {
			return err
		}
		if cur, ok := current.(string); !ok || domain.ModerationStatus(cur) != domain.StatusPendiente {
			return domain.ErrAlreadyModerated
		}

		return tx.Update(ref, []firestore.Update{
			{Path: fieldPointStatus, Value: string(newStatus)},
		})
	})
	if errors.Is(err, domain.ErrPointNotFound) || errors.Is(err, domain.ErrAlreadyModerated) {
		return err
	}
	if err != nil {
		return fmt.Errorf("transition point %s to %s: %w", id, newStatus, err)
	}
	return nil
}

func (r *PointRepo) collect(ctx context.Context, q firestore.Query) ([]domain.Point, error) {
	it := q.Documents(ctx)
	defer it.Stop()

	points := make([]domain.Point, 0, 32)
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}

		var p domain.Point
		if err := doc.DataTo(&p); err != nil {
			return nil, err
		}
		p.ID = doc.Ref.ID
		points = append(points, p)
	}
	return points, nil
}

func sortNewestFirst(points []domain.Point) {
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].CreatedAt.After(points[j].CreatedAt)
	})
}
