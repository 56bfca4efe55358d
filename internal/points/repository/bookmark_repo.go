package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/domain"
)

const bookmarksCollection = "savedPoints"

// BookmarkRepo persists saved-point relations in Firestore. Documents use
// the deterministic "{userId}_{pointId}" id, so at most one relation can
// exist per pair and both save and unsave are single conditional writes.
type BookmarkRepo struct {
	db  *firestore.Client
	log zerolog.Logger
}

func NewBookmarkRepo(db *firestore.Client, log zerolog.Logger) *BookmarkRepo {
	return &BookmarkRepo{
		db:  db,
		log: log.With().Str("component", "bookmark-repo").Logger(),
	}
}

func (r *BookmarkRepo) ref(userID, pointID string) *firestore.DocumentRef {
	return r.db.Collection(bookmarksCollection).Doc(domain.BookmarkID(userID, pointID))
}

// Save creates the relation if it does not exist. Saving an already-saved
// point is a no-op success.
func (r *BookmarkRepo) Save(ctx context.Context, userID, pointID string) error {
	_, err := r.ref(userID, pointID).Create(ctx, domain.Bookmark{
		UserID:  userID,
		PointID: pointID,
		SavedAt: time.Now().UTC(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return fmt.Errorf("save bookmark: %w", err)
	}
	return nil
}

// Delete removes the relation. Removing an absent relation is a no-op
// success; a failed delete with the row still present is surfaced as an
// internal consistency error.
func (r *BookmarkRepo) Delete(ctx context.Context, userID, pointID string) error {
	ref := r.ref(userID, pointID)

	_, err := ref.Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil
	}
	if err != nil {
		return fmt.Errorf("look up bookmark: %w", err)
	}

	if _, err := ref.Delete(ctx); err != nil {
		if _, getErr := ref.Get(ctx); status.Code(getErr) == codes.NotFound {
			return nil
		}
		return fmt.Errorf("%w: %v", domain.ErrBookmarkInconsistent, err)
	}
	return nil
}

// Exists reports whether the relation is present.
func (r *BookmarkRepo) Exists(ctx context.Context, userID, pointID string) (bool, error) {
	_, err := r.ref(userID, pointID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check bookmark: %w", err)
	}
	return true, nil
}

// ListByUser returns all of a user's bookmarks.
func (r *BookmarkRepo) ListByUser(ctx context.Context, userID string) ([]domain.Bookmark, error) {
	it := r.db.Collection(bookmarksCollection).
		Where("userId", "==", userID).
		Documents(ctx)
	defer it.Stop()

	bookmarks := make([]domain.Bookmark, 0, 16)
	for {
		doc, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list bookmarks: %w", err)
		}

		var b domain.Bookmark
		if err := doc.DataTo(&b); err != nil {
			return nil, fmt.Errorf("decode bookmark: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, nil
}
