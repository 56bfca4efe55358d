package domain

import (
	"fmt"
	"time"
)

// Category is the type of accessibility feature a point represents.
// The set is extensible: unrecognized values pass through untouched.
type Category string

const (
	CategoryRampa           Category = "RAMPA"
	CategoryBano            Category = "BANO"
	CategoryAscensor        Category = "ASCENSOR"
	CategoryEstacionamiento Category = "ESTACIONAMIENTO"
	CategorySenalizacion    Category = "SENALIZACION"
	CategoryPuerta          Category = "PUERTA"
	CategoryTransporte      Category = "TRANSPORTE"
	CategoryVereda          Category = "VEREDA"
	CategoryOtro            Category = "OTRO"
)

// Condition is the creator-assessed physical quality of the point.
// Immutable once the point exists.
type Condition string

const (
	ConditionBueno   Condition = "BUENO"
	ConditionRegular Condition = "REGULAR"
	ConditionMalo    Condition = "MALO"
)

func (c Condition) Valid() bool {
	switch c {
	case ConditionBueno, ConditionRegular, ConditionMalo:
		return true
	}
	return false
}

// ModerationStatus is the administrative lifecycle state of a point.
// PENDIENTE is the only state a transition is accepted from; APROBADO and
// RECHAZADO are terminal.
type ModerationStatus string

const (
	StatusPendiente ModerationStatus = "PENDIENTE"
	StatusAprobado  ModerationStatus = "APROBADO"
	StatusRechazado ModerationStatus = "RECHAZADO"
)

// ValidTransitionTarget reports whether s is a state a pending point may
// move to.
func (s ModerationStatus) ValidTransitionTarget() bool {
	return s == StatusAprobado || s == StatusRechazado
}

func (s ModerationStatus) Terminal() bool {
	return s == StatusAprobado || s == StatusRechazado
}

// Point is a single accessibility location record. Field names match the
// Firestore documents in the `punto` collection.
type Point struct {
	ID        string           `json:"id" firestore:"-"`
	Lat       float64          `json:"lat" firestore:"lat"`
	Lng       float64          `json:"lng" firestore:"lng"`
	Category  Category         `json:"category" firestore:"category"`
	Condition Condition        `json:"status" firestore:"status"`
	Comments  string           `json:"comments,omitempty" firestore:"comments,omitempty"`
	ImageURL  string           `json:"imageUrl,omitempty" firestore:"imageUrl,omitempty"`
	OwnerUID  string           `json:"userId" firestore:"userId"`
	Status    ModerationStatus `json:"pointStatus" firestore:"pointStatus"`
	CreatedAt time.Time        `json:"createdAt" firestore:"createdAt"`
}

// Bookmark is a user's saved reference to a point, independent of the
// point's lifecycle.
type Bookmark struct {
	UserID  string    `json:"userId" firestore:"userId"`
	PointID string    `json:"pointId" firestore:"pointId"`
	SavedAt time.Time `json:"savedAt" firestore:"savedAt"`
}

// BookmarkID is the deterministic document id for a (user, point) pair.
// It makes the save operation a single conditional create instead of a
// racy check-then-write.
func BookmarkID(userID, pointID string) string {
	return fmt.Sprintf("%s_%s", userID, pointID)
}

// ImageUpload carries the photo bytes attached to a new point.
type ImageUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StatusFilter selects which moderation states a listing returns.
// The default public view is approved-only.
type StatusFilter string

const (
	FilterApproved StatusFilter = "approved"
	FilterAll      StatusFilter = "all"
)

// ParseStatusFilter maps a query value to a filter; empty means approved.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(s) {
	case "":
		return FilterApproved, true
	case FilterApproved, FilterAll:
		return StatusFilter(s), true
	}
	return "", false
}
