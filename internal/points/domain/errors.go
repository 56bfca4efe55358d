package domain

import "errors"

var (
	ErrUnauthenticated    = errors.New("caller is not authenticated")
	ErrPermissionDenied   = errors.New("only administrators may perform this operation")
	ErrPointNotFound      = errors.New("point not found")
	ErrInvalidCoordinates = errors.New("lat must be in [-90,90] and lng in [-180,180]")
	ErrMissingCategory    = errors.New("category is required")
	ErrInvalidCondition   = errors.New("status must be BUENO, REGULAR or MALO")
	ErrInvalidTransition  = errors.New("new status must be APROBADO or RECHAZADO")
	ErrAlreadyModerated   = errors.New("point has already been moderated")

	// ErrUploadPermission covers permission/CORS-class storage failures and
	// carries actionable guidance for the operator.
	ErrUploadPermission = errors.New("permission/CORS error uploading image: check the storage bucket rules and its CORS configuration")
	ErrUploadFailed     = errors.New("failed to upload image")

	// ErrBookmarkInconsistent signals a delete that failed while the row
	// still exists; it marks a bug rather than silently lying about removal.
	ErrBookmarkInconsistent = errors.New("bookmark delete failed but the bookmark still exists")
)
