package domain

import "errors"

var (
	ErrUnauthenticated  = errors.New("caller is not authenticated")
	ErrPermissionDenied = errors.New("only administrators may perform this operation")
	ErrInvalidRole      = errors.New("role must be 'admin' or 'user'")
	ErrMissingUserID    = errors.New("userId is required")
	ErrSelfDemotion     = errors.New("an administrator cannot remove their own admin role")
	ErrUserNotFound     = errors.New("user not found")
)
