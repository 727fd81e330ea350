package domain

import "errors"

var (
	ErrInvalidDate     = errors.New("invalid date (expected YYYY-MM-DD)")
	ErrInvalidMonth    = errors.New("invalid month (must be 1-12)")
	ErrInvalidYear     = errors.New("invalid year (must be 1-9999)")
	ErrStartDateInPast = errors.New("start date cannot be in the past")
	ErrInvalidWater    = errors.New("water amount cannot be negative")

	ErrHabitNameEmpty       = errors.New("habit name cannot be empty")
	ErrHabitNameTooLong     = errors.New("habit name is too long (max 100 chars)")
	ErrHabitSubtitleTooLong = errors.New("habit subtitle is too long (max 200 chars)")
	ErrProtectedCategory    = errors.New("default habit categories cannot be removed")
	ErrInvalidReorder       = errors.New("reorder must be a permutation of the current categories")

	ErrUnauthenticated  = errors.New("user not authenticated")
	ErrPermissionDenied = errors.New("remote store permission denied")
	ErrDocumentNotFound = errors.New("challenge document not found")
	ErrBlobNotFound     = errors.New("blob not found")
	ErrInvalidBlobRef   = errors.New("invalid blob reference")
	ErrSessionClosed    = errors.New("session closed")
)
