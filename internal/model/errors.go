package model

import "errors"

// Store and domain errors. Callers match with errors.Is.
var (
	// ErrNotFound is returned by point lookups and deletes when no row has the id.
	ErrNotFound = errors.New("not found")

	// ErrNothingToPurge means the purge target has no User record.
	ErrNothingToPurge = errors.New("nothing to purge")

	// ErrInvariantViolation marks data the system guarantees cannot exist,
	// such as two User records sharing one id or email.
	ErrInvariantViolation = errors.New("invariant violation")

	// ErrFavoriteIndexMissing is returned by unfollow when a coach's favorites
	// list does not contain the athlete being unfollowed.
	ErrFavoriteIndexMissing = errors.New("favorite index missing")

	ErrInvalidFavoritesOrder = errors.New("favorites order is not a permutation of the athlete favorites")
	ErrNotCoach              = errors.New("user has no coach profile")
	ErrCannotFollowSelf      = errors.New("cannot follow yourself")
	ErrUnknownField          = errors.New("unknown field")
	ErrInvalidFieldValue     = errors.New("invalid field value")

	ErrNotPostOwner    = errors.New("not the owner of this post")
	ErrCaptionTooLong  = errors.New("caption too long")
	ErrTooManyMedia    = errors.New("too many media items")
	ErrEmptyMessage    = errors.New("message body is required")
	ErrMessageTooLong  = errors.New("message body too long")
	ErrInvalidImage    = errors.New("invalid image")
	ErrFileTooLarge    = errors.New("file too large")
)
