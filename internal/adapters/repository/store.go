// Package repository persists users, ratings and the active dataset in a
// key-value backend.
package repository

import (
	"context"

	"github.com/okian/radrate/internal/domain/model"
)

// Storage keys. Values are JSON text.
const (
	UsersKey       = "radiologist-users"
	CurrentUserKey = "current-user"
	RatingsPrefix  = "radiologist-ratings-"
	ReportsKey     = "radiologist-reports"
)

// RatingsKey returns the key holding userID's ratings.
func RatingsKey(userID string) string {
	return RatingsPrefix + userID
}

// KV is a flat string key-value namespace, the server-side stand-in for
// browser local storage. Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	// Keys lists every stored key in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// Store provides typed access to rater state.
//
// Reads never fail: a missing key, a backend read error or undecodable text
// all read as empty. Writes replace whole values; there is no merge and no
// cross-call locking, so concurrent writers to the same key race and the last
// one wins.
type Store interface {
	// PutUser inserts or replaces the user with the same id.
	PutUser(ctx context.Context, u model.User) error
	// ListUsers returns every known user in insertion order.
	ListUsers(ctx context.Context) []model.User
	// CurrentUser returns the logged-in user, if any.
	CurrentUser(ctx context.Context) (model.User, bool)
	// SetCurrentUser records u as logged in; nil logs out.
	SetCurrentUser(ctx context.Context, u *model.User) error
	// Ratings returns userID's ratings, empty if none are stored.
	Ratings(ctx context.Context, userID string) []model.ImageRating
	// PutRatings replaces userID's ratings.
	PutRatings(ctx context.Context, userID string, ratings []model.ImageRating) error
	// Reports returns the active dataset.
	Reports(ctx context.Context) []model.Report
	// PutReports replaces the active dataset.
	PutReports(ctx context.Context, reports []model.Report) error
	// ResetAll deletes every user, every rating, the current user and the
	// dataset. It is irreversible and affects all users.
	ResetAll(ctx context.Context) error
}
