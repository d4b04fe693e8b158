package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/okian/radrate/internal/domain/model"
	"github.com/okian/radrate/pkg/logger"
	"github.com/okian/radrate/pkg/metrics"
)

// KVStore implements Store on top of a KV backend.
type KVStore struct {
	kv     KV
	logger logger.Logger

	// usersMu serializes the read-modify-write of the user list so that two
	// logins in the same process do not drop each other.
	usersMu sync.Mutex
}

var _ Store = (*KVStore)(nil)

// NewKVStore wraps kv.
func NewKVStore(kv KV, opts ...Option) *KVStore {
	s := &KVStore{kv: kv, logger: logger.Discard()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the underlying backend.
func (s *KVStore) Close() error {
	return s.kv.Close()
}

// PutUser implements Store.
func (s *KVStore) PutUser(ctx context.Context, u model.User) error {
	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	users := s.ListUsers(ctx)
	replaced := false
	for i := range users {
		if users[i].ID == u.ID {
			users[i] = u
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, u)
	}
	return s.write(ctx, UsersKey, users)
}

// ListUsers implements Store.
func (s *KVStore) ListUsers(ctx context.Context) []model.User {
	var users []model.User
	if !s.read(ctx, UsersKey, &users) || users == nil {
		return []model.User{}
	}
	return users
}

// CurrentUser implements Store.
func (s *KVStore) CurrentUser(ctx context.Context) (model.User, bool) {
	var u *model.User
	if !s.read(ctx, CurrentUserKey, &u) || u == nil {
		return model.User{}, false
	}
	return *u, true
}

// SetCurrentUser implements Store.
func (s *KVStore) SetCurrentUser(ctx context.Context, u *model.User) error {
	if u == nil {
		return s.remove(ctx, CurrentUserKey)
	}
	return s.write(ctx, CurrentUserKey, u)
}

// Ratings implements Store.
func (s *KVStore) Ratings(ctx context.Context, userID string) []model.ImageRating {
	var ratings []model.ImageRating
	if !s.read(ctx, RatingsKey(userID), &ratings) || ratings == nil {
		return []model.ImageRating{}
	}
	for i := range ratings {
		if ratings[i].ModelRatings == nil {
			ratings[i].ModelRatings = []model.ModelRating{}
		}
	}
	return ratings
}

// PutRatings implements Store.
func (s *KVStore) PutRatings(ctx context.Context, userID string, ratings []model.ImageRating) error {
	if ratings == nil {
		ratings = []model.ImageRating{}
	}
	return s.write(ctx, RatingsKey(userID), ratings)
}

// Reports implements Store.
func (s *KVStore) Reports(ctx context.Context) []model.Report {
	var reports []model.Report
	if !s.read(ctx, ReportsKey, &reports) || reports == nil {
		return []model.Report{}
	}
	return reports
}

// PutReports implements Store.
func (s *KVStore) PutReports(ctx context.Context, reports []model.Report) error {
	return s.write(ctx, ReportsKey, reports)
}

// ResetAll implements Store.
func (s *KVStore) ResetAll(ctx context.Context) error {
	start := time.Now()
	defer observe("reset", start)

	if err := s.kv.Clear(ctx); err != nil {
		metrics.RecordStorageError("reset")
		return fmt.Errorf("reset storage: %w", err)
	}
	metrics.RecordStorageReset()
	s.logger.Warn(ctx, "storage reset: all users and ratings discarded")
	return nil
}

// read decodes key into dst. It reports false when the key is missing,
// unreadable or corrupt; the latter two are logged and counted but never
// returned.
func (s *KVStore) read(ctx context.Context, key string, dst any) bool {
	start := time.Now()
	defer observe("get", start)

	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		metrics.RecordStorageError("get")
		s.logger.Warn(ctx, "storage read failed; treating as absent",
			logger.String("key", key), logger.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		metrics.RecordStorageCorruptRead(keyKind(key))
		s.logger.Warn(ctx, "stored value is not valid JSON; treating as absent",
			logger.String("key", key), logger.Error(err))
		return false
	}
	return true
}

func (s *KVStore) write(ctx context.Context, key string, v any) error {
	start := time.Now()
	defer observe("set", start)

	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %q: %w", key, err)
	}
	if err := s.kv.Set(ctx, key, string(b)); err != nil {
		metrics.RecordStorageError("set")
		return fmt.Errorf("store %q: %w", key, err)
	}
	return nil
}

func (s *KVStore) remove(ctx context.Context, key string) error {
	start := time.Now()
	defer observe("delete", start)

	if err := s.kv.Delete(ctx, key); err != nil {
		metrics.RecordStorageError("delete")
		return fmt.Errorf("delete %q: %w", key, err)
	}
	return nil
}

func observe(op string, start time.Time) {
	metrics.RecordStorageOpLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// keyKind collapses keys into a low-cardinality metric label.
func keyKind(key string) string {
	switch {
	case key == UsersKey:
		return "users"
	case key == CurrentUserKey:
		return "current_user"
	case key == ReportsKey:
		return "reports"
	case strings.HasPrefix(key, RatingsPrefix):
		return "ratings"
	default:
		return "other"
	}
}
