// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	repository "github.com/okian/radrate/internal/adapters/repository"
	"github.com/okian/radrate/internal/domain/exporter"
	"github.com/okian/radrate/internal/domain/imagepath"
	"github.com/okian/radrate/internal/domain/importer"
	"github.com/okian/radrate/internal/domain/model"
	"github.com/okian/radrate/internal/domain/ordering"
	"github.com/okian/radrate/internal/domain/stats"
	"github.com/okian/radrate/pkg/logger"
	"github.com/okian/radrate/pkg/metrics"
)

// View is everything a rater needs to score one report.
type View struct {
	Report       model.Report        `json:"report"`
	ImageURL     string              `json:"imageUrl"`
	Order        []int               `json:"order"`
	ModelRatings []model.ModelRating `json:"modelRatings"`
	Position     int                 `json:"position"`
	Total        int                 `json:"total"`
}

// Export is a rendered CSV ready to be offered as a download.
type Export struct {
	FileName string
	Data     []byte
}

// Service coordinates dataset loading, rating sessions and exports.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	shuffler *ordering.Shuffler

	// Active dataset, mirrored from the store.
	reports []model.Report
	byIdx   map[int]int

	// Serializes read-modify-write of a user's rating list.
	ratingsMu sync.Mutex
	// Serializes the email lookup and upsert in Login.
	usersMu sync.Mutex

	imagesBase  string
	placeholder string
	now         func() time.Time
	newID       func() string

	started bool
	logger  logger.Logger
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		shuffler:    ordering.NewShuffler(ordering.PerView),
		byIdx:       map[int]int{},
		imagesBase:  imagepath.DefaultBase,
		placeholder: "/placeholder-xray.png",
		now:         time.Now,
		newID:       uuid.NewString,
		logger:      logger.Discard(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.store == nil {
		s.store = repository.NewKVStore(repository.NewMemoryKV(), repository.WithLogger(s.logger))
	}

	return s
}

// Start loads the persisted dataset into memory.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.setReports(s.store.Reports(ctx))
	s.started = true
	s.logger.Info(ctx, "rating service started",
		logger.Int("reports", len(s.reports)),
		logger.String("shuffleMode", string(s.shuffler.Mode())),
	)
	return nil
}

// Stop releases the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	if closer, ok := s.store.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close store", logger.Error(err))
		}
	}

	s.started = false
	s.logger.Info(context.Background(), "rating service stopped")
}

func (s *Service) setReports(reports []model.Report) {
	s.reports = reports
	s.byIdx = make(map[int]int, len(reports))
	for i, r := range reports {
		s.byIdx[r.Idx] = i
	}
	metrics.UpdateReportsLoaded(len(reports))
}

// LoadDataset parses a CSV upload and, only if it is valid, wipes all stored
// state and installs the new dataset.
func (s *Service) LoadDataset(ctx context.Context, r io.Reader) ([]model.Report, error) {
	reports, err := importer.Parse(r)
	if err != nil {
		metrics.RecordDatasetImport(ImportErrorCode(err))
		s.logger.Warn(ctx, "dataset rejected", logger.Error(err))
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.ResetAll(ctx); err != nil {
		metrics.RecordDatasetImport("storage_error")
		return nil, fmt.Errorf("reset storage: %w", err)
	}
	if err := s.store.PutReports(ctx, reports); err != nil {
		// Storage is already wiped; drop the old dataset so memory matches it.
		s.setReports(nil)
		metrics.RecordDatasetImport("storage_error")
		s.logger.Error(ctx, "dataset store failed after reset", logger.Error(err))
		return nil, fmt.Errorf("store dataset: %w", err)
	}
	s.setReports(reports)

	metrics.RecordDatasetImport("ok")
	s.logger.Info(ctx, "dataset loaded", logger.Int("reports", len(reports)))
	return reports, nil
}

// ImportErrorCode maps an import failure to a stable code.
func ImportErrorCode(err error) string {
	switch {
	case errors.Is(err, importer.ErrInvalidImagePath):
		return "invalid_image_path"
	case errors.Is(err, importer.ErrEmptyDataset):
		return "empty_dataset"
	default:
		return "malformed_file"
	}
}

// Reports returns a copy of the active dataset.
func (s *Service) Reports(_ context.Context) []model.Report {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Report, len(s.reports))
	copy(out, s.reports)
	return out
}

func (s *Service) report(idx int) (model.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.reports) == 0 {
		return model.Report{}, 0, ErrNoDataset
	}
	pos, ok := s.byIdx[idx]
	if !ok {
		return model.Report{}, 0, fmt.Errorf("%w: idx %d", ErrUnknownReport, idx)
	}
	return s.reports[pos], pos, nil
}

// Login registers a rater and makes them the current user. A known email
// keeps its existing id so ratings survive a re-login.
func (s *Service) Login(ctx context.Context, name, email string) (model.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" {
		return model.User{}, fmt.Errorf("%w: name is required", ErrInvalidUser)
	}

	s.usersMu.Lock()
	defer s.usersMu.Unlock()

	u := model.User{ID: s.newID(), Name: name, Email: email}
	if email != "" {
		for _, existing := range s.store.ListUsers(ctx) {
			if strings.EqualFold(existing.Email, email) {
				u.ID = existing.ID
				break
			}
		}
	}

	if err := s.store.PutUser(ctx, u); err != nil {
		return model.User{}, fmt.Errorf("save user: %w", err)
	}
	if err := s.store.SetCurrentUser(ctx, &u); err != nil {
		return model.User{}, fmt.Errorf("set current user: %w", err)
	}

	metrics.RecordLogin()
	s.logger.Info(ctx, "user logged in", logger.String("userID", u.ID))
	return u, nil
}

// Logout clears the current user. Ratings are kept.
func (s *Service) Logout(ctx context.Context) error {
	return s.store.SetCurrentUser(ctx, nil)
}

// CurrentUser returns the logged-in user, if any.
func (s *Service) CurrentUser(ctx context.Context) (model.User, bool) {
	return s.store.CurrentUser(ctx)
}

// Users lists every registered rater.
func (s *Service) Users(ctx context.Context) []model.User {
	return s.store.ListUsers(ctx)
}

func (s *Service) user(ctx context.Context, userID string) (model.User, error) {
	for _, u := range s.store.ListUsers(ctx) {
		if u.ID == userID {
			return u, nil
		}
	}
	return model.User{}, fmt.Errorf("%w: %q", ErrUnknownUser, userID)
}

// Ratings returns userID's stored ratings.
func (s *Service) Ratings(ctx context.Context, userID string) []model.ImageRating {
	return s.store.Ratings(ctx, userID)
}

// View assembles the rating screen for report idx.
func (s *Service) View(ctx context.Context, userID string, idx int) (View, error) {
	report, pos, err := s.report(idx)
	if err != nil {
		return View{}, err
	}

	url := imagepath.Resolve(report.ImagePath, s.imagesBase)
	if url == "" {
		url = s.placeholder
	}

	v := View{
		Report:       report,
		ImageURL:     url,
		Order:        s.shuffler.Order(userID, idx, len(report.ModelResponses)),
		ModelRatings: []model.ModelRating{},
		Position:     pos,
		Total:        s.total(),
	}
	for _, r := range s.store.Ratings(ctx, userID) {
		if r.Idx == idx {
			v.ModelRatings = append(v.ModelRatings, r.ModelRatings...)
			break
		}
	}
	return v, nil
}

func (s *Service) total() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reports)
}

// SaveImageRating replaces userID's ratings for report idx.
func (s *Service) SaveImageRating(ctx context.Context, userID string, idx int, ratings []model.ModelRating) (model.ImageRating, error) {
	report, _, err := s.report(idx)
	if err != nil {
		return model.ImageRating{}, err
	}
	if err := validateModelRatings(report, ratings); err != nil {
		return model.ImageRating{}, err
	}

	return s.update(ctx, userID, report, func(ir *model.ImageRating) error {
		ir.ModelRatings = append([]model.ModelRating{}, ratings...)
		return nil
	})
}

// RateDimension applies a single slider change. A model not yet rated starts
// from the default scores.
func (s *Service) RateDimension(ctx context.Context, userID string, idx, modelIndex int, dimension string, value float64) (model.ImageRating, error) {
	report, _, err := s.report(idx)
	if err != nil {
		return model.ImageRating{}, err
	}
	if modelIndex < 0 || modelIndex >= len(report.ModelResponses) {
		return model.ImageRating{}, fmt.Errorf("%w: model index %d out of range", ErrInvalidRating, modelIndex)
	}

	return s.update(ctx, userID, report, func(ir *model.ImageRating) error {
		mr, ok := ir.Find(modelIndex)
		if !ok {
			mr = model.ModelRating{ModelIndex: modelIndex, Scores: model.DefaultScores()}
		}
		if err := mr.Scores.Set(dimension, value); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidRating, err)
		}
		ir.Upsert(mr)
		return nil
	})
}

func (s *Service) update(ctx context.Context, userID string, report model.Report, fn func(*model.ImageRating) error) (model.ImageRating, error) {
	if _, err := s.user(ctx, userID); err != nil {
		return model.ImageRating{}, err
	}

	s.ratingsMu.Lock()
	defer s.ratingsMu.Unlock()

	list := s.store.Ratings(ctx, userID)
	if len(list) == 0 {
		for _, r := range s.Reports(ctx) {
			list = append(list, model.NewImageRating(r))
		}
	}

	pos := -1
	for i := range list {
		if list[i].Idx == report.Idx {
			pos = i
			break
		}
	}
	if pos < 0 {
		list = append(list, model.NewImageRating(report))
		pos = len(list) - 1
	}

	entry := list[pos]
	entry.ModelRatings = append([]model.ModelRating{}, entry.ModelRatings...)
	if err := fn(&entry); err != nil {
		return model.ImageRating{}, err
	}
	list[pos] = entry

	if err := s.store.PutRatings(ctx, userID, list); err != nil {
		return model.ImageRating{}, fmt.Errorf("save ratings: %w", err)
	}

	metrics.RecordRatingSaved()
	s.logger.Debug(ctx, "rating saved",
		logger.String("userID", userID),
		logger.Int("idx", report.Idx),
		logger.Int("models", len(entry.ModelRatings)),
	)
	return entry, nil
}

func validateModelRatings(report model.Report, ratings []model.ModelRating) error {
	if len(ratings) > model.ModelsPerReport {
		return fmt.Errorf("%w: %d model ratings, at most %d allowed", ErrInvalidRating, len(ratings), model.ModelsPerReport)
	}
	seen := make(map[int]struct{}, len(ratings))
	for _, mr := range ratings {
		if mr.ModelIndex < 0 || mr.ModelIndex >= len(report.ModelResponses) {
			return fmt.Errorf("%w: model index %d out of range", ErrInvalidRating, mr.ModelIndex)
		}
		if _, dup := seen[mr.ModelIndex]; dup {
			return fmt.Errorf("%w: model index %d repeated", ErrInvalidRating, mr.ModelIndex)
		}
		seen[mr.ModelIndex] = struct{}{}
		if err := mr.Scores.Validate(); err != nil {
			return fmt.Errorf("%w: model %d: %w", ErrInvalidRating, mr.ModelIndex, err)
		}
	}
	return nil
}

// ResumeIndex returns the dataset position a returning rater continues from:
// the first incompletely rated report, else the last one.
func (s *Service) ResumeIndex(ctx context.Context, userID string) int {
	list := s.store.Ratings(ctx, userID)
	if len(list) == 0 {
		return 0
	}

	target := list[len(list)-1]
	for _, r := range list {
		if !r.Complete() {
			target = r
			break
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byIdx[target.Idx]
}

// Export renders userID's ratings with their identity attached.
func (s *Service) Export(ctx context.Context, userID string) (Export, error) {
	var id *model.Identity
	if u, err := s.user(ctx, userID); err == nil {
		id = model.IdentityOf(u)
	} else {
		id = &model.Identity{UserID: userID}
	}

	data, err := s.export(ctx, userID, id, "user")
	if err != nil {
		return Export{}, err
	}
	return Export{FileName: exporter.FileName(userID, s.now()), Data: data}, nil
}

// ExportBatch renders userID's ratings without identity columns.
func (s *Service) ExportBatch(ctx context.Context, userID string) (Export, error) {
	data, err := s.export(ctx, userID, nil, "batch")
	if err != nil {
		return Export{}, err
	}
	return Export{FileName: exporter.BatchFileName, Data: data}, nil
}

func (s *Service) export(ctx context.Context, userID string, id *model.Identity, variant string) ([]byte, error) {
	data, err := exporter.Export(s.store.Ratings(ctx, userID), id)
	if err != nil {
		if errors.Is(err, exporter.ErrEmptyRatings) {
			metrics.RecordExportEmpty()
		}
		return nil, err
	}
	metrics.RecordExport(variant)
	s.logger.Info(ctx, "ratings exported",
		logger.String("userID", userID),
		logger.String("variant", variant),
		logger.Int("bytes", len(data)),
	)
	return data, nil
}

// Stats aggregates completion across all raters.
func (s *Service) Stats(ctx context.Context) stats.Stats {
	st := stats.Compute(ctx, s.total(), s.store)
	metrics.UpdateUsers(st.TotalUsers, st.ActiveUsers)
	return st
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	started := s.started
	reports := len(s.reports)
	s.mu.RUnlock()

	out := map[string]interface{}{
		"started":     started,
		"reports":     reports,
		"shuffleMode": string(s.shuffler.Mode()),
	}
	if started {
		st := s.Stats(context.Background())
		out["totalUsers"] = st.TotalUsers
		out["activeUsers"] = st.ActiveUsers
	}
	return out
}
