package service

import (
	"time"

	repository "github.com/okian/radrate/internal/adapters/repository"
	"github.com/okian/radrate/internal/domain/ordering"
	"github.com/okian/radrate/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore sets the rating store. The Service closes it on Stop when it
// implements io.Closer.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithShuffleMode selects how model presentation order is drawn.
func WithShuffleMode(mode ordering.Mode) Option {
	return func(s *Service) {
		s.shuffler = ordering.NewShuffler(mode)
	}
}

// WithImagesBase sets the prefix relative image paths resolve against.
func WithImagesBase(base string) Option {
	return func(s *Service) {
		if base != "" {
			s.imagesBase = base
		}
	}
}

// WithPlaceholderImage sets the image shown when a path cannot be resolved.
func WithPlaceholderImage(path string) Option {
	return func(s *Service) {
		s.placeholder = path
	}
}

// WithClock overrides time.Now, used for export file names.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how new user ids are minted.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}
