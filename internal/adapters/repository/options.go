package repository

import "github.com/okian/radrate/pkg/logger"

// Option applies a configuration option to the KVStore.
type Option func(*KVStore)

// WithLogger sets the logger used to report degraded reads.
func WithLogger(l logger.Logger) Option {
	return func(s *KVStore) {
		if l != nil {
			s.logger = l
		}
	}
}
