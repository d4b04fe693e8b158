// Package stats computes rater completion figures from stored ratings.
package stats

import (
	"context"

	"github.com/okian/radrate/internal/domain/model"
)

// Source is the read side of the rating store that completion needs.
type Source interface {
	ListUsers(ctx context.Context) []model.User
	Ratings(ctx context.Context, userID string) []model.ImageRating
}

// Completion is one active rater's progress.
type Completion struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Percent returns Completed as a share of Total, or 0 when Total is 0.
func (c Completion) Percent() float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.Completed) / float64(c.Total) * 100
}

// Stats summarizes every rater.
type Stats struct {
	TotalUsers        int          `json:"totalUsers"`
	ActiveUsers       int          `json:"activeUsers"`
	PerUserCompletion []Completion `json:"completionRates"`
}

// Compute reads every user's ratings and reports completion against
// totalReports. Users without stored ratings count towards TotalUsers only.
// It is a pure read and is recomputed on every call.
func Compute(ctx context.Context, totalReports int, src Source) Stats {
	users := src.ListUsers(ctx)
	out := Stats{
		TotalUsers:        len(users),
		PerUserCompletion: []Completion{},
	}
	for _, u := range users {
		ratings := src.Ratings(ctx, u.ID)
		if len(ratings) == 0 {
			continue
		}
		completed := 0
		for _, r := range ratings {
			if r.Complete() {
				completed++
			}
		}
		out.ActiveUsers++
		out.PerUserCompletion = append(out.PerUserCompletion, Completion{
			UserID:    u.ID,
			Name:      u.Name,
			Completed: completed,
			Total:     totalReports,
		})
	}
	return out
}
