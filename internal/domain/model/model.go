// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"math"
)

// ModelsPerReport is the number of model responses a report carries when
// every response column is filled. An ImageRating is complete when it holds
// this many ModelRatings.
const ModelsPerReport = 5

// Score bounds for every rating dimension.
const (
	MinScore     = 1.0
	MaxScore     = 5.0
	ScoreStep    = 0.5
	DefaultScore = 3.0
)

// ErrInvalidScore is returned when a score is out of range or off-step.
var ErrInvalidScore = errors.New("invalid score")

// Report is one image plus the textual responses of the models that read it.
type Report struct {
	Idx            int      `json:"idx"`
	ImagePath      string   `json:"image_path"`
	ModelResponses []string `json:"model_responses"`
}

// Scores holds the five Likert dimensions for one model response.
// Field order defines the JSON encoding used in exports.
type Scores struct {
	Accuracy          float64 `json:"accuracy"`
	Comprehensiveness float64 `json:"comprehensiveness"`
	Clarity           float64 `json:"clarity"`
	Interpretation    float64 `json:"interpretation"`
	Terminology       float64 `json:"terminology"`
}

// Dimension names accepted by Scores.Set.
const (
	DimensionAccuracy          = "accuracy"
	DimensionComprehensiveness = "comprehensiveness"
	DimensionClarity           = "clarity"
	DimensionInterpretation    = "interpretation"
	DimensionTerminology       = "terminology"
)

// Dimensions lists the rating dimensions in display order.
func Dimensions() []string {
	return []string{
		DimensionAccuracy,
		DimensionComprehensiveness,
		DimensionClarity,
		DimensionInterpretation,
		DimensionTerminology,
	}
}

// DefaultScores returns the value every slider starts at.
func DefaultScores() Scores {
	return Scores{
		Accuracy:          DefaultScore,
		Comprehensiveness: DefaultScore,
		Clarity:           DefaultScore,
		Interpretation:    DefaultScore,
		Terminology:       DefaultScore,
	}
}

// Set updates a single dimension by name.
func (s *Scores) Set(dimension string, value float64) error {
	if err := validScore(value); err != nil {
		return fmt.Errorf("%s: %w", dimension, err)
	}
	switch dimension {
	case DimensionAccuracy:
		s.Accuracy = value
	case DimensionComprehensiveness:
		s.Comprehensiveness = value
	case DimensionClarity:
		s.Clarity = value
	case DimensionInterpretation:
		s.Interpretation = value
	case DimensionTerminology:
		s.Terminology = value
	default:
		return fmt.Errorf("unknown dimension %q: %w", dimension, ErrInvalidScore)
	}
	return nil
}

// Validate checks every dimension against the allowed range and step.
func (s Scores) Validate() error {
	values := map[string]float64{
		DimensionAccuracy:          s.Accuracy,
		DimensionComprehensiveness: s.Comprehensiveness,
		DimensionClarity:           s.Clarity,
		DimensionInterpretation:    s.Interpretation,
		DimensionTerminology:       s.Terminology,
	}
	for _, dim := range Dimensions() {
		if err := validScore(values[dim]); err != nil {
			return fmt.Errorf("%s: %w", dim, err)
		}
	}
	return nil
}

func validScore(v float64) error {
	if math.IsNaN(v) || v < MinScore || v > MaxScore {
		return fmt.Errorf("%v outside [%v,%v]: %w", v, MinScore, MaxScore, ErrInvalidScore)
	}
	if steps := (v - MinScore) / ScoreStep; steps != math.Trunc(steps) {
		return fmt.Errorf("%v is not a multiple of %v: %w", v, ScoreStep, ErrInvalidScore)
	}
	return nil
}

// ModelRating is one user's scores for one model response.
type ModelRating struct {
	ModelIndex int    `json:"modelIndex"`
	Scores     Scores `json:"scores"`
}

// ImageRating is one user's scoring of a single report.
type ImageRating struct {
	Idx          int           `json:"idx"`
	ImagePath    string        `json:"image_path"`
	ModelRatings []ModelRating `json:"modelRatings"`
}

// Complete reports whether every model has been scored. Only the count
// matters, not which model indices are present.
func (r ImageRating) Complete() bool {
	return len(r.ModelRatings) == ModelsPerReport
}

// Find returns the rating for modelIndex, if present.
func (r ImageRating) Find(modelIndex int) (ModelRating, bool) {
	for _, mr := range r.ModelRatings {
		if mr.ModelIndex == modelIndex {
			return mr, true
		}
	}
	return ModelRating{}, false
}

// Upsert replaces the rating for mr.ModelIndex or appends it.
func (r *ImageRating) Upsert(mr ModelRating) {
	for i := range r.ModelRatings {
		if r.ModelRatings[i].ModelIndex == mr.ModelIndex {
			r.ModelRatings[i] = mr
			return
		}
	}
	r.ModelRatings = append(r.ModelRatings, mr)
}

// NewImageRating returns an empty rating for the given report.
func NewImageRating(report Report) ImageRating {
	return ImageRating{
		Idx:          report.Idx,
		ImagePath:    report.ImagePath,
		ModelRatings: []ModelRating{},
	}
}

// User is a rater identified by a locally entered name and email.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Identity is attached to exported rows when the export is user-scoped.
type Identity struct {
	UserID string
	Name   string
	Email  string
}

// IdentityOf builds an export identity from a user.
func IdentityOf(u User) *Identity {
	return &Identity{UserID: u.ID, Name: u.Name, Email: u.Email}
}
