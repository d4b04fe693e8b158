// Package exporter serializes image ratings into downloadable CSV text.
package exporter

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/okian/radrate/internal/domain/model"
)

// BatchFileName names exports that carry no rater identity.
const BatchFileName = "radiologist_ratings.csv"

// FileName names a user-scoped export by user id and UTC calendar date.
func FileName(userID string, now time.Time) string {
	return fmt.Sprintf("radiologist_ratings_%s_%s.csv", userID, now.UTC().Format(time.DateOnly))
}

// ModelColumn returns the column name holding scores for modelIndex.
func ModelColumn(modelIndex int) string {
	return fmt.Sprintf("model%d_ratings", modelIndex+1)
}

type cell struct {
	key    string
	value  string
	quoted bool
}

// row keeps cells in insertion order; setting an existing key overwrites
// the value without moving it.
type row struct {
	cells []cell
}

func (r *row) set(key, value string, quoted bool) {
	for i := range r.cells {
		if r.cells[i].key == key {
			r.cells[i].value = value
			r.cells[i].quoted = quoted
			return
		}
	}
	r.cells = append(r.cells, cell{key: key, value: value, quoted: quoted})
}

// Export renders ratings as CSV.
//
// The header is taken from the first row's columns only. Each row writes its
// own values in its own column order, so ratings with different sets of
// rated models produce columns that do not line up with the header.
func Export(ratings []model.ImageRating, id *model.Identity) ([]byte, error) {
	if len(ratings) == 0 {
		return nil, ErrEmptyRatings
	}

	rows := make([]row, 0, len(ratings))
	for _, rating := range ratings {
		var r row
		r.set("idx", strconv.Itoa(rating.Idx), false)
		r.set("image_path", rating.ImagePath, true)
		if id != nil {
			r.set("rater_id", id.UserID, true)
			r.set("rater_name", id.Name, true)
			r.set("rater_email", id.Email, true)
		}
		for _, mr := range rating.ModelRatings {
			b, err := json.Marshal(mr.Scores)
			if err != nil {
				return nil, fmt.Errorf("%w: idx %d model %d: %w", ErrEncodeScores, rating.Idx, mr.ModelIndex, err)
			}
			r.set(ModelColumn(mr.ModelIndex), string(b), true)
		}
		rows = append(rows, r)
	}

	var sb strings.Builder
	for i, c := range rows[0].cells {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(c.key)
	}
	for _, r := range rows {
		sb.WriteByte('\n')
		for i, c := range r.cells {
			if i > 0 {
				sb.WriteByte(',')
			}
			if c.quoted {
				sb.WriteString(quote(c.value))
			} else {
				sb.WriteString(c.value)
			}
		}
	}
	return []byte(sb.String()), nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
