// Package importer turns an uploaded dataset CSV into validated reports.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/okian/radrate/internal/domain/imagepath"
	"github.com/okian/radrate/internal/domain/model"
)

// Column names of the dataset CSV.
const (
	ColumnIdx       = "idx"
	ColumnImagePath = "image_path"
)

const utf8BOM = "\ufeff"

// delimiters are tried in order against the header line.
var delimiters = []rune{',', ';', '\t', '|'}

// ResponseColumns returns model1_response..model5_response in order.
func ResponseColumns() []string {
	cols := make([]string, model.ModelsPerReport)
	for i := range cols {
		cols[i] = fmt.Sprintf("model%d_response", i+1)
	}
	return cols
}

// Parse reads a header-first CSV and returns one report per usable row.
//
// Rows without idx or image_path are skipped. A non-integer or repeated idx,
// or an image path that is neither a URL nor an image file, fails the whole
// import. The delimiter is detected from the header line. Quotes are only
// special at the start of a field. Parse has no side effects; callers reset
// storage only on success.
func Parse(r io.Reader) ([]model.Report, error) {
	br := bufio.NewReader(r)
	first, err := br.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}

	cr := csv.NewReader(io.MultiReader(strings.NewReader(first), br))
	cr.Comma = DetectDelimiter(first)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyDataset
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
	}
	index := columnIndex(header)

	var (
		reports []model.Report
		seen    = make(map[int]int)
		row     = 1
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformedFile, err)
		}
		row++

		idxRaw := strings.TrimSpace(field(rec, index, ColumnIdx))
		path := strings.TrimSpace(field(rec, index, ColumnImagePath))
		if idxRaw == "" || path == "" {
			continue
		}

		idx, err := strconv.Atoi(idxRaw)
		if err != nil {
			return nil, malformed("row %d: idx %q is not an integer", row, idxRaw)
		}
		if prev, dup := seen[idx]; dup {
			return nil, malformed("row %d: idx %d already used on row %d", row, idx, prev)
		}
		if !imagepath.Valid(path) {
			return nil, &InvalidImagePathError{Row: row, Path: path}
		}
		seen[idx] = row

		responses := make([]string, 0, model.ModelsPerReport)
		for _, col := range ResponseColumns() {
			if v := field(rec, index, col); v != "" {
				responses = append(responses, v)
			}
		}

		reports = append(reports, model.Report{
			Idx:            idx,
			ImagePath:      path,
			ModelResponses: responses,
		})
	}

	if len(reports) == 0 {
		return nil, ErrEmptyDataset
	}
	return reports, nil
}

// DetectDelimiter returns the first of , ; tab | that splits header into
// columns naming both idx and image_path. It falls back to a comma.
func DetectDelimiter(header string) rune {
	header = strings.TrimPrefix(header, utf8BOM)
	header = strings.TrimRight(header, "\r\n")
	for _, d := range delimiters {
		cols := make(map[string]bool)
		for _, name := range strings.Split(header, string(d)) {
			cols[strings.Trim(strings.TrimSpace(name), `"`)] = true
		}
		if cols[ColumnIdx] && cols[ColumnImagePath] {
			return d
		}
	}
	return ','
}

// columnIndex maps header names to positions. The first occurrence of a
// repeated name wins.
func columnIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, utf8BOM)
		}
		name = strings.TrimSpace(name)
		if _, ok := index[name]; !ok {
			index[name] = i
		}
	}
	return index
}

func field(rec []string, index map[string]int, name string) string {
	i, ok := index[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return rec[i]
}
