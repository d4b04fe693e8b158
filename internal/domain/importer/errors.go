package importer

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for dataset imports. These allow errors.Is/As from callers.
var (
	ErrMalformedFile    = errors.New("malformed csv file")
	ErrInvalidImagePath = errors.New("invalid image path")
	ErrEmptyDataset     = errors.New("no valid reports found in csv")
)

// InvalidImagePathError carries the offending path of an aborted import.
type InvalidImagePathError struct {
	Row  int
	Path string
}

func (e *InvalidImagePathError) Error() string {
	return fmt.Sprintf("row %d: invalid image path: %s", e.Row, e.Path)
}

// Is matches ErrInvalidImagePath.
func (e *InvalidImagePathError) Is(target error) bool {
	return target == ErrInvalidImagePath
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedFile, fmt.Sprintf(format, args...))
}
