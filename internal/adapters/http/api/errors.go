package api

import (
	"errors"
	"net/http"

	service "github.com/okian/radrate/internal/app"
	"github.com/okian/radrate/internal/domain/exporter"
	"github.com/okian/radrate/internal/domain/importer"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest      = errors.New("bad request")
	ErrAdminRequired   = errors.New("admin flag required")
	ErrNoSession       = errors.New("no user logged in")
	ErrPayloadTooLarge = errors.New("upload too large")
)

// Error tags an underlying failure with the handler operation and an error
// kind used to pick the response status.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// WrapKind tags err with op and kind.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// NewKind returns an error of the given kind with no further cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap tags err with op, keeping whatever kind err already carries.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Kind: err}
}

// classify maps an error to its HTTP status and stable error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrAdminRequired):
		return http.StatusForbidden, "admin_required"
	case errors.Is(err, ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, importer.ErrInvalidImagePath):
		return http.StatusBadRequest, "invalid_image_path"
	case errors.Is(err, importer.ErrEmptyDataset):
		return http.StatusBadRequest, "empty_dataset"
	case errors.Is(err, importer.ErrMalformedFile):
		return http.StatusBadRequest, "malformed_file"
	case errors.Is(err, exporter.ErrEmptyRatings):
		return http.StatusNotFound, "empty_ratings"
	case errors.Is(err, service.ErrUnknownReport):
		return http.StatusNotFound, "unknown_report"
	case errors.Is(err, service.ErrUnknownUser):
		return http.StatusNotFound, "unknown_user"
	case errors.Is(err, ErrNoSession):
		return http.StatusNotFound, "no_session"
	case errors.Is(err, service.ErrNoDataset):
		return http.StatusConflict, "no_dataset"
	case errors.Is(err, service.ErrInvalidRating):
		return http.StatusBadRequest, "invalid_rating"
	case errors.Is(err, service.ErrInvalidUser):
		return http.StatusBadRequest, "invalid_user"
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
