package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/okian/radrate/internal/domain/model"
)

// DatasetHandler handles dataset upload and report browsing.
type DatasetHandler struct {
	deps     DatasetDependencies
	maxBytes int64
}

// NewDatasetHandler creates a new dataset handler.
func NewDatasetHandler(deps DatasetDependencies, maxBytes int64) *DatasetHandler {
	return &DatasetHandler{deps: deps, maxBytes: maxBytes}
}

type uploadResponse struct {
	Reports int `json:"reports"`
}

// HandleUpload handles POST /dataset. The CSV is taken from the multipart
// "file" field, or from the raw body for any other content type.
func (h *DatasetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "api.upload_dataset"
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	body, closeFn, err := h.source(r)
	if err != nil {
		writeFailure(w, WrapKind(op, uploadKind(err), err))
		return
	}
	defer closeFn()

	reports, err := h.deps.LoadDataset(r.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFailure(w, WrapKind(op, ErrPayloadTooLarge, err))
			return
		}
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{Reports: len(reports)})
}

func (h *DatasetHandler) source(r *http.Request) (io.Reader, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, func() {}, nil
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func uploadKind(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return ErrPayloadTooLarge
	}
	return ErrBadRequest
}

// HandleList handles GET /reports.
func (h *DatasetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	reports := h.deps.Reports(r.Context())
	if reports == nil {
		reports = []model.Report{}
	}
	writeJSON(w, http.StatusOK, reports)
}

// HandleView handles GET /reports/{idx}?user=<id>.
func (h *DatasetHandler) HandleView(w http.ResponseWriter, r *http.Request) {
	const op = "api.view_report"
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	view, err := h.deps.View(r.Context(), r.URL.Query().Get("user"), idx)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}
