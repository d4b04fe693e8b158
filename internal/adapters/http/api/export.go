package api

import (
	"mime"
	"net/http"
	"strconv"

	service "github.com/okian/radrate/internal/app"
)

// ExportHandler serves rating CSV downloads.
type ExportHandler struct {
	deps ExportDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps ExportDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /export/{userID}.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.Export(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeFailure(w, Wrap("api.export", err))
		return
	}
	writeCSV(w, out)
}

// HandleBatch handles GET /export/{userID}/batch.
func (h *ExportHandler) HandleBatch(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.ExportBatch(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeFailure(w, Wrap("api.export_batch", err))
		return
	}
	writeCSV(w, out)
}

func writeCSV(w http.ResponseWriter, out service.Export) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}
