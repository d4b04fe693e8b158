package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/okian/radrate/internal/domain/model"
)

// RatingsHandler handles reading and writing scores.
type RatingsHandler struct {
	deps RatingDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

type saveRequest struct {
	ModelRatings []model.ModelRating `json:"modelRatings"`
}

type dimensionRequest struct {
	Dimension string   `json:"dimension"`
	Value     *float64 `json:"value"`
}

// HandleList handles GET /ratings/{userID}.
func (h *RatingsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ratings := h.deps.Ratings(r.Context(), r.PathValue("userID"))
	if ratings == nil {
		ratings = []model.ImageRating{}
	}
	writeJSON(w, http.StatusOK, ratings)
}

// HandleSave handles PUT /ratings/{userID}/{idx}.
func (h *RatingsHandler) HandleSave(w http.ResponseWriter, r *http.Request) {
	const op = "api.save_rating"
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	saved, err := h.deps.SaveImageRating(r.Context(), r.PathValue("userID"), idx, req.ModelRatings)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

// HandleDimension handles PATCH /ratings/{userID}/{idx}/models/{model}.
func (h *RatingsHandler) HandleDimension(w http.ResponseWriter, r *http.Request) {
	const op = "api.rate_dimension"
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	modelIndex, err := strconv.Atoi(r.PathValue("model"))
	if err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	var req dimensionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if req.Value == nil {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	saved, err := h.deps.RateDimension(r.Context(), r.PathValue("userID"), idx, modelIndex, req.Dimension, *req.Value)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, saved)
}
