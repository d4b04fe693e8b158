package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/radrate/internal/domain/model"
)

// SessionHandler handles login state.
type SessionHandler struct {
	deps SessionDependencies
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(deps SessionDependencies) *SessionHandler {
	return &SessionHandler{deps: deps}
}

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (l loginRequest) validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("missing name")
	}
	return nil
}

type sessionResponse struct {
	User        model.User `json:"user"`
	ResumeIndex int        `json:"resumeIndex"`
}

// HandleLogin handles POST /login.
func (h *SessionHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	const op = "api.login"
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, WrapKind(op, ErrBadRequest, err))
		return
	}
	u, err := h.deps.Login(r.Context(), req.Name, req.Email)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: u, ResumeIndex: h.deps.ResumeIndex(r.Context(), u.ID)})
}

// HandleLogout handles POST /logout.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.deps.Logout(r.Context()); err != nil {
		writeFailure(w, Wrap("api.logout", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleSession handles GET /session.
func (h *SessionHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	u, ok := h.deps.CurrentUser(r.Context())
	if !ok {
		writeFailure(w, NewKind("api.session", ErrNoSession))
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{User: u, ResumeIndex: h.deps.ResumeIndex(r.Context(), u.ID)})
}

// HandleUsers handles GET /users.
func (h *SessionHandler) HandleUsers(w http.ResponseWriter, r *http.Request) {
	users := h.deps.Users(r.Context())
	if users == nil {
		users = []model.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
