package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/habit-coach/internal/service"
)

// UserHandler exposes user creation and lookup.
// Users carry the timezone that decides which calendar day "today" is for them.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

type createUserRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

// HandleCreate registers a user.
//
// HTTP: POST /api/users
// REQUEST BODY: {"name": "Ada", "timezone": "Europe/Vilnius"}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.Name, req.Timezone)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleGet returns one user.
//
// HTTP: GET /api/users/{userID}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.Get(r.Context(), r.PathValue("userID"))
	if err != nil {
		writeError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
