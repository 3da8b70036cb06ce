package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/service"
	"adrenaline_backend/internal/transport/http/middleware"
)

type UserHandler struct {
	users    *service.UserService
	profiles *service.ProfileService
	log      *logrus.Entry
}

func NewUserHandler(users *service.UserService, profiles *service.ProfileService, log *logrus.Entry) *UserHandler {
	return &UserHandler{users: users, profiles: profiles, log: log}
}

type registerRequest struct {
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	Email       string            `json:"email"`
	AccountType model.AccountType `json:"account_type"`
}

// Register handles POST /me
// Creates the user record for a freshly confirmed auth identity.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req registerRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), userID, service.RegisterInput{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		AccountType: req.AccountType,
	})
	if err != nil {
		writeError(w, h.log, "Register", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

// Me handles GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// GetProfile handles GET /users/{id}
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "GetProfile", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

type fieldUpdateRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// UpdateMe handles PATCH /me
// Body: {"field": "firstName", "value": "Ana"}. The update applies to every
// user record sharing the caller's email.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	var req fieldUpdateRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}
	update, err := model.ParseUserFieldUpdate(req.Field, req.Value)
	if err != nil {
		writeError(w, h.log, "UpdateMe", err)
		return
	}

	updated, err := h.users.UpdateUserField(r.Context(), user.Email, update)
	if err != nil {
		writeError(w, h.log, "UpdateMe", err)
		return
	}
	for i := range updated {
		if updated[i].ID == user.ID {
			httputil.WriteJSON(w, http.StatusOK, updated[i])
			return
		}
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// UploadPicture handles PUT /me/picture with a multipart "file" field.
func (h *UserHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxProfilePictureSize+1<<20)
	file, _, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteDomainError(w, model.ErrFileTooLarge)
			return
		}
		httputil.WriteBadRequest(w, "Missing file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxProfilePictureSize+1))
	if err != nil {
		httputil.WriteBadRequest(w, "Failed to read upload")
		return
	}
	if err := h.profiles.UploadProfilePicture(r.Context(), user.ID, data); err != nil {
		writeError(w, h.log, "UploadPicture", err)
		return
	}

	url, err := h.profiles.ProfilePictureURL(r.Context(), user.ID)
	if err != nil {
		writeError(w, h.log, "UploadPicture", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}
