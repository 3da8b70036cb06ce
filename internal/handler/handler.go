package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/model"
	"adrenaline_backend/internal/transport/http/middleware"
)

// UserLookup loads the user record behind an authenticated request.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*model.User, error)
}

// currentUser returns the caller's user record, writing the error response
// itself when there is none.
func currentUser(w http.ResponseWriter, r *http.Request, users UserLookup, log *logrus.Entry) (*model.User, bool) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, "Authentication required")
		return nil, false
	}

	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			httputil.WriteNotFound(w, "User record not found")
			return nil, false
		}
		log.WithField("user", userID).WithError(err).Error("Loading current user failed")
		httputil.WriteInternalError(w, "Failed to load user")
		return nil, false
	}
	return user, true
}

// optionalViewer returns the caller's user record, or nil for anonymous and
// unregistered callers.
func optionalViewer(r *http.Request, users UserLookup) *model.User {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		return nil
	}
	user, err := users.GetByID(r.Context(), userID)
	if err != nil {
		return nil
	}
	return user
}

// writeError maps domain errors and logs the ones that become 500s.
func writeError(w http.ResponseWriter, log *logrus.Entry, op string, err error) {
	log.WithField("op", op).WithError(err).Warn("Request failed")
	httputil.WriteDomainError(w, err)
}

func parseLimit(r *http.Request, def int) (int, bool) {
	l := r.URL.Query().Get("limit")
	if l == "" {
		return def, true
	}
	parsed, err := strconv.Atoi(l)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}
