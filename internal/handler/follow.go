package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/service"
)

type FollowHandler struct {
	users UserLookup
	graph *service.SocialGraph
	log   *logrus.Entry
}

func NewFollowHandler(users UserLookup, graph *service.SocialGraph, log *logrus.Entry) *FollowHandler {
	return &FollowHandler{users: users, graph: graph, log: log}
}

// Follow handles POST /users/{id}/follow
func (h *FollowHandler) Follow(w http.ResponseWriter, r *http.Request) {
	follower, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	updated, err := h.graph.Follow(r.Context(), follower, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "Follow", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// Unfollow handles DELETE /users/{id}/follow
func (h *FollowHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	follower, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	updated, err := h.graph.Unfollow(r.Context(), follower, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "Unfollow", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, updated)
}

// FavoriteAthletes handles GET /users/{id}/favorites/athletes
func (h *FollowHandler) FavoriteAthletes(w http.ResponseWriter, r *http.Request) {
	user, err := h.users.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log, "FavoriteAthletes", err)
		return
	}

	athletes, err := h.graph.FavoriteAthletes(r.Context(), user)
	if err != nil {
		writeError(w, h.log, "FavoriteAthletes", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"athletes": athletes})
}

type reorderRequest struct {
	Order []int `json:"order"`
}

// ReorderFavorites handles PUT /me/favorites/order
func (h *FollowHandler) ReorderFavorites(w http.ResponseWriter, r *http.Request) {
	coach, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	var req reorderRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	profile, err := h.graph.ReorderFavorites(r.Context(), coach, req.Order)
	if err != nil {
		writeError(w, h.log, "ReorderFavorites", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, profile)
}
