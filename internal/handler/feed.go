package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/service"
)

type FeedHandler struct {
	users UserLookup
	home  *service.HomeFeed
	feed  *service.Feed
	log   *logrus.Entry
}

func NewFeedHandler(users UserLookup, home *service.HomeFeed, feed *service.Feed, log *logrus.Entry) *FeedHandler {
	return &FeedHandler{users: users, home: home, feed: feed, log: log}
}

// GetFeed handles GET /feed
// Returns paginated feed for the authenticated user.
//
// Query params:
//   - cursor: optional, "postID:unixMillis" from the previous page
//   - limit: optional, number of posts per page (default 10, max 50)
//
// A store failure renders an empty feed; only a malformed cursor is an error.
func (h *FeedHandler) GetFeed(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentUser(w, r, h.users, h.log)
	if !ok {
		return
	}

	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}
	limit, ok := parseLimit(r, service.FeedDefaultLimit)
	if !ok {
		httputil.WriteBadRequest(w, "Invalid limit parameter")
		return
	}

	resp, err := h.home.GetFeedOrEmpty(r.Context(), viewer, cursor, limit)
	if err != nil {
		writeError(w, h.log, "GetFeed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// GetUserPosts handles GET /users/{id}/posts
// Store failures render as an empty wall.
func (h *FeedHandler) GetUserPosts(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	viewer := optionalViewer(r, h.users)

	grouped := h.feed.PostsByUserIDsOrEmpty(r.Context(), []string{userID})
	posts := service.VisiblePosts(viewer, grouped[userID])
	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{"posts": posts})
}
