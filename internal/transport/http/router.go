package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"adrenaline_backend/internal/handler"
	"adrenaline_backend/internal/httputil"
	"adrenaline_backend/internal/identity"
	authmw "adrenaline_backend/internal/transport/http/middleware"
)

// RouterConfig holds the dependencies needed to create routes
type RouterConfig struct {
	UserHandler    *handler.UserHandler
	FollowHandler  *handler.FollowHandler
	FeedHandler    *handler.FeedHandler
	PostHandler    *handler.PostHandler
	MessageHandler *handler.MessageHandler
	AccountHandler *handler.AccountHandler
	Verifier       identity.TokenVerifier
}

// NewRouter creates and configures a new Chi router with all route groups
func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, 200, map[string]string{"status": "ok"})
	})

	optional := authmw.OptionalAuthMiddleware(cfg.Verifier)

	// Public user endpoints with optional authentication
	r.Route("/users", func(r chi.Router) {
		r.With(optional).Get("/{id}", cfg.UserHandler.GetProfile)
		r.With(optional).Get("/{id}/posts", cfg.FeedHandler.GetUserPosts)
		r.With(optional).Get("/{id}/favorites/athletes", cfg.FollowHandler.FavoriteAthletes)
	})

	r.With(optional).Get("/posts/{id}", cfg.PostHandler.GetByID)

	// Protected routes - require authentication
	r.Group(func(r chi.Router) {
		r.Use(authmw.AuthMiddleware(cfg.Verifier))

		r.Get("/me", cfg.UserHandler.Me)
		r.Post("/me", cfg.UserHandler.Register)
		r.Patch("/me", cfg.UserHandler.UpdateMe)
		r.Put("/me/picture", cfg.UserHandler.UploadPicture)
		r.Put("/me/favorites/order", cfg.FollowHandler.ReorderFavorites)
		r.Delete("/me", cfg.AccountHandler.Delete)

		r.Post("/users/{id}/follow", cfg.FollowHandler.Follow)
		r.Delete("/users/{id}/follow", cfg.FollowHandler.Unfollow)

		r.Get("/feed", cfg.FeedHandler.GetFeed)

		r.Post("/posts", cfg.PostHandler.Create)
		r.Delete("/posts/{id}", cfg.PostHandler.Delete)
		r.Post("/posts/{id}/save", cfg.PostHandler.Save)
		r.Delete("/posts/{id}/save", cfg.PostHandler.Unsave)

		r.Get("/messages/{id}", cfg.MessageHandler.Conversation)
		r.Post("/messages/{id}", cfg.MessageHandler.Send)
	})

	return r
}
