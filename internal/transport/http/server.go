package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/app"
	"adrenaline_backend/internal/config"
	"adrenaline_backend/internal/handler"
	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/service"
)

const shutdownTimeout = 10 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect backends
	infra, err := app.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	router := buildRouter(infra, cfg.PurgePropagationDelay, log)

	// 3. Serve until signalled
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("Starting server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// buildRouter wires services and handlers onto the opened backends.
func buildRouter(infra *app.Infra, purgeDelay time.Duration, log *logrus.Logger) chi.Router {
	resolver := service.NewResolver(infra.Store.Users, logger.Component(log, "Resolver"))
	graph := service.NewSocialGraph(infra.Store.Users, infra.Store.Coaches, resolver, infra.Publisher, logger.Component(log, "SocialGraph"))
	feed := service.NewFeed(infra.Store.Posts, resolver, logger.Component(log, "Feed"))
	home := service.NewHomeFeed(infra.Cache, feed, infra.Store.Posts, resolver, logger.Component(log, "HomeFeed"))
	users := service.NewUserService(infra.Store, infra.State, logger.Component(log, "UserService"))
	profiles := service.NewProfileService(infra.Blobs, logger.Component(log, "ProfileService"))
	posts := service.NewPostService(infra.Store, infra.Blobs, infra.Publisher, logger.Component(log, "PostService"))
	messages := service.NewMessageService(infra.Store, logger.Component(log, "MessageService"))
	purger := service.NewPurger(infra.Store, infra.Blobs, graph, infra.Publisher, logger.Component(log, "PurgeService"))
	accounts := service.NewAccountService(purger, infra.State, infra.Auth, infra.Unconfirmed,
		purgeDelay, logger.Component(log, "AccountService"))

	hlog := logger.Component(log, "HTTP")
	return NewRouter(RouterConfig{
		UserHandler:    handler.NewUserHandler(users, profiles, hlog),
		FollowHandler:  handler.NewFollowHandler(users, graph, hlog),
		FeedHandler:    handler.NewFeedHandler(users, home, feed, hlog),
		PostHandler:    handler.NewPostHandler(users, posts, hlog),
		MessageHandler: handler.NewMessageHandler(users, messages, hlog),
		AccountHandler: handler.NewAccountHandler(accounts, hlog),
		Verifier:       infra.Verifier,
	})
}
