// Package app assembles the process-wide infrastructure shared by the API
// server and the feed worker.
package app

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/sirupsen/logrus"

	"adrenaline_backend/internal/cache"
	"adrenaline_backend/internal/config"
	"adrenaline_backend/internal/database"
	"adrenaline_backend/internal/identity"
	"adrenaline_backend/internal/logger"
	"adrenaline_backend/internal/queue"
	"adrenaline_backend/internal/redis"
	"adrenaline_backend/internal/repository"
	"adrenaline_backend/internal/repository/memory"
	"adrenaline_backend/internal/state"
	"adrenaline_backend/internal/storage"
)

// Infra holds the backends selected by configuration. Cache and Publisher are
// nil when no Redis is configured.
type Infra struct {
	Log       *logrus.Logger
	Store     *repository.Store
	Redis     *redis.Client
	Cache     cache.FeedCache
	Publisher queue.Publisher
	State     state.LocalState
	Blobs     storage.BlobStore

	Auth        identity.Authenticator
	Unconfirmed identity.UnconfirmedUserDeleter
	Verifier    identity.TokenVerifier

	closers []func() error
}

// Open connects every backend named by cfg. On error everything opened so
// far is closed.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Infra, error) {
	infra := &Infra{Log: log}
	steps := []func(context.Context, *config.Config) error{
		infra.openStore,
		infra.openRedis,
		infra.openBlobs,
		infra.openIdentity,
	}
	for _, step := range steps {
		if err := step(ctx, cfg); err != nil {
			infra.Close()
			return nil, err
		}
	}
	return infra, nil
}

func (i *Infra) Close() {
	for n := len(i.closers) - 1; n >= 0; n-- {
		if err := i.closers[n](); err != nil {
			i.Log.WithError(err).Warn("Closing backend failed")
		}
	}
	i.closers = nil
}

func (i *Infra) openStore(ctx context.Context, cfg *config.Config) error {
	log := logger.Component(i.Log, "Database")
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		i.Store = memory.New().Repositories()
		log.Warn("Using in-memory store, data is lost on restart")
	case config.StoreDriverPostgres:
		db, err := database.Connect(cfg, log)
		if err != nil {
			return err
		}
		i.closers = append(i.closers, db.Close)
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		i.Store = repository.NewStore(db)
	default:
		return fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
	return nil
}

func (i *Infra) openRedis(ctx context.Context, cfg *config.Config) error {
	if cfg.RedisURL == "" {
		logger.Component(i.Log, "Redis").Warn("REDIS_URL not set, feed cache and events disabled")
		i.State = state.NewMemoryState()
		return nil
	}

	client, err := redis.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to redis: %w", err)
	}
	i.closers = append(i.closers, client.Close)
	i.Redis = client

	i.Cache = cache.NewFeedCache(client.Client, logger.Component(i.Log, "FeedCache"))
	i.Publisher = queue.NewPublisher(client.Client, logger.Component(i.Log, "Publisher"))
	i.State = state.NewRedisState(client.Client)
	return nil
}

func (i *Infra) openBlobs(ctx context.Context, cfg *config.Config) error {
	var err error
	switch cfg.BlobDriver {
	case config.BlobDriverMemory:
		i.Blobs = storage.NewMemoryStore()
	case config.BlobDriverS3:
		i.Blobs, err = storage.NewS3Store(ctx, storage.S3Config{
			Region:          cfg.S3Region,
			Endpoint:        cfg.S3Endpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			Bucket:          cfg.BlobBucket,
			URLExpiry:       cfg.BlobURLExpiry,
		})
	case config.BlobDriverMinio:
		i.Blobs, err = storage.NewMinioStore(ctx, storage.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			UseSSL:    cfg.MinioUseSSL,
			Bucket:    cfg.BlobBucket,
			URLExpiry: cfg.BlobURLExpiry,
		})
	default:
		return fmt.Errorf("unknown blob driver %q", cfg.BlobDriver)
	}
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}
	return nil
}

func (i *Infra) openIdentity(ctx context.Context, cfg *config.Config) error {
	if !cfg.CognitoEnabled {
		local := identity.NewLocal(logger.Component(i.Log, "Identity"))
		i.Auth = local
		i.Unconfirmed = local
		i.Verifier = identity.NewHMACVerifier(cfg.JWTSecret)
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return fmt.Errorf("failed to load aws config: %w", err)
	}
	i.Auth = identity.NewCognito(awsCfg)
	i.Unconfirmed = identity.NewUnconfirmedUserLambda(awsCfg, cfg.UnconfirmedUserLambdaName)
	i.Verifier = verifierFor(cfg, awsCfg)
	return nil
}

// verifierFor prefers local HMAC verification when a secret is configured;
// otherwise every token is checked against Cognito.
func verifierFor(cfg *config.Config, awsCfg aws.Config) identity.TokenVerifier {
	if cfg.JWTSecret != "" {
		return identity.NewHMACVerifier(cfg.JWTSecret)
	}
	return identity.NewCognito(awsCfg)
}
