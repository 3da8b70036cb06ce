package app

import (
	"context"
	"io"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adrenaline_backend/internal/config"
	"adrenaline_backend/internal/state"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func memoryConfig() *config.Config {
	return &config.Config{
		StoreDriver: config.StoreDriverMemory,
		BlobDriver:  config.BlobDriverMemory,
		JWTSecret:   "secret",
	}
}

func TestOpen_WithoutRedis(t *testing.T) {
	infra, err := Open(context.Background(), memoryConfig(), quietLogger())
	require.NoError(t, err)
	defer infra.Close()

	assert.NotNil(t, infra.Store)
	assert.NotNil(t, infra.Blobs)
	assert.Nil(t, infra.Cache)
	assert.Nil(t, infra.Publisher)
	assert.IsType(t, &state.MemoryState{}, infra.State)
	assert.NotNil(t, infra.Auth)
	assert.NotNil(t, infra.Verifier)
}

func TestOpen_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := memoryConfig()
	cfg.RedisURL = "redis://" + mr.Addr()

	infra, err := Open(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer infra.Close()

	assert.NotNil(t, infra.Cache)
	assert.NotNil(t, infra.Publisher)
	assert.IsType(t, &state.RedisState{}, infra.State)
}

func TestOpen_UnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.BlobDriver = "ftp"

	_, err := Open(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unknown blob driver")

	cfg = memoryConfig()
	cfg.StoreDriver = "sqlite"
	_, err = Open(context.Background(), cfg, quietLogger())
	assert.ErrorContains(t, err, "unknown store driver")
}
