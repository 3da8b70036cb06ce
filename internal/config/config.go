package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Blob drivers accepted by BLOB_DRIVER.
const (
	BlobDriverS3     = "s3"
	BlobDriverMinio  = "minio"
	BlobDriverMemory = "memory"
)

type Config struct {
	ServerPort string
	LogLevel   string
	LogFormat  string

	StoreDriver string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	RedisURL string

	JWTSecret string

	BlobDriver        string
	BlobBucket        string
	BlobURLExpiry     time.Duration
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	MinioEndpoint     string
	MinioAccessKey    string
	MinioSecretKey    string
	MinioUseSSL       bool

	AWSRegion                 string
	CognitoEnabled            bool
	UnconfirmedUserLambdaName string

	PurgePropagationDelay time.Duration
	FeedWorkerCount       int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("No .env file found or error loading it, relying on environment variables")
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "text"),

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreDriverPostgres)),
		DBHost:      os.Getenv("DB_HOST"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      os.Getenv("DB_USER"),
		DBPassword:  os.Getenv("DB_PASSWORD"),
		DBName:      os.Getenv("DB_NAME"),
		DBSSLMode:   getEnv("DB_SSLMODE", "require"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		BlobDriver:        strings.ToLower(getEnv("BLOB_DRIVER", BlobDriverS3)),
		BlobBucket:        os.Getenv("BLOB_BUCKET"),
		BlobURLExpiry:     getDuration("BLOB_URL_EXPIRY", 15*time.Minute),
		S3Region:          getEnv("S3_REGION", "auto"),
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		MinioEndpoint:     os.Getenv("MINIO_ENDPOINT"),
		MinioAccessKey:    os.Getenv("MINIO_ACCESS_KEY"),
		MinioSecretKey:    os.Getenv("MINIO_SECRET_KEY"),
		MinioUseSSL:       getBool("MINIO_USE_SSL", false),

		AWSRegion:                 getEnv("AWS_REGION", "us-east-1"),
		CognitoEnabled:            getBool("COGNITO_ENABLED", true),
		UnconfirmedUserLambdaName: getEnv("UNCONFIRMED_USER_LAMBDA", "delete-unconfirmed-user"),

		PurgePropagationDelay: getDuration("PURGE_PROPAGATION_DELAY", 5*time.Second),
		FeedWorkerCount:       getInt("FEED_WORKER_COUNT", 3),
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go duration strings ("5s", "250ms"). Zero is allowed.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}
