package config

import (
	"os"
	"time"
)

// Server captures process-level configuration. Values come from the
// environment so main stays lean.
type Server struct {
	Addr            string
	PostgresDSN     string
	RedisURL        string
	JWTSigningKey   string
	PushChannel     string
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables.
func FromEnv() Server {
	addr := os.Getenv("DISCRESCUE_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	pushChannel := os.Getenv("DISCRESCUE_PUSH_CHANNEL")
	if pushChannel == "" {
		pushChannel = "discrescue:push"
	}

	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		// Development default - must be overridden in production.
		jwtSigningKey = "dev-secret-key-change-in-production"
	}

	return Server{
		Addr:            addr,
		PostgresDSN:     os.Getenv("DISCRESCUE_POSTGRES_DSN"),
		RedisURL:        os.Getenv("DISCRESCUE_REDIS_URL"),
		JWTSigningKey:   jwtSigningKey,
		PushChannel:     pushChannel,
		ShutdownTimeout: 10 * time.Second,
	}
}
