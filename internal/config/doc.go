// Package config manages application configuration for campusfeed.
//
// Configuration is loaded from environment variables and validated once at
// startup:
//
//	cfg, _ := config.Load()
//	if err := cfg.Validate(); err != nil {
//	    // every problem is reported at once via errors.Join
//	}
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS origins)
//   - DatabaseConfig: store driver (postgres or surrealdb) and connection settings
//   - SessionConfig: cookie signing secret, TTL, optional Redis store
//   - StorageConfig: blob store driver (s3 or disk) and upload limits
//   - AccountConfig: institutional email domain and bcrypt cost
//   - ChatConfig: chat history size and per-subscriber buffer
//   - RateLimitConfig: limits on register and login
//
// # Environment Variables
//
//	SERVER_PORT           - HTTP server port (default: 3000)
//	DB_DRIVER             - postgres | surrealdb (default: postgres)
//	DATABASE_URL          - Postgres DSN
//	SESSION_SECRET        - HS256 key for session cookies (required in production)
//	SESSION_TTL           - session lifetime (default: 24h)
//	REDIS_ADDR            - enables the Redis session store when set
//	STORAGE_DRIVER        - s3 | disk (default: disk)
//	S3_ENDPOINT           - custom S3 endpoint (MinIO, Supabase storage)
//	ACCOUNT_EMAIL_DOMAIN  - required email suffix (default: @alumno.etec.um.edu.ar)
package config
