// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds everything the service reads from the environment.
//
// Values come from KONKURSANT_* environment variables, optionally
// seeded from a .env file (loaded in LoadConfig). Defaults are tuned
// for local development; production deployments must override at least
// SessionKey and JWTSecret.
type AppConfig struct {
	// HTTP listener address.
	Addr string `env:"KONKURSANT_ADDR" envDefault:":8000"`

	// Env switches dev conveniences: "dev" enables the token endpoints
	// and human-readable logs, "prod" enables Secure cookies.
	Env string `env:"KONKURSANT_ENV" envDefault:"dev"`

	// MongoDB connection configuration.
	MongoURI         string `env:"KONKURSANT_MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase    string `env:"KONKURSANT_MONGO_DATABASE" envDefault:"konkursant"`
	MongoMaxPoolSize uint64 `env:"KONKURSANT_MONGO_MAX_POOL_SIZE" envDefault:"100"`
	MongoMinPoolSize uint64 `env:"KONKURSANT_MONGO_MIN_POOL_SIZE" envDefault:"10"`

	// Session and token secrets. SessionKey encrypts the userData
	// snapshot cookie; JWTSecret signs the auth_token bearer token.
	SessionKey    string `env:"KONKURSANT_SESSION_KEY" envDefault:"dev-only-change-me-0123456789ABCDEF"`
	JWTSecret     string `env:"KONKURSANT_JWT_SECRET" envDefault:"dev-only-change-me-0123456789ABCDEF"`
	SessionDomain string `env:"KONKURSANT_SESSION_DOMAIN"`

	// Base URL for OAuth callbacks, e.g. "https://grants.example.com".
	BaseURL string `env:"KONKURSANT_BASE_URL" envDefault:"http://localhost:8000"`

	// Yandex OAuth credentials. Both blank disables the flow.
	YandexClientID     string `env:"KONKURSANT_YANDEX_CLIENT_ID"`
	YandexClientSecret string `env:"KONKURSANT_YANDEX_CLIENT_SECRET"`

	// Audit event routing: "all" (db+log), "db", "log", or "off".
	AuditLogAuth  string `env:"KONKURSANT_AUDIT_LOG_AUTH" envDefault:"all"`
	AuditLogAdmin string `env:"KONKURSANT_AUDIT_LOG_ADMIN" envDefault:"all"`

	// Activity-session cleanup worker.
	SessionCleanupInterval   time.Duration `env:"KONKURSANT_SESSION_CLEANUP_INTERVAL" envDefault:"10m"`
	SessionInactiveThreshold time.Duration `env:"KONKURSANT_SESSION_INACTIVE_THRESHOLD" envDefault:"1h"`
}

// DevMode reports whether dev-only endpoints should be enabled.
func (c AppConfig) DevMode() bool { return c.Env != "prod" }
