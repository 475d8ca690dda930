package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string   `envconfig:"HOUSESYNC_APP_ENV" required:"true"`
	Port         string   `envconfig:"HOUSESYNC_APP_PORT" required:"true"`
	LogLevel     string   `envconfig:"HOUSESYNC_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"HOUSESYNC_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"HOUSESYNC_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOUSESYNC_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"HOUSESYNC_DB_DSN"`
	Driver string `envconfig:"HOUSESYNC_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"HOUSESYNC_DB_HOST"`
	LegacyPort     int    `envconfig:"HOUSESYNC_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"HOUSESYNC_DB_USER"`
	LegacyPassword string `envconfig:"HOUSESYNC_DB_PASSWORD"`
	LegacyName     string `envconfig:"HOUSESYNC_DB_NAME"`
	LegacySSLMode  string `envconfig:"HOUSESYNC_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"HOUSESYNC_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"HOUSESYNC_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"HOUSESYNC_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOUSESYNC_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOUSESYNC_REDIS_URL" required:"true"`
	Address      string        `envconfig:"HOUSESYNC_REDIS_ADDR"`
	Password     string        `envconfig:"HOUSESYNC_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOUSESYNC_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOUSESYNC_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOUSESYNC_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"HOUSESYNC_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOUSESYNC_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOUSESYNC_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"HOUSESYNC_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"HOUSESYNC_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"HOUSESYNC_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HOUSESYNC_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"HOUSESYNC_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HOUSESYNC_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic           string `envconfig:"HOUSESYNC_PUBSUB_DOMAIN_TOPIC" default:"housesync-domain-events"`
	DomainSubscription    string `envconfig:"HOUSESYNC_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
	TelemetryTopic        string `envconfig:"HOUSESYNC_PUBSUB_TELEMETRY_TOPIC" default:"housesync-telemetry"`
	TelemetrySubscription string `envconfig:"HOUSESYNC_PUBSUB_TELEMETRY_SUBSCRIPTION" required:"true"`
}

// OutboxConfig carries the relay retry policy and kill-switch thresholds.
// These are configuration, not relay internals: operators tune them per
// environment without code changes.
type OutboxConfig struct {
	BatchSize           int           `envconfig:"HOUSESYNC_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS      int           `envconfig:"HOUSESYNC_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts         int           `envconfig:"HOUSESYNC_OUTBOX_MAX_ATTEMPTS" default:"5"`
	InitialBackoff      time.Duration `envconfig:"HOUSESYNC_OUTBOX_INITIAL_BACKOFF" default:"1s"`
	MaxBackoff          time.Duration `envconfig:"HOUSESYNC_OUTBOX_MAX_BACKOFF" default:"30s"`
	KillSwitchThreshold int           `envconfig:"HOUSESYNC_OUTBOX_KILL_SWITCH_THRESHOLD" default:"10"`
	KillSwitchWindow    time.Duration `envconfig:"HOUSESYNC_OUTBOX_KILL_SWITCH_WINDOW" default:"30s"`
	KillSwitchCooldown  time.Duration `envconfig:"HOUSESYNC_OUTBOX_KILL_SWITCH_COOLDOWN" default:"60s"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
