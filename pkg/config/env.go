package config

// EnvPrefix is passed to envconfig; individual fields pin their full names so
// the prefix only matters for variables without explicit tags.
const EnvPrefix = "HOUSESYNC"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv                = "HOUSESYNC_APP_ENV"
	EnvPort                  = "HOUSESYNC_APP_PORT"
	EnvDBDSN                 = "HOUSESYNC_DB_DSN"
	EnvDBHost                = "HOUSESYNC_DB_HOST"
	EnvDBUser                = "HOUSESYNC_DB_USER"
	EnvDBName                = "HOUSESYNC_DB_NAME"
	EnvRedisURL              = "HOUSESYNC_REDIS_URL"
	EnvGCPProjectID          = "HOUSESYNC_GCP_PROJECT_ID"
	EnvPubSubDomainSub       = "HOUSESYNC_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvPubSubTelemetrySub    = "HOUSESYNC_PUBSUB_TELEMETRY_SUBSCRIPTION"
	EnvOutboxMaxAttempts     = "HOUSESYNC_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxInitialBackoff  = "HOUSESYNC_OUTBOX_INITIAL_BACKOFF"
	EnvOutboxKillSwitchLimit = "HOUSESYNC_OUTBOX_KILL_SWITCH_THRESHOLD"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
