// Package config centralises configuration parsing for the exercise tracker.
package config

import (
	"fmt"
	"strings"
	"time"
)

// MemoryScheme selects the in-process record store instead of PostgreSQL.
const MemoryScheme = "memory://"

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	CORS     CORSConfig     `yaml:"cors"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Outbox   OutboxConfig   `yaml:"outbox"`
	Consumer ConsumerConfig `yaml:"consumer"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"HOST"                    env-default:""`
	Port            int           `yaml:"port"             env:"PORT"                    env-default:"3000"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"10s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

// Address returns the listen address.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	URL             string        `yaml:"url"                env:"DATABASE_URL"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"10"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"1"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
	MigrateOnStart  bool          `yaml:"migrate_on_start"   env:"MIGRATE_ON_START"            env-default:"true"`
}

// InMemory reports whether the URL selects the in-process store.
func (d DatabaseConfig) InMemory() bool {
	return strings.HasPrefix(d.URL, MemoryScheme)
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CORSConfig holds CORS settings. The defaults allow any origin.
type CORSConfig struct {
	AllowedOrigins string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
	AllowedMethods string `yaml:"allowed_methods" env:"CORS_ALLOWED_METHODS" env-default:"GET,HEAD,PUT,PATCH,POST,DELETE"`
	AllowedHeaders string `yaml:"allowed_headers" env:"CORS_ALLOWED_HEADERS" env-default:"Content-Type"`
	MaxAge         int    `yaml:"max_age"         env:"CORS_MAX_AGE"         env-default:"86400"`
}

// KafkaConfig lists the brokers used by the outbox relay and the consumer.
// An empty list disables both.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:","`
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool {
	for _, b := range k.Brokers {
		if strings.TrimSpace(b) != "" {
			return true
		}
	}
	return false
}

// OutboxConfig controls event recording and relay.
type OutboxConfig struct {
	Enabled      bool          `yaml:"enabled"       env:"OUTBOX_ENABLED"       env-default:"false"`
	PollInterval time.Duration `yaml:"poll_interval" env:"OUTBOX_POLL_INTERVAL" env-default:"2s"`
	BatchSize    int           `yaml:"batch_size"    env:"OUTBOX_BATCH_SIZE"    env-default:"25"`
	ClaimTimeout time.Duration `yaml:"claim_timeout" env:"OUTBOX_CLAIM_TIMEOUT" env-default:"1m"`
}

// ConsumerConfig holds settings for the audit consumer process.
type ConsumerConfig struct {
	GroupID        string   `yaml:"group_id"        env:"CONSUMER_GROUP_ID"  env-default:"exercise-audit"`
	Topics         []string `yaml:"topics"          env:"CONSUMER_TOPICS"    env-separator:"," env-default:"exercise_users,exercise_logs"`
	MetricsAddress string   `yaml:"metrics_address" env:"METRICS_ADDRESS"    env-default:":9102"`

	RetryBaseDelay time.Duration `yaml:"retry_base_delay" env:"CONSUMER_RETRY_BASE_DELAY" env-default:"500ms"`
	RetryMaxDelay  time.Duration `yaml:"retry_max_delay"  env:"CONSUMER_RETRY_MAX_DELAY"  env-default:"30s"`
}
