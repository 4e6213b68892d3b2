package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const envPrefix = "SARSCOPE"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration from the YAML file at path, overlays environment
// variables (prefixed SARSCOPE_, with dots mapped to underscores, e.g.
// SARSCOPE_SERVER_PORT), applies defaults and validates the result.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	return finalize(v)
}

// LoadFromEnv builds configuration from environment variables and defaults
// alone.  Used by containers that mount no config file.
func LoadFromEnv() (*Config, error) {
	return finalize(newViper())
}

// Watch re-reads the config file whenever it changes on disk and invokes
// onChange with the freshly validated configuration.  Invalid updates are
// reported through onError and the previous configuration stays in effect.
func Watch(path string, onChange func(*Config), onError func(error)) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	cfg, err := finalize(v)
	if err != nil {
		return nil, err
	}

	v.OnConfigChange(func(_ fsnotify.Event) {
		next, err := finalize(v)
		if err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		if onChange != nil {
			onChange(next)
		}
	})
	v.WatchConfig()

	return cfg, nil
}

// bindEnvKeys registers every known config key so AutomaticEnv picks up
// variables even when no config file mentions the key.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
		"server.max_upload_bytes", "server.shutdown_timeout",
		"database.host", "database.port", "database.user", "database.password",
		"database.db_name", "database.ssl_mode", "database.max_conns", "database.min_conns",
		"database.conn_max_lifetime", "database.conn_max_idle_time", "database.migration_path",
		"redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.min_idle_conns",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout",
		"redis.default_ttl", "redis.key_prefix",
		"kafka.brokers", "kafka.group_id", "kafka.auto_offset_reset",
		"kafka.producer_retries", "kafka.batch_timeout",
		"minio.endpoint", "minio.access_key", "minio.secret_key", "minio.bucket",
		"minio.use_ssl", "minio.presign_expiry",
		"chembl.base_url", "chembl.timeout", "chembl.page_size", "chembl.max_retries",
		"chembl.retry_backoff", "chembl.user_agent", "chembl.max_activity_rows",
		"analysis.lipinski_max_violations", "analysis.neighbor_default_k", "analysis.cache_ttl",
		"watch.enabled", "watch.dir", "watch.settle_delay",
		"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

func finalize(v *viper.Viper) (*Config, error) {
	bindEnvKeys(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
