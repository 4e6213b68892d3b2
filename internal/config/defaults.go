package config

import "time"

// Default values applied to any configuration field left unset by file and
// environment sources.
const (
	DefaultServerPort            = 8080
	DefaultServerMode            = "release"
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerMaxUploadBytes  = 64 << 20 // 64 MiB
	DefaultServerShutdownTimeout = 15 * time.Second

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBUser            = "sarscope"
	DefaultDBName            = "sarscope"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxConns        = 10
	DefaultDBMinConns        = 2
	DefaultDBConnMaxLifetime = time.Hour
	DefaultDBConnMaxIdleTime = 30 * time.Minute
	DefaultDBMigrationPath   = "migrations"

	DefaultRedisAddr         = "localhost:6379"
	DefaultRedisPoolSize     = 10
	DefaultRedisMinIdleConns = 2
	DefaultRedisDialTimeout  = 5 * time.Second
	DefaultRedisReadTimeout  = 3 * time.Second
	DefaultRedisWriteTimeout = 3 * time.Second
	DefaultRedisTTL          = 10 * time.Minute
	DefaultRedisKeyPrefix    = "sarscope:"

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaGroupID         = "sarscope-worker"
	DefaultKafkaAutoOffsetReset = "earliest"
	DefaultKafkaProducerRetries = 3
	DefaultKafkaBatchTimeout    = 100 * time.Millisecond

	DefaultMinIOEndpoint      = "localhost:9000"
	DefaultMinIOBucket        = "sarscope"
	DefaultMinIOPresignExpiry = time.Hour

	DefaultChEMBLBaseURL         = "https://www.ebi.ac.uk/chembl/api/data"
	DefaultChEMBLTimeout         = 30 * time.Second
	DefaultChEMBLPageSize        = 200
	DefaultChEMBLMaxRetries      = 3
	DefaultChEMBLRetryBackoff    = 2 * time.Second
	DefaultChEMBLUserAgent       = "sarscope/1.0"
	DefaultChEMBLMaxActivityRows = 10000

	DefaultLipinskiMaxViolations = 0
	DefaultNeighborK             = 10
	DefaultAnalysisCacheTTL      = 10 * time.Minute

	DefaultWatchSettleDelay = 2 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-valued field of c with the platform default.
// Explicitly configured values are never overwritten, so this is safe to call
// after loading from file and environment.
func (c *Config) ApplyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = DefaultServerMode
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = DefaultServerMaxUploadBytes
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}

	if c.Database.Host == "" {
		c.Database.Host = DefaultDBHost
	}
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.User == "" {
		c.Database.User = DefaultDBUser
	}
	if c.Database.DBName == "" {
		c.Database.DBName = DefaultDBName
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultDBMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultDBMinConns
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = DefaultDBConnMaxLifetime
	}
	if c.Database.ConnMaxIdleTime == 0 {
		c.Database.ConnMaxIdleTime = DefaultDBConnMaxIdleTime
	}
	if c.Database.MigrationPath == "" {
		c.Database.MigrationPath = DefaultDBMigrationPath
	}

	if c.Redis.Addr == "" {
		c.Redis.Addr = DefaultRedisAddr
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = DefaultRedisPoolSize
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = DefaultRedisMinIdleConns
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = DefaultRedisDialTimeout
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = DefaultRedisReadTimeout
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = DefaultRedisWriteTimeout
	}
	if c.Redis.DefaultTTL == 0 {
		c.Redis.DefaultTTL = DefaultRedisTTL
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = DefaultKafkaGroupID
	}
	if c.Kafka.AutoOffsetReset == "" {
		c.Kafka.AutoOffsetReset = DefaultKafkaAutoOffsetReset
	}
	if c.Kafka.ProducerRetries == 0 {
		c.Kafka.ProducerRetries = DefaultKafkaProducerRetries
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}

	if c.MinIO.Endpoint == "" {
		c.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if c.MinIO.Bucket == "" {
		c.MinIO.Bucket = DefaultMinIOBucket
	}
	if c.MinIO.PresignExpiry == 0 {
		c.MinIO.PresignExpiry = DefaultMinIOPresignExpiry
	}

	if c.ChEMBL.BaseURL == "" {
		c.ChEMBL.BaseURL = DefaultChEMBLBaseURL
	}
	if c.ChEMBL.Timeout == 0 {
		c.ChEMBL.Timeout = DefaultChEMBLTimeout
	}
	if c.ChEMBL.PageSize == 0 {
		c.ChEMBL.PageSize = DefaultChEMBLPageSize
	}
	if c.ChEMBL.MaxRetries == 0 {
		c.ChEMBL.MaxRetries = DefaultChEMBLMaxRetries
	}
	if c.ChEMBL.RetryBackoff == 0 {
		c.ChEMBL.RetryBackoff = DefaultChEMBLRetryBackoff
	}
	if c.ChEMBL.UserAgent == "" {
		c.ChEMBL.UserAgent = DefaultChEMBLUserAgent
	}
	if c.ChEMBL.MaxActivityRows == 0 {
		c.ChEMBL.MaxActivityRows = DefaultChEMBLMaxActivityRows
	}

	// LipinskiMaxViolations defaults to 0, which is already the zero value.
	if c.Analysis.NeighborDefaultK == 0 {
		c.Analysis.NeighborDefaultK = DefaultNeighborK
	}
	if c.Analysis.CacheTTL == 0 {
		c.Analysis.CacheTTL = DefaultAnalysisCacheTTL
	}

	if c.Watch.SettleDelay == 0 {
		c.Watch.SettleDelay = DefaultWatchSettleDelay
	}

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if len(c.Log.OutputPaths) == 0 {
		c.Log.OutputPaths = []string{"stdout"}
	}
	if len(c.Log.ErrorOutputPaths) == 0 {
		c.Log.ErrorOutputPaths = []string{"stderr"}
	}
}
