// Package config provides configuration structures and loading for featsync.
package config

// Config represents the complete application configuration.
type Config struct {
	Source       StoreConfig          `yaml:"source" mapstructure:"source"`
	Target       StoreConfig          `yaml:"target" mapstructure:"target"`
	Jobs         map[string]JobConfig `yaml:"jobs" mapstructure:"jobs"`
	Processing   ProcessingConfig     `yaml:"processing" mapstructure:"processing"`
	Verification VerificationConfig   `yaml:"verification" mapstructure:"verification"`
	Logging      LoggingConfig        `yaml:"logging" mapstructure:"logging"`
}

// Store types supported by the store clients.
const (
	StoreTypeMySQL = "mysql"
	StoreTypeREST  = "rest"
)

// StoreConfig selects and configures one feature store endpoint.
type StoreConfig struct {
	Type  string      `yaml:"type" mapstructure:"type"` // mysql or rest
	MySQL MySQLConfig `yaml:"mysql" mapstructure:"mysql"`
	REST  RESTConfig  `yaml:"rest" mapstructure:"rest"`
}

// MySQLConfig represents a MySQL table-backed feature store.
type MySQLConfig struct {
	Host               string `yaml:"host" mapstructure:"host"`
	Port               int    `yaml:"port" mapstructure:"port"`
	User               string `yaml:"user" mapstructure:"user"`
	Password           string `yaml:"password" mapstructure:"password"`
	Database           string `yaml:"database" mapstructure:"database"`
	Table              string `yaml:"table" mapstructure:"table"`
	IDColumn           string `yaml:"id_column" mapstructure:"id_column"`
	TLS                string `yaml:"tls" mapstructure:"tls"` // disable, preferred, required
	MaxConnections     int    `yaml:"max_connections" mapstructure:"max_connections"`
	MaxIdleConnections int    `yaml:"max_idle_connections" mapstructure:"max_idle_connections"`
}

// RESTConfig represents a feature-service HTTP endpoint.
type RESTConfig struct {
	URL            string `yaml:"url" mapstructure:"url"`
	Token          string `yaml:"token" mapstructure:"token"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxRetries     int    `yaml:"max_retries" mapstructure:"max_retries"`
}

// JobConfig represents one sync job: which business key correlates records
// across the two stores, plus any custom attribute-name overrides.
type JobConfig struct {
	SourceUIDField string            `yaml:"source_uid_field" mapstructure:"source_uid_field"`
	TargetUIDField string            `yaml:"target_uid_field" mapstructure:"target_uid_field"`
	AttributeMap   map[string]string `yaml:"attribute_map" mapstructure:"attribute_map"`
	Lock           bool              `yaml:"lock" mapstructure:"lock"`
}

// ProcessingConfig represents batch sizes used inside the store clients.
type ProcessingConfig struct {
	PageSize        int `yaml:"page_size" mapstructure:"page_size"`
	InsertBatchSize int `yaml:"insert_batch_size" mapstructure:"insert_batch_size"`
	DeleteBatchSize int `yaml:"delete_batch_size" mapstructure:"delete_batch_size"`
}

// VerificationConfig controls the optional post-insert verification step.
type VerificationConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// LoggingConfig represents logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
	Output string `yaml:"output" mapstructure:"output"` // stdout, stderr, or file path
}

// DefaultConfig returns a Config with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Source: StoreConfig{
			Type: StoreTypeMySQL,
			MySQL: MySQLConfig{
				Port:               3306,
				IDColumn:           "id",
				TLS:                "preferred",
				MaxConnections:     10,
				MaxIdleConnections: 5,
			},
			REST: RESTConfig{
				TimeoutSeconds: 30,
				MaxRetries:     3,
			},
		},
		Target: StoreConfig{
			Type: StoreTypeMySQL,
			MySQL: MySQLConfig{
				Port:               3306,
				IDColumn:           "id",
				TLS:                "preferred",
				MaxConnections:     10,
				MaxIdleConnections: 5,
			},
			REST: RESTConfig{
				TimeoutSeconds: 30,
				MaxRetries:     3,
			},
		},
		Processing: ProcessingConfig{
			PageSize:        1000,
			InsertBatchSize: 500,
			DeleteBatchSize: 500,
		},
		Verification: VerificationConfig{
			Enabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// ApplyOverrides applies CLI flag overrides to the global configuration.
// Only non-zero/non-empty values are applied.
func (c *Config) ApplyOverrides(logLevel, logFormat string, pageSize, insertBatchSize, deleteBatchSize int, verify bool) {
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	if logFormat != "" {
		c.Logging.Format = logFormat
	}
	if pageSize > 0 {
		c.Processing.PageSize = pageSize
	}
	if insertBatchSize > 0 {
		c.Processing.InsertBatchSize = insertBatchSize
	}
	if deleteBatchSize > 0 {
		c.Processing.DeleteBatchSize = deleteBatchSize
	}
	if verify {
		c.Verification.Enabled = true
	}
}
