package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// Driver is either "postgres" or "sqlite"
	Driver          string        `mapstructure:"driver"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"`               // sqlite database file
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // Maximum amount of time a connection may be reused (e.g., "5m", "1h")
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // Maximum amount of time a connection may be idle (e.g., "10m", "30m")
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
}

// RegistrarConfig holds the on-chain asset registry configuration
type RegistrarConfig struct {
	RPCURL              string        `mapstructure:"rpc_url"`
	ContractAddress     string        `mapstructure:"contract_address"`
	PrivateKey          string        `mapstructure:"private_key"`
	ChainID             int64         `mapstructure:"chain_id"`
	GasLimit            uint64        `mapstructure:"gas_limit"`
	ReceiptTimeout      time.Duration `mapstructure:"receipt_timeout"`
	ReceiptPollInterval time.Duration `mapstructure:"receipt_poll_interval"`
}

// Enabled reports whether enough is configured to submit registrations
func (c *RegistrarConfig) Enabled() bool {
	return c.RPCURL != "" && c.ContractAddress != "" && c.PrivateKey != ""
}

// ProviderConfig holds a rights-check provider configuration
type ProviderConfig struct {
	URL     string        `mapstructure:"url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	// RequestsPerSecond of zero leaves the provider unthrottled
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxQueueTime      time.Duration `mapstructure:"max_queue_time"`
}

// ProvidersConfig holds configuration for every rights-check provider
type ProvidersConfig struct {
	AudibleMagic ProviderConfig `mapstructure:"audible_magic"`
	Pex          ProviderConfig `mapstructure:"pex"`
}

// ClearanceConfig holds clearance evaluation configuration
type ClearanceConfig struct {
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`
	ProviderRetries int           `mapstructure:"provider_retries"`
}

// FingerprintConfig holds audio fingerprint extraction parameters
type FingerprintConfig struct {
	SampleRate   int `mapstructure:"sample_rate"`
	FrameSize    int `mapstructure:"frame_size"`
	HopSize      int `mapstructure:"hop_size"`
	MelBands     int `mapstructure:"mel_bands"`
	Coefficients int `mapstructure:"coefficients"`
	Precision    int `mapstructure:"precision"`
}

// RegistrationConfig holds registration outbox retry configuration
type RegistrationConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// MetricsConfig holds prometheus configuration
type MetricsConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	ListenAddress string `mapstructure:"listen_address"`
}

// WorkerConfig holds worker configuration
type WorkerConfig struct {
	WorkerPoolSize  int `mapstructure:"pool_size"`
	WorkerQueueSize int `mapstructure:"queue_size"`
}

// RegistrationSweeperConfig holds configuration for the registration outbox sweeper
type RegistrationSweeperConfig struct {
	BatchSize int           `mapstructure:"batch_size"`
	Interval  time.Duration `mapstructure:"interval"`
	Worker    WorkerConfig  `mapstructure:"worker"`
}

// EngineConfig holds configuration for the issuance CLI
type EngineConfig struct {
	BaseConfig   `mapstructure:",squash"`
	Database     DatabaseConfig     `mapstructure:"database"`
	NATS         NATSConfig         `mapstructure:"nats"`
	Registrar    RegistrarConfig    `mapstructure:"registrar"`
	Providers    ProvidersConfig    `mapstructure:"providers"`
	Clearance    ClearanceConfig    `mapstructure:"clearance"`
	Fingerprint  FingerprintConfig  `mapstructure:"fingerprint"`
	Registration RegistrationConfig `mapstructure:"registration"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
}

// SweeperConfig holds configuration for the registration-sweeper program
type SweeperConfig struct {
	BaseConfig          `mapstructure:",squash"`
	Database            DatabaseConfig            `mapstructure:"database"`
	NATS                NATSConfig                `mapstructure:"nats"`
	Registrar           RegistrarConfig           `mapstructure:"registrar"`
	Registration        RegistrationConfig        `mapstructure:"registration"`
	RegistrationSweeper RegistrationSweeperConfig `mapstructure:"registration_sweeper"`
	Metrics             MetricsConfig             `mapstructure:"metrics"`
}

// LoadEngineConfig loads configuration for the issuance CLI
func LoadEngineConfig(configFile string, envPath string) (*EngineConfig, error) {
	v := configureViper("issuance", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setSharedDefaults(v)
	v.SetDefault("providers.audible_magic.timeout", "10s")
	v.SetDefault("providers.pex.timeout", "10s")
	v.SetDefault("clearance.provider_timeout", "10s")
	v.SetDefault("clearance.provider_retries", 1)
	v.SetDefault("fingerprint.sample_rate", 22050)
	v.SetDefault("fingerprint.frame_size", 2048)
	v.SetDefault("fingerprint.hop_size", 512)
	v.SetDefault("fingerprint.mel_bands", 128)
	v.SetDefault("fingerprint.coefficients", 20)
	v.SetDefault("fingerprint.precision", 4)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg EngineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if cfg.Clearance.ProviderRetries < 0 {
		return nil, errors.New("clearance.provider_retries must not be negative")
	}

	return &cfg, nil
}

// LoadSweeperConfig loads configuration for the registration-sweeper program
func LoadSweeperConfig(configFile string, envPath string) (*SweeperConfig, error) {
	v := configureViper("registration-sweeper", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	setSharedDefaults(v)
	v.SetDefault("database.max_open_conns", 5)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("registration_sweeper.batch_size", 50)
	v.SetDefault("registration_sweeper.interval", "30s")
	v.SetDefault("registration_sweeper.worker.pool_size", 4)
	v.SetDefault("registration_sweeper.worker.queue_size", 100)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg SweeperConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate required fields
	if err := cfg.Database.Validate(); err != nil {
		return nil, err
	}
	if !cfg.Registrar.Enabled() {
		return nil, errors.New("registrar.rpc_url, registrar.contract_address and registrar.private_key are required")
	}

	return &cfg, nil
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "issuance.db")
}

func setSharedDefaults(v *viper.Viper) {
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "ISSUANCE_EVENTS")
	v.SetDefault("registrar.chain_id", 80002) // Polygon Amoy
	v.SetDefault("registrar.gas_limit", 200000)
	v.SetDefault("registrar.receipt_timeout", "2m")
	v.SetDefault("registrar.receipt_poll_interval", "2s")
	v.SetDefault("registration.max_attempts", 5)
	v.SetDefault("registration.base_delay", "30s")
	v.SetDefault("registration.max_delay", "1h")
	v.SetDefault("metrics.listen_address", ":9090")
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/issuance/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("ISSUANCE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.driver",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.path",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		// Registrar
		"registrar.rpc_url",
		"registrar.contract_address",
		"registrar.private_key",
		"registrar.chain_id",
		"registrar.gas_limit",
		"registrar.receipt_timeout",
		"registrar.receipt_poll_interval",
		// Providers
		"providers.audible_magic.url",
		"providers.audible_magic.api_key",
		"providers.audible_magic.timeout",
		"providers.audible_magic.requests_per_second",
		"providers.audible_magic.burst",
		"providers.audible_magic.max_queue_time",
		"providers.pex.url",
		"providers.pex.api_key",
		"providers.pex.timeout",
		"providers.pex.requests_per_second",
		"providers.pex.burst",
		"providers.pex.max_queue_time",
		// Clearance
		"clearance.provider_timeout",
		"clearance.provider_retries",
		// Fingerprint
		"fingerprint.sample_rate",
		"fingerprint.frame_size",
		"fingerprint.hop_size",
		"fingerprint.mel_bands",
		"fingerprint.coefficients",
		"fingerprint.precision",
		// Registration outbox
		"registration.max_attempts",
		"registration.base_delay",
		"registration.max_delay",
		"registration_sweeper.batch_size",
		"registration_sweeper.interval",
		"registration_sweeper.worker.pool_size",
		"registration_sweeper.worker.queue_size",
		// Metrics
		"metrics.enabled",
		"metrics.listen_address",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// Validate checks the fields required by the configured driver
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case "postgres":
		if c.Host == "" {
			return errors.New("database.host is required")
		}
		if c.DBName == "" {
			return errors.New("database.dbname is required")
		}
	case "sqlite":
		if c.Path == "" {
			return errors.New("database.path is required")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Driver)
	}
	return nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	if c.Driver == "sqlite" {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
