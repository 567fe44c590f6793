package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MinPort is the minimum valid port number
	MinPort = 1
	// MaxPort is the maximum valid port number
	MaxPort = 65535
)

// Config represents the complete application configuration
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
	App     AppConfig     `yaml:"app"`
	Worker  WorkerConfig  `yaml:"worker"`
	Storage StorageConfig `yaml:"storage"`
	Media   MediaConfig   `yaml:"media"`
	History HistoryConfig `yaml:"history"`
	Events  EventsConfig  `yaml:"events"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string        `yaml:"host"`
	Port              int           `yaml:"port"`
	ReadTimeout       time.Duration `yaml:"read_timeout"`
	WriteTimeout      time.Duration `yaml:"write_timeout"` // 0 keeps progress streams open
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout"`
	CORSOriginPattern string        `yaml:"cors_origin_pattern"`
	StaticDir         string        `yaml:"static_dir"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`
	Format       string `yaml:"format"`
	Output       string `yaml:"output"`
	EnableCaller bool   `yaml:"enable_caller"`
}

// AppConfig holds application metadata
type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// WorkerConfig holds download worker pool configuration
type WorkerConfig struct {
	Concurrency  int           `yaml:"concurrency"`
	QueueSize    int           `yaml:"queue_size"`
	JobTimeout   time.Duration `yaml:"job_timeout"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// StorageConfig holds downloads directory and retention configuration
type StorageConfig struct {
	DownloadsDir  string        `yaml:"downloads_dir"`
	Retention     time.Duration `yaml:"retention"` // 0 keeps finished jobs until delivered
	SweepInterval time.Duration `yaml:"sweep_interval"`
	PurgeOnStart  bool          `yaml:"purge_on_start"`
	PurgeOnStop   bool          `yaml:"purge_on_stop"`
}

// MediaConfig holds fetch engine configuration
type MediaConfig struct {
	AllowedDomains []string `yaml:"allowed_domains"` // empty uses the built-in list
	FFmpegLocation string   `yaml:"ffmpeg_location"`
	AudioQuality   string   `yaml:"audio_quality"`
	AutoInstall    bool     `yaml:"auto_install"`
}

// HistoryConfig holds the finished-job journal configuration
type HistoryConfig struct {
	Enabled  bool           `yaml:"enabled"`
	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time"`
}

// EventsConfig holds the job event publisher configuration
type EventsConfig struct {
	Enabled  bool           `yaml:"enabled"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
}

// RabbitMQConfig holds RabbitMQ connection and exchange configuration
type RabbitMQConfig struct {
	Host       string           `yaml:"host"`
	Port       int              `yaml:"port"`
	User       string           `yaml:"user"`
	Password   string           `yaml:"password"`
	VHost      string           `yaml:"vhost"`
	Exchange   ExchangeConfig   `yaml:"exchange"`
	Connection ConnectionConfig `yaml:"connection"`
	Publish    PublishConfig    `yaml:"publish"`
}

// ExchangeConfig holds RabbitMQ exchange configuration
type ExchangeConfig struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Durable    bool   `yaml:"durable"`
	AutoDelete bool   `yaml:"auto_delete"`
}

// ConnectionConfig holds RabbitMQ connection settings
type ConnectionConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout"`
}

// PublishConfig holds RabbitMQ publish retry settings
type PublishConfig struct {
	RetryAttempts     int           `yaml:"retry_attempts"`
	RetryInterval     time.Duration `yaml:"retry_interval"`
	BackoffMultiplier float64       `yaml:"backoff_multiplier"`
}

// Default returns the configuration used when a key is missing from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "127.0.0.1",
			Port:              8000,
			ReadTimeout:       15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   15 * time.Second,
			CORSOriginPattern: `^chrome-extension://.*$`,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
		App: AppConfig{
			Name:        "redditlink-api",
			Version:     "1.0.0",
			Environment: "development",
		},
		Worker: WorkerConfig{
			Concurrency:  2,
			QueueSize:    32,
			JobTimeout:   30 * time.Minute,
			PollInterval: 400 * time.Millisecond,
		},
		Storage: StorageConfig{
			DownloadsDir:  "downloads",
			SweepInterval: time.Minute,
			PurgeOnStart:  true,
			PurgeOnStop:   true,
		},
		Media: MediaConfig{
			AudioQuality: "192K",
		},
		History: HistoryConfig{
			Database: DatabaseConfig{
				Host:            "localhost",
				Port:            5432,
				SSLMode:         "disable",
				MaxOpenConns:    10,
				MaxIdleConns:    2,
				ConnMaxLifetime: 30 * time.Minute,
				ConnMaxIdleTime: 5 * time.Minute,
			},
		},
		Events: EventsConfig{
			RabbitMQ: RabbitMQConfig{
				Host:  "localhost",
				Port:  5672,
				VHost: "/",
				Exchange: ExchangeConfig{
					Name:    "media_jobs",
					Type:    "topic",
					Durable: true,
				},
				Connection: ConnectionConfig{
					RetryAttempts:     5,
					RetryInterval:     2 * time.Second,
					Heartbeat:         10 * time.Second,
					ConnectionTimeout: 5 * time.Second,
				},
				Publish: PublishConfig{
					RetryAttempts:     3,
					RetryInterval:     100 * time.Millisecond,
					BackoffMultiplier: 2.0,
				},
			},
		},
	}
}

// Load reads the configuration file and overlays it on the defaults
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides the listen address from HOST and PORT when set
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if host, ok := lookup("HOST"); ok && host != "" {
		c.Server.Host = host
	}
	if raw, ok := lookup("PORT"); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", raw, err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < MinPort || c.Server.Port > MaxPort {
		return fmt.Errorf("invalid server port: %d (must be between %d and %d)", c.Server.Port, MinPort, MaxPort)
	}

	if _, err := regexp.Compile(c.Server.CORSOriginPattern); err != nil {
		return fmt.Errorf("invalid cors_origin_pattern: %w", err)
	}

	if c.Worker.Concurrency <= 0 {
		return errors.New("worker concurrency must be greater than 0")
	}

	if c.Worker.QueueSize <= 0 {
		return errors.New("worker queue_size must be greater than 0")
	}

	if c.Worker.JobTimeout <= 0 {
		return errors.New("worker job_timeout must be greater than 0")
	}

	if c.Worker.PollInterval <= 0 {
		return errors.New("worker poll_interval must be greater than 0")
	}

	if c.Storage.DownloadsDir == "" {
		return errors.New("storage downloads_dir is required")
	}

	if c.Storage.Retention < 0 {
		return errors.New("storage retention must not be negative")
	}

	if c.History.Enabled {
		if err := c.History.Database.validate(); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}

	if c.Events.Enabled {
		if err := c.Events.RabbitMQ.validate(); err != nil {
			return fmt.Errorf("events: %w", err)
		}
	}

	return nil
}

func (d DatabaseConfig) validate() error {
	if d.Host == "" {
		return errors.New("database host is required")
	}

	if d.Port < MinPort || d.Port > MaxPort {
		return fmt.Errorf("invalid database port: %d (must be between %d and %d)", d.Port, MinPort, MaxPort)
	}

	if d.Database == "" {
		return errors.New("database name is required")
	}

	return nil
}

func (r RabbitMQConfig) validate() error {
	if r.Host == "" {
		return errors.New("rabbitmq host is required")
	}

	if r.Port < MinPort || r.Port > MaxPort {
		return fmt.Errorf("invalid rabbitmq port: %d (must be between %d and %d)", r.Port, MinPort, MaxPort)
	}

	if r.Exchange.Name == "" {
		return errors.New("rabbitmq exchange name is required")
	}

	return nil
}
