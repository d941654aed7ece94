// Package config loads droidkit settings from a YAML file and DROIDKIT_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	ADB       ADBConfig       `mapstructure:"adb"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Pairing   PairingConfig   `mapstructure:"pairing"`
	Workers   WorkersConfig   `mapstructure:"workers"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Files     FilesConfig     `mapstructure:"files"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// Addr returns the listen address as host:port.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ADBConfig struct {
	Path              string        `mapstructure:"path"`
	CommandTimeout    time.Duration `mapstructure:"command_timeout"`
	ConnectTimeout    time.Duration `mapstructure:"connect_timeout"`
	ReconnectAttempts int           `mapstructure:"reconnect_attempts"`
	ReconnectDelay    time.Duration `mapstructure:"reconnect_delay"`
}

type DiscoveryConfig struct {
	Window       time.Duration `mapstructure:"window"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
	// RateLimit is the number of discovery requests per second the HTTP
	// surface admits.
	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

type PairingConfig struct {
	DefaultPort     int   `mapstructure:"default_port"`
	CandidatePorts  []int `mapstructure:"candidate_ports"`
	ProvisionalPort int   `mapstructure:"provisional_port"`
}

type WorkersConfig struct {
	Count     int `mapstructure:"count"`
	QueueSize int `mapstructure:"queue_size"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// FilesConfig bounds where the HTTP API may write pulled files.
type FilesConfig struct {
	DownloadDir string `mapstructure:"download_dir"`
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("adb.path", "adb")
	v.SetDefault("adb.command_timeout", "30s")
	v.SetDefault("adb.connect_timeout", "5s")
	v.SetDefault("adb.reconnect_attempts", 1)
	v.SetDefault("adb.reconnect_delay", "500ms")

	v.SetDefault("discovery.window", "5s")
	v.SetDefault("discovery.poll_interval", "100ms")
	v.SetDefault("discovery.rate_limit", 0.2)
	v.SetDefault("discovery.rate_burst", 1)

	v.SetDefault("pairing.default_port", 5555)
	v.SetDefault("pairing.candidate_ports", []int{5555, 5556, 5557, 5558, 5559})
	v.SetDefault("pairing.provisional_port", 37000)

	v.SetDefault("workers.count", 4)
	v.SetDefault("workers.queue_size", 100)

	v.SetDefault("database.path", "./data/droidkit.db")

	v.SetDefault("files.download_dir", "./data/downloads")
}

// LoadViper reads configuration from file and environment variables. An
// explicit configPath must exist; otherwise a missing droidkit.yaml is fine.
func LoadViper(configPath string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("droidkit")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.droidkit")
	}

	// DROIDKIT_ADB_PATH=/opt/platform-tools/adb
	v.SetEnvPrefix("DROIDKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

// Load reads and decodes the configuration.
func Load(configPath string) (*Config, *viper.Viper, error) {
	v, err := LoadViper(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := Decode(v)
	if err != nil {
		return nil, nil, err
	}
	return cfg, v, nil
}

// Decode unmarshals v into a Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Server.Port < 0 || c.Server.Port > 65535:
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	case c.ADB.Path == "":
		return errors.New("adb.path must not be empty")
	case c.Files.DownloadDir == "":
		return errors.New("files.download_dir must not be empty")
	case c.Workers.Count < 1:
		return fmt.Errorf("workers.count must be at least 1, got %d", c.Workers.Count)
	case c.Workers.QueueSize < 1:
		return fmt.Errorf("workers.queue_size must be at least 1, got %d", c.Workers.QueueSize)
	case c.Discovery.Window <= 0:
		return fmt.Errorf("discovery.window must be positive, got %s", c.Discovery.Window)
	case c.Discovery.PollInterval <= 0:
		return fmt.Errorf("discovery.poll_interval must be positive, got %s", c.Discovery.PollInterval)
	}
	for _, p := range c.Pairing.CandidatePorts {
		if p < 1 || p > 65535 {
			return fmt.Errorf("pairing.candidate_ports: port %d out of range", p)
		}
	}
	return nil
}
