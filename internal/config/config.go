package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the resolved loopcapture configuration document.
type Config struct {
	Host                string `mapstructure:"host" json:"host" yaml:"host"`
	Port                int    `mapstructure:"port" json:"port" yaml:"port"`
	Debug               bool   `mapstructure:"debug" json:"debug" yaml:"debug"`
	DefaultDuration     int    `mapstructure:"default_duration" json:"default_duration" yaml:"default_duration"`
	SampleRate          int    `mapstructure:"sample_rate" json:"sample_rate" yaml:"sample_rate"`
	OutputPrefix        string `mapstructure:"output_prefix" json:"output_prefix" yaml:"output_prefix"`
	PlaybackDirectory   string `mapstructure:"playback_directory" json:"playback_directory" yaml:"playback_directory"`
	RecordingsDirectory string `mapstructure:"recordings_directory" json:"recordings_directory" yaml:"recordings_directory"`
	DeviceKeyword       string `mapstructure:"device_keyword" json:"device_keyword" yaml:"device_keyword"`
	InputDevice         string `mapstructure:"input_device" json:"input_device,omitempty" yaml:"input_device,omitempty"`
	OutputDevice        string `mapstructure:"output_device" json:"output_device,omitempty" yaml:"output_device,omitempty"`

	Log     LogConfig     `mapstructure:"log" json:"log" yaml:"log"`
	Storage StorageConfig `mapstructure:"storage_server" json:"storage_server" yaml:"storage_server"`
}

// LogConfig controls the log sinks and their rotation parameters.
type LogConfig struct {
	Directory   string `mapstructure:"directory" json:"directory" yaml:"directory"`
	Level       string `mapstructure:"level" json:"level" yaml:"level"`
	MaxSizeMB   int    `mapstructure:"max_size_mb" json:"max_size_mb" yaml:"max_size_mb"`
	BackupCount int    `mapstructure:"backup_count" json:"backup_count" yaml:"backup_count"`
}

// StorageConfig describes the remote store recordings may be shipped to.
type StorageConfig struct {
	Enabled      bool   `mapstructure:"enabled" json:"enabled" yaml:"enabled"`
	Host         string `mapstructure:"host" json:"host" yaml:"host"`
	Port         int    `mapstructure:"port" json:"port" yaml:"port"`
	Protocol     string `mapstructure:"protocol" json:"protocol" yaml:"protocol"` // scp, sftp, rsync, http
	Username     string `mapstructure:"username" json:"username" yaml:"username"`
	RemotePath   string `mapstructure:"remote_path" json:"remote_path" yaml:"remote_path"`
	AutoTransfer bool   `mapstructure:"auto_transfer" json:"auto_transfer" yaml:"auto_transfer"`
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	return os.ExpandEnv("$HOME/.config/loopcapture.yaml")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("port", 5000)
	v.SetDefault("debug", false)
	v.SetDefault("default_duration", 3600)
	v.SetDefault("sample_rate", 44100)
	v.SetDefault("output_prefix", "recording")
	v.SetDefault("playback_directory", "playback_files")
	v.SetDefault("recordings_directory", "recordings")
	v.SetDefault("device_keyword", "rubix")
	v.SetDefault("log.directory", "logs")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.backup_count", 10)
	v.SetDefault("storage_server.enabled", false)
	v.SetDefault("storage_server.port", 22)
	v.SetDefault("storage_server.protocol", "scp")
}

// Load reads the configuration file, falling back to defaults for every
// unset key. A missing file is not an error: the defaults form a complete
// working configuration.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LOOPCAPTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			// A missing file falls back to defaults; anything else is fatal.
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("error reading config file %s: %w", configFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	cfg.PlaybackDirectory = expandPath(cfg.PlaybackDirectory)
	cfg.RecordingsDirectory = expandPath(cfg.RecordingsDirectory)
	cfg.Log.Directory = expandPath(cfg.Log.Directory)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Save writes the full configuration document back to configFile.
func Save(configFile string, cfg *Config) error {
	if configFile == "" {
		return fmt.Errorf("no config file specified")
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(configFile)

	v.Set("host", cfg.Host)
	v.Set("port", cfg.Port)
	v.Set("debug", cfg.Debug)
	v.Set("default_duration", cfg.DefaultDuration)
	v.Set("sample_rate", cfg.SampleRate)
	v.Set("output_prefix", cfg.OutputPrefix)
	v.Set("playback_directory", cfg.PlaybackDirectory)
	v.Set("recordings_directory", cfg.RecordingsDirectory)
	v.Set("device_keyword", cfg.DeviceKeyword)
	v.Set("input_device", cfg.InputDevice)
	v.Set("output_device", cfg.OutputDevice)
	v.Set("log.directory", cfg.Log.Directory)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.Set("log.backup_count", cfg.Log.BackupCount)
	v.Set("storage_server.enabled", cfg.Storage.Enabled)
	v.Set("storage_server.host", cfg.Storage.Host)
	v.Set("storage_server.port", cfg.Storage.Port)
	v.Set("storage_server.protocol", cfg.Storage.Protocol)
	v.Set("storage_server.username", cfg.Storage.Username)
	v.Set("storage_server.remote_path", cfg.Storage.RemotePath)
	v.Set("storage_server.auto_transfer", cfg.Storage.AutoTransfer)

	if err := v.WriteConfig(); err != nil {
		return fmt.Errorf("error writing config file %s: %w", configFile, err)
	}

	return nil
}

// Validate checks the invariants every loaded configuration must satisfy.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.DefaultDuration <= 0 {
		return fmt.Errorf("default_duration must be > 0, got %d", c.DefaultDuration)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("sample_rate must be > 0, got %d", c.SampleRate)
	}
	if c.OutputPrefix == "" {
		return fmt.Errorf("output_prefix must not be empty")
	}
	if c.RecordingsDirectory == "" {
		return fmt.Errorf("recordings_directory must not be empty")
	}
	if c.Storage.Protocol != "" {
		switch c.Storage.Protocol {
		case "scp", "sftp", "rsync", "http":
		default:
			return fmt.Errorf("storage_server.protocol must be one of scp, sftp, rsync, http, got: %s", c.Storage.Protocol)
		}
	}
	return nil
}

// EnsureDirectories creates the working directories the service writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.PlaybackDirectory, c.RecordingsDirectory, c.Log.Directory} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[2:])
	}
	return path
}
