package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is returned for settings that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Environment variables read by Load and Path.
const (
	EnvConfig         = "GAUGE_CONFIG"
	EnvLogLevel       = "GAUGE_LOG_LEVEL"
	EnvMQTTBroker     = "GAUGE_MQTT_BROKER"
	EnvMinioAccessKey = "GAUGE_MINIO_ACCESS_KEY"
	EnvMinioSecretKey = "GAUGE_MINIO_SECRET_KEY"
)

// Config is the whole configuration file.
type Config struct {
	LogLevel string        `yaml:"log_level"`
	Profile  ProfileConfig `yaml:"profile"`
	Watch    WatchConfig   `yaml:"watch"`
	Archive  ArchiveConfig `yaml:"archive"`
	Publish  PublishConfig `yaml:"publish"`
	Review   ReviewConfig  `yaml:"review"`

	// dir is the directory of the loaded file; relative paths resolve
	// against it.
	dir string
}

// WatchConfig drives the capture directory watcher.
type WatchConfig struct {
	Dir            string        `yaml:"dir"`
	Extension      string        `yaml:"extension"`
	LatestName     string        `yaml:"latest_name"`
	ValueFile      string        `yaml:"value_file"`
	Debounce       time.Duration `yaml:"debounce"`
	SettleInterval time.Duration `yaml:"settle_interval"`
	SettleChecks   int           `yaml:"settle_checks"`
	MoveRetries    int           `yaml:"move_retries"`
	MoveRetryDelay time.Duration `yaml:"move_retry_delay"`
}

// ArchiveConfig selects where readings are archived.
type ArchiveConfig struct {
	Dir         string      `yaml:"dir"`
	Prefix      string      `yaml:"prefix"`
	JPEGQuality int         `yaml:"jpeg_quality"`
	Minio       MinioConfig `yaml:"minio"`
}

// MinioConfig is the object-store sink. It is disabled while Endpoint is
// empty.
type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	KeyPrefix string `yaml:"key_prefix"`
}

// Enabled reports whether a MinIO sink is configured.
func (m MinioConfig) Enabled() bool { return m.Endpoint != "" }

// PublishConfig drives alerting. Publishing is disabled while Broker is
// empty.
type PublishConfig struct {
	Broker       string        `yaml:"broker"`
	Topic        string        `yaml:"topic"`
	ClientID     string        `yaml:"client_id"`
	QoS          byte          `yaml:"qos"`
	Timeout      time.Duration `yaml:"timeout"`
	Threshold    float64       `yaml:"threshold"`
	PlausibleMin *float64      `yaml:"plausible_min"`
	PlausibleMax *float64      `yaml:"plausible_max"`
}

// Enabled reports whether an MQTT broker is configured.
func (p PublishConfig) Enabled() bool { return p.Broker != "" }

// Review modes.
const (
	ReviewTerminal = "terminal"
	ReviewQueue    = "queue"
	ReviewNone     = "none"
)

// ReviewConfig selects the human review front-end.
type ReviewConfig struct {
	Mode string `yaml:"mode"`
}

// DefaultConfig returns the settings of the camera station deployment.
func DefaultConfig() Config {
	minPlausible, maxPlausible := 15.0, 66.0
	return Config{
		LogLevel: "info",
		Profile:  DefaultProfileConfig(),
		Watch: WatchConfig{
			Dir:            ".",
			Extension:      ".jpg",
			LatestName:     "latest.jpg",
			ValueFile:      "value.txt",
			Debounce:       2 * time.Second,
			SettleInterval: 250 * time.Millisecond,
			SettleChecks:   40,
			MoveRetries:    6,
			MoveRetryDelay: 500 * time.Millisecond,
		},
		Archive: ArchiveConfig{
			Dir:         "archive",
			Prefix:      "latest",
			JPEGQuality: 90,
		},
		Publish: PublishConfig{
			Topic:        "gauge/reading",
			ClientID:     "gauge-reader",
			QoS:          1,
			Timeout:      10 * time.Second,
			Threshold:    25,
			PlausibleMin: &minPlausible,
			PlausibleMax: &maxPlausible,
		},
		Review: ReviewConfig{Mode: ReviewTerminal},
	}
}

// Path returns flagValue when set, otherwise $GAUGE_CONFIG. An empty result
// means no file: use DefaultConfig.
func Path(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfig)
}

// Load reads path over DefaultConfig, then applies environment overrides.
// An empty path loads only the defaults and the environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, path, err)
		}
		cfg.dir = filepath.Dir(path)
	}
	cfg.applyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML data over DefaultConfig without touching the
// environment. Relative paths resolve against dir.
func Parse(data []byte, dir string) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	cfg.dir = dir
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getenv(EnvMQTTBroker); v != "" {
		c.Publish.Broker = v
	}
	if v := getenv(EnvMinioAccessKey); v != "" {
		c.Archive.Minio.AccessKey = v
	}
	if v := getenv(EnvMinioSecretKey); v != "" {
		c.Archive.Minio.SecretKey = v
	}
}

// Debug reports whether debug logging is on.
func (c Config) Debug() bool {
	return strings.EqualFold(c.LogLevel, "debug")
}

// Resolve makes p absolute relative to the config file's directory.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.dir == "" {
		return p
	}
	return filepath.Join(c.dir, p)
}

// Validate checks the application sections. The profile is checked when it
// is built.
func (c Config) Validate() error {
	w := c.Watch
	if w.Debounce < 0 || w.SettleInterval < 0 || w.MoveRetryDelay < 0 {
		return fmt.Errorf("%w: watch durations must not be negative", ErrInvalidConfig)
	}
	if w.SettleChecks < 1 || w.MoveRetries < 1 {
		return fmt.Errorf("%w: watch settle_checks and move_retries must be at least 1", ErrInvalidConfig)
	}
	if w.LatestName == "" || strings.ContainsRune(w.LatestName, filepath.Separator) {
		return fmt.Errorf("%w: watch latest_name %q", ErrInvalidConfig, w.LatestName)
	}

	if q := c.Archive.JPEGQuality; q < 1 || q > 100 {
		return fmt.Errorf("%w: archive jpeg_quality %d", ErrInvalidConfig, q)
	}
	if m := c.Archive.Minio; m.Enabled() && m.Bucket == "" {
		return fmt.Errorf("%w: archive minio bucket is required", ErrInvalidConfig)
	}

	p := c.Publish
	if p.Enabled() && p.Topic == "" {
		return fmt.Errorf("%w: publish topic is required", ErrInvalidConfig)
	}
	if p.QoS > 2 {
		return fmt.Errorf("%w: publish qos %d", ErrInvalidConfig, p.QoS)
	}
	if p.PlausibleMin != nil && p.PlausibleMax != nil && *p.PlausibleMin > *p.PlausibleMax {
		return fmt.Errorf("%w: plausible_min %.2f above plausible_max %.2f",
			ErrInvalidConfig, *p.PlausibleMin, *p.PlausibleMax)
	}

	switch c.Review.Mode {
	case ReviewTerminal, ReviewQueue, ReviewNone:
	default:
		return fmt.Errorf("%w: review mode %q", ErrInvalidConfig, c.Review.Mode)
	}
	return nil
}
