package config

import (
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // site.timezone is validated against the embedded zone database

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "SHABBATCLOCK_"

// maxScheduleCapacity is the largest table the one-byte count prefix describes.
const maxScheduleCapacity = 255

// Config is the root configuration structure.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Relay    RelayConfig    `yaml:"relay"`
	Radio    RadioConfig    `yaml:"radio"`
	Storage  StorageConfig  `yaml:"storage"`
	Database DatabaseConfig `yaml:"database"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	InfluxDB InfluxDBConfig `yaml:"influxdb"`
	API      APIConfig      `yaml:"api"`
	Clock    ClockConfig    `yaml:"clock"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig identifies the installation.
type SiteConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Timezone string `yaml:"timezone"`
}

// ScheduleConfig bounds the weekly table.
type ScheduleConfig struct {
	Capacity int `yaml:"capacity"`
}

// RelayConfig controls the relay output and its mode machine.
type RelayConfig struct {
	// DefaultMode is the mode at startup: manual_on, manual_off or auto.
	DefaultMode string `yaml:"default_mode"`

	// TickInterval is how often AUTO mode checks for due entries. Must be
	// at most one minute so no event is missed.
	TickInterval time.Duration `yaml:"tick_interval"`

	// Actuator selects the output driver: log or mqtt.
	Actuator string `yaml:"actuator"`

	// DeviceID names the relay in MQTT topics.
	DeviceID string `yaml:"device_id"`
}

// RadioConfig configures the lock-sync link to the paired remote unit.
type RadioConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Connection   string        `yaml:"connection"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	AckTimeout   time.Duration `yaml:"ack_timeout"`
	SettleDelay  time.Duration `yaml:"settle_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
	AckToken     string        `yaml:"ack_token"`
	MaxResponse  int           `yaml:"max_response"`
}

// StorageConfig selects where the schedule blob is kept.
type StorageConfig struct {
	// Backend is sqlite or file.
	Backend   string `yaml:"backend"`
	FilePath  string `yaml:"file_path"`
	Namespace string `yaml:"namespace"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled     bool                `yaml:"enabled"`
	Broker      MQTTBrokerConfig    `yaml:"broker"`
	Auth        MQTTAuthConfig      `yaml:"auth"`
	QoS         int                 `yaml:"qos"`
	Reconnect   MQTTReconnectConfig `yaml:"reconnect"`
	TopicPrefix string              `yaml:"topic_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings, in seconds.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host         string           `yaml:"host"`
	Port         int              `yaml:"port"`
	Timeouts     APITimeoutConfig `yaml:"timeouts"`
	CORS         CORSConfig       `yaml:"cors"`
	MaxBodyBytes int64            `yaml:"max_body_bytes"`
}

// APITimeoutConfig contains HTTP timeout settings, in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ClockConfig controls when the wall clock is trusted.
type ClockConfig struct {
	TrustSystemClock bool `yaml:"trust_system_clock"`
	MinValidYear     int  `yaml:"min_valid_year"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration and applies environment overrides.
//
// The loading order is:
//  1. Default values
//  2. YAML file values (skipped when path is empty)
//  3. Environment variables, SHABBATCLOCK_SECTION_KEY
//
// Parameters:
//   - path: Path to the YAML configuration file, or ""
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If the file cannot be read or parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with defaults suitable for a single relay on a
// Raspberry Pi class host.
func Default() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "home",
			Name:     "Shabbat Clock",
			Timezone: "Asia/Jerusalem",
		},
		Schedule: ScheduleConfig{
			Capacity: 32,
		},
		Relay: RelayConfig{
			DefaultMode:  "auto",
			TickInterval: 10 * time.Second,
			Actuator:     "log",
			DeviceID:     "relay-1",
		},
		Radio: RadioConfig{
			Enabled:      false,
			Connection:   "serial:///dev/ttyUSB0?baud=9600",
			DialTimeout:  5 * time.Second,
			AckTimeout:   1500 * time.Millisecond,
			SettleDelay:  50 * time.Millisecond,
			PollInterval: time.Millisecond,
			AckToken:     "ACK",
			MaxResponse:  256,
		},
		Storage: StorageConfig{
			Backend:   "sqlite",
			FilePath:  "./data/schedule.bin",
			Namespace: "sched",
		},
		Database: DatabaseConfig{
			Path:        "./data/shabbatclock.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Enabled: false,
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "shabbatclock",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
			TopicPrefix: "shabbatclock",
		},
		InfluxDB: InfluxDBConfig{
			Enabled:       false,
			URL:           "http://localhost:8086",
			Org:           "home",
			Bucket:        "shabbatclock",
			BatchSize:     50,
			FlushInterval: 10,
		},
		API: APIConfig{
			Host: "0.0.0.0",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  10,
				Write: 10,
				Idle:  60,
			},
			MaxBodyBytes: 64 << 10,
		},
		Clock: ClockConfig{
			TrustSystemClock: true,
			MinValidYear:     2020,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies SHABBATCLOCK_* environment variables.
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"SITE_TIMEZONE":    &cfg.Site.Timezone,
		"RELAY_MODE":       &cfg.Relay.DefaultMode,
		"RADIO_CONNECTION": &cfg.Radio.Connection,
		"STORAGE_BACKEND":  &cfg.Storage.Backend,
		"DATABASE_PATH":    &cfg.Database.Path,
		"MQTT_HOST":        &cfg.MQTT.Broker.Host,
		"MQTT_USERNAME":    &cfg.MQTT.Auth.Username,
		"MQTT_PASSWORD":    &cfg.MQTT.Auth.Password,
		"INFLUXDB_URL":     &cfg.InfluxDB.URL,
		"INFLUXDB_TOKEN":   &cfg.InfluxDB.Token,
		"API_HOST":         &cfg.API.Host,
		"LOGGING_LEVEL":    &cfg.Logging.Level,
	}
	for key, dst := range str {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	boolean := map[string]*bool{
		"RADIO_ENABLED":    &cfg.Radio.Enabled,
		"MQTT_ENABLED":     &cfg.MQTT.Enabled,
		"INFLUXDB_ENABLED": &cfg.InfluxDB.Enabled,
	}
	for key, dst := range boolean {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("parsing %s%s: %w", EnvPrefix, key, err)
			}
			*dst = b
		}
	}

	if v := os.Getenv(EnvPrefix + "API_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parsing %sAPI_PORT: %w", EnvPrefix, err)
		}
		cfg.API.Port = port
	}
	return nil
}

// Validate checks the configuration and reports every problem found.
//
// Returns:
//   - error: Description of all validation failures, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if c.Site.Timezone != "" {
		if _, err := time.LoadLocation(c.Site.Timezone); err != nil {
			errs = append(errs, fmt.Sprintf("site.timezone %q is not a known location", c.Site.Timezone))
		}
	}

	if c.Schedule.Capacity < 1 || c.Schedule.Capacity > maxScheduleCapacity {
		errs = append(errs, "schedule.capacity must be between 1 and 255")
	}

	if !slices.Contains([]string{"manual_on", "manual_off", "auto"}, c.Relay.DefaultMode) {
		errs = append(errs, "relay.default_mode must be manual_on, manual_off or auto")
	}
	if c.Relay.TickInterval <= 0 || c.Relay.TickInterval > time.Minute {
		errs = append(errs, "relay.tick_interval must be greater than 0 and at most 1m")
	}
	switch c.Relay.Actuator {
	case "log":
	case "mqtt":
		if !c.MQTT.Enabled {
			errs = append(errs, "relay.actuator mqtt requires mqtt.enabled")
		}
		if c.Relay.DeviceID == "" {
			errs = append(errs, "relay.device_id is required for the mqtt actuator")
		}
	default:
		errs = append(errs, "relay.actuator must be log or mqtt")
	}

	if c.Radio.Enabled {
		if u, err := url.Parse(c.Radio.Connection); err != nil || !slices.Contains([]string{"serial", "tcp", "unix"}, u.Scheme) {
			errs = append(errs, "radio.connection must be a serial://, tcp:// or unix:// URL")
		}
		if c.Radio.AckTimeout <= 0 {
			errs = append(errs, "radio.ack_timeout must be positive")
		}
		if c.Radio.SettleDelay < 0 || c.Radio.SettleDelay >= c.Radio.AckTimeout {
			errs = append(errs, "radio.settle_delay must be non-negative and shorter than radio.ack_timeout")
		}
		if len(c.Radio.AckToken) != 3 {
			errs = append(errs, "radio.ack_token must be 3 characters")
		}
	}

	switch c.Storage.Backend {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, "database.path is required for the sqlite backend")
		}
	case "file":
		if c.Storage.FilePath == "" {
			errs = append(errs, "storage.file_path is required for the file backend")
		}
	default:
		errs = append(errs, "storage.backend must be sqlite or file")
	}
	if c.Storage.Namespace == "" {
		errs = append(errs, "storage.namespace is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.Enabled && c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when enabled")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.Clock.MinValidYear < 1970 {
		errs = append(errs, "clock.min_valid_year must be 1970 or later")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
// It is never shorter than the radio ack timeout plus a margin, so a lock
// request can complete.
func (c *Config) GetWriteTimeout() time.Duration {
	return max(time.Duration(c.API.Timeouts.Write)*time.Second, c.Radio.AckTimeout+2*time.Second)
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}
