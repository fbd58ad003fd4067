package config

import (
	"encoding/json"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/vango-dev/renderbridge/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "renderbridge.json"

	// DefaultHost is the default listen host.
	DefaultHost = "localhost"

	// DefaultPort is the default listen port.
	DefaultPort = 7070

	// DefaultPath is the default WebSocket endpoint.
	DefaultPath = "/bridge"

	// DefaultMetricsPath is the default Prometheus scrape endpoint.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "renderbridge"
)

// Config represents the complete renderbridge.json configuration.
type Config struct {
	// Server contains HTTP listener configuration.
	Server ServerConfig `json:"server,omitempty"`

	// Transport contains WebSocket session configuration.
	Transport TransportConfig `json:"transport,omitempty"`

	// Codec contains value codec limits.
	Codec CodecConfig `json:"codec,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP listener settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty"`

	// Path is the WebSocket endpoint path.
	Path string `json:"path,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty"`
}

// TransportConfig contains WebSocket session settings.
type TransportConfig struct {
	// ReadTimeout is how long a session waits for the next frame (e.g., "60s").
	ReadTimeout string `json:"readTimeout,omitempty"`

	// WriteTimeout bounds each outbound frame write (e.g., "10s").
	WriteTimeout string `json:"writeTimeout,omitempty"`

	// MaxMessageSize is the largest inbound message in bytes.
	MaxMessageSize int64 `json:"maxMessageSize,omitempty"`

	// AllowedOrigins lists origins accepted on upgrade. Empty means
	// same-origin only; "*" accepts any origin.
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// CodecConfig contains value codec limits.
type CodecConfig struct {
	// MaxDepth is the deepest container nesting accepted.
	MaxDepth int `json:"maxDepth,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the scrape endpoint.
	Enabled bool `json:"enabled,omitempty"`

	// Path is the scrape endpoint path.
	Path string `json:"path,omitempty"`

	// Namespace prefixes every metric name.
	Namespace string `json:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is "text" or "json".
	Format string `json:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load loads configuration from renderbridge.json in the given directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile loads configuration from a specific file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R100").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use defaults")
		}
		return nil, errors.New("R101").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("R101").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("R101").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R101").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Transport.ReadTimeout == "" {
		c.Transport.ReadTimeout = "60s"
	}
	if c.Transport.WriteTimeout == "" {
		c.Transport.WriteTimeout = "10s"
	}
	if c.Transport.MaxMessageSize == 0 {
		c.Transport.MaxMessageSize = 1 << 20
	}

	if c.Codec.MaxDepth == 0 {
		c.Codec.MaxDepth = 128
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("R102").
			WithDetail("server.port must be between 0 and 65535")
	}
	if !strings.HasPrefix(c.Server.Path, "/") {
		return errors.New("R102").
			WithDetail("server.path must start with '/'")
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return errors.New("R102").
			WithDetail("metrics.path must start with '/'")
	}
	if c.Metrics.Enabled && c.Metrics.Path == c.Server.Path {
		return errors.New("R102").
			WithDetail("metrics.path and server.path must differ")
	}
	if c.Transport.MaxMessageSize < 0 {
		return errors.New("R102").
			WithDetail("transport.maxMessageSize must be positive")
	}
	if c.Codec.MaxDepth < 0 {
		return errors.New("R102").
			WithDetail("codec.maxDepth must be positive")
	}
	for field, v := range map[string]string{
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"transport.readTimeout":  c.Transport.ReadTimeout,
		"transport.writeTimeout": c.Transport.WriteTimeout,
	} {
		if d, err := time.ParseDuration(v); err != nil || d <= 0 {
			return errors.New("R103").
				WithDetail(field + " is not a positive duration: " + strconv.Quote(v))
		}
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("R102").
			WithDetail("log.format must be \"text\" or \"json\"")
	}
	return nil
}

// Address returns the listen address.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return mustDuration(c.Server.ShutdownTimeout, 10*time.Second)
}

// ReadTimeout returns the parsed transport read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return mustDuration(c.Transport.ReadTimeout, 60*time.Second)
}

// WriteTimeout returns the parsed transport write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return mustDuration(c.Transport.WriteTimeout, 10*time.Second)
}

func mustDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, errors.New("R102").
		WithDetail("log.level must be one of debug, info, warn, error; got " + strconv.Quote(s))
}

// Exists checks if renderbridge.json exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// LoadOrDefault loads renderbridge.json from dir if present, otherwise
// returns the defaults.
func LoadOrDefault(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}
