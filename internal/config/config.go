package config

import (
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Provider is the read-only view of the configuration used by the rest of
// the application.
type Provider interface {
	GetServerAddr() string
	GetAllowedOrigins() []string
	GetStaticDir() string
	GetWSReadLimit() int64
	GetWSSendBuffer() int
	GetWSWriteTimeout() time.Duration
	GetRelayQueueSize() int
	GetShutdownTimeout() time.Duration
	GetLogFormat() string
	GetLogLevel() string
	GetTracingEnabled() bool
	GetTracingServiceName() string
	GetTracingZipkinURL() string
	GetVersion() string
}

// Defaults applied when a variable is unset or invalid.
const (
	DefaultServerAddr      = ":8080"
	DefaultStaticDir       = ""
	DefaultWSReadLimit     = 1 << 20
	DefaultWSSendBuffer    = 256
	DefaultWSWriteTimeout  = 10 * time.Second
	DefaultRelayQueueSize  = 256
	DefaultShutdownTimeout = 10 * time.Second
	DefaultLogFormat       = "text"
	DefaultLogLevel        = "info"
)

// Config holds all configuration for the application.
type Config struct {
	ServerAddr      string
	AllowedOrigins  []string
	StaticDir       string
	WSReadLimit     int64
	WSSendBuffer    int
	WSWriteTimeout  time.Duration
	RelayQueueSize  int
	ShutdownTimeout time.Duration
	LogFormat       string
	LogLevel        string

	// Tracing settings; empty strings leave the bus defaults in place.
	TracingEnabled     bool
	TracingServiceName string
	TracingZipkinURL   string
	Version            string
}

var _ Provider = (*Config)(nil)

// New loads a .env file when present and reads the configuration from the
// environment.
func New() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}
	return FromEnv()
}

// FromEnv reads the configuration from the environment only.
func FromEnv() *Config {
	return &Config{
		ServerAddr:      stringEnv("SERVER_ADDR", DefaultServerAddr),
		AllowedOrigins:  listEnv("ALLOWED_ORIGINS"),
		StaticDir:       stringEnv("STATIC_DIR", DefaultStaticDir),
		WSReadLimit:     int64(intEnv("WS_READ_LIMIT", DefaultWSReadLimit)),
		WSSendBuffer:    intEnv("WS_SEND_BUFFER", DefaultWSSendBuffer),
		WSWriteTimeout:  durationEnv("WS_WRITE_TIMEOUT", DefaultWSWriteTimeout),
		RelayQueueSize:  intEnv("RELAY_QUEUE_SIZE", DefaultRelayQueueSize),
		ShutdownTimeout: durationEnv("SHUTDOWN_TIMEOUT", DefaultShutdownTimeout),
		LogFormat:       stringEnv("LOG_FORMAT", DefaultLogFormat),
		LogLevel:        stringEnv("LOG_LEVEL", DefaultLogLevel),

		TracingEnabled:     boolEnv("PUBSUB_TRACING_ENABLED", false),
		TracingServiceName: stringEnv("PUBSUB_TRACING_SERVICE_NAME", ""),
		TracingZipkinURL:   urlEnv("PUBSUB_TRACING_ZIPKIN_URL"),
		Version:            stringEnv("APP_VERSION", ""),
	}
}

func stringEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// intEnv accepts positive integers only.
func intEnv(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("Invalid %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		log.Printf("Invalid %s=%q, using default %s", key, v, def)
		return def
	}
	return d
}

func boolEnv(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Invalid %s=%q, using default %t", key, v, def)
		return def
	}
	return b
}

// urlEnv accepts absolute http(s) URLs only and returns "" otherwise.
func urlEnv(key string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return ""
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		log.Printf("Invalid %s=%q, ignoring", key, v)
		return ""
	}
	return v
}

func listEnv(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) GetServerAddr() string             { return c.ServerAddr }
func (c *Config) GetAllowedOrigins() []string       { return c.AllowedOrigins }
func (c *Config) GetStaticDir() string              { return c.StaticDir }
func (c *Config) GetWSReadLimit() int64             { return c.WSReadLimit }
func (c *Config) GetWSSendBuffer() int              { return c.WSSendBuffer }
func (c *Config) GetWSWriteTimeout() time.Duration  { return c.WSWriteTimeout }
func (c *Config) GetRelayQueueSize() int            { return c.RelayQueueSize }
func (c *Config) GetShutdownTimeout() time.Duration { return c.ShutdownTimeout }
func (c *Config) GetLogFormat() string              { return c.LogFormat }
func (c *Config) GetLogLevel() string               { return c.LogLevel }
func (c *Config) GetTracingEnabled() bool           { return c.TracingEnabled }
func (c *Config) GetTracingServiceName() string     { return c.TracingServiceName }
func (c *Config) GetTracingZipkinURL() string       { return c.TracingZipkinURL }
func (c *Config) GetVersion() string                { return c.Version }
