package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/danmuck/telectl/internal/logging"
	"github.com/pelletier/go-toml/v2"
)

var ErrInvalidConfig = errors.New("config: invalid")

// Duration reads and writes Go duration strings ("500ms", "5s").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// File is the telectl config.toml schema.
type File struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`

	ConnectTimeout   Duration `toml:"connect_timeout"`
	ReadTimeout      Duration `toml:"read_timeout"`
	WriteTimeout     Duration `toml:"write_timeout"`
	DisconnectOnIdle bool     `toml:"disconnect_on_idle"`
	NoDelay          bool     `toml:"no_delay"`
	Tokenized        bool     `toml:"tokenized"`
	MaxPayloadBytes  int      `toml:"max_payload_bytes"`
	MaxBufferBytes   int      `toml:"max_buffer_bytes"`
	MaxResyncBytes   int      `toml:"max_resync_bytes"`

	BackoffInitial    Duration `toml:"backoff_initial"`
	BackoffMultiplier float64  `toml:"backoff_multiplier"`
	BackoffMax        Duration `toml:"backoff_max"`
	BackoffJitter     bool     `toml:"backoff_jitter"`

	// StatusAddr enables the HTTP status server when set.
	StatusAddr  string   `toml:"status_addr"`
	CorsOrigins []string `toml:"cors_origins"`

	LogLevel string `toml:"log_level"`
	Output   string `toml:"output"`
}

func Default() File {
	return fromSession("127.0.0.1", 5000, defaultSession())
}

// Load parses path strictly: unknown keys are an error.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	cfg := Default()
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return File{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return File{}, err
	}
	return cfg, nil
}

// Encode renders cfg as TOML.
func Encode(cfg File) ([]byte, error) {
	return toml.Marshal(cfg)
}

func Validate(cfg File) error {
	if strings.TrimSpace(cfg.Host) == "" {
		return fmt.Errorf("%w: host is required", ErrInvalidConfig)
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, cfg.Port)
	}
	durations := []struct {
		name string
		d    Duration
	}{
		{"connect_timeout", cfg.ConnectTimeout},
		{"read_timeout", cfg.ReadTimeout},
		{"write_timeout", cfg.WriteTimeout},
		{"backoff_initial", cfg.BackoffInitial},
		{"backoff_max", cfg.BackoffMax},
	}
	for _, entry := range durations {
		if entry.d.Duration < 0 {
			return fmt.Errorf("%w: %s must not be negative", ErrInvalidConfig, entry.name)
		}
	}
	if cfg.BackoffMax.Duration > 0 && cfg.BackoffMax.Duration < cfg.BackoffInitial.Duration {
		return fmt.Errorf("%w: backoff_max below backoff_initial", ErrInvalidConfig)
	}
	if cfg.BackoffMultiplier != 0 && cfg.BackoffMultiplier < 1 {
		return fmt.Errorf("%w: backoff_multiplier must be >= 1", ErrInvalidConfig)
	}
	if cfg.MaxPayloadBytes < 0 || cfg.MaxBufferBytes < 0 || cfg.MaxResyncBytes < 0 {
		return fmt.Errorf("%w: byte limits must not be negative", ErrInvalidConfig)
	}
	if addr := strings.TrimSpace(cfg.StatusAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("%w: status_addr: %v", ErrInvalidConfig, err)
		}
	}
	if cfg.LogLevel != "" {
		if _, ok := logging.ParseLevel(cfg.LogLevel); !ok {
			return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, cfg.LogLevel)
		}
	}
	switch cfg.Output {
	case "", "text", "json", "yaml":
	default:
		return fmt.Errorf("%w: unknown output %q", ErrInvalidConfig, cfg.Output)
	}
	return nil
}
