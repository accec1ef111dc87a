package config

import (
	"github.com/danmuck/telectl/internal/protocol/frame"
	"github.com/danmuck/telectl/internal/protocol/session"
)

func defaultSession() session.Config {
	return session.DefaultConfig()
}

func fromSession(host string, port int, s session.Config) File {
	return File{
		Host:              host,
		Port:              port,
		ConnectTimeout:    Duration{s.ConnectTimeout},
		ReadTimeout:       Duration{s.ReadTimeout},
		WriteTimeout:      Duration{s.WriteTimeout},
		DisconnectOnIdle:  s.DisconnectOnIdle,
		NoDelay:           s.NoDelay,
		Tokenized:         s.Tokenized,
		MaxPayloadBytes:   s.Limits.MaxPayloadBytes,
		MaxBufferBytes:    s.MaxBufferBytes,
		MaxResyncBytes:    s.MaxResyncBytes,
		BackoffInitial:    Duration{s.Backoff.InitialDelay},
		BackoffMultiplier: s.Backoff.Multiplier,
		BackoffMax:        Duration{s.Backoff.MaxDelay},
		BackoffJitter:     s.Backoff.Jitter,
		LogLevel:          "info",
		Output:            "text",
	}
}

// Session maps the file onto client session settings. Zero values fall back
// to session defaults.
func (f File) Session() session.Config {
	return session.Config{
		ConnectTimeout:   f.ConnectTimeout.Duration,
		ReadTimeout:      f.ReadTimeout.Duration,
		WriteTimeout:     f.WriteTimeout.Duration,
		DisconnectOnIdle: f.DisconnectOnIdle,
		NoDelay:          f.NoDelay,
		Tokenized:        f.Tokenized,
		MaxBufferBytes:   f.MaxBufferBytes,
		MaxResyncBytes:   f.MaxResyncBytes,
		Limits:           frame.Limits{MaxPayloadBytes: f.MaxPayloadBytes},
		Backoff: session.BackoffConfig{
			InitialDelay: f.BackoffInitial.Duration,
			Multiplier:   f.BackoffMultiplier,
			MaxDelay:     f.BackoffMax.Duration,
			Jitter:       f.BackoffJitter,
		},
	}.WithDefaults()
}
