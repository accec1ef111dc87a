package session

import (
	"math/rand"
	"testing"
	"time"

	"github.com/danmuck/telectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestNextBackoffDelayDeterministicNoJitter(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{
		InitialDelay: 250 * time.Millisecond,
		Multiplier:   2.0,
		MaxDelay:     5 * time.Second,
		Jitter:       false,
	}
	if got := NextBackoffDelay(cfg, 1, nil); got != 250*time.Millisecond {
		t.Fatalf("attempt1 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 2, nil); got != 500*time.Millisecond {
		t.Fatalf("attempt2 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 3, nil); got != time.Second {
		t.Fatalf("attempt3 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 6, nil); got != 5*time.Second {
		t.Fatalf("attempt6 got=%v", got)
	}
	if got := NextBackoffDelay(cfg, 5000, nil); got != 5*time.Second {
		t.Fatalf("attempt5000 got=%v", got)
	}
}

func TestNextBackoffDelayJitterBounds(t *testing.T) {
	testlog.Start(t)
	cfg := BackoffConfig{InitialDelay: time.Second, Multiplier: 2, MaxDelay: 4 * time.Second, Jitter: true}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 100; i++ {
		got := NextBackoffDelay(cfg, 3, rng)
		require.GreaterOrEqual(t, got, 2*time.Second)
		require.Less(t, got, 6*time.Second)
	}
}

func TestBackoffSequenceAndReset(t *testing.T) {
	testlog.Start(t)
	b := NewBackoff(BackoffConfig{InitialDelay: 500 * time.Millisecond, Multiplier: 2, MaxDelay: 5 * time.Second}, nil)
	want := []time.Duration{
		500 * time.Millisecond,
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
		5 * time.Second,
	}
	for i, w := range want {
		require.Equal(t, w, b.Next(), "step %d", i)
	}
	require.Equal(t, len(want), b.Attempt())

	b.Reset()
	require.Zero(t, b.Attempt())
	require.Equal(t, 500*time.Millisecond, b.Next())
}

func TestConfigWithDefaults(t *testing.T) {
	testlog.Start(t)
	cfg := Config{}.WithDefaults()
	def := DefaultConfig()
	require.Equal(t, def.ConnectTimeout, cfg.ConnectTimeout)
	require.Equal(t, def.ReadTimeout, cfg.ReadTimeout)
	require.Equal(t, def.Backoff.InitialDelay, cfg.Backoff.InitialDelay)
	require.Equal(t, def.Backoff.MaxDelay, cfg.Backoff.MaxDelay)
	require.Equal(t, def.Limits, cfg.Limits)
	require.GreaterOrEqual(t, cfg.MaxBufferBytes, cfg.Limits.MaxPayloadBytes)

	cfg = Config{
		ReadTimeout:      20 * time.Millisecond,
		DisconnectOnIdle: true,
		Backoff:          BackoffConfig{InitialDelay: time.Second, Multiplier: 3, MaxDelay: time.Millisecond},
	}.WithDefaults()
	require.Equal(t, 20*time.Millisecond, cfg.ReadTimeout)
	require.True(t, cfg.DisconnectOnIdle)
	require.Equal(t, 3.0, cfg.Backoff.Multiplier)
	require.Equal(t, time.Second, cfg.Backoff.MaxDelay)
}
