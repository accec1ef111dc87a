package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/telectl/internal/observability"
	"github.com/danmuck/telectl/internal/protocol"
	"github.com/danmuck/telectl/internal/protocol/frame"
	"github.com/danmuck/telectl/internal/protocol/session"
	"github.com/danmuck/telectl/internal/protocol/telemetry"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// stopGrace bounds how long Stop waits on a session goroutine parked in a
// sink callback.
const stopGrace = 50 * time.Millisecond

// DialFunc opens the transport for one session.
type DialFunc func(ctx context.Context, network, address string) (net.Conn, error)

type Config struct {
	Session session.Config
	Sink    EventSink
	// Dial overrides the TCP dialer. Nil uses net.Dialer with Session.ConnectTimeout.
	Dial DialFunc
}

func DefaultConfig() Config {
	return Config{
		Session: session.DefaultConfig(),
	}
}

// Snapshot is a point-in-time view of the client for status reporting.
type Snapshot struct {
	State       string    `json:"state" yaml:"state"`
	Address     string    `json:"address,omitempty" yaml:"address,omitempty"`
	SessionID   string    `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	ConnectedAt time.Time `json:"connected_at,omitempty" yaml:"connected_at,omitempty"`
	Attempt     int       `json:"attempt" yaml:"attempt"`
	Frames      uint64    `json:"frames" yaml:"frames"`
	Dropped     uint64    `json:"dropped_bytes" yaml:"dropped_bytes"`
	LastError   string    `json:"last_error,omitempty" yaml:"last_error,omitempty"`
}

// Client keeps one logical session alive against a single host:port.
type Client struct {
	cfg  session.Config
	sink EventSink
	enc  protocol.Encoder
	dial DialFunc
	rng  *rand.Rand

	// mu guards the connection, the observable state and the write path.
	mu          sync.Mutex
	state       State
	conn        net.Conn
	addr        string
	sessionID   string
	connectedAt time.Time
	attempt     int
	frames      uint64
	dropped     uint64
	lastErr     error

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// inCallback is set while a sink callback runs on the session goroutine;
	// callbackSeq counts callback entries.
	inCallback  atomic.Bool
	callbackSeq atomic.Uint64
	loopSink    EventSink

	// onBackoff observes every reconnect delay before it is slept.
	onBackoff func(time.Duration)
}

func New(cfg Config) *Client {
	cfg.Session = cfg.Session.WithDefaults()
	sink := cfg.Sink
	if sink == nil {
		sink = discardSink{}
	}
	c := &Client{
		cfg:  cfg.Session,
		sink: sink,
		enc:  protocol.Encoder{Tokenized: cfg.Session.Tokenized},
		dial: cfg.Dial,
		rng:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	c.loopSink = loopSink{c: c}
	if c.dial == nil {
		dialer := &net.Dialer{Timeout: cfg.Session.ConnectTimeout}
		c.dial = dialer.DialContext
	}
	return c
}

// Connect starts the session loop against host:port and returns without
// waiting for the first dial.
func (c *Client) Connect(host string, port int) error {
	return c.ConnectContext(context.Background(), host, port)
}

// ConnectContext is Connect with a parent context; cancelling ctx has the
// same effect as Stop without waiting.
func (c *Client) ConnectContext(ctx context.Context, host string, port int) error {
	host = strings.TrimSpace(host)
	if host == "" {
		return fmt.Errorf("%w: empty host", ErrInvalidAddress)
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("%w: port %d", ErrInvalidAddress, port)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c.runMu.Lock()
	defer c.runMu.Unlock()
	if c.done != nil {
		select {
		case <-c.done:
		default:
			return ErrAlreadyRunning
		}
	}

	c.mu.Lock()
	c.addr = addr
	c.attempt = 0
	c.lastErr = nil
	c.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	go c.run(runCtx, addr, done)
	return nil
}

// Stop ends the session loop, closes the socket and waits for the loop to exit.
// Stop on a client that was never started is a no-op. If the session goroutine
// stays inside one sink callback for stopGrace (a callback that calls Stop
// itself, or one blocked on a full channel), Stop returns after cancelling and
// the loop exits as soon as that callback returns.
func (c *Client) Stop() {
	c.runMu.Lock()
	cancel, done := c.cancel, c.done
	c.runMu.Unlock()
	if cancel == nil {
		return
	}
	c.markClosing()
	cancel()

	ticker := time.NewTicker(stopGrace)
	defer ticker.Stop()
	seq := c.callbackSeq.Load()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}
		next := c.callbackSeq.Load()
		if c.inCallback.Load() && next == seq {
			return
		}
		seq = next
	}
}

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) IsConnected() bool {
	return c.State() == Connected
}

// SessionID identifies the current connection. It changes on every reconnect
// and is empty while disconnected.
func (c *Client) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Client) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := Snapshot{
		State:       c.state.String(),
		Address:     c.addr,
		SessionID:   c.sessionID,
		ConnectedAt: c.connectedAt,
		Attempt:     c.attempt,
		Frames:      c.frames,
		Dropped:     c.dropped,
	}
	if c.lastErr != nil {
		snap.LastError = c.lastErr.Error()
	}
	return snap
}

// SendCommand writes one text command. Arguments are validated before
// anything is written.
func (c *Client) SendCommand(name string, args ...string) error {
	data, err := c.enc.Command(name, args...)
	if err != nil {
		return err
	}
	return c.send(name, data)
}

// SendBinary writes one length-prefixed binary push.
func (c *Client) SendBinary(tag string, payload []byte) error {
	data, err := c.enc.BinaryPush(tag, payload)
	if err != nil {
		return err
	}
	return c.send(tag, data)
}

// SendSamples pushes samples as an A_D frame.
func (c *Client) SendSamples(samples []float64) error {
	return c.SendBinary(protocol.TagSamples, telemetry.EncodeSamples(samples))
}

// RequestFrames asks the server for frameCount report frames with cmd (R_C or R_S).
func (c *Client) RequestFrames(cmd string, frameCount int) error {
	if frameCount < 0 {
		return fmt.Errorf("%w: negative frame count %d", protocol.ErrInvalidField, frameCount)
	}
	return c.SendCommand(cmd, strconv.Itoa(frameCount))
}

func (c *Client) send(name string, data []byte) error {
	err := c.write(data)
	observability.RecordSend(err == nil)
	if err != nil {
		log.Warn().Str("component", "client").Str("command", name).Err(err).Msg("send failed")
		c.sink.OnLog(fmt.Sprintf("Send %s failed: %v", name, err))
		return err
	}
	log.Debug().Str("component", "client").Str("command", name).Int("bytes", len(data)).Msg("sent")
	return nil
}

func (c *Client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil || c.state != Connected {
		return ErrNotConnected
	}
	if err := c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout)); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailure, err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailure, err)
	}
	return nil
}

func (c *Client) run(ctx context.Context, addr string, done chan struct{}) {
	defer close(done)
	defer c.finish()

	backoff := session.NewBackoff(c.cfg.Backoff, c.rng)
	for ctx.Err() == nil {
		c.setState(Connecting)
		c.loopSink.OnLog(fmt.Sprintf("Connecting to %s...", addr))

		conn, err := c.connect(ctx, addr)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			observability.RecordConnect(false)
			c.recordError(err)
			log.Warn().Str("component", "client").Str("addr", addr).Int("attempt", backoff.Attempt()+1).Err(err).Msg("connect failed")
			c.loopSink.OnLog(fmt.Sprintf("Connect error: %v", err))
			if !c.sleep(ctx, backoff) {
				return
			}
			continue
		}

		observability.RecordConnect(true)
		backoff.Reset()
		cause := c.serve(ctx, addr, conn)
		if ctx.Err() != nil {
			return
		}
		observability.RecordDisconnect(disconnectCause(cause))
		c.recordError(cause)
		c.setState(Connecting)
		log.Info().Str("component", "client").Str("addr", addr).Err(cause).Msg("disconnected")
		c.loopSink.OnLog(fmt.Sprintf("Disconnected: %v", cause))
		if !c.sleep(ctx, backoff) {
			return
		}
	}
}

func (c *Client) connect(ctx context.Context, addr string) (net.Conn, error) {
	conn, err := c.dial(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok && c.cfg.NoDelay {
		if err := tcp.SetNoDelay(true); err != nil {
			log.Debug().Str("component", "client").Err(err).Msg("set nodelay")
		}
	}
	return conn, nil
}

// serve runs the read loop for one connection and returns why it ended.
func (c *Client) serve(ctx context.Context, addr string, conn net.Conn) error {
	stopClose := context.AfterFunc(ctx, func() {
		c.markClosing()
		_ = conn.Close()
	})
	defer stopClose()
	defer conn.Close()

	id := uuid.NewString()
	c.mu.Lock()
	c.conn = conn
	c.sessionID = id
	c.connectedAt = time.Now()
	c.attempt = 0
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.sessionID = ""
		c.connectedAt = time.Time{}
		c.mu.Unlock()
	}()

	c.setState(Connected)
	log.Info().Str("component", "client").Str("addr", addr).Str("session", id).Msg("connected")
	c.loopSink.OnLog(fmt.Sprintf("Connected to %s", addr))

	buf := frame.NewBuffer(c.cfg.Limits)
	chunk := make([]byte, c.cfg.ReadChunkBytes)
	resynced := 0
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.ReadTimeout)); err != nil {
			return err
		}
		n, err := conn.Read(chunk)
		if n > 0 {
			observability.RecordRead(n)
			buf.Append(chunk[:n])
			if err := c.drain(buf, &resynced); err != nil {
				return err
			}
		}
		if err != nil {
			if isTimeout(err) {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				if c.cfg.DisconnectOnIdle {
					return ErrIdleTimeout
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				return ErrRemoteClosed
			}
			return err
		}
		if n == 0 {
			return ErrRemoteClosed
		}
	}
}

// drain delivers every complete frame in buf to the sink in wire order.
func (c *Client) drain(buf *frame.Buffer, resynced *int) error {
	for {
		res := buf.Next()
		switch res.Status {
		case frame.NeedMore:
			if buf.Len() > c.cfg.MaxBufferBytes {
				return fmt.Errorf("%w: %d pending bytes", ErrBufferOverflow, buf.Len())
			}
			return nil
		case frame.Resync:
			if *resynced == 0 {
				log.Warn().Str("component", "client").Err(res.Err).Msg("resynchronizing")
				c.loopSink.OnLog(fmt.Sprintf("[WARN] %v", res.Err))
			}
			*resynced += res.N
			observability.RecordResync(res.N)
			c.mu.Lock()
			c.dropped += uint64(res.N)
			c.mu.Unlock()
			if *resynced > c.cfg.MaxResyncBytes {
				return fmt.Errorf("%w: %d bytes", ErrResyncLimit, *resynced)
			}
		case frame.Decoded:
			*resynced = 0
			observability.RecordFrame(res.Frame.Tag())
			c.mu.Lock()
			c.frames++
			c.mu.Unlock()
			c.loopSink.OnFrame(res.Frame)
		}
	}
}

// sleep waits out the next backoff delay. It returns false when ctx ends first.
func (c *Client) sleep(ctx context.Context, backoff *session.Backoff) bool {
	delay := backoff.Next()
	c.mu.Lock()
	c.attempt = backoff.Attempt()
	c.mu.Unlock()
	observability.RecordBackoff(delay)
	if c.onBackoff != nil {
		c.onBackoff(delay)
	}
	c.loopSink.OnLog(fmt.Sprintf("Reconnecting in %s", delay))

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (c *Client) finish() {
	c.mu.Lock()
	c.state = Closing
	c.mu.Unlock()
	observability.RecordState(int(Closing))
	c.loopSink.OnStateChange(Closing)
	c.setState(Disconnected)
	observability.RecordBackoff(0)
	log.Info().Str("component", "client").Msg("runner stopped")
	c.loopSink.OnLog("Runner stopped")
}

func (c *Client) setState(state State) {
	c.mu.Lock()
	if c.state == state || (c.state == Closing && state != Disconnected) {
		c.mu.Unlock()
		return
	}
	c.state = state
	c.mu.Unlock()
	observability.RecordState(int(state))
	c.loopSink.OnStateChange(state)
}

// markClosing publishes Closing ahead of the loop's own notification so
// sends fail with ErrNotConnected while shutdown is in progress.
func (c *Client) markClosing() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Disconnected {
		c.state = Closing
	}
}

func (c *Client) recordError(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func disconnectCause(err error) string {
	switch {
	case errors.Is(err, ErrRemoteClosed):
		return "remote_closed"
	case errors.Is(err, ErrIdleTimeout):
		return "idle"
	case errors.Is(err, ErrBufferOverflow), errors.Is(err, ErrResyncLimit):
		return "corrupt"
	default:
		return "socket_error"
	}
}

// enterCallback marks a session goroutine callback as running and returns the
// function that clears the mark.
func (c *Client) enterCallback() func() {
	c.callbackSeq.Add(1)
	c.inCallback.Store(true)
	return func() { c.inCallback.Store(false) }
}

// loopSink forwards session goroutine callbacks and tracks when one is running.
type loopSink struct {
	c *Client
}

func (s loopSink) OnLog(text string) {
	defer s.c.enterCallback()()
	s.c.sink.OnLog(text)
}

func (s loopSink) OnStateChange(state State) {
	defer s.c.enterCallback()()
	s.c.sink.OnStateChange(state)
}

func (s loopSink) OnFrame(f protocol.Frame) {
	defer s.c.enterCallback()()
	s.c.sink.OnFrame(f)
}
