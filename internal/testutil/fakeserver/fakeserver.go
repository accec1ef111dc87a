// Package fakeserver is a loopback TCP endpoint that hands accepted
// connections to tests one at a time.
package fakeserver

import (
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"testing"
	"time"
)

type Server struct {
	ln    net.Listener
	conns chan net.Conn

	mu       sync.Mutex
	accepted []net.Conn
	closing  chan struct{}
	done     chan struct{}
	once     sync.Once
}

// Start listens on 127.0.0.1 with an ephemeral port and closes on test cleanup.
func Start(t testing.TB) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	s := &Server{
		ln:      ln,
		conns:   make(chan net.Conn, 16),
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.acceptLoop()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) acceptLoop() {
	defer close(s.done)
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			continue
		}
		s.mu.Lock()
		s.accepted = append(s.accepted, conn)
		s.mu.Unlock()
		select {
		case s.conns <- conn:
		case <-s.closing:
			return
		}
	}
}

func (s *Server) Host() string {
	return s.ln.Addr().(*net.TCPAddr).IP.String()
}

func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

func (s *Server) Addr() string {
	return net.JoinHostPort(s.Host(), strconv.Itoa(s.Port()))
}

// Accept waits for the next client connection.
func (s *Server) Accept(t testing.TB, timeout time.Duration) net.Conn {
	t.Helper()
	select {
	case conn := <-s.conns:
		return conn
	case <-time.After(timeout):
		t.Fatalf("no connection accepted within %s", timeout)
		return nil
	}
}

// NoAccept fails the test if a connection arrives within wait.
func (s *Server) NoAccept(t testing.TB, wait time.Duration) {
	t.Helper()
	select {
	case conn := <-s.conns:
		t.Fatalf("unexpected connection from %s", conn.RemoteAddr())
	case <-time.After(wait):
	}
}

// Accepted returns how many connections the listener has taken so far.
func (s *Server) Accepted() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.accepted)
}

// Close stops the listener and closes every accepted connection.
func (s *Server) Close() {
	s.once.Do(func() {
		close(s.closing)
		_ = s.ln.Close()
	})
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, conn := range s.accepted {
		_ = conn.Close()
	}
}

// ReadFull reads exactly n bytes from conn or fails the test.
func ReadFull(t testing.TB, conn net.Conn, n int, timeout time.Duration) []byte {
	t.Helper()
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		t.Fatalf("set read deadline: %v", err)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		t.Fatalf("read %d bytes: %v", n, err)
	}
	return buf
}

// WriteChunks writes data in pieces of at most size bytes with a pause between them.
func WriteChunks(t testing.TB, conn net.Conn, data []byte, size int, pause time.Duration) {
	t.Helper()
	if size <= 0 {
		size = len(data)
	}
	for len(data) > 0 {
		n := min(size, len(data))
		if _, err := conn.Write(data[:n]); err != nil {
			t.Fatalf("write: %v", err)
		}
		data = data[n:]
		if pause > 0 {
			time.Sleep(pause)
		}
	}
}
