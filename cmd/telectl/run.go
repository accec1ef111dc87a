package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/danmuck/telectl/internal/client"
	"github.com/danmuck/telectl/internal/config"
	"github.com/danmuck/telectl/internal/observability"
	"github.com/danmuck/telectl/internal/protocol"
	"github.com/danmuck/telectl/internal/protocol/telemetry"
	"github.com/danmuck/telectl/internal/server"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var errQuit = errors.New("quit")

func newRunCmd(opts *rootOptions) *cobra.Command {
	var (
		host       string
		port       int
		statusAddr string
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect, stream decoded frames to stdout and send commands read from stdin.",
		Long: `Connect to host:port and keep the session alive until interrupted.

Each stdin line is one command: "P_S", "R_C 5", "samples 1.5 2 3".
"state" prints the connection state and "quit" exits.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			if cmd.Flags().Changed("status-addr") {
				cfg.StatusAddr = statusAddr
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)

			format, err := newFormatter(cfg.Output)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSession(ctx, cfg, format, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "server host (overrides config)")
	cmd.Flags().IntVar(&port, "port", 0, "server port (overrides config)")
	cmd.Flags().StringVar(&statusAddr, "status-addr", "", "serve HTTP status on this address")
	return cmd
}

// runSession drives one client until ctx ends or stdin asks to quit.
func runSession(ctx context.Context, cfg config.File, format formatter, in io.Reader, out, errOut io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := &printer{out: out, errOut: errOut, format: format}
	c := client.New(client.Config{Session: cfg.Session(), Sink: sink})
	if err := c.ConnectContext(ctx, cfg.Host, cfg.Port); err != nil {
		return err
	}
	defer c.Stop()

	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
	}()
	if cfg.StatusAddr != "" {
		status := server.New(server.Config{Name: "telectl", Addr: cfg.StatusAddr, CorsOrigins: cfg.CorsOrigins}, c)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := status.Serve(ctx); err != nil {
				log.Error().Err(err).Str("addr", cfg.StatusAddr).Msg("status server stopped")
			}
		}()
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				// stdin closed; keep streaming until interrupted.
				lines = nil
				continue
			}
			err := dispatch(c, line, errOut)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
			}
		}
	}
}

// sender is the client surface the command shell needs.
type sender interface {
	State() client.State
	SendCommand(name string, args ...string) error
	SendSamples(samples []float64) error
	RequestFrames(cmd string, frameCount int) error
}

func dispatch(c sender, line string, errOut io.Writer) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "state":
		fmt.Fprintf(errOut, "state: %s\n", c.State())
		return nil
	case "samples":
		samples := make([]float64, 0, len(fields)-1)
		for _, raw := range fields[1:] {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("samples: %w", err)
			}
			samples = append(samples, v)
		}
		return c.SendSamples(samples)
	case "R_C", "R_S":
		if len(fields) != 2 {
			return fmt.Errorf("%s: expected one frame count", fields[0])
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("%s: %w", fields[0], err)
		}
		return c.RequestFrames(fields[0], n)
	default:
		return c.SendCommand(fields[0], fields[1:]...)
	}
}

// printer writes frames to out and status to errOut.
type printer struct {
	mu     sync.Mutex
	out    io.Writer
	errOut io.Writer
	format formatter
}

func (p *printer) OnLog(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.errOut, text)
}

func (p *printer) OnStateChange(state client.State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.errOut, "state: %s\n", state)
}

func (p *printer) OnFrame(f protocol.Frame) {
	msg, err := telemetry.Decode(f)
	if telemetry.IsWarning(err) {
		observability.RecordDecodeWarning(f.Tag())
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if err != nil && !telemetry.IsWarning(err) {
		fmt.Fprintf(p.errOut, "[WARN] %s: %v\n", f.Tag(), err)
	}
	fmt.Fprint(p.out, p.format.Format(msg))
}
