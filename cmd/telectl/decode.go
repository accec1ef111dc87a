package main

import (
	"fmt"
	"io"
	"os"

	"github.com/danmuck/telectl/internal/observability"
	"github.com/danmuck/telectl/internal/protocol/frame"
	"github.com/danmuck/telectl/internal/protocol/telemetry"
	"github.com/spf13/cobra"
)

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file|->",
		Short: "Decode a captured byte stream offline.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(opts)
			if err != nil {
				return err
			}
			setupLogging(cfg.LogLevel)
			format, err := newFormatter(cfg.Output)
			if err != nil {
				return err
			}

			var data []byte
			if args[0] == "-" {
				data, err = io.ReadAll(cmd.InOrStdin())
			} else {
				data, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("decode: %w", err)
			}
			limits := frame.Limits{MaxPayloadBytes: cfg.MaxPayloadBytes}
			decodeStream(data, limits, format, cmd.OutOrStdout(), cmd.ErrOrStderr())
			return nil
		},
	}
}

// decodeStream prints every frame in data and a summary line on errOut.
func decodeStream(data []byte, limits frame.Limits, format formatter, out, errOut io.Writer) {
	frames, dropped, rest := frame.Split(data, limits)
	for _, f := range frames {
		msg, err := telemetry.Decode(f)
		if telemetry.IsWarning(err) {
			observability.RecordDecodeWarning(f.Tag())
		}
		if err != nil && !telemetry.IsWarning(err) {
			fmt.Fprintf(errOut, "[WARN] %s: %v\n", f.Tag(), err)
		}
		fmt.Fprint(out, format.Format(msg))
	}
	fmt.Fprintf(errOut, "frames=%d dropped=%d trailing=%d\n", len(frames), dropped, len(rest))
}
