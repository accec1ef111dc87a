package telemetry

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/telectl/internal/protocol"
)

// Marker is an A_M notification; ID is opaque.
type Marker struct {
	ID string `json:"id" yaml:"id"`
}

// DecodeMarker reads the id out of an A_M text frame.
func DecodeMarker(f protocol.TextFrame) (Marker, error) {
	if f.Command != protocol.TagMarker {
		return Marker{}, fmt.Errorf("%w: %q is not %s", protocol.ErrTagMismatch, f.Command, protocol.TagMarker)
	}
	if len(f.Args) == 0 {
		return Marker{}, fmt.Errorf("%w: %s without id", protocol.ErrTruncated, protocol.TagMarker)
	}
	return Marker{ID: f.Args[0]}, nil
}

// Message is a frame plus whatever typed content could be decoded from it.
type Message struct {
	Kind    string    `json:"kind" yaml:"kind"`
	Command string    `json:"command" yaml:"command"`
	Args    []string  `json:"args,omitempty" yaml:"args,omitempty"`
	Bytes   int       `json:"bytes,omitempty" yaml:"bytes,omitempty"`
	Samples []float64 `json:"samples,omitempty" yaml:"samples,omitempty"`
	Report  *Report   `json:"report,omitempty" yaml:"report,omitempty"`
	Marker  *Marker   `json:"marker,omitempty" yaml:"marker,omitempty"`
	Warning string    `json:"warning,omitempty" yaml:"warning,omitempty"`
}

const (
	KindText    = "text"
	KindSamples = "samples"
	KindReport  = "report"
	KindMarker  = "marker"
	KindBinary  = "binary"
)

// Decode interprets a frame. Decode warnings are recorded on the message and
// also returned; any other error leaves only the raw fields populated.
func Decode(f protocol.Frame) (Message, error) {
	switch fr := f.(type) {
	case protocol.TextFrame:
		msg := Message{Kind: KindText, Command: fr.Command, Args: fr.Args}
		if fr.Command != protocol.TagMarker {
			return msg, nil
		}
		m, err := DecodeMarker(fr)
		if err != nil {
			return msg, err
		}
		msg.Kind = KindMarker
		msg.Marker = &m
		return msg, nil
	case protocol.BinaryFrame:
		msg := Message{Kind: KindBinary, Command: fr.Command, Bytes: len(fr.Payload)}
		switch fr.Command {
		case protocol.TagSamples:
			samples, err := DecodeSamples(fr.Payload)
			msg.Kind = KindSamples
			msg.Samples = samples
			if err != nil {
				msg.Warning = err.Error()
			}
			return msg, err
		case protocol.TagReport:
			r, err := DecodeReport(fr.Payload)
			if err != nil {
				return msg, err
			}
			msg.Kind = KindReport
			msg.Report = &r
			return msg, nil
		}
		return msg, nil
	default:
		return Message{}, fmt.Errorf("%w: unknown frame %T", protocol.ErrTagMismatch, f)
	}
}

// IsWarning reports whether err is a non-fatal decode warning.
func IsWarning(err error) bool {
	return errors.Is(err, protocol.ErrDecodeWarning)
}

// Describe renders a one-line-per-row summary suitable for an operator log.
func Describe(m Message) string {
	var b strings.Builder
	switch m.Kind {
	case KindText:
		b.WriteString("RX: ")
		b.WriteString(m.Command)
		for _, a := range m.Args {
			b.WriteByte('@')
			b.WriteString(a)
		}
	case KindMarker:
		fmt.Fprintf(&b, "%s received (mark id = %s)", protocol.TagMarker, m.Marker.ID)
	case KindSamples:
		fmt.Fprintf(&b, "%s received (len=%d, doubles=%d)", protocol.TagSamples, m.Bytes, len(m.Samples))
		if len(m.Samples) == 6 {
			s := m.Samples
			fmt.Fprintf(&b, "\n  X=%.3f, Y=%.3f, Z=%.3f, TX=%.3f, TY=%.3f, TZ=%.3f", s[0], s[1], s[2], s[3], s[4], s[5])
		} else {
			for i, v := range m.Samples {
				fmt.Fprintf(&b, "\n  [%d] %.3f", i, v)
			}
		}
		if m.Warning != "" {
			fmt.Fprintf(&b, "\n  [WARN] %s", m.Warning)
		}
	case KindReport:
		r := m.Report
		fmt.Fprintf(&b, "%s received (frames=%d, bytes=%d) seq=%d ts=%d fps=%.2f, LED(L/R)=%.2f/%.2f, testTime=%g",
			protocol.TagReport, r.FrameCount(), m.Bytes, r.Sequence, r.Timestamp, r.FPS, r.LEDLeft, r.LEDRight, r.TestDuration)
		for i := 0; i < r.FrameCount(); i++ {
			fmt.Fprintf(&b, "\n  [%d] X=%.2f, Y=%.2f, Z=%.2f, TX=%.2f, TY=%.2f, TZ=%.2f",
				i, r.X[i], r.Y[i], r.Z[i], r.TX[i], r.TY[i], r.TZ[i])
		}
	default:
		fmt.Fprintf(&b, "%s received (%d bytes)", m.Command, m.Bytes)
	}
	return b.String()
}
