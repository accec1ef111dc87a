package frame

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"

	"github.com/danmuck/telectl/internal/protocol"
)

const (
	// ReportFixedBytes is the A_R header block: timestamp, sequence and four summary doubles.
	ReportFixedBytes = 8 + 4 + 4*8
	// ReportFrameBytes is one A_R frame row: six channels of doubles.
	ReportFrameBytes = 6 * 8

	maxFieldDigits = 10
)

var (
	errEmptyField  = errors.New("empty")
	errNotUnsigned = errors.New("not a non-negative integer")

	lineTerminator   = []byte(protocol.LineTerminator)
	binaryTerminator = []byte(protocol.BinaryTerminator)
)

// Status is the outcome of one Extract call.
type Status int

const (
	NeedMore Status = iota
	Decoded
	Resync
)

func (s Status) String() string {
	switch s {
	case NeedMore:
		return "need_more"
	case Decoded:
		return "decoded"
	case Resync:
		return "resync"
	default:
		return "unknown"
	}
}

// Result reports what Extract found at the front of the buffer. N is the
// number of bytes the owner must remove: the whole frame for Decoded, the
// bytes to skip for Resync, zero for NeedMore.
type Result struct {
	Status Status
	Frame  protocol.Frame
	N      int
	Err    error
}

// Limits constrains declared binary payload sizes.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{
		MaxPayloadBytes: 16 * 1024 * 1024,
	}
}

// Extract decodes at most one frame from the front of buf. It never retains
// buf; decoded frames own copies of their bytes.
func Extract(buf []byte, limits Limits) Result {
	if len(buf) == 0 {
		return Result{}
	}
	if limits.MaxPayloadBytes <= 0 {
		limits = DefaultLimits()
	}
	if res, ok := checkLead(buf); !ok {
		return res
	}

	at := bytes.IndexByte(buf, protocol.FieldSeparator)
	crlf := bytes.Index(buf, lineTerminator)
	if crlf >= 0 && (at < 0 || crlf < at) {
		return textLine(buf, crlf)
	}
	if at < 0 {
		return Result{}
	}

	switch string(buf[:at]) {
	case protocol.TagSamples:
		return binaryFrame(buf, at, limits, samplesPayloadLen)
	case protocol.TagReport:
		return binaryFrame(buf, at, limits, reportPayloadLen)
	}

	if crlf < 0 {
		return Result{}
	}
	return textLine(buf, crlf)
}

// ReportPayloadLen returns the A_R payload size for frameCount rows.
func ReportPayloadLen(frameCount int) int {
	return ReportFixedBytes + frameCount*ReportFrameBytes
}

func samplesPayloadLen(n int) int { return n }

func reportPayloadLen(n int) int { return ReportPayloadLen(n) }

// checkLead rejects a first byte that cannot begin any frame: frames start
// with printable ASCII or with the CRLF of an empty line.
func checkLead(buf []byte) (Result, bool) {
	c := buf[0]
	if c >= 0x20 && c <= 0x7e {
		return Result{}, true
	}
	if c == '\r' {
		if len(buf) < 2 {
			return Result{}, false
		}
		if buf[1] == '\n' {
			return Result{}, true
		}
	}
	return resync(fmt.Errorf("%w: frame cannot start with byte 0x%02x", protocol.ErrProtocolCorruption, c)), false
}

func textLine(buf []byte, crlf int) Result {
	return Result{
		Status: Decoded,
		Frame:  protocol.ParseLine(buf[:crlf]),
		N:      crlf + len(lineTerminator),
	}
}

func binaryFrame(buf []byte, at int, limits Limits, payloadLen func(int) int) Result {
	tag := string(buf[:at])
	fieldStart := at + 1
	second := bytes.IndexByte(buf[fieldStart:], protocol.FieldSeparator)
	if second < 0 {
		// A partial field that can never parse is rejected now; the full
		// header would resync the same way.
		if err := checkPartialField(buf[fieldStart:]); err != nil {
			return resync(fmt.Errorf("%w: %s header field: %v", protocol.ErrProtocolCorruption, tag, err))
		}
		return Result{}
	}
	second += fieldStart

	field := buf[fieldStart:second]
	n, err := parseField(field, limits.MaxPayloadBytes)
	if err != nil {
		return resync(fmt.Errorf("%w: %s header field %q: %v", protocol.ErrProtocolCorruption, tag, field, err))
	}
	size := payloadLen(n)
	if size > limits.MaxPayloadBytes {
		return resync(fmt.Errorf("%w: %s payload %d bytes: %v", protocol.ErrProtocolCorruption, tag, size, protocol.ErrPayloadTooLarge))
	}

	start := second + 1
	end := start + size
	total := end + len(binaryTerminator)
	if len(buf) < total {
		return Result{}
	}
	if !bytes.Equal(buf[end:total], binaryTerminator) {
		return resync(fmt.Errorf("%w: %s terminator %q", protocol.ErrProtocolCorruption, tag, buf[end:total]))
	}

	payload := make([]byte, size)
	copy(payload, buf[start:end])
	return Result{
		Status: Decoded,
		Frame:  protocol.BinaryFrame{Command: tag, Payload: payload},
		N:      total,
	}
}

// parseField accepts unsigned ASCII decimal only; signs, spaces and empty
// fields are corruption.
func parseField(field []byte, max int) (int, error) {
	if len(field) == 0 {
		return 0, errEmptyField
	}
	if len(field) > maxFieldDigits {
		return 0, protocol.ErrPayloadTooLarge
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return 0, errNotUnsigned
		}
	}
	n, err := strconv.Atoi(string(field))
	if err != nil {
		return 0, err
	}
	if n > max {
		return 0, protocol.ErrPayloadTooLarge
	}
	return n, nil
}

func checkPartialField(field []byte) error {
	if len(field) > maxFieldDigits {
		return protocol.ErrPayloadTooLarge
	}
	for _, c := range field {
		if c < '0' || c > '9' {
			return errNotUnsigned
		}
	}
	return nil
}

func resync(err error) Result {
	return Result{Status: Resync, N: 1, Err: err}
}
