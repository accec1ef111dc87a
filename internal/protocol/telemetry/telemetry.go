package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/danmuck/telectl/internal/protocol"
	"github.com/danmuck/telectl/internal/protocol/frame"
)

// Report is a decoded A_R payload. The six channel slices share one length.
type Report struct {
	Timestamp    int64     `json:"timestamp" yaml:"timestamp"`
	Sequence     int32     `json:"sequence" yaml:"sequence"`
	FPS          float64   `json:"fps" yaml:"fps"`
	LEDLeft      float64   `json:"led_left" yaml:"led_left"`
	LEDRight     float64   `json:"led_right" yaml:"led_right"`
	TestDuration float64   `json:"test_duration" yaml:"test_duration"`
	X            []float64 `json:"x" yaml:"x"`
	Y            []float64 `json:"y" yaml:"y"`
	Z            []float64 `json:"z" yaml:"z"`
	TX           []float64 `json:"tx" yaml:"tx"`
	TY           []float64 `json:"ty" yaml:"ty"`
	TZ           []float64 `json:"tz" yaml:"tz"`
}

// FrameCount is the number of rows in each channel.
func (r Report) FrameCount() int {
	return len(r.X)
}

func (r Report) channels() [6][]float64 {
	return [6][]float64{r.X, r.Y, r.Z, r.TX, r.TY, r.TZ}
}

// DecodeReport decodes an A_R payload. The frame count is implied by the
// payload length.
func DecodeReport(payload []byte) (Report, error) {
	if len(payload) < frame.ReportFixedBytes {
		return Report{}, fmt.Errorf("%w: A_R payload %d bytes, need at least %d", protocol.ErrTruncated, len(payload), frame.ReportFixedBytes)
	}
	rows := len(payload) - frame.ReportFixedBytes
	if rows%frame.ReportFrameBytes != 0 {
		return Report{}, fmt.Errorf("%w: A_R payload %d bytes is not 44+48k", protocol.ErrProtocolCorruption, len(payload))
	}
	k := rows / frame.ReportFrameBytes

	r := Report{
		Timestamp:    int64(binary.LittleEndian.Uint64(payload[0:8])),
		Sequence:     int32(binary.LittleEndian.Uint32(payload[8:12])),
		FPS:          readFloat(payload[12:20]),
		LEDLeft:      readFloat(payload[20:28]),
		LEDRight:     readFloat(payload[28:36]),
		TestDuration: readFloat(payload[36:44]),
	}
	off := frame.ReportFixedBytes
	next := func() []float64 {
		out := make([]float64, k)
		for i := range out {
			out[i] = readFloat(payload[off : off+8])
			off += 8
		}
		return out
	}
	r.X = next()
	r.Y = next()
	r.Z = next()
	r.TX = next()
	r.TY = next()
	r.TZ = next()
	return r, nil
}

// EncodeReport is the inverse of DecodeReport.
func EncodeReport(r Report) ([]byte, error) {
	k := r.FrameCount()
	for i, ch := range r.channels() {
		if len(ch) != k {
			return nil, fmt.Errorf("%w: channel %d has %d rows, want %d", protocol.ErrInvalidField, i, len(ch), k)
		}
	}
	out := make([]byte, frame.ReportPayloadLen(k))
	binary.LittleEndian.PutUint64(out[0:8], uint64(r.Timestamp))
	binary.LittleEndian.PutUint32(out[8:12], uint32(r.Sequence))
	putFloat(out[12:20], r.FPS)
	putFloat(out[20:28], r.LEDLeft)
	putFloat(out[28:36], r.LEDRight)
	putFloat(out[36:44], r.TestDuration)
	off := frame.ReportFixedBytes
	for _, ch := range r.channels() {
		for _, v := range ch {
			putFloat(out[off:off+8], v)
			off += 8
		}
	}
	return out, nil
}

// EncodeReportFrame wraps an encoded report in A_R@k@...@\r\n.
func EncodeReportFrame(r Report) ([]byte, error) {
	payload, err := EncodeReport(r)
	if err != nil {
		return nil, err
	}
	header := fmt.Sprintf("%s@%d@", protocol.TagReport, r.FrameCount())
	out := make([]byte, 0, len(header)+len(payload)+len(protocol.BinaryTerminator))
	out = append(out, header...)
	out = append(out, payload...)
	return append(out, protocol.BinaryTerminator...), nil
}

// DecodeSamples decodes an A_D payload. A length that is not a multiple of 8
// still yields every complete sample, together with an error wrapping
// protocol.ErrDecodeWarning.
func DecodeSamples(payload []byte) ([]float64, error) {
	out := make([]float64, len(payload)/8)
	for i := range out {
		out[i] = readFloat(payload[i*8 : i*8+8])
	}
	if rem := len(payload) % 8; rem != 0 {
		return out, fmt.Errorf("%w: A_D payload %d bytes is not a multiple of 8 (%d trailing)", protocol.ErrDecodeWarning, len(payload), rem)
	}
	return out, nil
}

// EncodeSamples is the inverse of DecodeSamples.
func EncodeSamples(samples []float64) []byte {
	out := make([]byte, len(samples)*8)
	for i, v := range samples {
		putFloat(out[i*8:i*8+8], v)
	}
	return out
}

func readFloat(b []byte) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}

func putFloat(b []byte, v float64) {
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}
