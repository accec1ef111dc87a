package telemetry

import (
	"math"
	"strings"
	"testing"

	"github.com/danmuck/telectl/internal/protocol"
	"github.com/danmuck/telectl/internal/protocol/frame"
	"github.com/danmuck/telectl/internal/testutil/testlog"
	"github.com/stretchr/testify/require"
)

func TestSamplesRoundTripBitExact(t *testing.T) {
	testlog.Start(t)
	in := []float64{0, 1, -1, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1), math.Copysign(0, -1)}
	out, err := DecodeSamples(EncodeSamples(in))
	require.NoError(t, err)
	require.Len(t, out, len(in))
	for i := range in {
		if math.Float64bits(in[i]) != math.Float64bits(out[i]) {
			t.Fatalf("sample %d: got bits %x want %x", i, math.Float64bits(out[i]), math.Float64bits(in[i]))
		}
	}

	nan := math.Float64frombits(0x7ff8000000000001)
	out, err = DecodeSamples(EncodeSamples([]float64{nan}))
	require.NoError(t, err)
	require.Equal(t, uint64(0x7ff8000000000001), math.Float64bits(out[0]))
}

func TestSamplesThroughFrameCodec(t *testing.T) {
	testlog.Start(t)
	in := []float64{1.5, -2.25, 1e-9}
	wire, err := protocol.Encoder{}.BinaryPush(protocol.TagSamples, EncodeSamples(in))
	require.NoError(t, err)

	res := frame.Extract(wire, frame.DefaultLimits())
	require.Equal(t, frame.Decoded, res.Status)
	msg, err := Decode(res.Frame)
	require.NoError(t, err)
	require.Equal(t, KindSamples, msg.Kind)
	require.Equal(t, in, msg.Samples)
	require.Equal(t, 24, msg.Bytes)
}

func TestSamplesPartialGroupIsWarning(t *testing.T) {
	testlog.Start(t)
	payload := append(EncodeSamples([]float64{2, 3}), 0x01, 0x02, 0x03)
	out, err := DecodeSamples(payload)
	require.ErrorIs(t, err, protocol.ErrDecodeWarning)
	require.True(t, IsWarning(err))
	require.Equal(t, []float64{2, 3}, out)

	msg, err := Decode(protocol.BinaryFrame{Command: protocol.TagSamples, Payload: payload})
	require.True(t, IsWarning(err))
	require.Equal(t, []float64{2, 3}, msg.Samples)
	require.NotEmpty(t, msg.Warning)
	require.Contains(t, Describe(msg), "[WARN]")
}

func TestReportRoundTrip(t *testing.T) {
	testlog.Start(t)
	in := Report{
		Timestamp:    -42,
		Sequence:     -3,
		FPS:          120,
		LEDLeft:      0.25,
		LEDRight:     0.125,
		TestDuration: 3.5,
		X:            []float64{1, 2},
		Y:            []float64{3, 4},
		Z:            []float64{5, 6},
		TX:           []float64{7, 8},
		TY:           []float64{9, 10},
		TZ:           []float64{11, 12},
	}
	wire, err := EncodeReportFrame(in)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(wire), "A_R@2@"))

	res := frame.Extract(wire, frame.DefaultLimits())
	require.Equal(t, frame.Decoded, res.Status)
	require.Equal(t, len(wire), res.N)
	bin := res.Frame.(protocol.BinaryFrame)
	require.Len(t, bin.Payload, 44+2*48)

	out, err := DecodeReport(bin.Payload)
	require.NoError(t, err)
	require.Equal(t, in, out)
	require.Equal(t, 2, out.FrameCount())
}

func TestReportZeroFrames(t *testing.T) {
	testlog.Start(t)
	payload, err := EncodeReport(Report{Timestamp: 99, Sequence: 1, FPS: 30})
	require.NoError(t, err)
	require.Len(t, payload, 44)

	out, err := DecodeReport(payload)
	require.NoError(t, err)
	require.Equal(t, int64(99), out.Timestamp)
	require.Equal(t, int32(1), out.Sequence)
	require.Equal(t, 30.0, out.FPS)
	for _, ch := range [][]float64{out.X, out.Y, out.Z, out.TX, out.TY, out.TZ} {
		require.Empty(t, ch)
	}
}

func TestReportFieldOffsets(t *testing.T) {
	testlog.Start(t)
	payload, err := EncodeReport(Report{
		Timestamp: 0x0102030405060708, Sequence: 0x0a0b0c0d, FPS: 1,
		X: []float64{2}, Y: []float64{3}, Z: []float64{4}, TX: []float64{5}, TY: []float64{6}, TZ: []float64{7},
	})
	require.NoError(t, err)
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, payload[0:8])
	require.Equal(t, []byte{0x0d, 0x0c, 0x0b, 0x0a}, payload[8:12])
	require.Equal(t, EncodeSamples([]float64{1}), payload[12:20])
	require.Equal(t, EncodeSamples([]float64{2, 3, 4, 5, 6, 7}), payload[44:])
}

func TestReportRejectsBadLengths(t *testing.T) {
	testlog.Start(t)
	_, err := DecodeReport(make([]byte, 43))
	require.ErrorIs(t, err, protocol.ErrTruncated)

	_, err = DecodeReport(make([]byte, 44+47))
	require.ErrorIs(t, err, protocol.ErrProtocolCorruption)

	_, err = EncodeReport(Report{X: []float64{1}})
	require.ErrorIs(t, err, protocol.ErrInvalidField)
}

func TestDecodeMarker(t *testing.T) {
	testlog.Start(t)
	msg, err := Decode(protocol.ParseLine([]byte("A_M@lap-3@")))
	require.NoError(t, err)
	require.Equal(t, KindMarker, msg.Kind)
	require.Equal(t, "lap-3", msg.Marker.ID)
	require.Equal(t, "A_M received (mark id = lap-3)", Describe(msg))

	_, err = DecodeMarker(protocol.TextFrame{Command: protocol.TagMarker})
	require.ErrorIs(t, err, protocol.ErrTruncated)

	_, err = DecodeMarker(protocol.TextFrame{Command: "P_S"})
	require.ErrorIs(t, err, protocol.ErrTagMismatch)
}

func TestDescribeText(t *testing.T) {
	testlog.Start(t)
	msg, err := Decode(protocol.TextFrame{Command: "R_C", Args: []string{"4"}})
	require.NoError(t, err)
	require.Equal(t, "RX: R_C@4", Describe(msg))
}
