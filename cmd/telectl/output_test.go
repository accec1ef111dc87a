package main

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/danmuck/telectl/internal/protocol"
	"github.com/danmuck/telectl/internal/protocol/frame"
	"github.com/danmuck/telectl/internal/protocol/telemetry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func markerMessage(t *testing.T) telemetry.Message {
	t.Helper()
	msg, err := telemetry.Decode(protocol.TextFrame{Command: "A_M", Args: []string{"lap-3"}})
	require.NoError(t, err)
	return msg
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "text", "JSON", "yaml"} {
		_, err := newFormatter(name)
		require.NoError(t, err, name)
	}
	_, err := newFormatter("xml")
	require.Error(t, err)
}

func TestTextFormatter(t *testing.T) {
	out := textFormatter{}.Format(markerMessage(t))
	require.Equal(t, "A_M received (mark id = lap-3)\n", out)
}

func TestJSONFormatterOneObjectPerLine(t *testing.T) {
	out := jsonFormatter{}.Format(markerMessage(t))
	require.True(t, strings.HasSuffix(out, "\n"))
	require.Equal(t, 1, strings.Count(out, "\n"))

	var got telemetry.Message
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Equal(t, "marker", got.Kind)
	require.Equal(t, "lap-3", got.Marker.ID)
}

func TestYAMLFormatterDocuments(t *testing.T) {
	samples, err := telemetry.Decode(protocol.BinaryFrame{
		Command: protocol.TagSamples,
		Payload: telemetry.EncodeSamples([]float64{1, 2}),
	})
	require.NoError(t, err)

	out := yamlFormatter{}.Format(samples)
	require.True(t, strings.HasPrefix(out, "---\n"))

	var got telemetry.Message
	require.NoError(t, yaml.Unmarshal([]byte(strings.TrimPrefix(out, "---\n")), &got))
	require.Equal(t, []float64{1, 2}, got.Samples)
	require.Equal(t, 16, got.Bytes)
}

func TestDecodeStream(t *testing.T) {
	data := []byte("\x00P_S\r\nA_M@7@\r\nA_D@8@")
	var out, errOut strings.Builder
	decodeStream(data, frame.DefaultLimits(), textFormatter{}, &out, &errOut)

	require.Equal(t, "RX: P_S\nA_M received (mark id = 7)\n", out.String())
	require.Equal(t, "frames=2 dropped=1 trailing=6\n", errOut.String())
}

func decodeWarningCount(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != "telectl_codec_decode_warnings_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestDecodeStreamCountsPayloadWarnings(t *testing.T) {
	before := decodeWarningCount(t)
	var out, errOut strings.Builder
	decodeStream([]byte("A_D@3@abc@\r\n"), frame.DefaultLimits(), textFormatter{}, &out, &errOut)

	require.Equal(t, "frames=1 dropped=0 trailing=0\n", errOut.String())
	require.Equal(t, before+1, decodeWarningCount(t))
}
