package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/danmuck/telectl/internal/protocol/telemetry"
	"gopkg.in/yaml.v3"
)

// formatter renders one decoded message, including its trailing newline.
type formatter interface {
	Format(m telemetry.Message) string
}

func newFormatter(format string) (formatter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text":
		return textFormatter{}, nil
	case "json":
		return jsonFormatter{}, nil
	case "yaml":
		return yamlFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

type textFormatter struct{}

func (textFormatter) Format(m telemetry.Message) string {
	return telemetry.Describe(m) + "\n"
}

// jsonFormatter writes one object per line.
type jsonFormatter struct{}

func (jsonFormatter) Format(m telemetry.Message) string {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprintf("{\"error\":%q}\n", err.Error())
	}
	return string(b) + "\n"
}

// yamlFormatter writes one document per message.
type yamlFormatter struct{}

func (yamlFormatter) Format(m telemetry.Message) string {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Sprintf("---\nerror: %q\n", err.Error())
	}
	return "---\n" + string(b)
}
