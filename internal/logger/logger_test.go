package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew(t *testing.T) {
	log := New()
	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected logger to be enabled")
	}
}

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	log.Info().Msg("staging archive")

	if !strings.Contains(buf.String(), "staging archive") {
		t.Errorf("Expected output to contain 'staging archive', got: %s", buf.String())
	}
}

func TestNewWithConfig(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		format  string
		wantErr bool
		want    zerolog.Level
	}{
		{name: "defaults", want: zerolog.InfoLevel},
		{name: "debug json", level: "debug", format: "json", want: zerolog.DebugLevel},
		{name: "upper case level", level: "WARN", format: "console", want: zerolog.WarnLevel},
		{name: "bad level", level: "loud", wantErr: true},
		{name: "bad format", format: "xml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewWithConfig(&bytes.Buffer{}, tt.level, tt.format)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewWithConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && log.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", log.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewWithConfigJSONFiltersLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithConfig(buf, "warn", FormatJSON)
	if err != nil {
		t.Fatal(err)
	}

	log.Info().Msg("hidden")
	log.Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered at warn level: %s", out)
	}
	if !strings.Contains(out, `"message":"shown"`) {
		t.Errorf("expected JSON warn message, got: %s", out)
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := FromContext(ctx)
	log.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_DefaultLogger(t *testing.T) {
	log := FromContext(context.Background())

	if log.GetLevel() == zerolog.Disabled {
		t.Error("Expected default logger to be enabled")
	}
}

func TestComponent(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf))

	log := Component(ctx, "stager")
	log.Info().Msg("extracting")

	if !strings.Contains(buf.String(), `"component":"stager"`) {
		t.Errorf("Expected component field, got: %s", buf.String())
	}
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf)

	logWithFields := WithFields(log, map[string]interface{}{
		"table": "cows",
		"rows":  8,
	})
	logWithFields.Info().Msg("written")

	output := buf.String()
	if !strings.Contains(output, `"table":"cows"`) {
		t.Errorf("Expected output to contain table field, got: %s", output)
	}
	if !strings.Contains(output, `"rows":8`) {
		t.Errorf("Expected output to contain rows field, got: %s", output)
	}
}
