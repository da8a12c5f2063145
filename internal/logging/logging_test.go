package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/KaramelBytes/serpdiff/internal/logging"
	"github.com/rs/zerolog"
)

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("warn", true, &buf)
	log.Info().Msg("hidden")
	log.Warn().Str("labels", "A/B").Msg("shown")

	var entry map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry); err != nil {
		t.Fatalf("expected one json line, got %q: %v", buf.String(), err)
	}
	if entry["message"] != "shown" || entry["labels"] != "A/B" || entry["level"] != "warn" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	log := logging.New("debug", false, &buf)
	log.Debug().Msg("dataset loaded")
	if !bytes.Contains(buf.Bytes(), []byte("dataset loaded")) {
		t.Fatalf("console output missing message: %q", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"":      zerolog.InfoLevel,
		"DEBUG": zerolog.DebugLevel,
		"trace": zerolog.TraceLevel,
		"error": zerolog.ErrorLevel,
		"loud":  zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := logging.ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
