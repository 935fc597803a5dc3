package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestInitWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Format: "json", Output: &buf})
	defer Init(DefaultConfig())

	Info().Uint64("conn_id", 7).Msg("accepted")

	out := buf.String()
	if !strings.Contains(out, `"conn_id":7`) || !strings.Contains(out, `"level":"info"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "warn", Output: &buf})
	defer Init(DefaultConfig())

	Info().Msg("hidden")
	Warn().Msg("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("output: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARN":    zerolog.WarnLevel,
		"warning": zerolog.WarnLevel,
		"bogus":   zerolog.InfoLevel,
		"":        zerolog.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("Error") {
		t.Error("ValidLevel mismatch")
	}
}

func TestPreview(t *testing.T) {
	long := strings.Repeat("x", 250)
	if got := Preview([]byte(long)); len(got) != PreviewLimit {
		t.Errorf("preview len = %d", len(got))
	}
	if got := Preview([]byte("short")); got != "short" {
		t.Errorf("preview = %q", got)
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: "debug", Output: &buf})
	defer Init(DefaultConfig())

	l := NewSlogLogger().WithGroup("sup")
	l.Warn("restarting", slog.Int("failures", 2))

	out := buf.String()
	for _, want := range []string{`"level":"warn"`, `"sup.failures":2`, `"message":"restarting"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in %s", want, out)
		}
	}
}
