package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	cases := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"warn":  zapcore.WarnLevel,
		"bogus": zapcore.InfoLevel,
		"":      zapcore.InfoLevel,
	}
	for in, want := range cases {
		for _, format := range []string{"json", "console"} {
			l, err := New(in, format, "fieldops-api")
			if err != nil {
				t.Fatalf("New(%q,%q) err=%v", in, format, err)
			}
			if !l.Core().Enabled(want) || (want > zapcore.DebugLevel && l.Core().Enabled(want-1)) {
				t.Fatalf("New(%q,%q) level mismatch, want %v", in, format, want)
			}
		}
	}
}
