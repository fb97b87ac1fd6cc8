package log_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/yeisme/docvault/pkg/log"
)

func TestSetLevel(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.TraceLevel) })

	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"warn", zerolog.WarnLevel},
		{" DEBUG ", zerolog.DebugLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		log.SetLevel(tt.in)

		if got := zerolog.GlobalLevel(); got != tt.want {
			t.Errorf("SetLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestGinWriter(t *testing.T) {
	var buf bytes.Buffer

	l := zerolog.New(&buf)
	w := log.NewGinWriter(&l, zerolog.ErrorLevel)

	n, err := w.Write([]byte("[GIN-debug] route registered\n"))
	if err != nil || n != len("[GIN-debug] route registered\n") {
		t.Fatalf("write = %d, %v", n, err)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"error"`) || !strings.Contains(out, `"message":"[GIN-debug] route registered"`) {
		t.Fatalf("unexpected output %q", out)
	}

	buf.Reset()

	_, _ = w.Write([]byte("   \n"))

	if buf.Len() != 0 {
		t.Fatalf("blank lines should be dropped, got %q", buf.String())
	}
}
