package sloghooks

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func newBuf() (*bytes.Buffer, *slog.Logger) {
	var buf bytes.Buffer
	return &buf, slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestRedactsIDs(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{})

	h.ConflictRaised("secret-session-id", []string{"cart"})
	h.Removed("secret-session-id")

	out := buf.String()
	if strings.Contains(out, "secret-session-id") {
		t.Fatalf("raw id leaked: %s", out)
	}
	if !strings.Contains(out, "ddbsession.conflict_raised") || !strings.Contains(out, "ddbsession.removed") {
		t.Fatalf("missing events: %s", out)
	}
	if strings.Count(out, h.redact("secret-session-id")) != 2 {
		t.Fatalf("redaction not stable: %s", out)
	}
}

func TestCustomRedactAndSampling(t *testing.T) {
	buf, l := newBuf()
	h := New(l, Options{FlushEvery: 3, Redact: func(string) string { return "X" }})

	for i := 0; i < 6; i++ {
		h.Flushed("id", []string{"a"})
	}
	if n := strings.Count(buf.String(), "ddbsession.flushed"); n != 2 {
		t.Fatalf("sampled %d flush logs, want 2", n)
	}
	if !strings.Contains(buf.String(), "ns=X") {
		t.Fatalf("custom redactor unused: %s", buf.String())
	}
}

func TestNilLogger(t *testing.T) {
	h := New(nil, Options{})
	h.RecordCreated("a")
	h.Flushed("a", nil)
	h.ConflictSuppressed("a", nil)
	h.ConflictRaised("a", nil)
	h.Removed("a")
}
