package slog

import (
	"bytes"
	stdslog "log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/ddbsession"
)

func TestAdapter(t *testing.T) {
	var buf bytes.Buffer
	h := stdslog.NewTextHandler(&buf, &stdslog.HandlerOptions{Level: stdslog.LevelInfo})
	l := New(stdslog.New(h))

	l.Debug("hidden", nil)
	l.Error("save failed", ddbsession.Fields{"b": 2, "a": 1})

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("debug leaked: %s", out)
	}
	if !strings.Contains(out, "level=ERROR") || !strings.Contains(out, `msg="save failed"`) {
		t.Fatalf("unexpected output: %s", out)
	}
	ia, ib := strings.Index(out, "ddbsession.a=1"), strings.Index(out, "ddbsession.b=2")
	if ia < 0 || ib < 0 || ia > ib {
		t.Fatalf("attrs missing or unsorted: %s", out)
	}
}
