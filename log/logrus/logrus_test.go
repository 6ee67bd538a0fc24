package logrus

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"github.com/unkn0wn-root/ddbsession"
)

func TestAdapter(t *testing.T) {
	base, hook := test.NewNullLogger()
	base.SetLevel(logrus.InfoLevel)
	l := New(base)

	l.Debug("dropped", ddbsession.Fields{"x": 1})
	l.Warn("conflict", ddbsession.Fields{"attr": "_accessed_time"})

	if n := len(hook.AllEntries()); n != 1 {
		t.Fatalf("got %d entries, want 1", n)
	}
	e := hook.LastEntry()
	if e.Level != logrus.WarnLevel || e.Message != "conflict" {
		t.Fatalf("entry = %v %q", e.Level, e.Message)
	}
	if e.Data["attr"] != "_accessed_time" || e.Data["component"] != "ddbsession" {
		t.Fatalf("data = %v", e.Data)
	}
}
