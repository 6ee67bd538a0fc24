// Package zap adapts a *zap.Logger to ddbsession.Logger.
package zap

import (
	"slices"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/ddbsession"
)

var _ ddbsession.Logger = Logger{}

// Logger writes through L. Fields are emitted in key order.
type Logger struct{ L *zap.Logger }

// New names the logger "ddbsession".
func New(l *zap.Logger) Logger { return Logger{L: l.Named("ddbsession")} }

func (z Logger) Debug(msg string, f ddbsession.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f ddbsession.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f ddbsession.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f ddbsession.Fields) { z.L.Error(msg, fields(f)...) }

func fields(f ddbsession.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
