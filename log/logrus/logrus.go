// Package logrus adapts a *logrus.Entry to ddbsession.Logger.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/unkn0wn-root/ddbsession"
)

var _ ddbsession.Logger = Logger{}

type Logger struct{ E *logrus.Entry }

// New tags every entry with component=ddbsession.
func New(l *logrus.Logger) Logger {
	return Logger{E: l.WithField("component", "ddbsession")}
}

func (l Logger) Debug(msg string, f ddbsession.Fields) { l.log(logrus.DebugLevel, msg, f) }
func (l Logger) Info(msg string, f ddbsession.Fields)  { l.log(logrus.InfoLevel, msg, f) }
func (l Logger) Warn(msg string, f ddbsession.Fields)  { l.log(logrus.WarnLevel, msg, f) }
func (l Logger) Error(msg string, f ddbsession.Fields) { l.log(logrus.ErrorLevel, msg, f) }

func (l Logger) log(lvl logrus.Level, msg string, f ddbsession.Fields) {
	if !l.E.Logger.IsLevelEnabled(lvl) {
		return
	}
	e := l.E
	if len(f) > 0 {
		e = e.WithFields(logrus.Fields(f))
	}
	e.Log(lvl, msg)
}
