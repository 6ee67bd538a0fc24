// Package sloghooks logs ddbsession.Hooks events to a *slog.Logger.
// Namespace ids are session ids, so they are redacted before logging.
package sloghooks

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/ddbsession"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	FlushEvery   uint64
	CreatedEvery uint64
	// Optional id redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	flushCtr   atomic.Uint64
	createdCtr atomic.Uint64
}

var _ ddbsession.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(id string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(id)
	}
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) RecordCreated(ns string) {
	if h.l == nil || !sample(h.opts.CreatedEvery, &h.createdCtr) {
		return
	}
	h.l.Debug("ddbsession.record_created", "ns", h.redact(ns))
}

func (h *Hooks) Flushed(ns string, changed []string) {
	if h.l == nil || !sample(h.opts.FlushEvery, &h.flushCtr) {
		return
	}
	h.l.Debug("ddbsession.flushed",
		"ns", h.redact(ns),
		"changed", changed)
}

func (h *Hooks) ConflictSuppressed(ns string, changed []string) {
	if h.l == nil {
		return
	}
	h.l.Info("ddbsession.conflict_suppressed",
		"ns", h.redact(ns),
		"changed", changed)
}

func (h *Hooks) ConflictRaised(ns string, changed []string) {
	if h.l == nil {
		return
	}
	h.l.Warn("ddbsession.conflict_raised",
		"ns", h.redact(ns),
		"changed", changed)
}

func (h *Hooks) Removed(ns string) {
	if h.l == nil {
		return
	}
	h.l.Info("ddbsession.removed", "ns", h.redact(ns))
}
