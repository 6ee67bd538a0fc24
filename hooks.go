package ddbsession

// Hooks are lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they run inline in Open/Close.
// Namespace ids are usually session ids: treat them as secrets.
type Hooks interface {
	// Open found no stored item and started a fresh one.
	RecordCreated(namespace string)

	// Close persisted the listed attributes.
	Flushed(namespace string, changed []string)

	// Close hit a conflict but only the housekeeping attribute had changed.
	ConflictSuppressed(namespace string, changed []string)

	// Close hit a conflict on real data and returned *ConflictError.
	ConflictRaised(namespace string, changed []string)

	// Remove deleted the stored item.
	Removed(namespace string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) RecordCreated(string)                {}
func (NopHooks) Flushed(string, []string)            {}
func (NopHooks) ConflictSuppressed(string, []string) {}
func (NopHooks) ConflictRaised(string, []string)     {}
func (NopHooks) Removed(string)                      {}
