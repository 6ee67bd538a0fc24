// Package ddbsession persists session namespaces into a single-hash-key table
// (DynamoDB by default) behind the open/read/write/close lifecycle that
// session middleware expects from a namespace manager.
//
// Components:
//   - Namespace: map-like view of one item, fetched on Open and flushed on Close.
//   - store.Store: the remote table (store/dynamo, store/redis, store/memory),
//     optionally fronted by store/cached.
//   - Logger / Hooks: pluggable logging and high-signal events.
//
// Lifecycle:
//
//	ns := backend.Namespace(sessionID)
//	_ = ns.Open(ctx, ddbsession.ModeWrite, false) // fetch or start {id: sessionID}
//	_ = ns.Set("session", map[string]any{"user": 42, "_accessed_time": now})
//	err := ns.Close(ctx) // partial save, guarded by the values seen on Open
//
// Close only writes attributes that changed. Every changed attribute is
// expected to still hold the value read on Open; if another writer got there
// first the save fails. When the only changed attribute is the last-accessed
// timestamp the conflict is ignored, otherwise Close returns *ConflictError.
//
// Locks are no-ops: the only protection against concurrent writers is the
// conditional write at Close.
package ddbsession
