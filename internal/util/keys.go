package util

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/unkn0wn-root/ddbsession/store"
)

// RecordKey returns "<prefix>:<sha256(name=value)>" so raw namespace ids
// (usually session ids) never appear in shared cache keyspaces.
func RecordKey(prefix string, k store.Key) string {
	sum := sha256.Sum256([]byte(k.String()))
	return prefix + ":" + hex.EncodeToString(sum[:])
}
