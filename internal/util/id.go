package util

import (
	"crypto/rand"
	"encoding/hex"
)

// NewID returns a 32-character random hex ID. Used for request ids and
// queue consumer names; job ids come from the job ledger instead.
func NewID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
