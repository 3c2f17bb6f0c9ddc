package util

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"time"
)

// NewID returns a 24-character hex identifier shaped like a document-store
// object ID: a 4-byte big-endian Unix timestamp followed by 8 random bytes.
// A non-empty prefix is prepended with an underscore.
func NewID(prefix string) string {
	return newIDAt(prefix, time.Now())
}

func newIDAt(prefix string, now time.Time) string {
	raw := make([]byte, 12)
	binary.BigEndian.PutUint32(raw[:4], uint32(now.Unix()))
	_, _ = rand.Read(raw[4:])
	id := hex.EncodeToString(raw)
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}
