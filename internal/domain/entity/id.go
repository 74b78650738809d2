package entity

import (
	"crypto/rand"
	"encoding/hex"
	"time"
)

// NewSessionID creates a unique session identifier.
// Format: YYYYMMDD_HHMMSS_xxxx (timestamp + 4 random hex chars)
// Example: 20251217_205106_a7b3
//
// The random suffix keeps IDs unique even when sessions are minted
// faster than the clock ticks.
func NewSessionID(now time.Time) SessionID {
	random := make([]byte, 2)
	_, _ = rand.Read(random)
	return SessionID(now.Format("20060102_150405") + "_" + hex.EncodeToString(random))
}

// NewEntryID creates a unique tab-entry identifier. Entry IDs are never
// reused, unlike live browser tab IDs.
func NewEntryID(now time.Time) string {
	random := make([]byte, 4)
	_, _ = rand.Read(random)
	return "tab_" + now.Format("20060102_150405") + "_" + hex.EncodeToString(random)
}

// ShortSessionID extracts the short ID (last 4 hex chars) from a full session ID.
// Example: "20251217_205106_a7b3" -> "a7b3"
func ShortSessionID(id SessionID) string {
	s := string(id)
	if len(s) < 4 {
		return s
	}
	return s[len(s)-4:]
}
