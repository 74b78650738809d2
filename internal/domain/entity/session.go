package entity

import (
	"errors"
	"strings"
	"time"
)

// SessionID uniquely identifies a tracked session.
type SessionID string

// SessionStatus tracks where a session is in its lifecycle.
// The zero value means "active" for records written before the
// status field existed.
type SessionStatus string

const (
	StatusActive SessionStatus = "active"
	StatusSaved  SessionStatus = "saved"
	StatusClosed SessionStatus = "closed"
)

// ClosedNameSuffix is the display-only marker appended to a closed
// session's name by older UI layers. It is stripped on reactivation.
const ClosedNameSuffix = " (Closed)"

// MaxClosedTabs bounds the per-session closed-tab archive.
// Insertion is newest-first; the oldest entries are evicted.
const MaxClosedTabs = 50

// Session is a named, timestamped group of tabs belonging to one
// private browsing episode.
type Session struct {
	ID         SessionID     `json:"id"`
	Name       string        `json:"name"`
	Created    time.Time     `json:"created"`
	Modified   time.Time     `json:"modified"`
	Status     SessionStatus `json:"status,omitempty"`
	ClosedAt   *time.Time    `json:"closedAt,omitempty"`
	Tabs       []*TabEntry   `json:"tabs"`
	ClosedTabs []*TabEntry   `json:"closedTabs"`
}

var ErrInvalidSession = errors.New("invalid session")

// NewSession creates an empty active session.
func NewSession(name string, now time.Time) *Session {
	return &Session{
		ID:         NewSessionID(now),
		Name:       name,
		Created:    now,
		Modified:   now,
		Status:     StatusActive,
		Tabs:       []*TabEntry{},
		ClosedTabs: []*TabEntry{},
	}
}

func (s *Session) Validate() error {
	if s == nil || s.ID == "" {
		return ErrInvalidSession
	}
	if s.Created.IsZero() {
		return ErrInvalidSession
	}
	if s.Modified.Before(s.Created) {
		return ErrInvalidSession
	}
	return nil
}

// IsActive reports whether the session is in the active state.
// A zero-value status is a legacy active record.
func (s *Session) IsActive() bool {
	return s != nil && (s.Status == "" || s.Status == StatusActive)
}

// Touch bumps the modification timestamp.
func (s *Session) Touch(now time.Time) {
	s.Modified = now
}

// Close marks the session closed. Tabs and closed tabs are preserved
// for later restoration.
func (s *Session) Close(now time.Time) {
	s.Status = StatusClosed
	closedAt := now
	s.ClosedAt = &closedAt
	s.Touch(now)
}

// MarkSaved archives the session by explicit user action.
func (s *Session) MarkSaved(now time.Time) {
	s.Status = StatusSaved
	s.Touch(now)
}

// Reactivate makes a saved or closed session active again, stripping
// the display-only closed suffix from its name.
func (s *Session) Reactivate(now time.Time) {
	s.Name = strings.TrimSuffix(s.Name, ClosedNameSuffix)
	s.Status = StatusActive
	s.ClosedAt = nil
	s.Touch(now)
}

// FindTab returns the live entry with the given browser tab ID.
func (s *Session) FindTab(tabID int) *TabEntry {
	for _, t := range s.Tabs {
		if t.TabID == tabID {
			return t
		}
	}
	return nil
}

// FindTabByURL returns the first live entry with the given URL.
func (s *Session) FindTabByURL(url string) *TabEntry {
	for _, t := range s.Tabs {
		if t.URL == url {
			return t
		}
	}
	return nil
}

// UpsertTab folds a tab entry into the live set. Deduplication is by
// live tab ID first, then by URL when dedupeByURL is set (the entry may
// predate a navigation and carry a stale tab ID). Returns true when an
// existing entry was updated in place, false when the entry was appended.
func (s *Session) UpsertTab(entry *TabEntry, dedupeByURL bool, now time.Time) bool {
	existing := s.FindTab(entry.TabID)
	if existing == nil && dedupeByURL && entry.URL != "" {
		existing = s.FindTabByURL(entry.URL)
	}
	if existing != nil {
		existing.TabID = entry.TabID
		existing.WindowID = entry.WindowID
		existing.URL = entry.URL
		if entry.Title != "" && entry.Title != DefaultTabTitle {
			existing.Title = entry.Title
		}
		if entry.Favicon != "" {
			existing.Favicon = entry.Favicon
		}
		existing.Timestamp = now
		s.Touch(now)
		return true
	}
	s.Tabs = append(s.Tabs, entry)
	s.Touch(now)
	return false
}

// ArchiveTab moves the entry with the given live tab ID from the live set
// into ClosedTabs, newest-first, bounded by MaxClosedTabs. Idempotent:
// archiving a tab that is no longer live is a no-op, so duplicate close
// notifications from the host produce a single archived record.
func (s *Session) ArchiveTab(tabID int, now time.Time) bool {
	for i, t := range s.Tabs {
		if t.TabID != tabID {
			continue
		}
		s.Tabs = append(s.Tabs[:i], s.Tabs[i+1:]...)
		closedAt := now
		t.ClosedAt = &closedAt
		s.ClosedTabs = append([]*TabEntry{t}, s.ClosedTabs...)
		if len(s.ClosedTabs) > MaxClosedTabs {
			s.ClosedTabs = s.ClosedTabs[:MaxClosedTabs]
		}
		s.Touch(now)
		return true
	}
	return false
}

// LiveTabIDs returns the set of browser tab IDs currently recorded live.
func (s *Session) LiveTabIDs() map[int]struct{} {
	ids := make(map[int]struct{}, len(s.Tabs))
	for _, t := range s.Tabs {
		ids[t.TabID] = struct{}{}
	}
	return ids
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	clone := *s
	if s.ClosedAt != nil {
		closedAt := *s.ClosedAt
		clone.ClosedAt = &closedAt
	}
	clone.Tabs = CloneTabs(s.Tabs)
	clone.ClosedTabs = CloneTabs(s.ClosedTabs)
	return &clone
}
