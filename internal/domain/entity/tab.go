package entity

import "time"

// DefaultTabTitle is used until the host reports a real page title.
const DefaultTabTitle = "Loading..."

// TabEntry is the persisted record of one browser tab's last-known state.
// TabID is the live browser identifier and is reused by the browser over
// time; ID is synthetic and never reused.
type TabEntry struct {
	ID        string     `json:"id"`
	TabID     int        `json:"tabId"`
	WindowID  int        `json:"windowId"`
	URL       string     `json:"url"`
	Title     string     `json:"title"`
	Favicon   string     `json:"favicon,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
}

// NewTabEntry builds a TabEntry from a live tab descriptor.
func NewTabEntry(tabID, windowID int, url, title, favicon string, now time.Time) *TabEntry {
	if title == "" {
		title = DefaultTabTitle
	}
	return &TabEntry{
		ID:        NewEntryID(now),
		TabID:     tabID,
		WindowID:  windowID,
		URL:       url,
		Title:     title,
		Favicon:   favicon,
		Timestamp: now,
	}
}

// Clone returns a deep copy of the entry.
func (t *TabEntry) Clone() *TabEntry {
	if t == nil {
		return nil
	}
	clone := *t
	if t.ClosedAt != nil {
		closedAt := *t.ClosedAt
		clone.ClosedAt = &closedAt
	}
	return &clone
}

// CloneTabs deep-copies a tab slice.
func CloneTabs(tabs []*TabEntry) []*TabEntry {
	if tabs == nil {
		return nil
	}
	out := make([]*TabEntry, len(tabs))
	for i, t := range tabs {
		out[i] = t.Clone()
	}
	return out
}
