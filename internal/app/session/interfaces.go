package session

import "context"

// LiveTab describes one open browser tab as reported by the host.
type LiveTab struct {
	ID       int
	WindowID int
	URL      string
	Title    string
	Favicon  string
}

// TabUpdate carries the fields of a tab-updated notification. Nil
// fields were not part of the notification and must not be touched.
type TabUpdate struct {
	URL     *string
	Title   *string
	Favicon *string
}

// TabHost is the tab capability supplied by the surrounding
// application: enumerate the open tabs of the privacy context this
// manager is bound to, and open (or navigate to) a URL inside it.
type TabHost interface {
	QueryTabs(ctx context.Context) ([]LiveTab, error)
	OpenTab(ctx context.Context, url string) error
}
