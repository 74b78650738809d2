package session

import (
	"context"
	"time"

	"github.com/bnema/shadowtab/internal/domain/entity"
	urlx "github.com/bnema/shadowtab/internal/domain/url"
)

// AddTabToSession records a tab in the active session, creating the
// session first if none exists. Dedupe-by-URL follows settings.
func (m *Manager) AddTabToSession(ctx context.Context, tab LiveTab) error {
	if _, err := m.EnsureActiveSession(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, entity.ErrSessionNotFound
		}
		now := m.now()
		entry := entity.NewTabEntry(tab.ID, tab.WindowID, tab.URL, tab.Title, tab.Favicon, now)
		sess.UpsertTab(entry, m.settings.DeduplicateTabs, now)
		return true, nil
	})
	if err != nil {
		return err
	}
	m.trackTab(tab.ID)
	return nil
}

// UpdateTabInSession merges the non-nil fields of an update into the
// matching tab record. A tab that is not part of the current session is
// a soft no-op: the event raced a removal or belongs to another context.
func (m *Manager) UpdateTabInSession(ctx context.Context, tabID int, update TabUpdate) error {
	_, err := m.updateTab(ctx, tabID, update)
	return err
}

func (m *Manager) updateTab(ctx context.Context, tabID int, update TabUpdate) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, nil
		}
		tab := sess.FindTab(tabID)
		if tab == nil {
			return false, nil
		}
		found = true
		if update.URL != nil {
			tab.URL = *update.URL
		}
		if update.Title != nil {
			tab.Title = *update.Title
		}
		if update.Favicon != nil {
			tab.Favicon = *update.Favicon
		}
		sess.Touch(m.now())
		return true, nil
	})
	return found, err
}

// MoveTabToClosedTabs archives a live tab into the session's closed-tab
// list. Unknown tabs are a soft no-op; archiving is idempotent.
func (m *Manager) MoveTabToClosedTabs(ctx context.Context, tabID int) error {
	m.cancelPending(tabID)
	m.untrackTab(tabID)

	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, nil
		}
		if !sess.ArchiveTab(tabID, m.now()) {
			return false, nil
		}
		m.log.Debug().
			Str("session_id", string(sess.ID)).
			Int("tab_id", tabID).
			Msg("tab moved to closed tabs")
		return true, nil
	})
}

// OnTabCreated handles a tab-created notification from the host.
// System URLs never start or join a session. The write is debounced so
// the immediate navigation burst after creation costs one save.
func (m *Manager) OnTabCreated(ctx context.Context, tab LiveTab) {
	if urlx.IsSystemURL(tab.URL) {
		return
	}
	m.scheduleTabSave(tab.ID, func() {
		if err := m.AddTabToSession(ctx, tab); err != nil {
			m.log.Error().Err(err).Int("tab_id", tab.ID).Msg("failed to record created tab")
		}
	})
}

// OnTabUpdated handles a tab-updated notification. Updates for a tab
// the session never recorded upgrade to an add when the new URL is
// content: hosts deliver update events for tabs created before we were
// listening.
func (m *Manager) OnTabUpdated(ctx context.Context, tab LiveTab, update TabUpdate) {
	m.scheduleTabSave(tab.ID, func() {
		found, err := m.updateTab(ctx, tab.ID, update)
		if err != nil {
			m.log.Error().Err(err).Int("tab_id", tab.ID).Msg("failed to update tab record")
			return
		}
		if found || urlx.IsSystemURL(tab.URL) {
			return
		}
		if err := m.AddTabToSession(ctx, tab); err != nil {
			m.log.Error().Err(err).Int("tab_id", tab.ID).Msg("failed to record updated tab")
		}
	})
}

// OnTabRemoved handles a tab-removed notification. Any pending
// debounced write for the tab is cancelled, then the tab is archived
// immediately; a removal must never lose to a stale save.
func (m *Manager) OnTabRemoved(ctx context.Context, tabID int) {
	if err := m.MoveTabToClosedTabs(ctx, tabID); err != nil {
		m.log.Error().Err(err).Int("tab_id", tabID).Msg("failed to archive removed tab")
	}
}

// scheduleTabSave debounces fn for tabID, replacing any pending timer
// for the same tab. Events for different tabs never delay each other.
func (m *Manager) scheduleTabSave(tabID int, fn func()) {
	m.tabMu.Lock()
	defer m.tabMu.Unlock()

	if t, ok := m.saveTimers[tabID]; ok {
		t.Stop()
	}
	m.saveTimers[tabID] = time.AfterFunc(m.debounceDelay, func() {
		m.tabMu.Lock()
		delete(m.saveTimers, tabID)
		m.tabMu.Unlock()
		fn()
	})
}

func (m *Manager) cancelPending(tabID int) {
	m.tabMu.Lock()
	defer m.tabMu.Unlock()

	if t, ok := m.saveTimers[tabID]; ok {
		t.Stop()
		delete(m.saveTimers, tabID)
	}
}
