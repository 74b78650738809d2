package session

import (
	"context"
	"time"

	"github.com/bnema/shadowtab/internal/domain/entity"
	urlx "github.com/bnema/shadowtab/internal/domain/url"
)

// Reconcile brings the persisted record back in line with the host's
// actual tab state. It is the backstop for missed or dropped events:
// when no content tabs remain the current session is closed, and tabs
// the session never saw are folded in. Individual event handlers stay
// cheap because this loop repairs whatever they miss.
func (m *Manager) Reconcile(ctx context.Context) error {
	if m.host == nil {
		return nil
	}
	live, err := m.host.QueryTabs(ctx)
	if err != nil {
		return err
	}

	content := live[:0:0]
	for _, tab := range live {
		if urlx.IsContentURL(tab.URL) {
			content = append(content, tab)
		}
	}

	if len(content) == 0 {
		return m.closeCurrentIfAny(ctx)
	}

	if _, err := m.EnsureActiveSession(ctx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	return m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, nil
		}
		now := m.now()
		changed := false
		recorded := sess.LiveTabIDs()
		for _, tab := range content {
			if _, ok := recorded[tab.ID]; ok && m.isKnownTab(tab.ID) {
				continue
			}
			// Any fold-in mutates the record, whether the upsert
			// appended a new entry or refreshed an existing one.
			entry := entity.NewTabEntry(tab.ID, tab.WindowID, tab.URL, tab.Title, tab.Favicon, now)
			sess.UpsertTab(entry, m.settings.DeduplicateTabs, now)
			m.trackTab(tab.ID)
			changed = true
		}
		return changed, nil
	})
}

// closeCurrentIfAny closes the current session when the privacy context
// has emptied out. No current session is a no-op, not an error.
func (m *Manager) closeCurrentIfAny(ctx context.Context) error {
	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, nil
		}
		sess.Close(m.now())
		store.CurrentSessionID = ""
		m.current = ""
		m.log.Info().
			Str("session_id", string(sess.ID)).
			Msg("all tabs gone, session closed by reconciliation")
		return true, nil
	})
}

// Run drives the reconciliation and retention loops until the context
// is cancelled. Interval zero uses the default.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info().Dur("interval", interval).Msg("reconciliation loop started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info().Msg("reconciliation loop stopped")
			return
		case <-ticker.C:
			if err := m.Reconcile(ctx); err != nil {
				m.log.Error().Err(err).Msg("reconciliation pass failed")
			}
			if _, err := m.Sweep(ctx); err != nil {
				m.log.Error().Err(err).Msg("retention sweep failed")
			}
		}
	}
}
