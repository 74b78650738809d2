package session

import (
	"context"
	"fmt"
	"time"

	"github.com/bnema/shadowtab/internal/domain/entity"
	urlx "github.com/bnema/shadowtab/internal/domain/url"
)

// EnsureActiveSession returns the current session ID if it still
// resolves to an existing session, creating a new session otherwise.
// Concurrent callers discovering the same "no active session" moment
// share a single in-flight creation: at most one session is created.
func (m *Manager) EnsureActiveSession(ctx context.Context) (entity.SessionID, error) {
	if id, err := m.resolveActive(ctx); err != nil {
		return "", err
	} else if id != "" {
		return id, nil
	}

	v, err, _ := m.creating.Do(creationKey, func() (interface{}, error) {
		// Re-check inside the flight: a racing caller may have created
		// the session while this one waited for the slot.
		if id, err := m.resolveActive(ctx); err != nil {
			return nil, err
		} else if id != "" {
			return id, nil
		}
		return m.CreateNewSession(ctx, "")
	})
	if err != nil {
		return "", err
	}
	return v.(entity.SessionID), nil
}

func (m *Manager) resolveActive(ctx context.Context) (entity.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == "" {
		return "", nil
	}
	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		return "", err
	}
	if sess := m.currentSession(store); sess != nil {
		return sess.ID, nil
	}
	return "", nil
}

// CreateNewSession mints a new session, seeds it from the host's open
// tabs (system URLs excluded), prepends it newest-first with the
// MaxSessions cap applied, and makes it current in storage and memory.
func (m *Manager) CreateNewSession(ctx context.Context, name string) (entity.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	sess := entity.NewSession(name, now)

	if m.host != nil {
		live, err := m.host.QueryTabs(ctx)
		if err != nil {
			m.log.Warn().Err(err).Msg("failed to query open tabs while seeding session")
		}
		for _, tab := range live {
			if urlx.IsSystemURL(tab.URL) {
				continue
			}
			entry := entity.NewTabEntry(tab.ID, tab.WindowID, tab.URL, tab.Title, tab.Favicon, now)
			sess.UpsertTab(entry, m.settings.DeduplicateTabs, now)
			m.trackTab(tab.ID)
		}
	}

	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		store.Prepend(sess, m.settings.MaxSessions)
		store.CurrentSessionID = sess.ID
		return true, nil
	})
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	m.current = sess.ID

	m.log.Info().
		Str("session_id", string(sess.ID)).
		Int("seeded_tabs", len(sess.Tabs)).
		Msg("session created")
	return sess.ID, nil
}

// CloseSession marks a session closed, preserving its tabs and closed
// tabs for later restoration. Closing the current session vacates the
// current pointer so the next tab starts a fresh session.
func (m *Manager) CloseSession(ctx context.Context, id entity.SessionID) error {
	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := store.Find(id)
		if sess == nil {
			return false, entity.ErrSessionNotFound
		}
		sess.Close(m.now())
		if store.CurrentSessionID == id {
			store.CurrentSessionID = ""
		}
		if m.current == id {
			m.current = ""
		}
		m.log.Info().Str("session_id", string(id)).Msg("session closed")
		return true, nil
	})
}

// ManualSaveSession archives the current session by explicit user
// action. Like CloseSession it vacates the current pointer; only the
// status label and caller intent differ.
func (m *Manager) ManualSaveSession(ctx context.Context) error {
	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := m.currentSession(store)
		if sess == nil {
			return false, entity.ErrSessionNotFound
		}
		sess.MarkSaved(m.now())
		store.CurrentSessionID = ""
		m.current = ""
		m.log.Info().Str("session_id", string(sess.ID)).Msg("session saved")
		return true, nil
	})
}

// DeleteSession removes a session record entirely.
func (m *Manager) DeleteSession(ctx context.Context, id entity.SessionID) error {
	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		if !store.Remove(id) {
			return false, entity.ErrSessionNotFound
		}
		if m.current == id {
			m.current = ""
		}
		m.log.Info().Str("session_id", string(id)).Msg("session deleted")
		return true, nil
	})
}

// RenameSession updates a session's display label.
func (m *Manager) RenameSession(ctx context.Context, id entity.SessionID, newName string) error {
	return m.mutate(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := store.Find(id)
		if sess == nil {
			return false, entity.ErrSessionNotFound
		}
		sess.Name = newName
		sess.Touch(m.now())
		return true, nil
	})
}

// SwitchToSession makes an existing session current, reactivating it.
// Switching to the session that is already current is a caller bug and
// returns ErrSessionAlreadyActive.
func (m *Manager) SwitchToSession(ctx context.Context, id entity.SessionID) (entity.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		sess := store.Find(id)
		if sess == nil {
			return false, entity.ErrSessionNotFound
		}
		if store.CurrentSessionID == id {
			return false, entity.ErrSessionAlreadyActive
		}
		sess.Reactivate(m.now())
		store.CurrentSessionID = id
		return true, nil
	})
	if err != nil {
		return "", err
	}
	m.current = id
	m.log.Info().Str("session_id", string(id)).Msg("switched to session")
	return id, nil
}

// RestoredSession is the payload a caller needs to actually reopen a
// session's tabs. Opening tabs is a host-side effect outside the core.
type RestoredSession struct {
	SessionID entity.SessionID   `json:"sessionId"`
	Name      string             `json:"name"`
	Created   time.Time          `json:"created"`
	Modified  time.Time          `json:"modified"`
	Tabs      []*entity.TabEntry `json:"tabs"`
}

// RestoreSession validates and reactivates a session for restoration
// and returns its tab list. The stored session's tabs are returned as
// copies and are never cleared or repopulated by the restore itself.
func (m *Manager) RestoreSession(ctx context.Context, id entity.SessionID) (*RestoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var restored *RestoredSession
	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		sess, err := validateRestorable(store, id)
		if err != nil {
			return false, err
		}
		sess.Reactivate(m.now())
		store.CurrentSessionID = id
		restored = restoredFrom(sess)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	m.current = id
	m.log.Info().
		Str("session_id", string(id)).
		Int("tab_count", len(restored.Tabs)).
		Msg("session restored")
	return restored, nil
}

// GetSessionForRestoration runs the same validation as RestoreSession
// but is read-only: no mutation, no switch. Lets a caller preview
// before committing.
func (m *Manager) GetSessionForRestoration(ctx context.Context, id entity.SessionID) (*RestoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		return nil, err
	}
	sess, err := validateRestorable(store, id)
	if err != nil {
		return nil, err
	}
	return restoredFrom(sess), nil
}

func validateRestorable(store *entity.SessionStore, id entity.SessionID) (*entity.Session, error) {
	sess := store.Find(id)
	if sess == nil {
		return nil, entity.ErrSessionNotFound
	}
	if store.CurrentSessionID == id {
		return nil, entity.ErrSessionAlreadyActive
	}
	if len(sess.Tabs) == 0 {
		return nil, entity.ErrSessionEmpty
	}
	return sess, nil
}

func restoredFrom(sess *entity.Session) *RestoredSession {
	return &RestoredSession{
		SessionID: sess.ID,
		Name:      sess.Name,
		Created:   sess.Created,
		Modified:  sess.Modified,
		Tabs:      entity.CloneTabs(sess.Tabs),
	}
}

// RestoreClosedTabs asks the host to reopen every archived tab of a
// session. The archive itself is left intact; the reopened tabs flow
// back in through normal tab-created events.
func (m *Manager) RestoreClosedTabs(ctx context.Context, id entity.SessionID) error {
	m.mu.Lock()
	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	sess := store.Find(id)
	if sess == nil {
		m.mu.Unlock()
		return entity.ErrSessionNotFound
	}
	archived := make([]string, 0, len(sess.ClosedTabs))
	for _, t := range sess.ClosedTabs {
		archived = append(archived, t.URL)
	}
	urls := urlx.ContentURLs(archived)
	m.mu.Unlock()

	if m.host == nil {
		return fmt.Errorf("no tab host available to reopen tabs")
	}
	for _, u := range urls {
		if err := m.host.OpenTab(ctx, u); err != nil {
			m.log.Warn().Err(err).Str("url", u).Msg("failed to reopen closed tab")
		}
	}
	m.log.Info().Str("session_id", string(id)).Int("tab_count", len(urls)).Msg("closed tabs reopened")
	return nil
}

// ListSessions returns a snapshot of the whole record for display.
func (m *Manager) ListSessions(ctx context.Context) (*entity.SessionStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		return nil, err
	}
	return store.Clone(), nil
}

// ExportStore returns the full persisted record.
func (m *Manager) ExportStore(ctx context.Context) (*entity.SessionStore, error) {
	return m.ListSessions(ctx)
}

// ImportStore overwrites the persisted record wholesale and adopts its
// current-session pointer.
func (m *Manager) ImportStore(ctx context.Context, store *entity.SessionStore) error {
	if store == nil {
		return entity.ErrInvalidStore
	}
	store.Normalize()
	for _, sess := range store.Sessions {
		if err := sess.Validate(); err != nil {
			return fmt.Errorf("%w: session %q: %v", entity.ErrInvalidStore, sess.ID, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.SaveStore(ctx, store); err != nil {
		return err
	}
	m.current = store.CurrentSessionID
	m.log.Info().Int("session_count", len(store.Sessions)).Msg("session store imported")
	return nil
}

// Sweep applies the time-based retention policy: when auto-delete is
// enabled, saved and closed sessions whose last modification is older
// than the retention window are removed. The current session is never
// swept. Returns the number of sessions removed.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.settings.AutoDelete || m.settings.RetentionDays <= 0 {
		return 0, nil
	}

	cutoff := m.now().AddDate(0, 0, -m.settings.RetentionDays)
	removed := 0
	err := m.mutateLocked(ctx, func(store *entity.SessionStore) (bool, error) {
		kept := store.Sessions[:0]
		for _, sess := range store.Sessions {
			expired := !sess.IsActive() &&
				sess.ID != store.CurrentSessionID &&
				sess.Modified.Before(cutoff)
			if expired {
				removed++
				continue
			}
			kept = append(kept, sess)
		}
		store.Sessions = kept
		return removed > 0, nil
	})
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		m.log.Info().Int("removed", removed).Msg("retention sweep removed expired sessions")
	}
	return removed, nil
}
