// Package session implements the session state machine: it decides when
// a new session starts, how tabs attach to and detach from the active
// session, how closed tabs are archived, and how session identity
// survives process restarts. All mutation is serialized into whole-record
// read-modify-write cycles against a single persisted blob.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/bnema/shadowtab/internal/domain/entity"
	"github.com/bnema/shadowtab/internal/domain/repository"
)

const (
	// DefaultDebounceDelay collapses a burst of navigation events for
	// one tab into a single storage write.
	DefaultDebounceDelay = 50 * time.Millisecond

	// DefaultPollInterval drives the reconciliation backstop.
	DefaultPollInterval = 15 * time.Second
)

// creationKey is the singleflight key for "a session creation is
// already underway". One slot: all concurrent callers share it.
const creationKey = "create"

// Manager owns the in-memory pointer to the active session and encodes
// the session lifecycle invariants. It is driven by direct API calls
// from a message layer and by tab lifecycle notifications from the
// host, both folded into the same persisted record.
type Manager struct {
	repo repository.StoreRepository
	host TabHost
	log  zerolog.Logger
	now  func() time.Time

	// mu serializes every read-modify-write cycle from storage read to
	// storage write, so two mutators can never interleave and lose an
	// update on the shared record.
	mu       sync.Mutex
	ready    bool
	current  entity.SessionID
	settings entity.Settings

	// creating collapses concurrent "no active session" discoveries
	// into one shared creation attempt; the slot clears when the
	// attempt settles, success or failure.
	creating singleflight.Group

	// tabMu guards the debounce timers, the known-tab set, and the
	// debounce delay they are scheduled with.
	tabMu         sync.Mutex
	debounceDelay time.Duration
	saveTimers    map[int]*time.Timer
	knownTabs     map[int]struct{}
}

// Options configures a Manager.
type Options struct {
	// Namespace names the privacy context (e.g. "private") and is
	// stamped on log output. The repository carries the actual
	// namespace binding.
	Namespace string
	// Logger used for event-driven paths that swallow errors.
	Logger zerolog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
	// DebounceDelay overrides the per-tab save debounce.
	DebounceDelay time.Duration
}

// New creates a Manager over the given store and tab capability.
func New(repo repository.StoreRepository, host TabHost, opts Options) *Manager {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	delay := opts.DebounceDelay
	if delay == 0 {
		delay = DefaultDebounceDelay
	}
	return &Manager{
		repo:          repo,
		host:          host,
		log:           opts.Logger.With().Str("component", "session-manager").Str("namespace", opts.Namespace).Logger(),
		now:           now,
		debounceDelay: delay,
		settings:      entity.DefaultSettings(),
		saveTimers:    make(map[int]*time.Timer),
		knownTabs:     make(map[int]struct{}),
	}
}

// Initialize is idempotent setup: it ensures the store record exists,
// loads the settings blob and the current-session pointer, and marks
// the manager ready. Partial or corrupt storage degrades to an empty,
// valid state; the return value is false only to signal that soft
// failure. Initialization never leaves the manager unusable.
func (m *Manager) Initialize(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	ok := true

	settings, err := m.repo.LoadSettings(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load settings, using defaults")
		settings = entity.DefaultSettings()
		ok = false
	}
	m.settings = settings

	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		m.log.Warn().Err(err).Msg("failed to load session store, starting empty")
		store = entity.NewSessionStore()
		ok = false
	}

	// Write-back creates the record when absent and repairs a record
	// that Normalize had to fix.
	if err := m.repo.SaveStore(ctx, store); err != nil {
		m.log.Warn().Err(err).Msg("failed to persist initial session store")
		ok = false
	}

	m.current = store.CurrentSessionID
	m.ready = true

	m.log.Info().
		Int("session_count", len(store.Sessions)).
		Str("current_session_id", string(m.current)).
		Msg("session manager initialized")
	return ok
}

// Ready reports whether Initialize has completed.
func (m *Manager) Ready() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

// RestoreSessionState re-reads the current-session pointer from storage
// into memory. Used after a process restart to recover the pointer
// without re-deriving it from tab state.
func (m *Manager) RestoreSessionState(ctx context.Context) (entity.SessionID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		return "", err
	}
	m.current = store.CurrentSessionID
	return m.current, nil
}

// Settings returns the cached settings blob.
func (m *Manager) Settings() entity.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// UpdateSettings persists a new settings blob and refreshes the cache.
func (m *Manager) UpdateSettings(ctx context.Context, settings entity.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.SaveSettings(ctx, settings); err != nil {
		return err
	}
	m.settings = settings
	return nil
}

// SetDebounceDelay updates the per-tab save debounce at runtime, for
// config reloads. Already-pending timers keep the delay they were
// scheduled with; new events use the new one.
func (m *Manager) SetDebounceDelay(d time.Duration) {
	if d <= 0 {
		d = DefaultDebounceDelay
	}
	m.tabMu.Lock()
	m.debounceDelay = d
	m.tabMu.Unlock()
}

// CurrentSessionID returns the in-memory active-session pointer, which
// may be empty.
func (m *Manager) CurrentSessionID() entity.SessionID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// mutateLocked runs one read-modify-write cycle. Callers hold m.mu.
// The callback reports whether the record changed; unchanged records
// are not written back.
func (m *Manager) mutateLocked(ctx context.Context, fn func(store *entity.SessionStore) (bool, error)) error {
	store, err := m.repo.LoadStore(ctx)
	if err != nil {
		return err
	}
	changed, err := fn(store)
	if err != nil || !changed {
		return err
	}
	return m.repo.SaveStore(ctx, store)
}

func (m *Manager) mutate(ctx context.Context, fn func(store *entity.SessionStore) (bool, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.mutateLocked(ctx, fn)
}

// currentSession resolves the in-memory pointer inside a loaded store.
// A dangling pointer clears the memory pointer and resolves to nil;
// the caller treats that as "no active session".
func (m *Manager) currentSession(store *entity.SessionStore) *entity.Session {
	if m.current == "" {
		return nil
	}
	sess := store.Find(m.current)
	if sess == nil {
		m.log.Warn().
			Str("session_id", string(m.current)).
			Msg("current session pointer is dangling, treating as no active session")
		m.current = ""
	}
	return sess
}

func (m *Manager) trackTab(tabID int) {
	m.tabMu.Lock()
	m.knownTabs[tabID] = struct{}{}
	m.tabMu.Unlock()
}

func (m *Manager) untrackTab(tabID int) {
	m.tabMu.Lock()
	delete(m.knownTabs, tabID)
	m.tabMu.Unlock()
}

func (m *Manager) isKnownTab(tabID int) bool {
	m.tabMu.Lock()
	defer m.tabMu.Unlock()
	_, ok := m.knownTabs[tabID]
	return ok
}
