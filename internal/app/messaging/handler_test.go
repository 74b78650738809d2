package messaging_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/bnema/shadowtab/internal/app/messaging"
	"github.com/bnema/shadowtab/internal/app/session"
	"github.com/bnema/shadowtab/internal/domain/entity"
)

type memRepo struct {
	mu       sync.Mutex
	store    *entity.SessionStore
	settings *entity.Settings
}

func (r *memRepo) LoadStore(context.Context) (*entity.SessionStore, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return entity.NewSessionStore(), nil
	}
	return r.store.Clone(), nil
}

func (r *memRepo) SaveStore(_ context.Context, store *entity.SessionStore) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store = store.Clone()
	return nil
}

func (r *memRepo) LoadSettings(context.Context) (entity.Settings, error) {
	if r.settings == nil {
		return entity.DefaultSettings(), nil
	}
	return *r.settings, nil
}

func (r *memRepo) SaveSettings(_ context.Context, s entity.Settings) error {
	r.settings = &s
	return nil
}

type noopHost struct {
	mu     sync.Mutex
	opened []string
}

func (h *noopHost) QueryTabs(context.Context) ([]session.LiveTab, error) { return nil, nil }

func (h *noopHost) OpenTab(_ context.Context, url string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.opened = append(h.opened, url)
	return nil
}

func newTestHandler(t *testing.T) (*messaging.Handler, *session.Manager, *noopHost) {
	t.Helper()
	repo := &memRepo{}
	host := &noopHost{}
	manager := session.New(repo, host, session.Options{Logger: zerolog.Nop()})
	require.True(t, manager.Initialize(context.Background()))
	return messaging.NewHandler(manager, host, zerolog.Nop()), manager, host
}

func handle(t *testing.T, h *messaging.Handler, req string) map[string]json.RawMessage {
	t.Helper()
	resp, err := h.Handle(context.Background(), []byte(req))
	require.NoError(t, err)
	var out map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(resp, &out))
	return out
}

func TestHandlePing(t *testing.T) {
	h, _, _ := newTestHandler(t)

	out := handle(t, h, `{"action":"ping"}`)
	require.JSONEq(t, `"ok"`, string(out["status"]))
	require.JSONEq(t, `true`, string(out["ready"]))
	require.Contains(t, out, "timestamp")
}

func TestHandleUnknownAction(t *testing.T) {
	h, _, _ := newTestHandler(t)

	out := handle(t, h, `{"action":"selfDestruct"}`)
	require.Contains(t, string(out["error"]), "unknown action")
}

func TestHandleMalformedJSON(t *testing.T) {
	h, _, _ := newTestHandler(t)

	_, err := h.Handle(context.Background(), []byte(`{not json`))
	require.Error(t, err)
}

func TestHandleCreateAndGetSessions(t *testing.T) {
	h, _, _ := newTestHandler(t)

	out := handle(t, h, `{"action":"createNewSession","name":"work"}`)
	var id entity.SessionID
	require.NoError(t, json.Unmarshal(out["sessionId"], &id))
	require.NotEmpty(t, id)

	out = handle(t, h, `{"action":"getSessions"}`)
	var sessions []*entity.Session
	require.NoError(t, json.Unmarshal(out["sessions"], &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "work", sessions[0].Name)

	var current entity.SessionID
	require.NoError(t, json.Unmarshal(out["currentSessionId"], &current))
	require.Equal(t, id, current)
}

func TestHandleRestoreSessionErrors(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	out := handle(t, h, `{"action":"restoreSession"}`)
	require.Contains(t, string(out["error"]), "sessionId is required")

	out = handle(t, h, `{"action":"restoreSession","sessionId":"missing"}`)
	require.Contains(t, string(out["error"]), "not found")

	id, err := manager.CreateNewSession(ctx, "work")
	require.NoError(t, err)

	out = handle(t, h, fmt.Sprintf(`{"action":"restoreSession","sessionId":%q}`, id))
	require.Contains(t, string(out["error"]), "already active")

	require.NoError(t, manager.CloseSession(ctx, id))
	out = handle(t, h, fmt.Sprintf(`{"action":"restoreSession","sessionId":%q}`, id))
	require.Contains(t, string(out["error"]), "no tabs")
}

func TestHandleRestoreSessionSuccess(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, manager.AddTabToSession(ctx, session.LiveTab{ID: 7, URL: "https://example.com", Title: "Example"}))
	id := manager.CurrentSessionID()
	require.NoError(t, manager.CloseSession(ctx, id))

	out := handle(t, h, fmt.Sprintf(`{"action":"restoreSession","sessionId":%q}`, id))
	require.NotContains(t, out, "error")

	var tabs []*entity.TabEntry
	require.NoError(t, json.Unmarshal(out["tabs"], &tabs))
	require.Len(t, tabs, 1)
	require.Equal(t, "https://example.com", tabs[0].URL)
	require.Equal(t, id, manager.CurrentSessionID())
}

func TestHandleOpenSavedSessionAliasesRestore(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, manager.AddTabToSession(ctx, session.LiveTab{ID: 7, URL: "https://example.com", Title: "Example"}))
	id := manager.CurrentSessionID()
	require.NoError(t, manager.CloseSession(ctx, id))

	out := handle(t, h, fmt.Sprintf(`{"action":"openSavedSession","sessionId":%q}`, id))
	require.NotContains(t, out, "error")

	// The alias restores for real: the session becomes current again.
	require.Equal(t, id, manager.CurrentSessionID())
}

func TestHandleGetSessionForRestorationIsPreview(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, manager.AddTabToSession(ctx, session.LiveTab{ID: 7, URL: "https://example.com", Title: "Example"}))
	id := manager.CurrentSessionID()
	require.NoError(t, manager.CloseSession(ctx, id))

	out := handle(t, h, fmt.Sprintf(`{"action":"getSessionForRestoration","sessionId":%q}`, id))
	require.NotContains(t, out, "error")

	var tabs []*entity.TabEntry
	require.NoError(t, json.Unmarshal(out["tabs"], &tabs))
	require.Len(t, tabs, 1)

	// Preview does not switch the current session.
	require.Empty(t, manager.CurrentSessionID())
}

func TestHandleDeleteAndRename(t *testing.T) {
	h, manager, _ := newTestHandler(t)

	id, err := manager.CreateNewSession(context.Background(), "work")
	require.NoError(t, err)

	out := handle(t, h, fmt.Sprintf(`{"action":"renameSession","sessionId":%q,"newName":"research"}`, id))
	require.JSONEq(t, `true`, string(out["success"]))

	out = handle(t, h, `{"action":"renameSession","sessionId":"x"}`)
	require.Contains(t, string(out["error"]), "newName is required")

	out = handle(t, h, fmt.Sprintf(`{"action":"deleteSession","sessionId":%q}`, id))
	require.JSONEq(t, `true`, string(out["success"]))

	out = handle(t, h, fmt.Sprintf(`{"action":"deleteSession","sessionId":%q}`, id))
	require.Contains(t, string(out["error"]), "not found")
}

func TestHandleExportImportRoundTrip(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, manager.AddTabToSession(ctx, session.LiveTab{ID: 7, URL: "https://example.com", Title: "Example"}))
	id := manager.CurrentSessionID()

	exported, err := h.Handle(ctx, []byte(`{"action":"exportSessions"}`))
	require.NoError(t, err)

	// Wipe and re-import the exported record.
	require.NoError(t, manager.DeleteSession(ctx, id))

	out := handle(t, h, fmt.Sprintf(`{"action":"importSessions","store":%s}`, exported))
	require.JSONEq(t, `true`, string(out["success"]))

	store, err := manager.ExportStore(ctx)
	require.NoError(t, err)
	require.NotNil(t, store.Find(id))
	require.Equal(t, id, store.CurrentSessionID)

	out = handle(t, h, `{"action":"importSessions"}`)
	require.Contains(t, string(out["error"]), "store is required")
}

func TestHandleRestoreClosedTabs(t *testing.T) {
	h, manager, host := newTestHandler(t)
	ctx := context.Background()

	require.NoError(t, manager.AddTabToSession(ctx, session.LiveTab{ID: 7, URL: "https://example.com", Title: "Example"}))
	id := manager.CurrentSessionID()
	require.NoError(t, manager.MoveTabToClosedTabs(ctx, 7))

	out := handle(t, h, fmt.Sprintf(`{"action":"restoreClosedTabs","sessionId":%q}`, id))
	require.JSONEq(t, `true`, string(out["success"]))
	require.Equal(t, []string{"https://example.com"}, host.opened)
}

func TestHandleOpenTab(t *testing.T) {
	h, _, host := newTestHandler(t)

	out := handle(t, h, `{"action":"openTab","url":"https://example.com"}`)
	require.JSONEq(t, `true`, string(out["success"]))
	require.Equal(t, []string{"https://example.com"}, host.opened)

	out = handle(t, h, `{"action":"openTab"}`)
	require.Contains(t, string(out["error"]), "url is required")
}

func TestHandleTimestampsSurviveRoundTrip(t *testing.T) {
	h, manager, _ := newTestHandler(t)
	ctx := context.Background()

	id, err := manager.CreateNewSession(ctx, "work")
	require.NoError(t, err)

	out := handle(t, h, `{"action":"getSessions"}`)
	var sessions []*entity.Session
	require.NoError(t, json.Unmarshal(out["sessions"], &sessions))
	require.Equal(t, id, sessions[0].ID)
	require.WithinDuration(t, time.Now(), sessions[0].Created, time.Minute)
}
