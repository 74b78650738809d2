// Package messaging exposes the session manager over a JSON message
// API, the shape a browser extension's runtime messaging delivers:
// one request object in, one response object out.
package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/shadowtab/internal/app/session"
	"github.com/bnema/shadowtab/internal/domain/entity"
)

// Message is an incoming request. Action selects the operation; the
// other fields are read per action and ignored otherwise.
type Message struct {
	Action    string           `json:"action"`
	SessionID entity.SessionID `json:"sessionId"`
	Name      string           `json:"name"`
	NewName   string           `json:"newName"`
	URL       string           `json:"url"`
	Store     json.RawMessage  `json:"store"`
}

// Handler routes messages to the session manager.
type Handler struct {
	manager *session.Manager
	host    session.TabHost
	log     zerolog.Logger
}

// NewHandler creates a message handler over the given manager. The host
// is only needed for the openTab action and may be nil.
func NewHandler(manager *session.Manager, host session.TabHost, log zerolog.Logger) *Handler {
	return &Handler{
		manager: manager,
		host:    host,
		log:     log.With().Str("component", "messaging").Logger(),
	}
}

// Handle processes one request and returns the JSON response. A Go
// error means the request could not be served at all (bad JSON, storage
// failure); domain validation failures come back as an error payload so
// the caller can show them without special-casing transport errors.
func (h *Handler) Handle(ctx context.Context, payload []byte) ([]byte, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}

	h.log.Debug().Str("action", msg.Action).Msg("handling message")

	switch msg.Action {
	case "ping":
		return h.handlePing(ctx)
	case "getSessions":
		return h.handleGetSessions(ctx)
	case "createNewSession":
		return h.handleCreateNewSession(ctx, msg)
	case "restoreSession", "openSavedSession":
		return h.handleRestoreSession(ctx, msg)
	case "getSessionForRestoration":
		return h.handleGetSessionForRestoration(ctx, msg)
	case "deleteSession":
		return h.handleDeleteSession(ctx, msg)
	case "renameSession":
		return h.handleRenameSession(ctx, msg)
	case "exportSessions":
		return h.handleExportSessions(ctx)
	case "importSessions":
		return h.handleImportSessions(ctx, msg)
	case "restoreClosedTabs":
		return h.handleRestoreClosedTabs(ctx, msg)
	case "openTab":
		return h.handleOpenTab(ctx, msg)
	default:
		return errorResponse(fmt.Sprintf("unknown action: %s", msg.Action))
	}
}

// handlePing is the liveness probe callers use to detect that the
// backend is up before sending real requests. A ping also means the
// caller just woke up, so a reconciliation pass runs in the background
// to catch up on anything missed while it was away.
func (h *Handler) handlePing(ctx context.Context) ([]byte, error) {
	go func() {
		if err := h.manager.Reconcile(context.WithoutCancel(ctx)); err != nil {
			h.log.Warn().Err(err).Msg("reconciliation on ping failed")
		}
	}()
	return json.Marshal(map[string]any{
		"status":    "ok",
		"ready":     h.manager.Ready(),
		"timestamp": time.Now().UnixMilli(),
	})
}

func (h *Handler) handleGetSessions(ctx context.Context) ([]byte, error) {
	store, err := h.manager.ListSessions(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{
		"sessions":         store.Sessions,
		"currentSessionId": store.CurrentSessionID,
	})
}

func (h *Handler) handleCreateNewSession(ctx context.Context, msg Message) ([]byte, error) {
	id, err := h.manager.CreateNewSession(ctx, msg.Name)
	if err != nil {
		return nil, err
	}
	return json.Marshal(map[string]any{"sessionId": id})
}

func (h *Handler) handleRestoreSession(ctx context.Context, msg Message) ([]byte, error) {
	if msg.SessionID == "" {
		return errorResponse("sessionId is required")
	}
	restored, err := h.manager.RestoreSession(ctx, msg.SessionID)
	if err != nil {
		return h.domainError(err)
	}
	return json.Marshal(restored)
}

// handleGetSessionForRestoration is the read-only preview of
// restoreSession: same validation, no state change.
func (h *Handler) handleGetSessionForRestoration(ctx context.Context, msg Message) ([]byte, error) {
	if msg.SessionID == "" {
		return errorResponse("sessionId is required")
	}
	restored, err := h.manager.GetSessionForRestoration(ctx, msg.SessionID)
	if err != nil {
		return h.domainError(err)
	}
	return json.Marshal(restored)
}

func (h *Handler) handleDeleteSession(ctx context.Context, msg Message) ([]byte, error) {
	if msg.SessionID == "" {
		return errorResponse("sessionId is required")
	}
	if err := h.manager.DeleteSession(ctx, msg.SessionID); err != nil {
		return h.domainError(err)
	}
	return okResponse()
}

func (h *Handler) handleRenameSession(ctx context.Context, msg Message) ([]byte, error) {
	if msg.SessionID == "" {
		return errorResponse("sessionId is required")
	}
	if msg.NewName == "" {
		return errorResponse("newName is required")
	}
	if err := h.manager.RenameSession(ctx, msg.SessionID, msg.NewName); err != nil {
		return h.domainError(err)
	}
	return okResponse()
}

func (h *Handler) handleExportSessions(ctx context.Context) ([]byte, error) {
	store, err := h.manager.ExportStore(ctx)
	if err != nil {
		return nil, err
	}
	return json.Marshal(store)
}

func (h *Handler) handleImportSessions(ctx context.Context, msg Message) ([]byte, error) {
	if len(msg.Store) == 0 {
		return errorResponse("store is required")
	}
	var store entity.SessionStore
	if err := json.Unmarshal(msg.Store, &store); err != nil {
		return errorResponse(fmt.Sprintf("invalid store payload: %v", err))
	}
	if err := h.manager.ImportStore(ctx, &store); err != nil {
		return h.domainError(err)
	}
	return okResponse()
}

func (h *Handler) handleRestoreClosedTabs(ctx context.Context, msg Message) ([]byte, error) {
	if msg.SessionID == "" {
		return errorResponse("sessionId is required")
	}
	if err := h.manager.RestoreClosedTabs(ctx, msg.SessionID); err != nil {
		return h.domainError(err)
	}
	return okResponse()
}

func (h *Handler) handleOpenTab(ctx context.Context, msg Message) ([]byte, error) {
	if msg.URL == "" {
		return errorResponse("url is required")
	}
	if h.host == nil {
		return errorResponse("no tab host available")
	}
	if err := h.host.OpenTab(ctx, msg.URL); err != nil {
		h.log.Error().Err(err).Str("url", msg.URL).Msg("failed to open tab")
		return errorResponse("failed to open tab")
	}
	return okResponse()
}

// domainError turns the validation errors of the session core into an
// error payload and passes everything else through as a real failure.
func (h *Handler) domainError(err error) ([]byte, error) {
	switch {
	case errors.Is(err, entity.ErrSessionNotFound),
		errors.Is(err, entity.ErrSessionAlreadyActive),
		errors.Is(err, entity.ErrSessionEmpty),
		errors.Is(err, entity.ErrInvalidStore):
		return errorResponse(err.Error())
	default:
		return nil, err
	}
}

func okResponse() ([]byte, error) {
	return json.Marshal(map[string]bool{"success": true})
}

func errorResponse(message string) ([]byte, error) {
	return json.Marshal(map[string]string{"error": message})
}
