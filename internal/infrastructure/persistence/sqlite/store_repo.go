package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/bnema/shadowtab/internal/domain/entity"
	"github.com/bnema/shadowtab/internal/domain/repository"
	"github.com/bnema/shadowtab/internal/logging"
)

// Storage keys within a namespace. The record layout is owned by the
// core; the store only sees opaque JSON blobs.
const (
	keySessions = "sessions"
	keySettings = "settings"
)

type storeRepo struct {
	db        *sql.DB
	namespace string
}

// NewStoreRepository creates a StoreRepository bound to one
// privacy-context namespace (e.g. "private" or "normal").
func NewStoreRepository(db *sql.DB, namespace string) repository.StoreRepository {
	return &storeRepo{db: db, namespace: namespace}
}

// LoadStore returns the persisted session record. Absent or corrupt
// blobs are recovered locally as an empty, valid store.
func (r *storeRepo) LoadStore(ctx context.Context) (*entity.SessionStore, error) {
	raw, err := r.get(ctx, keySessions)
	if err != nil {
		return nil, fmt.Errorf("load session store: %w", err)
	}
	if raw == "" {
		return entity.NewSessionStore(), nil
	}

	var store entity.SessionStore
	if err := json.Unmarshal([]byte(raw), &store); err != nil {
		logging.FromContext(ctx).Warn().Err(err).
			Str("namespace", r.namespace).
			Msg("session store blob is corrupt, starting from an empty record")
		return entity.NewSessionStore(), nil
	}
	store.Normalize()
	return &store, nil
}

// SaveStore overwrites the whole session record in one write.
func (r *storeRepo) SaveStore(ctx context.Context, store *entity.SessionStore) error {
	if store == nil {
		return errors.New("session store cannot be nil")
	}
	raw, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshal session store: %w", err)
	}
	if err := r.set(ctx, keySessions, string(raw)); err != nil {
		return fmt.Errorf("save session store: %w", err)
	}

	logging.FromContext(ctx).Debug().
		Str("namespace", r.namespace).
		Int("session_count", len(store.Sessions)).
		Str("current_session_id", string(store.CurrentSessionID)).
		Msg("session store saved")
	return nil
}

// LoadSettings returns the settings blob, falling back to defaults.
func (r *storeRepo) LoadSettings(ctx context.Context) (entity.Settings, error) {
	raw, err := r.get(ctx, keySettings)
	if err != nil {
		return entity.DefaultSettings(), fmt.Errorf("load settings: %w", err)
	}
	if raw == "" {
		return entity.DefaultSettings(), nil
	}

	settings := entity.DefaultSettings()
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		logging.FromContext(ctx).Warn().Err(err).
			Str("namespace", r.namespace).
			Msg("settings blob is corrupt, using defaults")
		return entity.DefaultSettings(), nil
	}
	return settings, nil
}

// SaveSettings overwrites the settings blob.
func (r *storeRepo) SaveSettings(ctx context.Context, settings entity.Settings) error {
	raw, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := r.set(ctx, keySettings, string(raw)); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

func (r *storeRepo) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM kv_store WHERE namespace = ? AND key = ?",
		r.namespace, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

func (r *storeRepo) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO kv_store (namespace, key, value, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (namespace, key) DO UPDATE SET
		   value = excluded.value,
		   updated_at = excluded.updated_at`,
		r.namespace, key, value, time.Now().UTC(),
	)
	return err
}
