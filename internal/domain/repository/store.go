package repository

import (
	"context"

	"github.com/bnema/shadowtab/internal/domain/entity"
)

// StoreRepository persists the whole session record and the settings
// blob for one privacy-context namespace. There are no finer-grained
// operations: every mutation is a read of the entire record followed by
// a write of the entire record.
type StoreRepository interface {
	// LoadStore returns the persisted record. A missing or corrupt
	// record yields an empty, valid store, never an error the caller
	// must recover from.
	LoadStore(ctx context.Context) (*entity.SessionStore, error)

	// SaveStore overwrites the persisted record in one write.
	SaveStore(ctx context.Context, store *entity.SessionStore) error

	// LoadSettings returns the persisted settings blob, falling back to
	// defaults when absent or unreadable.
	LoadSettings(ctx context.Context) (entity.Settings, error)

	// SaveSettings overwrites the settings blob.
	SaveSettings(ctx context.Context, settings entity.Settings) error
}
