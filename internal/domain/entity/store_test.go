package entity_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bnema/shadowtab/internal/domain/entity"
)

func TestStorePrependNewestFirstWithCap(t *testing.T) {
	now := time.Now().UTC()
	store := entity.NewSessionStore()

	var ids []entity.SessionID
	for i := 0; i < 5; i++ {
		sess := entity.NewSession(fmt.Sprintf("s%d", i), now.Add(time.Duration(i)*time.Second))
		ids = append(ids, sess.ID)
		store.Prepend(sess, 3)
	}

	require.Len(t, store.Sessions, 3)
	require.Equal(t, ids[4], store.Sessions[0].ID)
	require.Equal(t, ids[2], store.Sessions[2].ID)
}

func TestStoreRemoveClearsCurrentPointer(t *testing.T) {
	now := time.Now().UTC()
	store := entity.NewSessionStore()
	sess := entity.NewSession("test", now)
	store.Prepend(sess, 0)
	store.CurrentSessionID = sess.ID

	require.True(t, store.Remove(sess.ID))
	require.Empty(t, store.CurrentSessionID)
	require.Empty(t, store.Sessions)

	require.False(t, store.Remove(sess.ID))
}

func TestStoreCurrentDanglingPointer(t *testing.T) {
	store := entity.NewSessionStore()
	store.CurrentSessionID = "gone"
	require.Nil(t, store.Current())
}

func TestStoreNormalize(t *testing.T) {
	store := &entity.SessionStore{
		Sessions: []*entity.Session{
			{ID: "a", Created: time.Now(), Modified: time.Now()},
		},
		CurrentSessionID: "missing",
	}

	store.Normalize()

	require.NotNil(t, store.Sessions[0].Tabs)
	require.NotNil(t, store.Sessions[0].ClosedTabs)
	require.Empty(t, store.CurrentSessionID)

	var nilStore entity.SessionStore
	nilStore.Normalize()
	require.NotNil(t, nilStore.Sessions)
}
