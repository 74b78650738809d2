package entity_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bnema/shadowtab/internal/domain/entity"
)

func TestUpsertTabDedupeByTabID(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)

	first := entity.NewTabEntry(7, 1, "https://example.com", "Example", "", now)
	require.False(t, sess.UpsertTab(first, true, now))
	require.Len(t, sess.Tabs, 1)

	later := now.Add(time.Second)
	update := entity.NewTabEntry(7, 1, "https://example.com/page", "Example Page", "icon.png", later)
	require.True(t, sess.UpsertTab(update, true, later))
	require.Len(t, sess.Tabs, 1)

	tab := sess.FindTab(7)
	require.NotNil(t, tab)
	require.Equal(t, "https://example.com/page", tab.URL)
	require.Equal(t, "Example Page", tab.Title)
	require.Equal(t, "icon.png", tab.Favicon)
	require.Equal(t, later, sess.Modified)
}

func TestUpsertTabDedupeByURL(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)

	sess.UpsertTab(entity.NewTabEntry(7, 1, "https://example.com", "Example", "", now), true, now)

	// Same URL under a different tab ID folds into the existing entry.
	sess.UpsertTab(entity.NewTabEntry(9, 1, "https://example.com", "Example", "", now), true, now)
	require.Len(t, sess.Tabs, 1)
	require.Equal(t, 9, sess.Tabs[0].TabID)

	// With dedupe disabled the same URL appends a second entry.
	sess.UpsertTab(entity.NewTabEntry(11, 1, "https://example.com", "Example", "", now), false, now)
	require.Len(t, sess.Tabs, 2)
}

func TestUpsertTabPreservesTitleOverPlaceholder(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)

	sess.UpsertTab(entity.NewTabEntry(7, 1, "https://example.com", "Real Title", "", now), true, now)

	// A placeholder-titled update must not clobber the real title.
	placeholder := entity.NewTabEntry(7, 1, "https://example.com/next", "", "", now)
	require.Equal(t, entity.DefaultTabTitle, placeholder.Title)
	sess.UpsertTab(placeholder, true, now)

	tab := sess.FindTab(7)
	require.Equal(t, "Real Title", tab.Title)
	require.Equal(t, "https://example.com/next", tab.URL)
}

func TestArchiveTabIdempotent(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)
	sess.UpsertTab(entity.NewTabEntry(7, 1, "https://a.example", "A", "", now), true, now)
	sess.UpsertTab(entity.NewTabEntry(8, 1, "https://b.example", "B", "", now), true, now)

	require.True(t, sess.ArchiveTab(7, now))
	require.Len(t, sess.Tabs, 1)
	require.Len(t, sess.ClosedTabs, 1)
	require.NotNil(t, sess.ClosedTabs[0].ClosedAt)

	// Duplicate close notification: no second archived record.
	require.False(t, sess.ArchiveTab(7, now))
	require.Len(t, sess.ClosedTabs, 1)
}

func TestArchiveTabNewestFirstAndBounded(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)

	for i := 0; i < entity.MaxClosedTabs+10; i++ {
		sess.UpsertTab(entity.NewTabEntry(i, 1, "https://example.com/p", "P", "", now), false, now)
		require.True(t, sess.ArchiveTab(i, now))
	}

	require.Len(t, sess.ClosedTabs, entity.MaxClosedTabs)
	// Newest archived entry sits at the head.
	require.Equal(t, entity.MaxClosedTabs+9, sess.ClosedTabs[0].TabID)
	// The oldest entries were evicted.
	require.Equal(t, 10, sess.ClosedTabs[len(sess.ClosedTabs)-1].TabID)
}

func TestCloseAndReactivate(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("work", now)
	sess.UpsertTab(entity.NewTabEntry(7, 1, "https://example.com", "Example", "", now), true, now)

	closedAt := now.Add(time.Minute)
	sess.Close(closedAt)
	require.Equal(t, entity.StatusClosed, sess.Status)
	require.NotNil(t, sess.ClosedAt)
	require.False(t, sess.IsActive())
	// Closing preserves the tab list for restoration.
	require.Len(t, sess.Tabs, 1)

	sess.Name = "work" + entity.ClosedNameSuffix
	reopenedAt := closedAt.Add(time.Minute)
	sess.Reactivate(reopenedAt)
	require.True(t, sess.IsActive())
	require.Nil(t, sess.ClosedAt)
	require.Equal(t, "work", sess.Name)
	require.Len(t, sess.Tabs, 1)
}

func TestLegacyStatusIsActive(t *testing.T) {
	sess := &entity.Session{ID: "legacy", Status: ""}
	require.True(t, sess.IsActive())
}

func TestSessionClone(t *testing.T) {
	now := time.Now().UTC()
	sess := entity.NewSession("test", now)
	sess.UpsertTab(entity.NewTabEntry(7, 1, "https://example.com", "Example", "", now), true, now)

	clone := sess.Clone()
	clone.Tabs[0].URL = "https://mutated.example"
	clone.Name = "mutated"

	require.Equal(t, "https://example.com", sess.Tabs[0].URL)
	require.Equal(t, "test", sess.Name)
}
