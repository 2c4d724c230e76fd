package accessor

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potool/potool/internal/database"
	"github.com/potool/potool/internal/model"
)

func setupAccessor(t *testing.T) (*Accessor, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	store, err := database.Open(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		store.Close()
		os.Remove(dbPath)
	}
	return New(store), cleanup
}

func seedEntries(t *testing.T, acc *Accessor) {
	t.Helper()
	err := acc.AddEntriesBulk([]*model.Entry{
		{Key: "hello", SourceText: "Hello", TargetText: "Bonjour", Position: 0,
			Flags: []string{"fuzzy"}, References: []string{"main.c:1"}},
		{Key: "bye", SourceText: "Bye", TargetText: "", Position: 1},
	})
	require.NoError(t, err)
}

func TestAccessorRoundTrip(t *testing.T) {
	acc, cleanup := setupAccessor(t)
	defer cleanup()
	seedEntries(t, acc)

	t.Run("GetEntryByKey returns the domain shape with review data", func(t *testing.T) {
		entry, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "Bonjour", entry.TargetText)
		assert.Equal(t, []string{"fuzzy"}, entry.Flags)
		assert.Equal(t, []string{"main.c:1"}, entry.References)
		assert.True(t, entry.Fuzzy())
		require.NotNil(t, entry.Review)
		assert.Empty(t, entry.Review.Comments)
	})

	t.Run("unknown key yields nil, nil", func(t *testing.T) {
		entry, err := acc.GetEntryByKey("ghost")
		assert.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("GetEntriesByKeys maps found keys only", func(t *testing.T) {
		got, err := acc.GetEntriesByKeys([]string{"hello", "ghost", "bye"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
		assert.Contains(t, got, "hello")
		assert.Contains(t, got, "bye")
	})

	t.Run("GetEntriesByKeys attaches review data like a point read", func(t *testing.T) {
		id, err := acc.AddReviewComment("bye", "bob", "double-check plural")
		require.NoError(t, err)
		require.NotEmpty(t, id)

		got, err := acc.GetEntriesByKeys([]string{"bye"})
		require.NoError(t, err)
		require.Contains(t, got, "bye")
		require.NotNil(t, got["bye"].Review)
		require.Len(t, got["bye"].Review.Comments, 1)
		assert.Equal(t, "bob", got["bye"].Review.Comments[0].Author)

		removed, err := acc.RemoveReviewComment("bye", id)
		require.NoError(t, err)
		require.True(t, removed)
	})

	t.Run("GetAllEntriesBasicInfo is keyed by entry key", func(t *testing.T) {
		infos, err := acc.GetAllEntriesBasicInfo()
		require.NoError(t, err)
		require.Len(t, infos, 2)
		assert.True(t, infos["hello"].Fuzzy)
		assert.False(t, infos["bye"].Fuzzy)
	})

	t.Run("review data is attached after mutations", func(t *testing.T) {
		id, err := acc.AddReviewComment("hello", "alice", "check this")
		require.NoError(t, err)
		require.NotEmpty(t, id)
		require.NoError(t, acc.SetQualityScore("hello", 70, map[string]int{"accuracy": 70}))

		entry, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		require.NotNil(t, entry.Review)
		assert.Len(t, entry.Review.Comments, 1)
		require.NotNil(t, entry.Review.QualityScore)
		assert.Equal(t, 70, entry.Review.QualityScore.Overall)
	})
}

func TestAccessorUpdate(t *testing.T) {
	acc, cleanup := setupAccessor(t)
	defer cleanup()
	seedEntries(t, acc)

	t.Run("clearing the fuzzy flag persists through the flag table", func(t *testing.T) {
		entry, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		entry.SetFuzzy(false)
		entry.TargetText = "Salut"

		affected, err := acc.UpdateEntry(entry)
		require.NoError(t, err)
		assert.True(t, affected)

		got, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		assert.False(t, got.Fuzzy())
		assert.Equal(t, "Salut", got.TargetText)

		stats, err := acc.CountsByStatus()
		require.NoError(t, err)
		assert.Zero(t, stats.Fuzzy)
	})

	t.Run("UpdateEntries applies every entry in the batch", func(t *testing.T) {
		hello, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		bye, err := acc.GetEntryByKey("bye")
		require.NoError(t, err)
		hello.Comment = "updated"
		bye.TargetText = "Au revoir"

		err = acc.UpdateEntries(map[string]*model.Entry{"hello": hello, "bye": bye})
		require.NoError(t, err)

		got, err := acc.GetEntryByKey("bye")
		require.NoError(t, err)
		assert.Equal(t, "Au revoir", got.TargetText)
	})
}

func TestImportEntries(t *testing.T) {
	acc, cleanup := setupAccessor(t)
	defer cleanup()
	seedEntries(t, acc)

	existing, err := acc.GetEntryByKey("hello")
	require.NoError(t, err)
	existing.TargetText = "Coucou"

	err = acc.ImportEntries(map[string]*model.Entry{
		"hello": existing,
		"new1":  {Key: "new1", SourceText: "New"},
		"new2":  {Key: "new2", SourceText: "Newer"},
	})
	require.NoError(t, err)

	t.Run("existing keys were updated in place", func(t *testing.T) {
		got, err := acc.GetEntryByKey("hello")
		require.NoError(t, err)
		assert.Equal(t, "Coucou", got.TargetText)
	})

	t.Run("new keys were appended after the current order", func(t *testing.T) {
		count, err := acc.CountEntries()
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)

		got, err := acc.GetEntryByKey("new1")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.GreaterOrEqual(t, got.Position, 2)
	})
}

func TestClearDatabase(t *testing.T) {
	acc, cleanup := setupAccessor(t)
	defer cleanup()
	seedEntries(t, acc)

	require.NoError(t, acc.ClearDatabase())

	count, err := acc.CountEntries()
	require.NoError(t, err)
	assert.Zero(t, count)

	infos, err := acc.GetAllEntriesBasicInfo()
	require.NoError(t, err)
	assert.Empty(t, infos)
}
