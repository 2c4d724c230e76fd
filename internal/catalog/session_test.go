package catalog

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potool/potool/internal/importers"
	"github.com/potool/potool/internal/model"
)

func setupSession(t *testing.T) (*Session, func()) {
	t.Helper()
	dbPath := "./test_" + t.Name() + ".db"
	session, err := Open(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		session.Close()
		os.Remove(dbPath)
	}
	return session, cleanup
}

func loadFixture(t *testing.T, session *Session) {
	t.Helper()
	_, err := session.Load(context.Background(), importers.SliceSource{
		{SourceText: "Hello", TargetText: "Bonjour"},
		{SourceText: "File", TargetText: "Fichier", Flags: []string{"fuzzy"}},
		{SourceText: "Quit", TargetText: ""},
	})
	require.NoError(t, err)
}

func TestSessionReadThrough(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	t.Run("second point read is served from cache", func(t *testing.T) {
		first, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		require.NotNil(t, first)

		second, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("unknown key is nil without caching anything", func(t *testing.T) {
		entry, err := session.GetEntryByKey("ghost")
		assert.NoError(t, err)
		assert.Nil(t, entry)
	})

	t.Run("batch read prefetches misses and serves repeats from cache", func(t *testing.T) {
		got, err := session.GetEntriesByKeys([]string{"File", "Quit", "ghost"})
		require.NoError(t, err)
		assert.Len(t, got, 2)

		again, err := session.GetEntriesByKeys([]string{"File", "Quit"})
		require.NoError(t, err)
		assert.Same(t, got["File"], again["File"])
	})

	t.Run("basic info read-through", func(t *testing.T) {
		info, err := session.GetEntryBasicInfo("File")
		require.NoError(t, err)
		require.NotNil(t, info)
		assert.True(t, info.Fuzzy)
	})
}

func TestSessionWriteInvalidation(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	t.Run("update invalidates the cached entity via the change hook", func(t *testing.T) {
		before, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		require.NotNil(t, before)

		updated := *before
		updated.TargetText = "Salut"
		affected, err := session.UpdateEntry(context.Background(), &updated)
		require.NoError(t, err)
		assert.True(t, affected)

		after, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		assert.NotSame(t, before, after)
		assert.Equal(t, "Salut", after.TargetText)
	})

	t.Run("clearing the fuzzy flag moves the entry between status filters", func(t *testing.T) {
		fuzzyQ := model.SearchQuery{TranslationStatus: model.StatusFuzzy}
		entries, err := session.GetFilteredEntries(fuzzyQ)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		require.Equal(t, "File", entries[0].Key)

		entry, err := session.GetEntryByKey("File")
		require.NoError(t, err)
		edited := *entry
		edited.Flags = append([]string(nil), entry.Flags...)
		edited.SetFuzzy(false)
		_, err = session.UpdateEntry(context.Background(), &edited)
		require.NoError(t, err)

		entries, err = session.GetFilteredEntries(fuzzyQ)
		require.NoError(t, err)
		assert.Empty(t, entries)

		translated, err := session.GetFilteredEntries(model.SearchQuery{TranslationStatus: model.StatusTranslated})
		require.NoError(t, err)
		keys := make([]string, len(translated))
		for i, e := range translated {
			keys[i] = e.Key
		}
		assert.Contains(t, keys, "File")
	})

	t.Run("batch update invalidates every touched key", func(t *testing.T) {
		hello, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		quit, err := session.GetEntryByKey("Quit")
		require.NoError(t, err)

		h := *hello
		h.Comment = "note"
		q := *quit
		q.TargetText = "Quitter"
		err = session.UpdateEntries(context.Background(), map[string]*model.Entry{"Hello": &h, "Quit": &q})
		require.NoError(t, err)

		got, err := session.GetEntryByKey("Quit")
		require.NoError(t, err)
		assert.Equal(t, "Quitter", got.TargetText)
	})
}

func TestSessionFilteredCache(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	q := model.SearchQuery{SearchText: "f"}

	first, err := session.GetFilteredEntries(q)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	t.Run("identical query returns the cached result", func(t *testing.T) {
		second, err := session.GetFilteredEntries(q)
		require.NoError(t, err)
		assert.Same(t, first[0], second[0])
	})

	t.Run("different query recomputes", func(t *testing.T) {
		other, err := session.GetFilteredEntries(model.SearchQuery{SearchText: "quit"})
		require.NoError(t, err)
		require.Len(t, other, 1)
		assert.Equal(t, "Quit", other[0].Key)
	})

	t.Run("reorder invalidates the filtered slot", func(t *testing.T) {
		all, err := session.GetFilteredEntries(model.SearchQuery{})
		require.NoError(t, err)
		require.Len(t, all, 3)

		ids := []int64{all[2].ID, all[1].ID, all[0].ID}
		require.NoError(t, session.ReorderEntries(ids))

		reordered, err := session.GetFilteredEntries(model.SearchQuery{})
		require.NoError(t, err)
		require.Len(t, reordered, 3)
		assert.Equal(t, all[2].Key, reordered[0].Key)
		assert.Equal(t, 0, reordered[0].Position)
	})
}

func TestSessionReviewInvalidation(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	before, err := session.GetEntryByKey("Hello")
	require.NoError(t, err)
	require.NotNil(t, before.Review)
	require.Empty(t, before.Review.Comments)

	id, err := session.AddReviewComment("Hello", "alice", "revisit")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	t.Run("comment shows up on the next read", func(t *testing.T) {
		after, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		require.Len(t, after.Review.Comments, 1)
		assert.Equal(t, "alice", after.Review.Comments[0].Author)
	})

	t.Run("removing the comment invalidates again", func(t *testing.T) {
		removed, err := session.RemoveReviewComment("Hello", id)
		require.NoError(t, err)
		assert.True(t, removed)

		after, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		assert.Empty(t, after.Review.Comments)
	})

	t.Run("quality score rides on the cached entity", func(t *testing.T) {
		require.NoError(t, session.SetQualityScore("Hello", 88, map[string]int{"accuracy": 88}))

		after, err := session.GetEntryByKey("Hello")
		require.NoError(t, err)
		require.NotNil(t, after.Review.QualityScore)
		assert.Equal(t, 88, after.Review.QualityScore.Overall)
	})
}

func TestSessionBatchReadKeepsReviewData(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	id, err := session.AddReviewComment("Hello", "alice", "revisit wording")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	// The batch read populates the complete tier; the point read below
	// must serve the same shape, review metadata included.
	batch, err := session.GetEntriesByKeys([]string{"Hello"})
	require.NoError(t, err)
	require.Contains(t, batch, "Hello")
	require.NotNil(t, batch["Hello"].Review)
	require.Len(t, batch["Hello"].Review.Comments, 1)

	entry, err := session.GetEntryByKey("Hello")
	require.NoError(t, err)
	require.NotNil(t, entry.Review)
	require.Len(t, entry.Review.Comments, 1)
	assert.Equal(t, "alice", entry.Review.Comments[0].Author)
	assert.Same(t, batch["Hello"], entry)
}

func TestSessionCacheDisabled(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)
	session.SetCacheEnabled(false)

	first, err := session.GetEntryByKey("Hello")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := session.GetEntryByKey("Hello")
	require.NoError(t, err)
	assert.NotSame(t, first, second)

	got, err := session.GetEntriesByKeys([]string{"Hello", "Quit"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	entries, err := session.GetFilteredEntries(model.SearchQuery{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

type recordingEnqueuer struct {
	batches [][]string
}

func (r *recordingEnqueuer) EnqueueQACheck(ctx context.Context, keys []string) error {
	r.batches = append(r.batches, keys)
	return nil
}

func TestSessionQAScheduling(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	rec := &recordingEnqueuer{}
	session.SetQAEnqueuer(rec)

	entry, err := session.GetEntryByKey("Hello")
	require.NoError(t, err)
	updated := *entry
	updated.TargetText = "Salut"
	_, err = session.UpdateEntry(context.Background(), &updated)
	require.NoError(t, err)

	require.Len(t, rec.batches, 1)
	assert.Equal(t, []string{"Hello"}, rec.batches[0])

	t.Run("no enqueue when the update touched nothing", func(t *testing.T) {
		_, err := session.UpdateEntry(context.Background(), &model.Entry{Key: "ghost"})
		require.NoError(t, err)
		assert.Len(t, rec.batches, 1)
	})
}

func TestSessionStats(t *testing.T) {
	session, cleanup := setupSession(t)
	defer cleanup()
	loadFixture(t, session)

	stats, err := session.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Total)
	assert.Equal(t, int64(1), stats.Fuzzy)
	assert.Equal(t, int64(1), stats.Translated)
	assert.Equal(t, int64(1), stats.Untranslated)

	flags, err := session.AllFlags()
	require.NoError(t, err)
	assert.Equal(t, []string{"fuzzy"}, flags)
}
