package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/potool/potool/internal/entities"
	"github.com/potool/potool/internal/model"
)

func TestReviewComments(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	require.NoError(t, store.AddEntry(makeEntry("greeting", "Hello", "Bonjour", 0)))

	t.Run("AddReviewComment returns a generated id", func(t *testing.T) {
		id, err := store.AddReviewComment("greeting", "alice", "prefer Salut here")
		require.NoError(t, err)
		assert.NotEmpty(t, id)
	})

	t.Run("comments come back oldest first", func(t *testing.T) {
		_, err := store.AddReviewComment("greeting", "bob", "agreed")
		require.NoError(t, err)

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		require.NotNil(t, data)
		require.Len(t, data.Comments, 2)
		assert.Equal(t, "alice", data.Comments[0].Author)
		assert.Equal(t, "bob", data.Comments[1].Author)
	})

	t.Run("unknown entry key yields empty id, no error", func(t *testing.T) {
		id, err := store.AddReviewComment("ghost", "alice", "into the void")
		assert.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("RemoveReviewComment reports whether it removed", func(t *testing.T) {
		id, err := store.AddReviewComment("greeting", "carol", "temp")
		require.NoError(t, err)

		removed, err := store.RemoveReviewComment("greeting", id)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.RemoveReviewComment("greeting", id)
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestQualityScores(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	require.NoError(t, store.AddEntry(makeEntry("greeting", "Hello", "Bonjour", 0)))

	t.Run("SetQualityScore stores overall and categories", func(t *testing.T) {
		err := store.SetQualityScore("greeting", 80, map[string]int{"accuracy": 90, "fluency": 70})
		require.NoError(t, err)

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		require.NotNil(t, data.QualityScore)
		assert.Equal(t, 80, data.QualityScore.Overall)
		assert.Equal(t, map[string]int{"accuracy": 90, "fluency": 70}, data.QualityScore.Categories)
	})

	t.Run("second call replaces the score wholesale", func(t *testing.T) {
		err := store.SetQualityScore("greeting", 95, map[string]int{"accuracy": 95})
		require.NoError(t, err)

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		require.NotNil(t, data.QualityScore)
		assert.Equal(t, 95, data.QualityScore.Overall)
		assert.Equal(t, map[string]int{"accuracy": 95}, data.QualityScore.Categories)
	})

	t.Run("unknown key is an error", func(t *testing.T) {
		err := store.SetQualityScore("ghost", 50, nil)
		assert.Error(t, err)
	})
}

func TestCheckResults(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	require.NoError(t, store.AddEntry(makeEntry("greeting", "Hello %s", "Bonjour", 0)))

	t.Run("AddCheckResult and readback", func(t *testing.T) {
		err := store.AddCheckResult("greeting", "placeholder-mismatch", "missing %s", entities.SeverityError)
		require.NoError(t, err)

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		require.Len(t, data.CheckResults, 1)
		assert.Equal(t, "placeholder-mismatch", data.CheckResults[0].Code)
		assert.Equal(t, "error", data.CheckResults[0].Severity)
	})

	t.Run("ReplaceCheckResults swaps the whole set", func(t *testing.T) {
		err := store.ReplaceCheckResults("greeting", []model.CheckResult{
			{Code: "trailing-newline", Message: "newline drift", Severity: "warning"},
		})
		require.NoError(t, err)

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		require.Len(t, data.CheckResults, 1)
		assert.Equal(t, "trailing-newline", data.CheckResults[0].Code)
	})

	t.Run("ReplaceCheckResults with nil clears results", func(t *testing.T) {
		require.NoError(t, store.ReplaceCheckResults("greeting", nil))

		data, err := store.GetReviewData("greeting")
		require.NoError(t, err)
		assert.Empty(t, data.CheckResults)
	})

	t.Run("RemoveCheckResult by code", func(t *testing.T) {
		require.NoError(t, store.AddCheckResult("greeting", "empty-target", "no translation", entities.SeverityWarning))

		removed, err := store.RemoveCheckResult("greeting", "empty-target")
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.RemoveCheckResult("greeting", "empty-target")
		require.NoError(t, err)
		assert.False(t, removed)
	})
}

func TestGetReviewDataEmpty(t *testing.T) {
	store, cleanup := setupTestStore(t)
	defer cleanup()
	require.NoError(t, store.AddEntry(makeEntry("plain", "Plain", "", 0)))

	data, err := store.GetReviewData("plain")
	require.NoError(t, err)
	require.NotNil(t, data)
	assert.Empty(t, data.Comments)
	assert.Nil(t, data.QualityScore)
	assert.Empty(t, data.CheckResults)
}
