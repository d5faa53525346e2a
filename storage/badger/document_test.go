package badger

import (
	"context"
	"testing"
	"time"

	"github.com/poiesic/websearch/core"
	"github.com/poiesic/websearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDoc(url string, fetchedAt time.Time) *core.Document {
	return &core.Document{
		Id:          core.IDFromURL(url),
		URL:         url,
		Title:       "title",
		Domain:      core.DomainOf(url),
		FetchedAt:   fetchedAt,
		ContentHash: core.HashContent(url),
		TermCount:   10,
	}
}

func TestDocumentRepository_PutGet(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	doc := newTestDoc("https://www.kth.se/student", now)

	require.NoError(t, docRepo.PutDocuments(ctx, doc))

	t.Run("get by id", func(t *testing.T) {
		got, err := docRepo.GetDocument(ctx, doc.Id)
		require.NoError(t, err)
		assert.Equal(t, doc, got)
	})

	t.Run("get by url", func(t *testing.T) {
		got, err := docRepo.GetDocumentByURL(ctx, doc.URL)
		require.NoError(t, err)
		assert.Equal(t, doc.Id, got.Id)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := docRepo.GetDocument(ctx, core.ID(424242))
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("missing url", func(t *testing.T) {
		_, err := docRepo.GetDocumentByURL(ctx, "https://missing.se")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("count", func(t *testing.T) {
		count, err := docRepo.CountDocuments(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), count)
	})
}

func TestDocumentRepository_GetDocuments_SkipsMissing(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	a := newTestDoc("https://a.se", now)
	b := newTestDoc("https://b.se", now)
	require.NoError(t, docRepo.PutDocuments(ctx, a, b))

	got, err := docRepo.GetDocuments(ctx, a.Id, core.ID(999), b.Id)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDocumentRepository_Touch(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour).Truncate(time.Microsecond)
	doc := newTestDoc("https://www.kth.se", old)
	require.NoError(t, docRepo.PutDocuments(ctx, doc))

	now := time.Now().UTC().Truncate(time.Microsecond)
	newHash := core.HashContent("fresh content")
	require.NoError(t, docRepo.TouchDocument(ctx, doc.Id, now, newHash))

	got, err := docRepo.GetDocument(ctx, doc.Id)
	require.NoError(t, err)
	assert.True(t, got.FetchedAt.Equal(now))
	assert.Equal(t, newHash, got.ContentHash)
	// Everything else is untouched
	assert.Equal(t, doc.Title, got.Title)
	assert.Equal(t, doc.TermCount, got.TermCount)

	t.Run("missing document", func(t *testing.T) {
		err := docRepo.TouchDocument(ctx, core.ID(999), now, newHash)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestDocumentRepository_Delete(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	doc := newTestDoc("https://a.se", time.Now().UTC())
	require.NoError(t, docRepo.PutDocuments(ctx, doc))
	require.NoError(t, docRepo.DeleteDocuments(ctx, doc.Id))

	_, err = docRepo.GetDocument(ctx, doc.Id)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = docRepo.GetDocumentByURL(ctx, doc.URL)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	t.Run("deleting again fails", func(t *testing.T) {
		assert.ErrorIs(t, docRepo.DeleteDocuments(ctx, doc.Id), storage.ErrNotFound)
	})
}

func TestDocumentRepository_FetchedBefore(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)
	stale := newTestDoc("https://old.se", now.Add(-72*time.Hour))
	staler := newTestDoc("https://older.se", now.Add(-96*time.Hour))
	fresh := newTestDoc("https://fresh.se", now)
	require.NoError(t, docRepo.PutDocuments(ctx, stale, staler, fresh))

	got, err := docRepo.DocumentsFetchedBefore(ctx, now.Add(-24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Oldest first
	assert.Equal(t, staler.Id, got[0].Id)
	assert.Equal(t, stale.Id, got[1].Id)

	t.Run("limit", func(t *testing.T) {
		got, err := docRepo.DocumentsFetchedBefore(ctx, now.Add(-24*time.Hour), 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, staler.Id, got[0].Id)
	})

	t.Run("touch moves document out of range", func(t *testing.T) {
		require.NoError(t, docRepo.TouchDocument(ctx, staler.Id, now, staler.ContentHash))
		got, err := docRepo.DocumentsFetchedBefore(ctx, now.Add(-24*time.Hour), 0)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, stale.Id, got[0].Id)
	})
}

func TestDocumentRepository_ForEach(t *testing.T) {
	docRepo, _, backend, err := NewMemoryRepositories()
	require.NoError(t, err)
	defer func() {
		docRepo.Close()
		backend.Close()
	}()

	ctx := context.Background()
	now := time.Now().UTC()
	require.NoError(t, docRepo.PutDocuments(ctx,
		newTestDoc("https://a.se", now),
		newTestDoc("https://b.se", now),
		newTestDoc("https://c.se", now),
	))

	seen := 0
	err = docRepo.ForEachDocument(ctx, func(doc *core.Document) error {
		seen++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, seen)
}
