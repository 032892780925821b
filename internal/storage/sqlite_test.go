package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kumocrawl/kumo/internal/crawler"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testPage(url string, depth int) *crawler.PageRecord {
	return &crawler.PageRecord{
		URL:          url,
		Body:         []byte("<html>body of " + url + "</html>"),
		StatusCode:   200,
		Depth:        depth,
		TTFB:         12 * time.Millisecond,
		DownloadTime: 48 * time.Millisecond,
		CrawledAt:    time.Now().UTC(),
	}
}

func TestSavePageAndGet(t *testing.T) {
	store := newTestStore(t)

	page := testPage("https://a.test/", 0)
	require.NoError(t, store.SavePage(page))

	body, err := store.GetPage("https://a.test/")
	require.NoError(t, err)
	assert.Equal(t, page.Body, body)

	count, err := store.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGetPageMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetPage("https://nope.test/")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSavePageReplaces(t *testing.T) {
	store := newTestStore(t)

	first := testPage("https://a.test/", 0)
	require.NoError(t, store.SavePage(first))

	second := testPage("https://a.test/", 0)
	second.Body = []byte("updated")
	require.NoError(t, store.SavePage(second))

	count, err := store.PageCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count, "same URL must not create a second row")

	body, err := store.GetPage("https://a.test/")
	require.NoError(t, err)
	assert.Equal(t, []byte("updated"), body)
}

func TestListPages(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.SavePage(testPage("https://a.test/", 0)))
	require.NoError(t, store.SavePage(testPage("https://a.test/x", 1)))
	require.NoError(t, store.SavePage(testPage("https://b.test/y", 1)))

	pages, err := store.ListPages()
	require.NoError(t, err)
	require.Len(t, pages, 3)

	urls := make(map[string]PageSummary, len(pages))
	for _, p := range pages {
		urls[p.URL] = p
	}
	require.Contains(t, urls, "https://a.test/x")
	assert.Equal(t, 1, urls["https://a.test/x"].Depth)
	assert.Equal(t, 200, urls["https://a.test/x"].StatusCode)
	assert.Positive(t, urls["https://a.test/x"].Size)
}

func TestStoreImplementsPageSink(t *testing.T) {
	var _ crawler.PageSink = (*SQLiteStore)(nil)
}
