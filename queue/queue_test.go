package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"

	"auto_pinterest_content_engine/engine"
)

func testPost(createdAt time.Time) engine.GeneratedPost {
	return engine.GeneratedPost{
		Account:     "country_living_1",
		Topic:       "cabin mornings",
		Title:       "Cozy Cabin Mornings",
		Description: "Slow starts by the fire.",
		Hashtags:    []string{"#cabin", "#cozy"},
		CreatedAt:   createdAt,
		ImagePath:   "generated/country_living_1/2026-08-28/120000_image.png",
	}
}

func TestSavePathScheme(t *testing.T) {
	base := fmt.Sprintf("mem://localhost/queue-%d", time.Now().UnixNano())
	q := New(base)
	createdAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	path, err := q.Save(context.Background(), testPost(createdAt))
	require.NoError(t, err)
	assert.Equal(t, base+"/country_living_1/2026-08-28/120000.json", path)
}

func TestSavePayloadFields(t *testing.T) {
	base := fmt.Sprintf("mem://localhost/queue-%d", time.Now().UnixNano())
	q := New(base)
	createdAt := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ctx := context.Background()

	path, err := q.Save(ctx, testPost(createdAt))
	require.NoError(t, err)

	data, err := afs.New().DownloadWithURL(ctx, path)
	require.NoError(t, err)

	var entry Entry
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "country_living_1", entry.Account)
	assert.Equal(t, "cabin mornings", entry.Topic)
	assert.Equal(t, "2026-08-28T12:00:00Z", entry.GeneratedAt)
	assert.Equal(t, "Cozy Cabin Mornings", entry.Title)
	assert.Equal(t, []string{"#cabin", "#cozy"}, entry.Hashtags)
	assert.Equal(t, "ready", entry.Status)
	assert.Equal(t, []string{}, entry.Platforms)
	assert.NotEmpty(t, entry.ImagePath)
	assert.Empty(t, entry.VideoPath)
}

func TestListReturnsSavedEntries(t *testing.T) {
	base := fmt.Sprintf("mem://localhost/queue-%d", time.Now().UnixNano())
	q := New(base)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		post := testPost(time.Date(2026, 8, 28, 12, i, 0, 0, time.UTC))
		post.Topic = fmt.Sprintf("topic %d", i)
		_, err := q.Save(ctx, post)
		require.NoError(t, err)
	}

	entries, err := q.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestListEmptyQueue(t *testing.T) {
	q := New(fmt.Sprintf("mem://localhost/empty-%d", time.Now().UnixNano()))
	entries, err := q.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}
