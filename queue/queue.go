package queue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/option"
	"github.com/viant/afs/url"

	"auto_pinterest_content_engine/engine"
)

// Entry is the JSON document written per generated post. The status
// starts at "ready"; the publishing side moves it along later
// (scheduled / posted). Platforms stays empty until a post goes out.
type Entry struct {
	Account     string   `json:"account"`
	Topic       string   `json:"topic"`
	GeneratedAt string   `json:"generated_at"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Hashtags    []string `json:"hashtags"`
	Status      string   `json:"status"`
	Platforms   []string `json:"platforms"`
	ImagePath   string   `json:"image_path,omitempty"`
	VideoPath   string   `json:"video_path,omitempty"`
}

// Queue is the append-only local content sink. Backed by afs, so the
// base URL can be a plain directory in production and mem:// in tests.
//
// Layout: <base>/<account>/<YYYY-MM-DD>/<HHMMSS>.json
type Queue struct {
	fs      afs.Service
	baseURL string
}

func New(baseURL string) *Queue {
	return &Queue{fs: afs.New(), baseURL: baseURL}
}

// Save writes one post to the queue and returns the written path.
func (q *Queue) Save(ctx context.Context, post engine.GeneratedPost) (string, error) {
	createdAt := post.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	dir := url.Join(q.baseURL, post.Account, createdAt.Format("2006-01-02"))
	if exists, _ := q.fs.Exists(ctx, dir); !exists {
		if err := q.fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return "", fmt.Errorf("create queue dir %s: %w", dir, err)
		}
	}

	entry := Entry{
		Account:     post.Account,
		Topic:       post.Topic,
		GeneratedAt: createdAt.Format(time.RFC3339),
		Title:       post.Title,
		Description: post.Description,
		Hashtags:    post.Hashtags,
		Status:      "ready",
		Platforms:   []string{},
		ImagePath:   post.ImagePath,
		VideoPath:   post.VideoPath,
	}
	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal queue entry: %w", err)
	}

	path := url.Join(dir, createdAt.Format("150405")+".json")
	if err := q.fs.Upload(ctx, path, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("write queue entry %s: %w", path, err)
	}
	return path, nil
}

// List reads every entry in the queue, newest directories last. Used by
// the dashboard; entries that fail to parse are skipped.
func (q *Queue) List(ctx context.Context) ([]Entry, error) {
	if exists, _ := q.fs.Exists(ctx, q.baseURL); !exists {
		return nil, nil
	}
	objects, err := q.fs.List(ctx, q.baseURL, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("list queue %s: %w", q.baseURL, err)
	}
	var entries []Entry
	for _, object := range objects {
		if object.IsDir() || !strings.HasSuffix(object.Name(), ".json") {
			continue
		}
		data, err := q.fs.DownloadWithURL(ctx, object.URL())
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
