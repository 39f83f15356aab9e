package airtable

import (
	"context"
	"fmt"
	"strings"

	"auto_pinterest_content_engine/engine"
)

// Table names inside the content base.
const (
	accountsTable = "Accounts"
	topicsTable   = "Topics"
	postsTable    = "Posts"
)

// ListTopics implements engine.Store. Filtering happens client side:
// the Account link column plus the Status field decide eligibility, the
// same check the store's own formula language would express.
func (c *Client) ListTopics(ctx context.Context, accountRef string) ([]engine.Topic, error) {
	records, err := c.List(ctx, topicsTable, ListOptions{})
	if err != nil {
		return nil, err
	}
	var topics []engine.Topic
	for _, record := range records {
		topic, ok := topicFromRecord(record)
		if !ok {
			continue
		}
		if topic.Account == accountRef && topic.Status == engine.TopicToUse {
			topics = append(topics, topic)
		}
	}
	return topics, nil
}

// ListAccounts implements engine.Store.
func (c *Client) ListAccounts(ctx context.Context) ([]engine.AccountRecord, error) {
	records, err := c.List(ctx, accountsTable, ListOptions{})
	if err != nil {
		return nil, err
	}
	accounts := make([]engine.AccountRecord, 0, len(records))
	for _, record := range records {
		name, _ := record.Fields["Name"].(string)
		if name == "" {
			continue
		}
		accounts = append(accounts, engine.AccountRecord{ID: record.ID, Name: name})
	}
	return accounts, nil
}

// UpdateTopicStatus implements engine.Store.
func (c *Client) UpdateTopicStatus(ctx context.Context, topicID string, status engine.TopicStatus) error {
	_, err := c.Update(ctx, topicsTable, topicID, map[string]any{"Status": string(status)})
	return err
}

// UpdateTopicStatusIf implements engine.Store. Airtable has no
// server-side compare-and-swap, so this is read-check-write: it catches
// every conflict that is visible at read time, but two updates landing
// between the same read and write can still both pass. A store with
// real conditional updates would close that last window.
func (c *Client) UpdateTopicStatusIf(ctx context.Context, topicID string, expect, next engine.TopicStatus) error {
	record, err := c.Get(ctx, topicsTable, topicID)
	if err != nil {
		return err
	}
	status, _ := record.Fields["Status"].(string)
	if engine.TopicStatus(status) != expect {
		return fmt.Errorf("topic %s is %q, expected %q: %w", topicID, status, expect, engine.ErrStatusConflict)
	}
	return c.UpdateTopicStatus(ctx, topicID, next)
}

// CreatePost implements engine.Store.
func (c *Client) CreatePost(ctx context.Context, post engine.GeneratedPost) (string, error) {
	fields := map[string]any{
		"Topic":       post.Topic,
		"Title":       post.Title,
		"Description": post.Description,
		"Hashtags":    strings.Join(post.Hashtags, ", "),
		"Queue Path":  post.QueuePath,
		"Status":      "ready",
	}
	if post.AccountID != "" {
		fields["Account"] = []string{post.AccountID}
	}
	record, err := c.Create(ctx, postsTable, fields)
	if err != nil {
		return "", err
	}
	return record.ID, nil
}

// NextReadyPost returns the oldest post still marked ready, or nil when
// there is nothing to publish. Used by the publisher pass.
func (c *Client) NextReadyPost(ctx context.Context) (*engine.PostRecord, error) {
	records, err := c.List(ctx, postsTable, ListOptions{FilterByFormula: "Status='ready'"})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	record := records[0]
	post := engine.PostRecord{ID: record.ID, Status: "ready"}
	post.Title, _ = record.Fields["Title"].(string)
	post.Description, _ = record.Fields["Description"].(string)
	post.Hashtags, _ = record.Fields["Hashtags"].(string)
	post.QueuePath, _ = record.Fields["Queue Path"].(string)
	return &post, nil
}

// MarkPostPosted flips a Posts record to posted after publishing.
func (c *Client) MarkPostPosted(ctx context.Context, recordID string) error {
	_, err := c.Update(ctx, postsTable, recordID, map[string]any{"Status": "posted"})
	return err
}

func topicFromRecord(record Record) (engine.Topic, bool) {
	text, _ := record.Fields["Topic"].(string)
	if text == "" {
		return engine.Topic{}, false
	}
	owner := ""
	if links, ok := record.Fields["Account"].([]any); ok && len(links) > 0 {
		owner, _ = links[0].(string)
	}
	if owner == "" {
		return engine.Topic{}, false
	}
	status, _ := record.Fields["Status"].(string)
	return engine.Topic{
		ID:      record.ID,
		Text:    text,
		Account: owner,
		Status:  engine.TopicStatus(status),
	}, true
}
