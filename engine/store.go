package engine

import (
	"context"
	"errors"
)

// ErrStatusConflict is returned by conditional status updates when the
// record no longer carries the expected status, meaning another run
// claimed the topic first.
var ErrStatusConflict = errors.New("topic status conflict")

// Store is the tabular record store holding the Accounts, Topics and
// Posts tables. The engine only mutates topic statuses and appends
// posts; accounts and topics are created out of band.
type Store interface {
	// ListTopics returns the eligible topics for the given account
	// reference: owned by it and with status "To Use".
	ListTopics(ctx context.Context, accountRef string) ([]Topic, error)

	// ListAccounts returns all rows of the Accounts table.
	ListAccounts(ctx context.Context) ([]AccountRecord, error)

	// UpdateTopicStatus unconditionally sets the status of a topic.
	UpdateTopicStatus(ctx context.Context, topicID string, status TopicStatus) error

	// UpdateTopicStatusIf transitions a topic from expect to next and
	// returns ErrStatusConflict when the current status differs from
	// expect.
	UpdateTopicStatusIf(ctx context.Context, topicID string, expect, next TopicStatus) error

	// CreatePost appends a row to the Posts table and returns its
	// record id.
	CreatePost(ctx context.Context, post GeneratedPost) (string, error)
}
