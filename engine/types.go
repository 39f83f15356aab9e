package engine

import "time"

// TopicStatus mirrors the Status field of the Topics table. Any value
// outside the known set is treated as not eligible.
type TopicStatus string

const (
	TopicToUse    TopicStatus = "To Use"
	TopicReserved TopicStatus = "Reserved"
	TopicUsed     TopicStatus = "Used"
)

// Account is one configured destination channel, loaded from its
// accounts/<name>/ folder plus the matching Accounts record.
type Account struct {
	Name       string
	RecordID   string
	Niche      string
	Style      string
	DailyPosts int
}

// Topic is one unit of subject matter, owned by exactly one account.
// The Account field holds the owning record reference as stored in the
// Topics table link column.
type Topic struct {
	ID      string
	Text    string
	Account string
	Status  TopicStatus
}

// GeneratedPost is the output artifact of one generation pass.
// ImagePath and VideoPath stay empty when the respective generation
// step failed or was disabled.
type GeneratedPost struct {
	Account     string
	AccountID   string
	Topic       string
	Title       string
	Description string
	Hashtags    []string
	CreatedAt   time.Time
	ImagePath   string
	VideoPath   string
	QueuePath   string
}

// RunResult records one successfully generated and persisted post for
// the end-of-run summary. Failures never appear here; they only show up
// in the logs.
type RunResult struct {
	Account      string
	Topic        string
	Post         GeneratedPost
	QueuePath    string
	ImagePath    string
	VideoPath    string
	PostRecordID string
}

// AccountRecord is one row of the Accounts table, used to resolve
// account folder names to store record ids.
type AccountRecord struct {
	ID   string
	Name string
}

// PostRecord is one row of the Posts table as seen by the publisher.
type PostRecord struct {
	ID          string
	Title       string
	Description string
	Hashtags    string
	QueuePath   string
	Status      string
}
