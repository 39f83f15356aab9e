package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"auto_pinterest_content_engine/generator"
)

// MarkUsedPolicy decides when a topic is marked "Used" relative to the
// persistence step. The original behavior marks unconditionally once
// generation succeeded; "after_persist" requires the local queue write
// to have gone through first, so a topic can no longer be consumed
// without any durable record of its post.
type MarkUsedPolicy string

const (
	MarkAlways       MarkUsedPolicy = "always"
	MarkAfterPersist MarkUsedPolicy = "after_persist"
)

// TextGenerator produces the structured text content for one topic.
type TextGenerator interface {
	Generate(ctx context.Context, topic, style string) (generator.Post, error)
}

// ImageGenerator renders an image for a generated post and returns the
// saved path. Failures are reported as errors; the caller treats them
// as "post without image", never as fatal.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, account, topic string, post generator.Post, style string) (string, error)
}

// VideoGenerator composites a short clip from the post image.
type VideoGenerator interface {
	CreateVideo(ctx context.Context, account, topic, title, imagePath string) (string, error)
}

// QueueWriter appends one generated post to the local content queue and
// returns the written path.
type QueueWriter interface {
	Save(ctx context.Context, post GeneratedPost) (string, error)
}

// CoordinatorConfig carries the run-wide knobs.
type CoordinatorConfig struct {
	AccountsDir string
	// ReserveTopics turns on the conditional "To Use" -> "Reserved"
	// claim before generation, closing most of the duplicate-pick
	// window between overlapping runs.
	ReserveTopics  bool
	MarkUsedPolicy MarkUsedPolicy
}

// Coordinator drives one full pass over all configured accounts,
// strictly sequentially. No failure while processing one account ever
// stops the others, and RunAll itself never fails: everything that went
// wrong is a log line, everything that worked is a RunResult.
type Coordinator struct {
	cfg   CoordinatorConfig
	store Store
	alloc *Allocator
	text  TextGenerator
	image ImageGenerator
	video VideoGenerator
	queue QueueWriter
	log   *logrus.Logger
	now   func() time.Time
}

// NewCoordinator wires a Coordinator. Image and video generators may be
// nil, which disables those steps; store, allocator, text generator and
// queue are required.
func NewCoordinator(cfg CoordinatorConfig, store Store, alloc *Allocator, text TextGenerator,
	image ImageGenerator, video VideoGenerator, queue QueueWriter, logger *logrus.Logger) (*Coordinator, error) {
	if store == nil || alloc == nil || text == nil || queue == nil {
		return nil, fmt.Errorf("store, allocator, text generator and queue are required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if cfg.MarkUsedPolicy == "" {
		cfg.MarkUsedPolicy = MarkAlways
	}
	return &Coordinator{
		cfg:   cfg,
		store: store,
		alloc: alloc,
		text:  text,
		image: image,
		video: video,
		queue: queue,
		log:   logger,
		now:   time.Now,
	}, nil
}

// RunAll enumerates the account folders and generates the requested
// number of posts for each. It returns whatever succeeded, possibly an
// empty slice, and never an error.
func (c *Coordinator) RunAll(ctx context.Context) []RunResult {
	log := c.log.WithField("run", uuid.NewString()[:8])

	dirs, err := ListAccountDirs(c.cfg.AccountsDir)
	if err != nil {
		log.WithError(err).Errorf("Failed to list account folders in %s", c.cfg.AccountsDir)
		return []RunResult{}
	}
	if len(dirs) == 0 {
		log.Warnf("No account folders found in %s", c.cfg.AccountsDir)
		return []RunResult{}
	}

	lookup, err := c.accountLookup(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to load account records from the store")
		return []RunResult{}
	}

	results := []RunResult{}
	for _, dir := range dirs {
		name := filepath.Base(dir)
		accountResults := c.runAccount(ctx, log, dir, name, lookup)
		for _, r := range accountResults {
			if r.QueuePath != "" {
				log.WithField("account", r.Account).Infof("✓ Post generated + queued: %s", r.Topic)
			} else {
				log.WithField("account", r.Account).Infof("✓ Post generated: %s", r.Topic)
			}
		}
		results = append(results, accountResults...)
	}
	return results
}

// accountLookup refreshes the account name -> record id table from the
// store. It is rebuilt on every run so accounts added between runs are
// picked up without a restart.
func (c *Coordinator) accountLookup(ctx context.Context) (map[string]string, error) {
	records, err := c.store.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	lookup := make(map[string]string, len(records))
	for _, record := range records {
		lookup[record.Name] = record.ID
	}
	return lookup, nil
}

// runAccount is the per-account failure boundary: whatever goes wrong
// inside, including a panic, becomes a log line and the run moves on.
func (c *Coordinator) runAccount(ctx context.Context, log *logrus.Entry, dir, name string, lookup map[string]string) (results []RunResult) {
	alog := log.WithField("account", name)
	defer func() {
		if r := recover(); r != nil {
			alog.Errorf("❌ ERROR in %s: panic: %v", name, r)
		}
	}()

	settings, err := LoadAccountSettings(dir)
	if err != nil {
		alog.WithError(err).Errorf("❌ ERROR in %s: loading settings", name)
		return results
	}
	recordID, ok := lookup[name]
	if !ok {
		alog.Errorf("❌ ERROR in %s: no Accounts record for this folder", name)
		return results
	}

	account := Account{
		Name:       name,
		RecordID:   recordID,
		Niche:      settings.Niche,
		Style:      settings.StyleKey,
		DailyPosts: settings.DailyPosts,
	}
	if account.DailyPosts <= 0 {
		account.DailyPosts = 1
	}

	for i := 0; i < account.DailyPosts; i++ {
		result, err := c.generateOne(ctx, alog, account)
		if err != nil {
			alog.WithError(err).Errorf("❌ ERROR in %s", name)
			return results
		}
		if result == nil {
			// No topic or generation failed for this slot; either way
			// there is nothing more to force out of this account now.
			return results
		}
		results = append(results, *result)
	}
	return results
}

// reserveAttempts bounds how often a slot re-picks after losing a
// reservation race to another run.
const reserveAttempts = 3

// generateOne produces a single post for the account. A nil result with
// a nil error means "nothing to do" (empty pool or a skipped slot); an
// error means the account listing itself is broken.
func (c *Coordinator) generateOne(ctx context.Context, log *logrus.Entry, account Account) (*RunResult, error) {
	topic, err := c.claimTopic(ctx, log, account)
	if err != nil {
		return nil, err
	}
	if topic == nil {
		log.Info("No available topics in the store.")
		return nil, nil
	}

	log.Infof("Generating content for topic: %s", topic.Text)

	post, err := c.text.Generate(ctx, topic.Text, account.Style)
	if err != nil {
		// The topic stays (or goes back to) eligible so a later run can
		// retry it; this run does not.
		log.WithError(err).Errorf("Generation FAILED for topic %q", topic.Text)
		c.releaseIfReserved(ctx, log, topic)
		return nil, nil
	}

	generated := GeneratedPost{
		Account:     account.Name,
		AccountID:   account.RecordID,
		Topic:       topic.Text,
		Title:       post.Title,
		Description: post.Description,
		Hashtags:    post.Hashtags,
		CreatedAt:   c.now(),
	}

	if c.image != nil {
		imagePath, err := c.image.GenerateImage(ctx, account.Name, topic.Text, post, account.Style)
		if err != nil {
			log.WithError(err).Errorf("Image generation FAILED for topic %q", topic.Text)
		} else {
			generated.ImagePath = imagePath
		}
	}
	if c.video != nil && generated.ImagePath != "" {
		videoPath, err := c.video.CreateVideo(ctx, account.Name, topic.Text, generated.Title, generated.ImagePath)
		if err != nil {
			log.WithError(err).Errorf("Video generation FAILED for topic %q", topic.Text)
		} else {
			generated.VideoPath = videoPath
		}
	}

	// Both writes are best effort; neither blocks the other and there
	// is no transaction spanning the two.
	queuePath, queueErr := c.queue.Save(ctx, generated)
	if queueErr != nil {
		log.WithError(queueErr).Error("Failed to save post to the local queue")
	} else {
		generated.QueuePath = queuePath
		log.Infof("Saved post to queue: %s", queuePath)
	}

	recordID, storeErr := c.store.CreatePost(ctx, generated)
	if storeErr != nil {
		log.WithError(storeErr).Error("Failed to create Posts record in the store")
	}

	if c.cfg.MarkUsedPolicy == MarkAfterPersist && queueErr != nil {
		log.Warnf("Skipping mark-used for topic %s: queue write failed and policy is %s", topic.ID, MarkAfterPersist)
		c.releaseIfReserved(ctx, log, topic)
	} else if err := c.alloc.MarkConsumed(ctx, topic); err != nil {
		// The topic stays eligible, so a future run may generate it
		// again. Accepted: a duplicate post is recoverable, a silently
		// lost topic is not.
		log.WithError(err).Errorf("Failed to mark topic %s used; it will be picked again", topic.ID)
		c.releaseIfReserved(ctx, log, topic)
	}

	log.Infof("Finished generating + saving content for: %s", topic.Text)

	return &RunResult{
		Account:      account.Name,
		Topic:        topic.Text,
		Post:         generated,
		QueuePath:    generated.QueuePath,
		ImagePath:    generated.ImagePath,
		VideoPath:    generated.VideoPath,
		PostRecordID: recordID,
	}, nil
}

// releaseIfReserved returns a reserved topic to "To Use" on any path
// where it will not be marked "Used". Without this a reservation would
// strand the topic: never consumed, never eligible again.
func (c *Coordinator) releaseIfReserved(ctx context.Context, log *logrus.Entry, topic *Topic) {
	if topic.Status != TopicReserved {
		return
	}
	if err := c.alloc.Release(ctx, topic); err != nil {
		log.WithError(err).Errorf("Failed to release reserved topic %s", topic.ID)
	}
}

// claimTopic picks an eligible topic and, when reservation is enabled,
// claims it with a conditional update, re-picking on conflicts.
func (c *Coordinator) claimTopic(ctx context.Context, log *logrus.Entry, account Account) (*Topic, error) {
	for attempt := 0; attempt < reserveAttempts; attempt++ {
		topic, err := c.alloc.NextEligibleTopic(ctx, account.RecordID)
		if err != nil || topic == nil {
			return topic, err
		}
		if !c.cfg.ReserveTopics {
			return topic, nil
		}
		err = c.alloc.Reserve(ctx, topic)
		if err == nil {
			return topic, nil
		}
		if errors.Is(err, ErrStatusConflict) {
			log.Infof("Topic %s was claimed by another run, picking again", topic.ID)
			continue
		}
		return nil, fmt.Errorf("reserve topic %s: %w", topic.ID, err)
	}
	return nil, nil
}
