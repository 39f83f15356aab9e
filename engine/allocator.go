package engine

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Allocator hands out eligible topics and drives their status
// transitions. Selection is uniformly random so that topics entered
// earlier carry no implicit priority and batch-refreshed pools drain
// evenly.
//
// Selection and consumption are two separate store round trips with no
// store-side lock between them. Two overlapping runs can therefore both
// pick the same topic; enabling reservation (Reserve/Release) narrows
// that window to a single conditional update per topic.
type Allocator struct {
	store Store
	rnd   *rand.Rand
}

// AllocatorOption customizes a new Allocator.
type AllocatorOption func(*Allocator)

// WithRand replaces the default time-seeded source, mainly for tests.
func WithRand(rnd *rand.Rand) AllocatorOption {
	return func(a *Allocator) {
		a.rnd = rnd
	}
}

func NewAllocator(store Store, opts ...AllocatorOption) *Allocator {
	a := &Allocator{
		store: store,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// NextEligibleTopic picks one eligible topic for the account, or nil
// when the pool is empty. An empty pool is not an error; it means
// there is nothing to do for this account this run. The store is not
// mutated here.
func (a *Allocator) NextEligibleTopic(ctx context.Context, accountRef string) (*Topic, error) {
	topics, err := a.store.ListTopics(ctx, accountRef)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	if len(topics) == 0 {
		return nil, nil
	}
	topic := topics[a.rnd.Intn(len(topics))]
	return &topic, nil
}

// Reserve claims the topic with a conditional "To Use" -> "Reserved"
// transition. ErrStatusConflict means another run got there first and
// the caller should pick again.
func (a *Allocator) Reserve(ctx context.Context, topic *Topic) error {
	if err := a.store.UpdateTopicStatusIf(ctx, topic.ID, TopicToUse, TopicReserved); err != nil {
		return err
	}
	topic.Status = TopicReserved
	return nil
}

// Release returns a reserved topic to the eligible pool after a failed
// generation attempt.
func (a *Allocator) Release(ctx context.Context, topic *Topic) error {
	if err := a.store.UpdateTopicStatusIf(ctx, topic.ID, TopicReserved, TopicToUse); err != nil {
		return err
	}
	topic.Status = TopicToUse
	return nil
}

// MarkConsumed transitions the topic to "Used". Call this only after
// the generated post has been handed to persistence; marking earlier
// would silently lose the topic if generation fails. When the topic was
// reserved the transition is conditional, otherwise it is a plain
// update matching the store's last-write-wins semantics.
func (a *Allocator) MarkConsumed(ctx context.Context, topic *Topic) error {
	var err error
	if topic.Status == TopicReserved {
		err = a.store.UpdateTopicStatusIf(ctx, topic.ID, TopicReserved, TopicUsed)
	} else {
		err = a.store.UpdateTopicStatus(ctx, topic.ID, TopicUsed)
	}
	if err != nil {
		return fmt.Errorf("mark topic %s used: %w", topic.ID, err)
	}
	topic.Status = TopicUsed
	return nil
}
