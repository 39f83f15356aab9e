package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededAllocator(store Store) *Allocator {
	return NewAllocator(store, WithRand(rand.New(rand.NewSource(1))))
}

func TestNextEligibleTopicEmptyPool(t *testing.T) {
	store := newFakeStore()
	alloc := seededAllocator(store)

	topic, err := alloc.NextEligibleTopic(context.Background(), "recA")
	require.NoError(t, err)
	assert.Nil(t, topic, "empty pool should be a nil topic, not an error")
}

func TestNextEligibleTopicFiltersOwnerAndStatus(t *testing.T) {
	store := newFakeStore()
	store.addTopic("t1", "cabin life", "recA", TopicToUse)
	store.addTopic("t2", "other account", "recB", TopicToUse)
	store.addTopic("t3", "already used", "recA", TopicUsed)
	store.addTopic("t4", "reserved elsewhere", "recA", TopicReserved)
	alloc := seededAllocator(store)

	for i := 0; i < 20; i++ {
		topic, err := alloc.NextEligibleTopic(context.Background(), "recA")
		require.NoError(t, err)
		require.NotNil(t, topic)
		assert.Equal(t, "t1", topic.ID)
	}
}

func TestNextEligibleTopicSamplesUniformly(t *testing.T) {
	store := newFakeStore()
	ids := map[string]bool{}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("t%d", i)
		store.addTopic(id, fmt.Sprintf("topic %d", i), "recA", TopicToUse)
		ids[id] = false
	}
	alloc := seededAllocator(store)

	for i := 0; i < 200; i++ {
		topic, err := alloc.NextEligibleTopic(context.Background(), "recA")
		require.NoError(t, err)
		require.NotNil(t, topic)
		ids[topic.ID] = true
	}
	for id, seen := range ids {
		assert.True(t, seen, "topic %s never picked across 200 draws", id)
	}
}

func TestMarkConsumedExcludesTopic(t *testing.T) {
	store := newFakeStore()
	store.addTopic("t1", "one", "recA", TopicToUse)
	store.addTopic("t2", "two", "recA", TopicToUse)
	alloc := seededAllocator(store)
	ctx := context.Background()

	topic, err := alloc.NextEligibleTopic(ctx, "recA")
	require.NoError(t, err)
	require.NotNil(t, topic)
	require.NoError(t, alloc.MarkConsumed(ctx, topic))
	assert.Equal(t, TopicUsed, store.topicStatus(topic.ID))

	for i := 0; i < 50; i++ {
		next, err := alloc.NextEligibleTopic(ctx, "recA")
		require.NoError(t, err)
		require.NotNil(t, next)
		assert.NotEqual(t, topic.ID, next.ID, "consumed topic must never be returned again")
	}
}

func TestReserveConflict(t *testing.T) {
	store := newFakeStore()
	store.addTopic("t1", "one", "recA", TopicToUse)
	alloc := seededAllocator(store)
	ctx := context.Background()

	topic, err := alloc.NextEligibleTopic(ctx, "recA")
	require.NoError(t, err)
	require.NoError(t, alloc.Reserve(ctx, topic))
	assert.Equal(t, TopicReserved, store.topicStatus("t1"))

	// A second run holding a stale copy of the same topic loses the race.
	stale := &Topic{ID: "t1", Text: "one", Account: "recA", Status: TopicToUse}
	err = alloc.Reserve(ctx, stale)
	assert.ErrorIs(t, err, ErrStatusConflict)

	require.NoError(t, alloc.MarkConsumed(ctx, topic))
	assert.Equal(t, TopicUsed, store.topicStatus("t1"))
}

func TestReleaseReturnsTopicToPool(t *testing.T) {
	store := newFakeStore()
	store.addTopic("t1", "one", "recA", TopicToUse)
	alloc := seededAllocator(store)
	ctx := context.Background()

	topic, err := alloc.NextEligibleTopic(ctx, "recA")
	require.NoError(t, err)
	require.NoError(t, alloc.Reserve(ctx, topic))
	require.NoError(t, alloc.Release(ctx, topic))
	assert.Equal(t, TopicToUse, store.topicStatus("t1"))

	again, err := alloc.NextEligibleTopic(ctx, "recA")
	require.NoError(t, err)
	require.NotNil(t, again, "released topic should be eligible again")
}

func TestNextEligibleTopicListError(t *testing.T) {
	store := newFakeStore()
	store.listTopicsErr = errors.New("store down")
	alloc := seededAllocator(store)

	_, err := alloc.NextEligibleTopic(context.Background(), "recA")
	assert.Error(t, err)
}
