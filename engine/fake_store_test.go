package engine

import (
	"context"
	"fmt"
	"sync"
)

// fakeStore is an in-memory Store with atomic conditional updates, the
// semantics a hardened backing store would provide.
type fakeStore struct {
	mu       sync.Mutex
	topics   map[string]*Topic
	accounts []AccountRecord
	posts    []GeneratedPost

	listTopicsErr error
	updateErr     error
	markUsedErr   error
	createPostErr error
}

func newFakeStore(accounts ...AccountRecord) *fakeStore {
	return &fakeStore{
		topics:   map[string]*Topic{},
		accounts: accounts,
	}
}

func (s *fakeStore) addTopic(id, text, accountRef string, status TopicStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topics[id] = &Topic{ID: id, Text: text, Account: accountRef, Status: status}
}

func (s *fakeStore) topicStatus(id string) TopicStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topics[id].Status
}

func (s *fakeStore) createdPosts() []GeneratedPost {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]GeneratedPost(nil), s.posts...)
}

func (s *fakeStore) ListTopics(_ context.Context, accountRef string) ([]Topic, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listTopicsErr != nil {
		return nil, s.listTopicsErr
	}
	var eligible []Topic
	for _, topic := range s.topics {
		if topic.Account == accountRef && topic.Status == TopicToUse {
			eligible = append(eligible, *topic)
		}
	}
	return eligible, nil
}

func (s *fakeStore) ListAccounts(_ context.Context) ([]AccountRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AccountRecord(nil), s.accounts...), nil
}

func (s *fakeStore) UpdateTopicStatus(_ context.Context, topicID string, status TopicStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.markUsedErr != nil && status == TopicUsed {
		return s.markUsedErr
	}
	topic, ok := s.topics[topicID]
	if !ok {
		return fmt.Errorf("no topic %s", topicID)
	}
	topic.Status = status
	return nil
}

func (s *fakeStore) UpdateTopicStatusIf(_ context.Context, topicID string, expect, next TopicStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	if s.markUsedErr != nil && next == TopicUsed {
		return s.markUsedErr
	}
	topic, ok := s.topics[topicID]
	if !ok {
		return fmt.Errorf("no topic %s", topicID)
	}
	if topic.Status != expect {
		return ErrStatusConflict
	}
	topic.Status = next
	return nil
}

func (s *fakeStore) CreatePost(_ context.Context, post GeneratedPost) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createPostErr != nil {
		return "", s.createPostErr
	}
	s.posts = append(s.posts, post)
	return fmt.Sprintf("recPost%d", len(s.posts)), nil
}
