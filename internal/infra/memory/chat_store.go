package memory

import (
	"context"
	"sync"
)

// ChatStore is an in-memory implementation of the chat transcript store.
type ChatStore struct {
	mu          sync.RWMutex
	transcripts map[string][]string
}

func NewChatStore() *ChatStore {
	return &ChatStore{transcripts: make(map[string][]string)}
}

func (s *ChatStore) Append(_ context.Context, username string, messages ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[username] = append(s.transcripts[username], messages...)
	return nil
}

func (s *ChatStore) Messages(_ context.Context, username string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	transcript := s.transcripts[username]
	out := make([]string, len(transcript))
	copy(out, transcript)
	return out, nil
}

func (s *ChatStore) Clear(_ context.Context, username string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.transcripts, username)
	return nil
}
