package registry

import (
	"context"
	"sync"
)

// MemoryStore is an in-process Store. It backs tests and the memory
// storage driver; all methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	bots     map[string]Bot
	installs map[string]map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		bots:     make(map[string]Bot),
		installs: make(map[string]map[string]struct{}),
	}
}

func (s *MemoryStore) CreateBot(_ context.Context, bot Bot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bots[bot.ID] = bot
	return nil
}

func (s *MemoryStore) GetBot(_ context.Context, id string) (Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bot, ok := s.bots[id]
	if !ok {
		return Bot{}, ErrBotNotFound
	}
	return bot, nil
}

func (s *MemoryStore) ListBots(_ context.Context) ([]Bot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Bot, 0, len(s.bots))
	for _, bot := range s.bots {
		items = append(items, bot)
	}
	return items, nil
}

func (s *MemoryStore) InstallBots(_ context.Context, clientKey string, botIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	// All-or-nothing: verify the whole batch before touching the set.
	for _, id := range botIDs {
		if _, ok := s.bots[id]; !ok {
			return ErrUnknownBot
		}
	}
	set, ok := s.installs[clientKey]
	if !ok {
		set = make(map[string]struct{}, len(botIDs))
		s.installs[clientKey] = set
	}
	for _, id := range botIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (s *MemoryStore) FindInstalledBotByKeyword(_ context.Context, clientKey, keyword string) (Bot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	set, ok := s.installs[clientKey]
	if !ok {
		return Bot{}, false, nil
	}
	for id := range set {
		bot, ok := s.bots[id]
		if ok && bot.Keyword == keyword {
			return bot, true, nil
		}
	}
	return Bot{}, false, nil
}

func (s *MemoryStore) KeywordExists(_ context.Context, keyword string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, bot := range s.bots {
		if bot.Keyword == keyword {
			return true, nil
		}
	}
	return false, nil
}

var _ Store = (*MemoryStore)(nil)
