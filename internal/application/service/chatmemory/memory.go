// Package chatmemory implements the Chat-Memory Store (C11): a
// per-(conversationId, modelType) bounded sliding window, persisted in Redis
// so it survives a process restart. The key-per-scope, get/mutate/set
// pattern is adapted from the teacher's transient Redis-backed state
// service; here the payload is a trimmed message window instead of a
// temporary-knowledge-base pointer, and a mutex per key replaces the
// teacher's unsynchronized get-then-set (§5 requires per-key serialized
// mutation with lock-free reads).
package chatmemory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/Tencent/WeKnora/internal/logger"
	"github.com/Tencent/WeKnora/internal/types"
	"github.com/Tencent/WeKnora/internal/types/interfaces"
	"github.com/redis/go-redis/v9"
)

type redisMemoryService struct {
	redisClient *redis.Client
	windowSize  int

	mu      sync.Mutex
	keyLock map[string]*sync.Mutex
}

// New constructs a ChatMemoryService backed by Redis, with window truncated
// to windowSize messages (config key memory.windowSize, default 10).
func New(redisClient *redis.Client, windowSize int) interfaces.ChatMemoryService {
	if windowSize <= 0 {
		windowSize = 10
	}
	return &redisMemoryService{
		redisClient: redisClient,
		windowSize:  windowSize,
		keyLock:     make(map[string]*sync.Mutex),
	}
}

func key(conversationID string, modelType types.ModelType) string {
	return fmt.Sprintf("chatmemory:%s:%s", modelType, conversationID)
}

func (s *redisMemoryService) lockFor(k string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.keyLock[k]
	if !ok {
		m = &sync.Mutex{}
		s.keyLock[k] = m
	}
	return m
}

func (s *redisMemoryService) load(ctx context.Context, k string) ([]types.ChatMemoryEntry, error) {
	raw, err := s.redisClient.Get(ctx, k).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []types.ChatMemoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *redisMemoryService) save(ctx context.Context, k string, entries []types.ChatMemoryEntry) error {
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return s.redisClient.Set(ctx, k, b, 0).Err()
}

func (s *redisMemoryService) Append(
	ctx context.Context, conversationID string, modelType types.ModelType, msg types.ChatMemoryEntry,
) error {
	k := key(conversationID, modelType)
	lock := s.lockFor(k)
	lock.Lock()
	defer lock.Unlock()

	entries, err := s.load(ctx, k)
	if err != nil {
		logger.GetLogger(ctx).Warnf("chatmemory: load %s failed, starting fresh: %v", k, err)
		entries = nil
	}
	entries = append(entries, msg)
	if len(entries) > s.windowSize {
		entries = entries[len(entries)-s.windowSize:]
	}
	return s.save(ctx, k, entries)
}

func (s *redisMemoryService) History(
	ctx context.Context, conversationID string, modelType types.ModelType,
) ([]types.ChatMemoryEntry, error) {
	entries, err := s.load(ctx, key(conversationID, modelType))
	if err != nil {
		return nil, err
	}
	if len(entries) > s.windowSize {
		entries = entries[len(entries)-s.windowSize:]
	}
	return entries, nil
}

func (s *redisMemoryService) Clear(ctx context.Context, conversationID string, modelType types.ModelType) error {
	return s.redisClient.Del(ctx, key(conversationID, modelType)).Err()
}

// ClearAll empties every model's memory for conversationID. The store keys
// by (conversationId, modelType) so there is no enumeration without a
// registry of active model types, so ClearAll deletes the keys of the four
// fixed model types (BASIC, ADVANCED, ADVANCED_RAG, UNIFIED).
func (s *redisMemoryService) ClearAll(ctx context.Context, conversationID string) error {
	modelTypes := []types.ModelType{
		types.ModelTypeBasic, types.ModelTypeAdvanced, types.ModelTypeAdvancedRAG, types.ModelTypeUnified,
	}
	keys := make([]string, 0, len(modelTypes))
	for _, mt := range modelTypes {
		keys = append(keys, key(conversationID, mt))
	}
	return s.redisClient.Del(ctx, keys...).Err()
}

func (s *redisMemoryService) Exists(
	ctx context.Context, conversationID string, modelType types.ModelType,
) (bool, error) {
	n, err := s.redisClient.Exists(ctx, key(conversationID, modelType)).Result()
	return n > 0, err
}

func (s *redisMemoryService) Count(
	ctx context.Context, conversationID string, modelType types.ModelType,
) (int, error) {
	entries, err := s.History(ctx, conversationID, modelType)
	return len(entries), err
}
