package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/models"
)

// MemoryStore 是 MessageStore 的进程内实现，DATABASE_DSN 为空时启用。
// 单实例、不落盘，只适合开发与测试；契约语义与 GormStore 一致。
type MemoryStore struct {
	mu       sync.Mutex
	nextID   uint
	byOffset map[string]int
	msgs     []models.Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byOffset: make(map[string]int)}
}

func (s *MemoryStore) Append(ctx context.Context, room, username, content, clientOffset string) (models.Message, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.byOffset[clientOffset]; ok {
		return s.msgs[idx], false, nil
	}
	s.nextID++
	msg := models.Message{
		ID:           s.nextID,
		Room:         room,
		Username:     username,
		Content:      content,
		ClientOffset: clientOffset,
		CreatedAt:    time.Now(),
	}
	s.byOffset[clientOffset] = len(s.msgs)
	s.msgs = append(s.msgs, msg)
	return msg, true, nil
}

func (s *MemoryStore) List(ctx context.Context, room string) ([]models.Message, error) {
	return s.ListAfter(ctx, room, 0)
}

func (s *MemoryStore) ListAfter(ctx context.Context, room string, sinceID uint) ([]models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// s.msgs is append-only, already ascending by id.
	var out []models.Message
	for _, m := range s.msgs {
		if m.Room == room && m.ID > sinceID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryStore) Rooms(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]struct{})
	var rooms []string
	for _, m := range s.msgs {
		if _, ok := seen[m.Room]; ok {
			continue
		}
		seen[m.Room] = struct{}{}
		rooms = append(rooms, m.Room)
	}
	sort.Strings(rooms)
	return rooms, nil
}
