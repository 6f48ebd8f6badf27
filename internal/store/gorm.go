package store

import (
	"context"
	"fmt"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore 把消息日志落在 Postgres 上，幂等性由 client_offset 的唯一索引保证。
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Append 用 ON CONFLICT DO NOTHING 原子处理重复 offset，冲突时回查既有行。
func (s *GormStore) Append(ctx context.Context, room, username, content, clientOffset string) (models.Message, bool, error) {
	msg := models.Message{Room: room, Username: username, Content: content, ClientOffset: clientOffset}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "client_offset"}}, DoNothing: true}).
		Create(&msg)
	if res.Error != nil {
		return models.Message{}, false, fmt.Errorf("append message: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// Retried send: resolve to the row the first attempt created.
		var existing models.Message
		if err := s.db.WithContext(ctx).Where("client_offset = ?", clientOffset).First(&existing).Error; err != nil {
			return models.Message{}, false, fmt.Errorf("resolve duplicate offset: %w", err)
		}
		return existing, false, nil
	}
	return msg, true, nil
}

func (s *GormStore) List(ctx context.Context, room string) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.WithContext(ctx).Where("room = ?", room).Order("id asc").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return msgs, nil
}

func (s *GormStore) ListAfter(ctx context.Context, room string, sinceID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.WithContext(ctx).Where("room = ? AND id > ?", room, sinceID).Order("id asc").Find(&msgs).Error; err != nil {
		return nil, fmt.Errorf("list messages after %d: %w", sinceID, err)
	}
	return msgs, nil
}

func (s *GormStore) Rooms(ctx context.Context) ([]string, error) {
	var rooms []string
	if err := s.db.WithContext(ctx).Model(&models.Message{}).Distinct("room").Order("room asc").Pluck("room", &rooms).Error; err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return rooms, nil
}
