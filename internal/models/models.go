package models

import "time"

// Message 是追加式消息日志的行结构，id 即房间内的投递顺序。
// client_offset 全局唯一，保证客户端重试时的幂等写入。
type Message struct {
	ID           uint   `gorm:"primaryKey"`
	Room         string `gorm:"index:idx_msg_room_id;size:128;not null"`
	Username     string `gorm:"size:64;not null"`
	Content      string `gorm:"type:text;not null"`
	ClientOffset string `gorm:"uniqueIndex;size:128;not null"`
	CreatedAt    time.Time
}
