package store

import (
	"context"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/models"
)

// MessageStore 是消息日志的统一契约：幂等追加与按 id 升序读取。
// Append 的幂等性必须由存储自身的唯一约束保证，禁止先查后插。
type MessageStore interface {
	// Append 追加一条消息。client_offset 已存在时返回既有行且 created 为 false，
	// 不产生新行。返回 error 时调用方不得广播。
	Append(ctx context.Context, room, username, content, clientOffset string) (models.Message, bool, error)
	// List 返回房间全部历史，按 id 升序。
	List(ctx context.Context, room string) ([]models.Message, error)
	// ListAfter 返回房间内 id > sinceID 的消息，按 id 升序，无缺漏无重复。
	ListAfter(ctx context.Context, room string, sinceID uint) ([]models.Message, error)
	// Rooms 返回出现过消息的房间名，按字典序。
	Rooms(ctx context.Context) ([]string, error)
}
