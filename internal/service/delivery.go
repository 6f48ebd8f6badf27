package service

import (
	"context"
	"fmt"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/store"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"
)

// Broadcaster 抽象“把一条已落库消息扇出到房间”的能力。
// 单实例直接用 Hub，多实例部署换成跨进程桥接实现，投递逻辑不感知差别。
type Broadcaster interface {
	BroadcastToRoom(room, message string, id uint)
}

// DeliveryService 负责消息投递：先落库拿到 id，再按成员快照广播。
type DeliveryService struct {
	store  store.MessageStore
	hub    *ws.Hub
	caster Broadcaster
}

func NewDeliveryService(st store.MessageStore, hub *ws.Hub, caster Broadcaster) *DeliveryService {
	return &DeliveryService{store: st, hub: hub, caster: caster}
}

// Send 处理一次发送。会话必须已在房间内，否则拒绝且无任何副作用；
// client_offset 缺省时由会话内递增序列补齐。落库失败不广播不确认，
// 客户端可携带同一 offset 重试；重试命中既有行时不再二次广播。
func (s *DeliveryService) Send(ctx context.Context, c *ws.Client, content, clientOffset string) error {
	room := s.hub.CurrentRoom(c)
	if room == "" {
		return ErrNotInRoom
	}
	if content == "" {
		return ErrEmptyMessage
	}
	if clientOffset == "" {
		clientOffset = c.NextOffset()
	}
	msg, created, err := s.store.Append(ctx, room, c.Username, content, clientOffset)
	if err != nil {
		return fmt.Errorf("send to %s: %w", room, err)
	}
	if !created {
		metrics.DuplicateOffsetsTotal.Inc()
		return nil
	}
	metrics.WsMessagesTotal.Inc()
	s.caster.BroadcastToRoom(room, msg.Username+": "+msg.Content, msg.ID)
	return nil
}
