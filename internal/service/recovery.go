package service

import (
	"context"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/models"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/store"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"
	"github.com/rs/zerolog/log"
)

// RecoveryService 在加入房间或重连时向单个会话回放错过的历史消息。
type RecoveryService struct {
	store store.MessageStore
}

func NewRecoveryService(st store.MessageStore) *RecoveryService {
	return &RecoveryService{store: st}
}

// Replay 按 id 升序向会话回放 sinceID 之后的消息，sinceID 为 0 时回放全部历史。
// 调用方需先 BeginRecovery 再登记成员关系；本方法结束时 FinishRecovery 会把
// 回放期间缓冲的实时消息按序补投。读库失败只记日志并放弃本次回放：客户端
// 总是带着“最后真正收到的 id”重连，下一次成功的回放即可自愈。
func (s *RecoveryService) Replay(ctx context.Context, c *ws.Client, room string, sinceID uint) {
	defer c.FinishRecovery()

	var (
		msgs []models.Message
		err  error
	)
	if sinceID == 0 {
		msgs, err = s.store.List(ctx, room)
	} else {
		msgs, err = s.store.ListAfter(ctx, room, sinceID)
	}
	if err != nil {
		log.Error().Err(err).Str("session", c.ID).Str("room", room).Uint("since", sinceID).Msg("recovery replay")
		return
	}
	for _, m := range msgs {
		c.DeliverReplay(m.ID, ws.EncodeChat(m.Username+": "+m.Content, m.ID))
		metrics.MessagesRecoveredTotal.Inc()
	}
	if len(msgs) > 0 {
		log.Debug().Str("session", c.ID).Str("room", room).Uint("since", sinceID).Int("count", len(msgs)).Msg("replayed history")
	}
}
