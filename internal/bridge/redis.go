package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/config"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const channel = "chat:broadcast"

// RedisBridge 通过 Redis Pub/Sub 把广播扇出到其他进程实例。
// 本地会话仍由 Hub 直接投递，频道上自身发布的消息按实例 id 跳过。
type RedisBridge struct {
	client     *redis.Client
	local      *ws.Hub
	instanceID string
}

type envelope struct {
	Origin  string `json:"origin"`
	Room    string `json:"room"`
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

func NewRedisBridge(cfg config.Config, local *ws.Hub) (*RedisBridge, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return &RedisBridge{client: client, local: local, instanceID: uuid.NewString()}, nil
}

// Run 订阅广播频道并把远端实例的消息注入本地 Hub，直到 ctx 取消。
func (b *RedisBridge) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, channel)
	defer func() { _ = sub.Close() }()
	log.Info().Str("instance", b.instanceID).Msg("redis bridge subscribed")
	for msg := range sub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.Warn().Err(err).Msg("bridge payload")
			continue
		}
		if env.Origin == b.instanceID {
			continue
		}
		b.local.BroadcastToRoom(env.Room, env.Message, env.ID)
	}
}

// BroadcastToRoom 先本地投递，再发布给其他实例。发布失败只影响远端会话，
// 它们可在重连时通过恢复回放补齐，这里只记日志。
func (b *RedisBridge) BroadcastToRoom(room, message string, id uint) {
	b.local.BroadcastToRoom(room, message, id)
	payload, err := json.Marshal(envelope{Origin: b.instanceID, Room: room, Message: message, ID: id})
	if err != nil {
		return
	}
	if err := b.client.Publish(context.Background(), channel, payload).Err(); err != nil {
		log.Warn().Err(err).Str("room", room).Msg("bridge publish")
	}
}
