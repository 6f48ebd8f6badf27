package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/config"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/namegen"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/service"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ticket"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// WSHandler 把 WebSocket 连接接入核心组件：命名、票据、恢复回放与事件分发。
type WSHandler struct {
	hub      *ws.Hub
	rooms    *service.RoomService
	delivery *service.DeliveryService
	recovery *service.RecoveryService
	cfg      config.Config
}

func NewWSHandler(hub *ws.Hub, rooms *service.RoomService, delivery *service.DeliveryService, recovery *service.RecoveryService, cfg config.Config) *WSHandler {
	return &WSHandler{hub: hub, rooms: rooms, delivery: delivery, recovery: recovery, cfg: cfg}
}

// Serve 处理 /ws：升级连接、下发用户名与恢复票据。携带有效票据并声明
// room 与 offset 的连接视为断线重连，先回放 offset 之后的消息再进入实时
// 投递；回放期间抵达的实时广播由会话闸门缓冲，保证端到端严格升序。
func (h *WSHandler) Serve() gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			sessionID string
			username  string
			resumed   bool
		)
		if tk := c.Query("ticket"); tk != "" {
			if claims, err := ticket.Parse(tk, h.cfg.SessionSecret); err == nil {
				sessionID = claims.SessionID
				username = claims.Username
				resumed = true
			} else {
				log.Debug().Err(err).Msg("resume ticket rejected")
			}
		}
		if !resumed {
			sessionID = uuid.NewString()
			username = namegen.Pick()
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := ws.NewClient(sessionID, username, h.hub, conn)
		go client.WritePump()

		tk, err := ticket.Issue(sessionID, username, h.cfg.SessionSecret, time.Duration(h.cfg.TicketTTLHours)*time.Hour)
		if err != nil {
			log.Error().Err(err).Str("session", sessionID).Msg("issue resume ticket")
		}
		client.DeliverEvent(ws.EncodeUsername(username, tk))
		log.Info().Str("session", sessionID).Str("username", username).Bool("resumed", resumed).Msg("session connected")

		if resumed {
			h.resume(client, c.Query("room"), c.Query("offset"))
		}

		client.ReadPump(h.handleEvent)
	}
}

// resume 只恢复重连时声明的那个房间：先开启缓冲闸门，再登记成员关系，
// 然后回放 offset 之后的历史，避免“回放没追上、实时又漏发”的窗口。
func (h *WSHandler) resume(client *ws.Client, room, offsetStr string) {
	room = strings.TrimSpace(room)
	if room == "" {
		return
	}
	var offset uint
	if v, err := strconv.Atoi(offsetStr); err == nil && v > 0 {
		offset = uint(v)
	}
	client.BeginRecovery()
	if err := h.rooms.Join(client, room); err != nil {
		client.FinishRecovery()
		log.Debug().Err(err).Str("session", client.ID).Str("room", room).Msg("resume join refused")
		return
	}
	h.recovery.Replay(context.Background(), client, room, offset)
}

func (h *WSHandler) handleEvent(client *ws.Client, data []byte) {
	var in ws.InboundMessage
	if err := json.Unmarshal(data, &in); err != nil {
		log.Debug().Err(err).Str("session", client.ID).Msg("malformed event")
		return
	}
	ctx := context.Background()
	switch in.Type {
	case ws.EventJoinRoom:
		room := strings.TrimSpace(in.Room)
		client.BeginRecovery()
		if err := h.rooms.Join(client, room); err != nil {
			client.FinishRecovery()
			// 按约定不向对端回发错误事件，丢弃原因只留在服务端日志里。
			log.Debug().Err(err).Str("session", client.ID).Str("room", in.Room).Msg("join refused")
			return
		}
		h.recovery.Replay(ctx, client, room, 0)
		log.Info().Str("session", client.ID).Str("username", client.Username).Str("room", room).Msg("joined room")
	case ws.EventLeaveRoom:
		h.rooms.Leave(client, in.Room)
		log.Info().Str("session", client.ID).Str("room", in.Room).Msg("left room")
	case ws.EventChatMessage:
		if err := h.delivery.Send(ctx, client, in.Content, in.ClientOffset); err != nil {
			log.Debug().Err(err).Str("session", client.ID).Msg("message dropped")
		}
	default:
		log.Debug().Str("session", client.ID).Str("type", in.Type).Msg("unknown event")
	}
}
