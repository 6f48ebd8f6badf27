package server

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/service"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Handler 聚合只读的 REST handler，依赖注入 service 层与消息存储。
type Handler struct {
	roomSvc *service.RoomService
	store   store.MessageStore
}

func NewHandler(roomSvc *service.RoomService, st store.MessageStore) *Handler {
	return &Handler{roomSvc: roomSvc, store: st}
}

// ListRooms 返回推导出的房间列表及在线人数。
func (h *Handler) ListRooms(c *gin.Context) {
	rooms, err := h.roomSvc.List(c.Request.Context())
	if err != nil {
		log.Error().Err(err).Msg("list rooms")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list rooms"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

type messageDTO struct {
	ID       uint   `json:"id"`
	Room     string `json:"room"`
	Username string `json:"username"`
	Content  string `json:"content"`
}

// ListMessages 按 id 升序返回房间历史，after_id 用于增量拉取，
// 与恢复回放走同一存储契约。
func (h *Handler) ListMessages(c *gin.Context) {
	room := strings.TrimSpace(c.Param("name"))
	if room == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room name"})
		return
	}
	var afterID uint
	if v := c.Query("after_id"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			afterID = uint(n)
		}
	}
	msgs, err := h.store.ListAfter(c.Request.Context(), room, afterID)
	if err != nil {
		log.Error().Err(err).Str("room", room).Msg("list messages")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list messages"})
		return
	}
	out := make([]messageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, messageDTO{ID: m.ID, Room: m.Room, Username: m.Username, Content: m.Content})
	}
	c.JSON(http.StatusOK, gin.H{"messages": out})
}
