package service

import (
	"context"
	"sort"
	"strings"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/store"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"
)

// RoomService 封装成员关系的策略：空房间名拒绝，换房必须先显式 leave。
type RoomService struct {
	hub   *ws.Hub
	store store.MessageStore
}

func NewRoomService(hub *ws.Hub, st store.MessageStore) *RoomService {
	return &RoomService{hub: hub, store: st}
}

// Join 校验房间名与换房策略后登记成员关系，重复加入同一房间为幂等。
func (s *RoomService) Join(c *ws.Client, room string) error {
	room = strings.TrimSpace(room)
	if room == "" {
		return ErrEmptyRoomName
	}
	if cur := s.hub.CurrentRoom(c); cur != "" && cur != room {
		return ErrAlreadyInRoom
	}
	s.hub.Join(c, room)
	return nil
}

// Leave 将会话移出房间，非成员时为空操作。
func (s *RoomService) Leave(c *ws.Client, room string) {
	s.hub.Leave(c, strings.TrimSpace(room))
}

// Disconnect 清理断开会话占用的成员关系。
func (s *RoomService) Disconnect(c *ws.Client) {
	s.hub.Disconnect(c)
}

// RoomDTO 是对外输出的房间数据。房间不是持久实体，由消息与在线成员推导。
type RoomDTO struct {
	Name   string `json:"name"`
	Online int    `json:"online"`
}

// List 合并存量消息出现过的房间与当前有在线成员的房间，附带在线人数。
func (s *RoomService) List(ctx context.Context) ([]RoomDTO, error) {
	names, err := s.store.Rooms(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		seen[n] = struct{}{}
	}
	for _, n := range s.hub.Rooms() {
		if _, ok := seen[n]; !ok {
			seen[n] = struct{}{}
			names = append(names, n)
		}
	}
	sort.Strings(names)
	out := make([]RoomDTO, 0, len(names))
	for _, n := range names {
		out = append(out, RoomDTO{Name: n, Online: s.hub.Online(n)})
	}
	return out, nil
}
