package ws

import (
	"sort"
	"sync"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
)

// Hub 是进程内的房间成员登记表：room -> 会话集合，外加每个会话的当前房间。
// 成员关系只由 Hub 持有，广播遍历的是快照，锁不跨越任何网络或存储调用。
type Hub struct {
	mu      sync.RWMutex
	rooms   map[string]map[*Client]struct{}
	current map[*Client]string
}

func NewHub() *Hub {
	return &Hub{
		rooms:   make(map[string]map[*Client]struct{}),
		current: make(map[*Client]string),
	}
}

// Join 将会话登记为房间成员，重复加入同一房间为幂等。
// 换房策略（先 leave 再 join）由 service 层把关；这里仍兜底移除旧房间的
// 成员关系，任何路径都不会留下双重成员。换房时在登记前重置投递闸门，
// 新房间的历史回放不受旧房间水位影响。
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.current[c] == room {
		return
	}
	if cur := h.current[c]; cur != "" {
		h.removeLocked(c, cur)
	}
	c.ResetGate(room)
	members := h.rooms[room]
	if members == nil {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	h.current[c] = room
}

// Leave 将会话移出房间，非成员时为空操作。
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c, room)
}

func (h *Hub) removeLocked(c *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	if h.current[c] == room {
		delete(h.current, c)
	}
}

// Disconnect 在连接断开时清理会话的成员关系并关闭发送通道，可安全重复调用。
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	if room, ok := h.current[c]; ok {
		h.removeLocked(c, room)
	}
	h.mu.Unlock()

	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.Send)
		metrics.WsConnections.Dec()
	}
	c.mu.Unlock()
}

// CurrentRoom 返回会话当前所在的房间，未加入任何房间时为空串。
func (h *Hub) CurrentRoom(c *Client) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current[c]
}

// MembersOf 返回房间当前成员的快照，供广播遍历使用。
func (h *Hub) MembersOf(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.rooms[room]
	out := make([]*Client, 0, len(members))
	for c := range members {
		out = append(out, c)
	}
	return out
}

// Online 返回房间在线会话数，供 REST 接口复用。
func (h *Hub) Online(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Rooms 返回当前有在线成员的房间名，按字典序。
func (h *Hub) Rooms() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms))
	for name := range h.rooms {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BroadcastToRoom 将一条已落库的消息投递给房间的全部在线成员（含发送者）。
// 遍历的是成员快照，单个会话的投递不持有 Hub 锁。
func (h *Hub) BroadcastToRoom(room, message string, id uint) {
	payload := EncodeChat(message, id)
	for _, c := range h.MembersOf(room) {
		c.Deliver(id, payload)
	}
}
