package ws

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client 表示一条活跃的 WebSocket 会话，从连接到断开。
// 投递侧带一个序号闸门：恢复回放期间实时消息先缓冲，回放结束后按
// id 升序补投，重复或倒序的 id 直接丢弃，保证端到端严格升序。
type Client struct {
	ID       string
	Username string
	Send     chan []byte

	hub  *Hub
	conn *websocket.Conn

	// nonce 区分同一逻辑会话的不同物理连接：重连后会话 id 不变，
	// 但服务端代生成的 offset 不得与上一条连接的重合。
	nonce   string
	counter uint64

	mu         sync.Mutex
	closed     bool
	gateRoom   string
	lastID     uint
	recovering int
	pending    []gated
}

type gated struct {
	id      uint
	payload []byte
}

func NewClient(id, username string, hub *Hub, conn *websocket.Conn) *Client {
	metrics.WsConnections.Inc()
	return &Client{
		ID:       id,
		Username: username,
		Send:     make(chan []byte, 256),
		hub:      hub,
		conn:     conn,
		nonce:    uuid.NewString()[:8],
	}
}

// NextOffset 生成连接内严格递增的 client_offset，供未自带偏移的发送使用。
func (c *Client) NextOffset() string {
	n := atomic.AddUint64(&c.counter, 1)
	return fmt.Sprintf("%s-%s-%d", c.ID, c.nonce, n-1)
}

// Deliver 投递一条实时广播消息。恢复期间先缓冲；id 不前进则视为重复丢弃。
func (c *Client) Deliver(id uint, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.recovering > 0 {
		c.pending = append(c.pending, gated{id: id, payload: payload})
		return
	}
	if id <= c.lastID {
		return
	}
	c.lastID = id
	c.enqueueLocked(payload)
}

// DeliverReplay 投递一条回放消息，只在 id 前进时发出。
func (c *Client) DeliverReplay(id uint, payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || id <= c.lastID {
		return
	}
	c.lastID = id
	c.enqueueLocked(payload)
}

// DeliverEvent 投递与消息序无关的事件（如 username），不经过闸门。
func (c *Client) DeliverEvent(payload []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.enqueueLocked(payload)
}

// ResetGate 在会话换进一个新房间时重置投递闸门。消息 id 全局递增而水位
// 只对单个房间有意义：不重置的话，旧房间里见过的高 id 会吞掉新房间的
// 历史回放。重复加入同一房间保留水位，回放去重继续生效。
// 必须在登记进新房间之前调用，否则新房间的实时广播可能先进缓冲再被清掉。
func (c *Client) ResetGate(room string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gateRoom == room {
		return
	}
	c.gateRoom = room
	c.lastID = 0
	c.pending = nil
}

// BeginRecovery 在把会话登记进房间之前调用，此后实时广播进入缓冲。
func (c *Client) BeginRecovery() {
	c.mu.Lock()
	c.recovering++
	c.mu.Unlock()
}

// FinishRecovery 结束回放：缓冲的实时消息按 id 升序补投，已回放过的丢弃。
func (c *Client) FinishRecovery() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.recovering--
	if c.recovering > 0 {
		return
	}
	pend := c.pending
	c.pending = nil
	sort.Slice(pend, func(i, j int) bool { return pend[i].id < pend[j].id })
	for _, g := range pend {
		if c.closed || g.id <= c.lastID {
			continue
		}
		c.lastID = g.id
		c.enqueueLocked(g.payload)
	}
}

// enqueueLocked 非阻塞入队，调用方必须持有 c.mu。
// 消费过慢的会话直接淘汰，错过的消息由重连恢复补齐。
func (c *Client) enqueueLocked(payload []byte) {
	if c.closed {
		return
	}
	select {
	case c.Send <- payload:
	default:
		c.closed = true
		close(c.Send)
		metrics.WsConnections.Dec()
		if c.hub != nil {
			go c.hub.Disconnect(c)
		}
	}
}

// ReadPump 逐条读取上行事件并交给 handle，连接断开时清理成员关系。
func (c *Client) ReadPump(handle func(*Client, []byte)) {
	defer func() {
		c.hub.Disconnect(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(1 << 20) // 1MB
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		handle(c, data)
	}
}

func (c *Client) WritePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			_, _ = w.Write(message)
			_ = w.Close()
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
