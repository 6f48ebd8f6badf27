package ws

import "encoding/json"

const (
	EventJoinRoom    = "join room"
	EventLeaveRoom   = "leave room"
	EventChatMessage = "chat message"
	EventUsername    = "username"
)

// InboundMessage 是客户端上行事件的统一载荷。
type InboundMessage struct {
	Type         string `json:"type"`
	Room         string `json:"room,omitempty"`
	Content      string `json:"content,omitempty"`
	ClientOffset string `json:"client_offset,omitempty"`
}

// OutboundMessage 是服务端下行事件的统一载荷。
type OutboundMessage struct {
	Type     string `json:"type"`
	Username string `json:"username,omitempty"`
	Ticket   string `json:"ticket,omitempty"`
	Message  string `json:"message,omitempty"`
	ID       uint   `json:"id,omitempty"`
}

// EncodeChat 把格式化后的消息文本与消息 id 编码为下行事件。
func EncodeChat(message string, id uint) []byte {
	b, _ := json.Marshal(OutboundMessage{Type: EventChatMessage, Message: message, ID: id})
	return b
}

// EncodeUsername 编码连接建立时下发的用户名与恢复票据。
func EncodeUsername(username, ticket string) []byte {
	b, _ := json.Marshal(OutboundMessage{Type: EventUsername, Username: username, Ticket: ticket})
	return b
}
