package service

import "errors"

// 核心投递路径的业务错误。对端不回发协议级错误事件：被拒的发送或加入
// 只在服务端记日志，“先加入房间再发言”这类前置条件由客户端自行呈现。
var (
	ErrNotInRoom     = errors.New("not in a room")
	ErrEmptyRoomName = errors.New("empty room name")
	ErrAlreadyInRoom = errors.New("already in another room")
	ErrEmptyMessage  = errors.New("empty message")
)
