// broadcast/broadcast.go
package broadcast

import (
	"errors"

	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/room"
	"github.com/wfunc/chairs/session"
)

var ErrRoomNotFound = errors.New("room not found")

// RoomBroadcaster 面向房间与全服的广播出口，实现 room.Broadcaster
type RoomBroadcaster struct {
	roomManager    *room.Manager
	sessionManager *session.Manager
}

func NewRoomBroadcaster(rm *room.Manager, sm *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		roomManager:    rm,
		sessionManager: sm,
	}
}

// BroadcastToRoom 把消息发给房间内的所有观察者连接。
// 单个连接的发送失败只记日志，不中断对其余连接的投递。
func (b *RoomBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	r, exists := b.roomManager.GetRoom(roomID)
	if !exists {
		return ErrRoomNotFound
	}

	for _, s := range r.GetSessions() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnf("向会话 %s 发送消息 %d 失败: %v", s.ID, msgID, err)
		}
	}
	return nil
}

// BroadcastToAll 把消息发给所有在线连接，无论是否在房间内
func (b *RoomBroadcaster) BroadcastToAll(msgID uint16, data []byte) {
	for _, s := range b.sessionManager.All() {
		if err := s.Send(msgID, data); err != nil {
			logger.Log.Warnf("向会话 %s 发送消息 %d 失败: %v", s.ID, msgID, err)
		}
	}
}
