package room

import (
	"time"

	"github.com/wfunc/chairs/game"
)

// Broadcaster defines the interface for broadcasting messages to a room.
// This is defined here to break the import cycle between room and broadcast.
type Broadcaster interface {
	BroadcastToRoom(roomID string, msgID uint16, data []byte) error
}

// MatchRecorder 对局结束后异步落盘的接口，由 services 层实现，可为 nil
type MatchRecorder interface {
	RecordMatch(roomID string, winners []game.PlayerView, reason string,
		playerCount, seatCount int, duration time.Duration)
}
