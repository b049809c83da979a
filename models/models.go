// models/models.go
package models

import (
	"time"
)

// WinnerInfo 对局获胜者
type WinnerInfo struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
}

// MatchRecord 一局对局的结果记录
type MatchRecord struct {
	RoomID      string        `json:"room_id"`
	Winners     []WinnerInfo  `json:"winners"`
	Reason      string        `json:"reason"` // all seats claimed / insufficient players
	PlayerCount int           `json:"player_count"`
	SeatCount   int           `json:"seat_count"`
	Duration    time.Duration `json:"duration"`
	FinishedAt  time.Time     `json:"finished_at"`
}

// WinnerCount 获胜榜条目
type WinnerCount struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Wins     int    `json:"wins"`
}
