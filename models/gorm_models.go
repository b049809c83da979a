// models/gorm_models.go
package models

import (
	"gorm.io/gorm"
)

// GormMatch 对局记录表
type GormMatch struct {
	gorm.Model
	RoomID      string `gorm:"index;not null"`
	Winners     []byte `gorm:"type:jsonb;not null"`
	Reason      string `gorm:"not null"`
	PlayerCount int    `gorm:"default:0"`
	SeatCount   int    `gorm:"default:0"`
	Duration    int    `gorm:"default:0"` // 对局时长(秒)
}

// GormWinnerTally 按玩家累计的获胜计数
type GormWinnerTally struct {
	PlayerID string `gorm:"primaryKey"`
	Name     string `gorm:"not null"`
	Wins     int    `gorm:"default:0"`
}
