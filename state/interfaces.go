// state/interfaces.go
package state

import (
	"math/rand"

	"github.com/wfunc/chairs/config"
	"github.com/wfunc/chairs/game"
)

// SessionContext 状态机驱动一局游戏所需的最小接口，由 room.Room 实现。
// 定义在这里以打破 state 与 room 之间的循环依赖。
type SessionContext interface {
	GetID() string
	Rules() config.GameConfig
	Rand() *rand.Rand

	Players() *game.PlayerRegistry
	Seats() *game.SeatRegistry
	SetSeats(*game.SeatRegistry)
	Walls() []game.Wall
	SetWalls([]game.Wall)
	// WallLayout 返回开局时要冻结的墙体布局
	WallLayout() []game.Wall

	ChangeState(newState State) error
	Broadcast(msgID uint16, data []byte)

	// Reset 清空全部集合、广播空快照与重置通知并回到大厅
	Reset()
	// RecordResult 异步落盘对局结果，winners 为空表示因故中止
	RecordResult(winners []game.PlayerView, reason string)
}

// Stats 状态机上报的计数钩子，由监控层实现，可为空实现
type Stats interface {
	MoveRejected()
	SeatClaimed()
	GameFinished()
}

// NoopStats 未接监控时的空实现
type NoopStats struct{}

func (NoopStats) MoveRejected() {}
func (NoopStats) SeatClaimed()  {}
func (NoopStats) GameFinished() {}
