package network

import "github.com/wfunc/chairs/game"

// 消息ID：1xx 为客户端上行，3xx 为服务端广播
const (
	MsgTypeHeartbeat = 1
	MsgTypeJoin      = 101 // playerJoined
	MsgTypeMove      = 102 // continuousMove

	MsgTypeUpdatePlayers = 301 // 全量玩家快照
	MsgTypeGameStarted   = 302
	MsgTypeSeatReached   = 303
	MsgTypeGameOver      = 304
	MsgTypeReset         = 305
)

// JoinRequest 玩家提交名字后发送一次
type JoinRequest struct {
	Name string `json:"name"`
}

// MoveRequest 按键期间反复发送的位置增量，单位为地图像素，
// X 正方向向右，Y 正方向向下
type MoveRequest struct {
	MoveX float64 `json:"moveX"`
	MoveY float64 `json:"moveY"`
}

// GameStartedPayload 开局广播：冻结的墙体布局、生成的座位与当前玩家
type GameStartedPayload struct {
	Seats     []game.Seat                `json:"seats"`
	Walls     []game.Wall                `json:"walls"`
	MapWidth  float64                    `json:"mapWidth"`
	MapHeight float64                    `json:"mapHeight"`
	Players   map[string]game.PlayerView `json:"players"`
}

// SeatReachedPayload 每次座位被占发送一次
type SeatReachedPayload struct {
	PlayerID string `json:"playerId"`
	SeatID   int    `json:"seatId"`
}

// GameOverPayload 两种结局形式二选一：获胜名单或文字原因
type GameOverPayload struct {
	Winners []game.PlayerView `json:"winners,omitempty"`
	Message string            `json:"message,omitempty"`
}
