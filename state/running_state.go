package state

import (
	"encoding/json"

	"github.com/wfunc/chairs/game"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/network"
)

// 结束广播与对局记录使用的文案
const (
	GameOverNotEnoughPlayers = "Not enough players. Game has been reset."

	ReasonAllSeatsClaimed     = "all seats claimed"
	ReasonInsufficientPlayers = "insufficient players"
)

// RunningState 对局进行中：移动开放，座位 = 开局人数 - 1
type RunningState struct {
	SessionStateBase
}

func NewRunningState(sess SessionContext, stats Stats) *RunningState {
	if stats == nil {
		stats = NoopStats{}
	}
	return &RunningState{
		SessionStateBase: SessionStateBase{
			ID:      StateRunning,
			Session: sess,
			Stats:   stats,
		},
	}
}

// OnEnter 开局：冻结墙体布局，按开局人数生成座位并广播开始事件
func (s *RunningState) OnEnter() {
	rules := s.Session.Rules()

	walls := s.Session.WallLayout()
	s.Session.SetWalls(walls)

	want := s.Session.Players().Count() - 1
	seats := game.GenerateSeats(want, rules.MapWidth, rules.MapHeight, walls,
		rules.SeatMargin, rules.AttemptsPerSeat, s.Session.Rand())
	if seats.Len() < want {
		// 摆放预算耗尽：降级为更少的座位继续开局
		logger.Log.Warnf("会话 %s 座位生成耗尽: %d/%d", s.Session.GetID(), seats.Len(), want)
	}
	s.Session.SetSeats(seats)

	logger.Log.Infof("会话 %s 开局: %d 名玩家, %d 个座位",
		s.Session.GetID(), s.Session.Players().Count(), seats.Len())

	payload := network.GameStartedPayload{
		Seats:     seats.Views(),
		Walls:     walls,
		MapWidth:  rules.MapWidth,
		MapHeight: rules.MapHeight,
		Players:   s.Session.Players().Snapshot(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Error marshalling game start message: %v", err)
		return
	}
	s.Session.Broadcast(network.MsgTypeGameStarted, data)
}

func (s *RunningState) OnExit() {
	logger.Log.Infof("会话 %s 退出运行状态", s.Session.GetID())
}

// HandleJoin 运行中加入被静默接受：座位数在开局时已冻结，
// 新来者没有为其保留的座位。
func (s *RunningState) HandleJoin(playerID, name string) {
	rules := s.Session.Rules()
	if _, err := s.Session.Players().Add(playerID, name, rules.SpawnX, rules.SpawnY); err != nil {
		logger.Log.Warnf("join rejected for %s: %v", playerID, err)
		return
	}
	s.broadcastSnapshot()
}

// HandleMove 校验 → 提交 → 座位判定 → 终局检查，整个序列在房间锁内原子执行
func (s *RunningState) HandleMove(playerID string, dx, dy float64) {
	players := s.Session.Players()
	p, ok := players.Get(playerID)
	if !ok {
		// 移动可能与断开竞争抵达，未知玩家一律静默忽略
		return
	}
	if p.HasSeat {
		// 已就座的玩家被冻结在原地
		return
	}

	rules := s.Session.Rules()
	if !players.ApplyMove(playerID, dx, dy, rules.PlayerRadius,
		rules.MapWidth, rules.MapHeight, s.Session.Walls()) {
		s.Stats.MoveRejected()
		return
	}

	if s.claimSeat(p) && s.Session.Seats().AllClaimed() {
		s.endGame()
		return
	}
	s.broadcastSnapshot()
}

// claimSeat 按生成顺序找第一个进入判定半径的空座。
// 每次被接受的移动最多占用一个座位。
func (s *RunningState) claimSeat(p *game.Player) bool {
	seats := s.Session.Seats()
	radius := s.Session.Rules().ClaimRadius
	for _, seat := range seats.All() {
		if seat.Taken {
			continue
		}
		if game.Distance(p.X, p.Y, seat.X, seat.Y) >= radius {
			continue
		}
		if prev := seats.Claim(seat.ID); prev {
			// 已占座位不重发事件
			return false
		}
		p.HasSeat = true
		p.Score++
		s.Stats.SeatClaimed()

		data, _ := json.Marshal(network.SeatReachedPayload{PlayerID: p.ID, SeatID: seat.ID})
		s.Session.Broadcast(network.MsgTypeSeatReached, data)
		return true
	}
	return false
}

func (s *RunningState) HandleLeave(playerID string) {
	players := s.Session.Players()
	if !players.Remove(playerID) {
		return
	}
	s.broadcastSnapshot()

	if players.Count() < s.Session.Rules().MinPlayers {
		data, _ := json.Marshal(network.GameOverPayload{Message: GameOverNotEnoughPlayers})
		s.Session.Broadcast(network.MsgTypeGameOver, data)
		s.Stats.GameFinished()
		s.Session.RecordResult(nil, ReasonInsufficientPlayers)
		s.Session.Reset()
	}
}

// endGame 所有座位被占满：广播获胜名单并重置
func (s *RunningState) endGame() {
	winners := s.Session.Players().Winners()
	logger.Log.Infof("会话 %s 对局结束, %d 名获胜者", s.Session.GetID(), len(winners))

	data, err := json.Marshal(network.GameOverPayload{Winners: winners})
	if err != nil {
		logger.Log.Errorf("Error marshalling game over message: %v", err)
	} else {
		s.Session.Broadcast(network.MsgTypeGameOver, data)
	}
	s.Stats.GameFinished()
	s.Session.RecordResult(winners, ReasonAllSeatsClaimed)
	s.Session.Reset()
}
