package state

import (
	"encoding/json"

	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/network"
)

const (
	StateLobby   = "lobby"
	StateRunning = "running"
)

// broadcastSnapshot 任一被接受的加入/移动/断开之后都广播全量玩家快照
func (s *SessionStateBase) broadcastSnapshot() {
	data, err := json.Marshal(s.Session.Players().Snapshot())
	if err != nil {
		logger.Log.Errorf("Error marshalling player snapshot: %v", err)
		return
	}
	s.Session.Broadcast(network.MsgTypeUpdatePlayers, data)
}

// LobbyState 组局阶段：玩家陆续加入，人数达到门槛后开局
type LobbyState struct {
	SessionStateBase
}

func NewLobbyState(sess SessionContext, stats Stats) *LobbyState {
	if stats == nil {
		stats = NoopStats{}
	}
	return &LobbyState{
		SessionStateBase: SessionStateBase{
			ID:      StateLobby,
			Session: sess,
			Stats:   stats,
		},
	}
}

func (s *LobbyState) OnEnter() {
	logger.Log.Infof("会话 %s 进入大厅状态", s.Session.GetID())
}

func (s *LobbyState) HandleJoin(playerID, name string) {
	rules := s.Session.Rules()
	if _, err := s.Session.Players().Add(playerID, name, rules.SpawnX, rules.SpawnY); err != nil {
		// 连接级ID理论上不会撞车，记一笔即可，不允许打断会话
		logger.Log.Warnf("join rejected for %s: %v", playerID, err)
		return
	}
	s.broadcastSnapshot()

	if s.Session.Players().Count() >= rules.MinPlayers {
		if err := s.Session.ChangeState(NewRunningState(s.Session, s.Stats)); err != nil {
			logger.Log.Errorf("failed to start session %s: %v", s.Session.GetID(), err)
		}
	}
}

func (s *LobbyState) HandleLeave(playerID string) {
	if !s.Session.Players().Remove(playerID) {
		return
	}
	s.broadcastSnapshot()
}
