// room/room.go
package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/wfunc/chairs/config"
	"github.com/wfunc/chairs/game"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/network"
	"github.com/wfunc/chairs/session"
	"github.com/wfunc/chairs/state"
)

// Room 一局抢座位游戏的聚合根：玩家、座位、墙体与状态机都挂在这里。
// 玩家与座位只允许状态机在 eventMu 保护下修改。
type Room struct {
	ID        string
	CreatedAt time.Time

	// eventMu 串行化所有入站事件：
	// 单个事件的 校验→变更→广播 相对其他事件原子执行
	eventMu sync.Mutex

	players *game.PlayerRegistry
	seats   *game.SeatRegistry
	walls   []game.Wall

	rules   config.GameConfig
	machine state.StateMachine
	rng     *rand.Rand
	layout  func(mapW, mapH float64) []game.Wall

	broadcaster Broadcaster
	recorder    MatchRecorder
	stats       state.Stats

	// 连接观察者，包含尚未加入对局的连接；广播面向所有观察者
	sessions  map[string]*session.Session
	sessMutex sync.RWMutex

	startedAt time.Time
}

// NewRoom 创建房间并装配状态机。recorder 与 stats 允许为 nil。
func NewRoom(id string, rules config.GameConfig, broadcaster Broadcaster, recorder MatchRecorder, stats state.Stats) *Room {
	if stats == nil {
		stats = state.NoopStats{}
	}
	r := &Room{
		ID:          id,
		CreatedAt:   time.Now(),
		players:     game.NewPlayerRegistry(),
		seats:       game.NewSeatRegistry(),
		rules:       rules,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		layout:      game.DefaultWalls,
		broadcaster: broadcaster,
		recorder:    recorder,
		stats:       stats,
		sessions:    make(map[string]*session.Session),
	}

	lobby := state.NewLobbyState(r, stats)
	running := state.NewRunningState(r, stats)
	r.machine = state.NewBaseStateMachine(lobby)
	// 开局条件：大厅人数达到门槛；回大厅无条件
	r.machine.AddTransition(lobby, running, func() bool {
		return r.players.Count() >= r.rules.MinPlayers
	})
	r.machine.AddTransition(running, lobby, nil)

	return r
}

// --- 入站事件，由传输层逐个投递 ---

func (r *Room) HandleJoin(playerID, name string) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()
	r.machine.GetCurrentState().HandleJoin(playerID, name)
}

func (r *Room) HandleMove(playerID string, dx, dy float64) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()
	r.machine.GetCurrentState().HandleMove(playerID, dx, dy)
}

func (r *Room) HandleLeave(playerID string) {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()
	r.machine.GetCurrentState().HandleLeave(playerID)
}

// --- 实现 state.SessionContext 接口 ---

func (r *Room) GetID() string {
	return r.ID
}

func (r *Room) Rules() config.GameConfig {
	return r.rules
}

func (r *Room) Rand() *rand.Rand {
	return r.rng
}

func (r *Room) Players() *game.PlayerRegistry {
	return r.players
}

func (r *Room) Seats() *game.SeatRegistry {
	return r.seats
}

// SetSeats 仅在开局时由运行状态调用，同时记下开局时间
func (r *Room) SetSeats(s *game.SeatRegistry) {
	r.seats = s
	r.startedAt = time.Now()
}

func (r *Room) Walls() []game.Wall {
	return r.walls
}

func (r *Room) SetWalls(w []game.Wall) {
	r.walls = w
}

// WallLayout 开局时冻结的墙体布局
func (r *Room) WallLayout() []game.Wall {
	return r.layout(r.rules.MapWidth, r.rules.MapHeight)
}

func (r *Room) ChangeState(newState state.State) error {
	return r.machine.ChangeState(newState)
}

// Broadcast 发送给房间内的所有观察者，fire-and-forget
func (r *Room) Broadcast(msgID uint16, data []byte) {
	if r.broadcaster == nil {
		return
	}
	if err := r.broadcaster.BroadcastToRoom(r.ID, msgID, data); err != nil {
		logger.Log.Errorf("broadcast %d to room %s failed: %v", msgID, r.ID, err)
	}
}

// Reset 清空全部集合，广播空快照与重置通知，回到大厅
func (r *Room) Reset() {
	r.players = game.NewPlayerRegistry()
	r.seats = game.NewSeatRegistry()
	r.walls = nil
	r.startedAt = time.Time{}

	data, _ := json.Marshal(r.players.Snapshot())
	r.Broadcast(network.MsgTypeUpdatePlayers, data)
	r.Broadcast(network.MsgTypeReset, nil)

	if err := r.ChangeState(state.NewLobbyState(r, r.stats)); err != nil {
		logger.Log.Errorf("room %s failed to return to lobby: %v", r.ID, err)
	}
}

// RecordResult 把对局结果交给记录器异步落盘，不阻塞事件处理
func (r *Room) RecordResult(winners []game.PlayerView, reason string) {
	if r.recorder == nil {
		return
	}
	var duration time.Duration
	if !r.startedAt.IsZero() {
		duration = time.Since(r.startedAt)
	}
	go r.recorder.RecordMatch(r.ID, winners, reason, r.players.Count(), r.seats.Len(), duration)
}

// --- 观察者连接管理 ---

// AddSession 连接建立即成为观察者，加入对局前也能收到广播
func (r *Room) AddSession(s *session.Session) {
	r.sessMutex.Lock()
	defer r.sessMutex.Unlock()
	r.sessions[s.ID] = s
	s.RoomID = r.ID
}

func (r *Room) RemoveSession(sessionID string) {
	r.sessMutex.Lock()
	defer r.sessMutex.Unlock()
	if s, exists := r.sessions[sessionID]; exists {
		s.RoomID = ""
		delete(r.sessions, sessionID)
	}
}

// GetSessions returns a slice of all sessions in the room (thread-safe).
func (r *Room) GetSessions() []*session.Session {
	r.sessMutex.RLock()
	defer r.sessMutex.RUnlock()

	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	return sessions
}

func (r *Room) SessionCount() int {
	r.sessMutex.RLock()
	defer r.sessMutex.RUnlock()
	return len(r.sessions)
}

// --- 只读访问，供 RPC 与监控使用 ---

// StateID 当前状态标识（lobby / running）
func (r *Room) StateID() string {
	return r.machine.GetCurrentState().GetID()
}

// Snapshot 在事件锁内取一份一致的玩家快照
func (r *Room) Snapshot() map[string]game.PlayerView {
	r.eventMu.Lock()
	defer r.eventMu.Unlock()
	return r.players.Snapshot()
}

// --- 房间管理器 ---

// Manager 管理所有房间
type Manager struct {
	rooms map[string]*Room
	mutex sync.RWMutex
}

// NewRoomManager 创建一个新的房间管理器
func NewRoomManager() *Manager {
	return &Manager{
		rooms: make(map[string]*Room),
	}
}

// CreateRoom 创建一个新房间并添加到管理器
func (m *Manager) CreateRoom(id string, rules config.GameConfig, broadcaster Broadcaster, recorder MatchRecorder, stats state.Stats) *Room {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	room := NewRoom(id, rules, broadcaster, recorder, stats)
	m.rooms[id] = room
	return room
}

// GetRoom 从管理器中获取一个房间
func (m *Manager) GetRoom(id string) (*Room, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	room, exists := m.rooms[id]
	return room, exists
}

// RemoveRoom 从管理器中移除一个房间
func (m *Manager) RemoveRoom(id string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.rooms, id)
}

func (m *Manager) Count() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.rooms)
}
