package game

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// ErrDuplicateID 连接级 ID 正常情况下不会重复，这里做防御性校验
var ErrDuplicateID = errors.New("player id already registered")

// Player 服务器权威的玩家状态。Score 只进对局记录，不进对外快照。
type Player struct {
	ID      string
	Name    string
	X, Y    float64
	HasSeat bool
	Score   int
}

// PlayerView 对外广播的玩家快照
type PlayerView struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	HasSeat bool    `json:"hasSeat"`
}

// PlayerRegistry 在线玩家注册表。非并发安全，
// 所有修改必须经由会话状态机在房间锁内进行。
type PlayerRegistry struct {
	players map[string]*Player
	order   []string // 插入顺序，保证遍历与获胜名单的确定性
	joinSeq int      // 默认取名的递增序号，玩家移除后不复用
}

func NewPlayerRegistry() *PlayerRegistry {
	return &PlayerRegistry{
		players: make(map[string]*Player),
	}
}

// Add 注册新玩家并放置到出生点。空白名字分配 Player{N}，
// N 为 1 起始的插入序号。
func (r *PlayerRegistry) Add(id, name string, spawnX, spawnY float64) (*Player, error) {
	if _, exists := r.players[id]; exists {
		return nil, ErrDuplicateID
	}
	r.joinSeq++
	name = strings.TrimSpace(name)
	if name == "" {
		name = fmt.Sprintf("Player%d", r.joinSeq)
	}
	p := &Player{ID: id, Name: name, X: spawnX, Y: spawnY}
	r.players[id] = p
	r.order = append(r.order, id)
	return p, nil
}

// Remove 移除玩家，不存在时为 no-op，返回是否确实移除
func (r *PlayerRegistry) Remove(id string) bool {
	if _, exists := r.players[id]; !exists {
		return false
	}
	delete(r.players, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *PlayerRegistry) Get(id string) (*Player, bool) {
	p, ok := r.players[id]
	return p, ok
}

func (r *PlayerRegistry) Count() int {
	return len(r.players)
}

// ApplyMove 校验并提交一次位移。候选位置 = 当前位置 + 增量；
// 增量非有限数、越界或穿墙时拒绝且状态不变。
func (r *PlayerRegistry) ApplyMove(id string, dx, dy, radius, mapW, mapH float64, walls []Wall) bool {
	p, ok := r.players[id]
	if !ok {
		return false
	}
	if !isFinite(dx) || !isFinite(dy) {
		return false
	}
	nx, ny := p.X+dx, p.Y+dy
	if !InBounds(nx, ny, radius, mapW, mapH) {
		return false
	}
	if Collides(nx, ny, radius, walls) {
		return false
	}
	p.X, p.Y = nx, ny
	return true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Snapshot 返回 id -> 视图 的完整快照
func (r *PlayerRegistry) Snapshot() map[string]PlayerView {
	out := make(map[string]PlayerView, len(r.players))
	for id, p := range r.players {
		out[id] = p.view()
	}
	return out
}

// All 按插入顺序返回玩家
func (r *PlayerRegistry) All() []*Player {
	out := make([]*Player, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.players[id])
	}
	return out
}

// Winners 按插入顺序返回所有已就座玩家的视图
func (r *PlayerRegistry) Winners() []PlayerView {
	var out []PlayerView
	for _, id := range r.order {
		if p := r.players[id]; p.HasSeat {
			out = append(out, p.view())
		}
	}
	return out
}

func (p *Player) view() PlayerView {
	return PlayerView{ID: p.ID, Name: p.Name, X: p.X, Y: p.Y, HasSeat: p.HasSeat}
}
