package game

import (
	"math"
	"math/rand"
)

// Seat 可被抢占的座位。Taken 一旦置真在整局内不再回退。
type Seat struct {
	ID    int     `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Taken bool    `json:"taken"`
}

// SeatRegistry 当前对局的座位集合，按生成顺序保存。
// 非并发安全，所有修改必须经由会话状态机在房间锁内进行。
type SeatRegistry struct {
	seats []*Seat
}

func NewSeatRegistry() *SeatRegistry {
	return &SeatRegistry{}
}

// GenerateSeats 在地图上随机摆放 count 个座位，每个位置逐一验证不与墙重叠。
// 总尝试次数不超过 attemptsPerSeat*count；密集地图下耗尽预算时返回的座位
// 数量可能少于 count，调用方降级继续而不是失败。
func GenerateSeats(count int, mapW, mapH float64, walls []Wall, margin float64, attemptsPerSeat int, rng *rand.Rand) *SeatRegistry {
	reg := NewSeatRegistry()
	budget := count * attemptsPerSeat
	for attempts := 0; len(reg.seats) < count && attempts < budget; attempts++ {
		x := math.Floor(rng.Float64()*(mapW-2*margin)) + margin
		y := math.Floor(rng.Float64()*(mapH-2*margin)) + margin
		if inAnyWall(x, y, walls) {
			continue
		}
		reg.seats = append(reg.seats, &Seat{ID: len(reg.seats), X: x, Y: y})
	}
	return reg
}

func inAnyWall(x, y float64, walls []Wall) bool {
	for _, w := range walls {
		if PointInRect(x, y, w) {
			return true
		}
	}
	return false
}

// Claim 将座位标记为已占并返回之前的占用状态。
// 重复占用是幂等 no-op；未知座位号等价于已占，调用方不会再次发事件。
func (r *SeatRegistry) Claim(id int) (prevTaken bool) {
	for _, s := range r.seats {
		if s.ID == id {
			prev := s.Taken
			s.Taken = true
			return prev
		}
	}
	return true
}

// AllClaimed 所有座位都已被占时为真
func (r *SeatRegistry) AllClaimed() bool {
	for _, s := range r.seats {
		if !s.Taken {
			return false
		}
	}
	return true
}

// All 按生成顺序返回座位，平局时的判定顺序由此保证
func (r *SeatRegistry) All() []*Seat {
	return r.seats
}

func (r *SeatRegistry) Len() int {
	return len(r.seats)
}

// ClaimedCount 已占座位数，运行期内单调不减
func (r *SeatRegistry) ClaimedCount() int {
	n := 0
	for _, s := range r.seats {
		if s.Taken {
			n++
		}
	}
	return n
}

// Views 返回座位的值拷贝，用于对外广播
func (r *SeatRegistry) Views() []Seat {
	out := make([]Seat, 0, len(r.seats))
	for _, s := range r.seats {
		out = append(out, *s)
	}
	return out
}
