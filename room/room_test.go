package room

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/wfunc/chairs/config"
	"github.com/wfunc/chairs/game"
	"github.com/wfunc/chairs/network"
	"github.com/wfunc/chairs/state"
)

// RecordingBroadcaster captures every broadcast for assertions.
type RecordingBroadcaster struct {
	mu   sync.Mutex
	msgs []recordedMsg
}

type recordedMsg struct {
	msgID uint16
	data  []byte
}

func (b *RecordingBroadcaster) BroadcastToRoom(roomID string, msgID uint16, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, recordedMsg{msgID, append([]byte(nil), data...)})
	return nil
}

func (b *RecordingBroadcaster) count(msgID uint16) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, m := range b.msgs {
		if m.msgID == msgID {
			n++
		}
	}
	return n
}

func (b *RecordingBroadcaster) last(msgID uint16) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.msgs) - 1; i >= 0; i-- {
		if b.msgs[i].msgID == msgID {
			return b.msgs[i].data
		}
	}
	return nil
}

// captureRecorder is a MatchRecorder double delivering results on a channel.
type captureRecorder struct {
	ch chan matchResult
}

type matchResult struct {
	winners     []game.PlayerView
	reason      string
	playerCount int
	seatCount   int
}

func (c *captureRecorder) RecordMatch(roomID string, winners []game.PlayerView, reason string,
	playerCount, seatCount int, duration time.Duration) {
	c.ch <- matchResult{winners, reason, playerCount, seatCount}
}

func (c *captureRecorder) wait(t *testing.T) matchResult {
	t.Helper()
	select {
	case r := <-c.ch:
		return r
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for the match recorder")
		return matchResult{}
	}
}

func testRules() config.GameConfig {
	return config.GameConfig{
		MapWidth:        1600,
		MapHeight:       1200,
		SpawnX:          50,
		SpawnY:          50,
		PlayerRadius:    15,
		SeatMargin:      15,
		ClaimRadius:     20,
		MinPlayers:      2,
		AttemptsPerSeat: 10,
	}
}

// newTestRoom 固定随机种子并默认使用空旷地图，玩家可以一步跳到任意点
func newTestRoom(rules config.GameConfig, rb *RecordingBroadcaster, rec MatchRecorder) *Room {
	r := NewRoom("test-room", rules, rb, rec, nil)
	r.rng = rand.New(rand.NewSource(42))
	r.layout = func(mapW, mapH float64) []game.Wall { return nil }
	return r
}

// moveOnto 以一次增量移动把玩家送到目标点
func moveOnto(t *testing.T, r *Room, playerID string, x, y float64) {
	t.Helper()
	p, ok := r.players.Get(playerID)
	if !ok {
		t.Fatalf("player %s not found", playerID)
	}
	r.HandleMove(playerID, x-p.X, y-p.Y)
}

func TestJoin_LobbySnapshot(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")

	if got := r.StateID(); got != state.StateLobby {
		t.Fatalf("state = %s, want lobby", got)
	}
	if rb.count(network.MsgTypeUpdatePlayers) != 1 {
		t.Fatalf("expected exactly one snapshot broadcast, got %d", rb.count(network.MsgTypeUpdatePlayers))
	}

	var snap map[string]game.PlayerView
	if err := json.Unmarshal(rb.last(network.MsgTypeUpdatePlayers), &snap); err != nil {
		t.Fatalf("bad snapshot payload: %v", err)
	}
	v, ok := snap["a"]
	if !ok {
		t.Fatal("snapshot missing player a")
	}
	if v.Name != "alice" || v.X != 50 || v.Y != 50 || v.HasSeat {
		t.Errorf("unexpected snapshot entry: %+v", v)
	}
}

// Scenario A: 第二名玩家加入空大厅即开局，生成一个座位并广播开始事件
func TestTwoPlayersStartGame(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)
	r.layout = game.DefaultWalls // 本用例验证墙体冻结

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")

	if got := r.StateID(); got != state.StateRunning {
		t.Fatalf("state = %s, want running", got)
	}
	if r.seats.Len() != 1 {
		t.Fatalf("seat count = %d, want 1", r.seats.Len())
	}
	if rb.count(network.MsgTypeGameStarted) != 1 {
		t.Fatalf("expected one gameStarted broadcast, got %d", rb.count(network.MsgTypeGameStarted))
	}

	var started network.GameStartedPayload
	if err := json.Unmarshal(rb.last(network.MsgTypeGameStarted), &started); err != nil {
		t.Fatalf("bad gameStarted payload: %v", err)
	}
	if len(started.Seats) != 1 || len(started.Players) != 2 {
		t.Errorf("gameStarted has %d seats and %d players, want 1 and 2",
			len(started.Seats), len(started.Players))
	}
	if len(started.Walls) != 7 {
		t.Errorf("frozen wall layout has %d walls, want 7", len(started.Walls))
	}
	if started.MapWidth != 1600 || started.MapHeight != 1200 {
		t.Errorf("map dimensions = %v x %v", started.MapWidth, started.MapHeight)
	}
}

func TestDuplicateJoinIgnored(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("a", "impostor")

	if r.players.Count() != 1 {
		t.Fatalf("player count = %d, want 1", r.players.Count())
	}
	p, _ := r.players.Get("a")
	if p.Name != "alice" {
		t.Errorf("duplicate join must not overwrite the player, name = %q", p.Name)
	}
}

// Scenario B: 向占据 x∈[20,220] 的墙移动被拒绝，位置不变也不广播
func TestMoveRejectedByWall(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)
	r.layout = func(mapW, mapH float64) []game.Wall {
		return []game.Wall{{X: 20, Y: 0, Width: 200, Height: 1200}}
	}

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")

	before := rb.count(network.MsgTypeUpdatePlayers)
	r.HandleMove("a", 100, 0)

	p, _ := r.players.Get("a")
	if p.X != 50 || p.Y != 50 {
		t.Errorf("rejected move changed position to (%v,%v)", p.X, p.Y)
	}
	if after := rb.count(network.MsgTypeUpdatePlayers); after != before {
		t.Errorf("rejected move must not broadcast, snapshots %d -> %d", before, after)
	}
}

func TestMoveIgnoredInLobby(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")
	before := rb.count(network.MsgTypeUpdatePlayers)

	r.HandleMove("a", 10, 10)

	p, _ := r.players.Get("a")
	if p.X != 50 || p.Y != 50 {
		t.Error("movement before the game starts must be ignored entirely")
	}
	if rb.count(network.MsgTypeUpdatePlayers) != before {
		t.Error("ignored move must not broadcast")
	}
}

// 断开与在途移动的竞争：移除后到达的移动事件是无害的 no-op
func TestMoveAfterLeaveIsNoop(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleLeave("a")

	before := len(rb.msgs)
	r.HandleMove("a", 10, 0)
	if len(rb.msgs) != before {
		t.Error("move for a removed player must not broadcast anything")
	}
}

// Scenario C: 三人两座，两名玩家各占一座后广播获胜名单并整体重置
func TestScenarioC_WinnersAndReset(t *testing.T) {
	rb := &RecordingBroadcaster{}
	rec := &captureRecorder{ch: make(chan matchResult, 1)}
	rules := testRules()
	rules.MinPlayers = 3
	r := newTestRoom(rules, rb, rec)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleJoin("c", "carol")

	if r.StateID() != state.StateRunning || r.seats.Len() != 2 {
		t.Fatalf("expected running with 2 seats, got %s with %d", r.StateID(), r.seats.Len())
	}

	// 固定座位坐标，保持用例确定性
	seats := r.seats.All()
	seats[0].X, seats[0].Y = 300, 300
	seats[1].X, seats[1].Y = 900, 900

	moveOnto(t, r, "a", 300, 300)
	if rb.count(network.MsgTypeSeatReached) != 1 {
		t.Fatalf("expected one seatReached, got %d", rb.count(network.MsgTypeSeatReached))
	}
	pa, _ := r.players.Get("a")
	if !pa.HasSeat || pa.Score != 1 {
		t.Fatalf("claimant state: hasSeat=%v score=%d", pa.HasSeat, pa.Score)
	}

	// 已就座的玩家被冻结
	moveOnto(t, r, "a", 500, 500)
	if pa.X != 300 || pa.Y != 300 {
		t.Error("seated player must be frozen in place")
	}

	moveOnto(t, r, "b", 900, 900)

	var over network.GameOverPayload
	if err := json.Unmarshal(rb.last(network.MsgTypeGameOver), &over); err != nil {
		t.Fatalf("bad gameOver payload: %v", err)
	}
	if len(over.Winners) != 2 || over.Message != "" {
		t.Fatalf("expected 2 winners and no message, got %+v", over)
	}
	if over.Winners[0].ID != "a" || over.Winners[1].ID != "b" {
		t.Errorf("winners = %s, %s; want a, b", over.Winners[0].ID, over.Winners[1].ID)
	}

	if rb.count(network.MsgTypeReset) != 1 {
		t.Error("reset notice must follow the game-over broadcast")
	}
	if r.StateID() != state.StateLobby {
		t.Errorf("state after reset = %s, want lobby", r.StateID())
	}
	if r.players.Count() != 0 || r.seats.Len() != 0 || r.walls != nil {
		t.Error("reset must clear players, seats and walls")
	}

	// 重置后的快照必须为空，让所有观察者收敛
	var snap map[string]game.PlayerView
	if err := json.Unmarshal(rb.last(network.MsgTypeUpdatePlayers), &snap); err != nil {
		t.Fatalf("bad snapshot payload: %v", err)
	}
	if len(snap) != 0 {
		t.Errorf("post-reset snapshot has %d players, want 0", len(snap))
	}

	got := rec.wait(t)
	if got.reason != state.ReasonAllSeatsClaimed || len(got.winners) != 2 {
		t.Errorf("recorded result = %q with %d winners", got.reason, len(got.winners))
	}
	if got.playerCount != 3 || got.seatCount != 2 {
		t.Errorf("recorded counts = %d players, %d seats", got.playerCount, got.seatCount)
	}
}

// 两个空座同时进入判定半径时只占生成顺序靠前的那个
func TestAtMostOneSeatPerMove(t *testing.T) {
	rb := &RecordingBroadcaster{}
	rules := testRules()
	rules.MinPlayers = 3
	r := newTestRoom(rules, rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleJoin("c", "carol")

	seats := r.seats.All()
	seats[0].X, seats[0].Y = 300, 300
	seats[1].X, seats[1].Y = 305, 300

	moveOnto(t, r, "a", 302, 300)

	if rb.count(network.MsgTypeSeatReached) != 1 {
		t.Fatalf("expected one seatReached, got %d", rb.count(network.MsgTypeSeatReached))
	}
	if seats[0].Taken != true || seats[1].Taken != false {
		t.Errorf("claim order wrong: seat0=%v seat1=%v", seats[0].Taken, seats[1].Taken)
	}

	var reached network.SeatReachedPayload
	if err := json.Unmarshal(rb.last(network.MsgTypeSeatReached), &reached); err != nil {
		t.Fatalf("bad seatReached payload: %v", err)
	}
	if reached.PlayerID != "a" || reached.SeatID != 0 {
		t.Errorf("seatReached = %+v, want player a seat 0", reached)
	}
}

// 第二名玩家落到已被占的座位上不重发事件，也不获得座位
func TestClaimedSeatIsNotReclaimed(t *testing.T) {
	rb := &RecordingBroadcaster{}
	rules := testRules()
	rules.MinPlayers = 3
	r := newTestRoom(rules, rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleJoin("c", "carol")

	seats := r.seats.All()
	seats[0].X, seats[0].Y = 300, 300
	seats[1].X, seats[1].Y = 900, 900

	moveOnto(t, r, "a", 300, 300)
	moveOnto(t, r, "b", 301, 300)

	if rb.count(network.MsgTypeSeatReached) != 1 {
		t.Fatalf("expected exactly one seatReached, got %d", rb.count(network.MsgTypeSeatReached))
	}
	pb, _ := r.players.Get("b")
	if pb.HasSeat || pb.Score != 0 {
		t.Errorf("second claimant must not win the seat: hasSeat=%v score=%d", pb.HasSeat, pb.Score)
	}
	if r.seats.ClaimedCount() != 1 {
		t.Errorf("claimed count = %d, want 1", r.seats.ClaimedCount())
	}
}

// Scenario D: 运行中掉线导致人数不足，广播文字结局并重置；随后的加入开启新大厅
func TestScenarioD_DisconnectEndsGame(t *testing.T) {
	rb := &RecordingBroadcaster{}
	rec := &captureRecorder{ch: make(chan matchResult, 1)}
	r := newTestRoom(testRules(), rb, rec)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	if r.StateID() != state.StateRunning {
		t.Fatal("setup failed: session should be running")
	}

	r.HandleLeave("b")

	var over network.GameOverPayload
	if err := json.Unmarshal(rb.last(network.MsgTypeGameOver), &over); err != nil {
		t.Fatalf("bad gameOver payload: %v", err)
	}
	if over.Message != state.GameOverNotEnoughPlayers || over.Winners != nil {
		t.Errorf("expected message-form game over, got %+v", over)
	}
	if r.StateID() != state.StateLobby || r.players.Count() != 0 {
		t.Error("session must fully reset after the abort")
	}

	got := rec.wait(t)
	if got.reason != state.ReasonInsufficientPlayers || got.winners != nil {
		t.Errorf("recorded result = %+v", got)
	}

	// 新的加入应当开启一个全新的大厅
	r.HandleJoin("c", "carol")
	if r.StateID() != state.StateLobby || r.players.Count() != 1 {
		t.Error("a join after reset should land in a fresh lobby")
	}
}

func TestLeaveInLobby(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleLeave("a")
	if r.players.Count() != 0 {
		t.Error("leave in lobby should remove the player")
	}

	before := len(rb.msgs)
	r.HandleLeave("ghost")
	if len(rb.msgs) != before {
		t.Error("leave for an unknown player must not broadcast")
	}
}

// 运行中加入被接受，但座位数在开局时已冻结，不为新人补座
func TestJoinWhileRunningGetsNoSeat(t *testing.T) {
	rb := &RecordingBroadcaster{}
	r := newTestRoom(testRules(), rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleJoin("c", "late")

	if r.players.Count() != 3 {
		t.Fatalf("player count = %d, want 3", r.players.Count())
	}
	if r.seats.Len() != 1 {
		t.Errorf("seat count changed to %d after a late join", r.seats.Len())
	}
	if rb.count(network.MsgTypeGameStarted) != 1 {
		t.Error("a late join must not retrigger the start broadcast")
	}
	pc, _ := r.players.Get("c")
	if pc.HasSeat {
		t.Error("late joiner must not hold a seat")
	}
}

// 并发事件经由房间锁串行化：结束后的状态必须满足全部不变量
func TestConcurrentEvents(t *testing.T) {
	rb := &RecordingBroadcaster{}
	rules := testRules()
	rules.MinPlayers = 4
	r := newTestRoom(rules, rb, nil)

	r.HandleJoin("a", "alice")
	r.HandleJoin("b", "bob")
	r.HandleJoin("c", "carol")
	r.HandleJoin("d", "dave")

	var wg sync.WaitGroup
	ids := []string{"a", "b", "c", "d"}
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(int64(len(id))))
			for i := 0; i < 200; i++ {
				r.HandleMove(id, rng.Float64()*30-15, rng.Float64()*30-15)
			}
		}(id)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			r.HandleJoin("late", "eve")
			r.HandleLeave("late")
		}
	}()
	wg.Wait()

	r.eventMu.Lock()
	defer r.eventMu.Unlock()
	for _, p := range r.players.All() {
		if !game.InBounds(p.X, p.Y, rules.PlayerRadius, rules.MapWidth, rules.MapHeight) {
			t.Errorf("player %s ended out of bounds at (%v,%v)", p.ID, p.X, p.Y)
		}
	}
	if r.seats.ClaimedCount() > r.seats.Len() {
		t.Error("claimed count exceeds seat count")
	}
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewRoomManager()
	rb := &RecordingBroadcaster{}

	created := m.CreateRoom("main", testRules(), rb, nil, nil)
	if created == nil {
		t.Fatal("CreateRoom should not return nil")
	}

	got, exists := m.GetRoom("main")
	if !exists || got != created {
		t.Fatal("GetRoom should return the created instance")
	}
	if m.Count() != 1 {
		t.Errorf("manager count = %d, want 1", m.Count())
	}

	m.RemoveRoom("main")
	if _, exists := m.GetRoom("main"); exists {
		t.Fatal("GetRoom should not find a removed room")
	}
}
