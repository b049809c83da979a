package rpc

import (
	"errors"
	"net"
	"net/rpc"

	"github.com/wfunc/chairs/game"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/room"
	"github.com/wfunc/chairs/services"
)

// Server manages the RPC listener.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server. Services are registered separately
// via rpc.Register before Start is called.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			// Check if the error is due to the listener being closed.
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

var ErrNoStore = errors.New("match history storage is disabled")

// GameService 运维查询入口：在线玩家、历史对局与获胜榜
type GameService struct {
	matchService *services.MatchService
	roomManager  *room.Manager
}

// NewGameService creates a new GameService. matchService may be nil when
// the server runs without a database.
func NewGameService(ms *services.MatchService, rm *room.Manager) *GameService {
	return &GameService{matchService: ms, roomManager: rm}
}

type LivePlayersArgs struct {
	RoomID string
}

type LivePlayersReply struct {
	State   string
	Players map[string]game.PlayerView
}

// LivePlayers 返回指定房间的实时快照
func (gs *GameService) LivePlayers(args *LivePlayersArgs, reply *LivePlayersReply) error {
	r, exists := gs.roomManager.GetRoom(args.RoomID)
	if !exists {
		return errors.New("room not found")
	}
	reply.State = r.StateID()
	reply.Players = r.Snapshot()
	return nil
}

type HistoryArgs struct {
	Limit int
}

type RecentMatchesReply struct {
	Matches []MatchSummary
}

type MatchSummary struct {
	RoomID      string
	Winners     []string
	Reason      string
	PlayerCount int
	SeatCount   int
}

// RecentMatches 返回最近结束的对局
func (gs *GameService) RecentMatches(args *HistoryArgs, reply *RecentMatchesReply) error {
	if gs.matchService == nil {
		return ErrNoStore
	}
	records, err := gs.matchService.RecentMatches(args.Limit)
	if err != nil {
		return err
	}
	for _, r := range records {
		s := MatchSummary{
			RoomID:      r.RoomID,
			Reason:      r.Reason,
			PlayerCount: r.PlayerCount,
			SeatCount:   r.SeatCount,
		}
		for _, w := range r.Winners {
			s.Winners = append(s.Winners, w.Name)
		}
		reply.Matches = append(reply.Matches, s)
	}
	return nil
}

type TopWinnersReply struct {
	Names []string
	Wins  []int
}

// TopWinners 返回获胜榜
func (gs *GameService) TopWinners(args *HistoryArgs, reply *TopWinnersReply) error {
	if gs.matchService == nil {
		return ErrNoStore
	}
	winners, err := gs.matchService.TopWinners(args.Limit)
	if err != nil {
		return err
	}
	for _, w := range winners {
		reply.Names = append(reply.Names, w.Name)
		reply.Wins = append(reply.Wins, w.Wins)
	}
	return nil
}
