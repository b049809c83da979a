package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/rpc"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/wfunc/chairs/broadcast"
	"github.com/wfunc/chairs/config"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/monitor"
	"github.com/wfunc/chairs/network"
	"github.com/wfunc/chairs/room"
	chairs_rpc "github.com/wfunc/chairs/rpc"
	"github.com/wfunc/chairs/services"
	"github.com/wfunc/chairs/session"
	"github.com/wfunc/chairs/timer"
)

// DefaultRoomID 所有连接进入同一个房间，单局世界
const DefaultRoomID = "main"

type GameServer struct {
	cfg            *config.Config
	upgrader       websocket.Upgrader
	roomManager    *room.Manager
	sessionManager *session.Manager
	broadcaster    *broadcast.RoomBroadcaster
	defaultRoom    *room.Room
	rpcServer      *chairs_rpc.Server
	timers         *timer.TimerManager
	mon            *monitor.Monitor
	httpServer     *http.Server
	shutdownChan   chan struct{}
}

// NewGameServer 装配整个服务器。matchService 在未启用数据库时为 nil。
func NewGameServer(cfg *config.Config, matchService *services.MatchService, mon *monitor.Monitor) *GameServer {
	s := &GameServer{
		cfg:            cfg,
		roomManager:    room.NewRoomManager(),
		sessionManager: session.NewManager(),
		timers:         timer.NewTimerManager(),
		mon:            mon,
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	// 初始化广播器
	s.broadcaster = broadcast.NewRoomBroadcaster(s.roomManager, s.sessionManager)

	// 单一世界房间，所有连接共享
	var recorder room.MatchRecorder
	if matchService != nil {
		recorder = matchService
	}
	s.defaultRoom = s.roomManager.CreateRoom(DefaultRoomID, cfg.Game, s.broadcaster, recorder, mon)

	// 初始化RPC服务器
	rpcServer, err := chairs_rpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	// 注册RPC服务
	gameService := chairs_rpc.NewGameService(matchService, s.roomManager)
	if err := rpc.Register(gameService); err != nil {
		logger.Log.Fatalf("Failed to register RPC service: %v", err)
	}

	// 空闲会话定期清扫，被关闭的连接走正常的断开路径
	idle := time.Duration(cfg.Server.IdleTimeoutSec) * time.Second
	sweep := time.Duration(cfg.Server.SweepPeriodSec) * time.Second
	s.timers.AddTimer(sweep, sweep, func() {
		for _, sess := range s.sessionManager.All() {
			if sess.IdleFor(idle) {
				logger.Log.Warnf("会话 %s 空闲超过 %s，强制断开", sess.GetID(), idle)
				sess.Close()
			}
		}
	})

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	s.httpServer = &http.Server{Addr: s.cfg.Server.HTTPAddress, Handler: mux}

	logger.Log.Infof("Game server listening on %s", s.cfg.Server.HTTPAddress)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown 先停止接收新连接，再关掉已有连接与后台任务
func (s *GameServer) Shutdown(ctx context.Context) {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()

	for _, sess := range s.sessionManager.All() {
		sess.Close()
	}
	if s.httpServer != nil {
		s.httpServer.Shutdown(ctx)
	}
}

func (s *GameServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Infof("Failed to upgrade connection: %v", err)
		return
	}
	s.handleConnection(conn)
}

func (s *GameServer) handleConnection(conn *websocket.Conn) {
	wsConn := network.NewWSConnection(conn)
	// 会话ID即玩家ID，服务端生成，不信任客户端提供的身份
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.defaultRoom.AddSession(sess)
	s.mon.IncConnectedPlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.defaultRoom.RemoveSession(sess.GetID())
		// 未加入对局的会话在注册表中不存在，离开事件会被静默忽略
		s.defaultRoom.HandleLeave(sess.GetID())
		s.mon.DecConnectedPlayers()
		wsConn.Close()
	}()

	for {
		select {
		case <-s.shutdownChan:
			return
		default:
			packet, err := wsConn.ReadPacket()
			if err != nil {
				return
			}
			s.handlePacket(sess, packet)
		}
	}
}

func (s *GameServer) handlePacket(sess *session.Session, packet *network.Packet) {
	start := time.Now()
	s.mon.IncMessagesReceived()

	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
		sess.Send(network.MsgTypeHeartbeat, nil)
	case network.MsgTypeJoin:
		s.handleJoin(sess, packet)
	case network.MsgTypeMove:
		s.handleMove(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}

	s.mon.ObserveEventLatency(time.Since(start))
}

func (s *GameServer) handleJoin(sess *session.Session, packet *network.Packet) {
	sess.Touch()
	var req network.JoinRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		logger.Log.Warnf("Session %s sent a malformed join request: %v", sess.GetID(), err)
		return
	}
	s.defaultRoom.HandleJoin(sess.GetID(), req.Name)
}

func (s *GameServer) handleMove(sess *session.Session, packet *network.Packet) {
	sess.Touch()
	var req network.MoveRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		logger.Log.Warnf("Session %s sent a malformed move request: %v", sess.GetID(), err)
		return
	}
	s.defaultRoom.HandleMove(sess.GetID(), req.MoveX, req.MoveY)
}
