// server/server.go
package server

import (
	"encoding/json"
	"net/http"
	"net/rpc"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pitchlab/eartrainer/audio"
	"github.com/pitchlab/eartrainer/broadcast"
	"github.com/pitchlab/eartrainer/logger"
	"github.com/pitchlab/eartrainer/monitor"
	"github.com/pitchlab/eartrainer/network"
	"github.com/pitchlab/eartrainer/persistence"
	"github.com/pitchlab/eartrainer/recovery"
	"github.com/pitchlab/eartrainer/services"
	"github.com/pitchlab/eartrainer/session"
	"github.com/pitchlab/eartrainer/timer"
	eartrainer_rpc "github.com/pitchlab/eartrainer/rpc"
)

type startMatchRequest struct {
	UserID  int64 `json:"userId"`
	LevelID int64 `json:"levelId"`
}

type resumeMatchRequest struct {
	UserID   int64  `json:"userId"`
	LevelID  int64  `json:"levelId"`
	Snapshot string `json:"snapshot"`
}

type optionRequest struct {
	Index int `json:"index"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// GameServer accepts websocket connections and hosts one match runner per
// session. Match reads for tooling go through the companion RPC server.
type GameServer struct {
	addr           string
	upgrader       websocket.Upgrader
	sessionManager *session.Manager
	notifier       broadcast.Notifier
	levelService   *services.LevelService
	matchService   *services.MatchService
	rpcServer      *eartrainer_rpc.Server
	metrics        *monitor.Monitor
	timers         *timer.Manager
	player         audio.Player

	runnerMutex  sync.Mutex
	runners      map[string]*Runner
	shutdownChan chan struct{}
}

func NewGameServer(addr, rpcAddr string, db persistence.Database, player audio.Player, metrics *monitor.Monitor) *GameServer {
	s := &GameServer{
		addr:           addr,
		sessionManager: session.NewManager(),
		levelService:   services.NewLevelService(db),
		matchService:   services.NewMatchService(db),
		metrics:        metrics,
		timers:         timer.NewManager(),
		player:         player,
		runners:        make(map[string]*Runner),
		shutdownChan:   make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 允许所有跨域请求
			},
		},
	}

	s.notifier = broadcast.NewSessionNotifier(s.sessionManager)

	rpcServer, err := eartrainer_rpc.NewServer(rpcAddr)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	s.rpcServer = rpcServer

	statsService := eartrainer_rpc.NewStatsService(s.matchService)
	rpc.Register(statsService)

	return s
}

func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	http.HandleFunc("/ws", s.handleWebSocket)
	http.HandleFunc("/ongoing", s.handleOngoingMatch)
	logger.Log.Infof("Game server listening on %s", s.addr)
	return http.ListenAndServe(s.addr, nil)
}

func (s *GameServer) Shutdown() {
	close(s.shutdownChan)
	s.rpcServer.Stop()
	s.timers.Stop()
}

// handleOngoingMatch serves the recovery slot over plain HTTP for the browser
// shell: the snapshot cookie comes in with the request and the stored match,
// if still valid, goes back as JSON. Stale or malformed cookies are expired
// on the way out.
func (s *GameServer) handleOngoingMatch(w http.ResponseWriter, r *http.Request) {
	store := recovery.NewStore(recovery.NewCookieMedium(w, r))
	snap := store.Load()
	if snap == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
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
	sess := session.NewSession(uuid.New().String(), wsConn)
	s.sessionManager.Add(sess)
	s.metrics.IncOnlinePlayers()

	logger.Log.Infof("New connection from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())

	defer func() {
		logger.Log.Infof("Connection closed from %s, session ID: %s", wsConn.RemoteAddr(), sess.GetID())
		s.removeRunner(sess.GetID())
		s.sessionManager.Remove(sess.GetID())
		s.metrics.DecOnlinePlayers()
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
	switch packet.MsgID {
	case network.MsgTypeHeartbeat:
		sess.Touch()
	case network.MsgTypeStartMatch:
		s.handleStartMatch(sess, packet)
	case network.MsgTypeResumeMatch:
		s.handleResumeMatch(sess, packet)
	case network.MsgTypeAbandonMatch:
		if runner, ok := s.getRunner(sess.GetID()); ok {
			runner.Abandon()
		}
	case network.MsgTypeDiscardSnapshot:
		if runner, ok := s.getRunner(sess.GetID()); ok {
			runner.DiscardSnapshot()
		}
	case network.MsgTypeSelectOption:
		s.handleSelectOption(sess, packet)
	case network.MsgTypePauseRound:
		if runner, ok := s.getRunner(sess.GetID()); ok {
			runner.Pause()
		}
	case network.MsgTypeUnpauseRound:
		if runner, ok := s.getRunner(sess.GetID()); ok {
			runner.Unpause()
		}
	case network.MsgTypeReplayTarget:
		if runner, ok := s.getRunner(sess.GetID()); ok {
			runner.ReplayTarget()
		}
	case network.MsgTypeReplayOption:
		s.handleReplayOption(sess, packet)
	default:
		logger.Log.Infof("Unknown message type: %d", packet.MsgID)
	}
}

func (s *GameServer) handleStartMatch(sess *session.Session, packet *network.Packet) {
	var req startMatchRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed start request")
		return
	}

	runner := s.runnerFor(sess)
	if err := runner.Start(req.UserID, req.LevelID); err != nil {
		logger.Log.Warnf("Session %s failed to start match on level %d: %v", sess.GetID(), req.LevelID, err)
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) handleResumeMatch(sess *session.Session, packet *network.Packet) {
	var req resumeMatchRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed resume request")
		return
	}

	runner := s.runnerFor(sess)
	if err := runner.Resume(req.UserID, req.LevelID, req.Snapshot); err != nil {
		logger.Log.Warnf("Session %s failed to resume match on level %d: %v", sess.GetID(), req.LevelID, err)
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) handleSelectOption(sess *session.Session, packet *network.Packet) {
	var req optionRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed selection")
		return
	}

	runner, ok := s.getRunner(sess.GetID())
	if !ok {
		return
	}
	if err := runner.Select(req.Index); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) handleReplayOption(sess *session.Session, packet *network.Packet) {
	var req optionRequest
	if err := json.Unmarshal(packet.Data, &req); err != nil {
		s.sendError(sess, "malformed replay request")
		return
	}

	runner, ok := s.getRunner(sess.GetID())
	if !ok {
		return
	}
	if err := runner.ReplayOption(req.Index); err != nil {
		s.sendError(sess, err.Error())
	}
}

func (s *GameServer) sendError(sess *session.Session, message string) {
	data, _ := json.Marshal(errorPayload{Message: message})
	sess.Send(network.MsgTypeError, data)
}

// runnerFor returns the session's runner, creating it on first use.
func (s *GameServer) runnerFor(sess *session.Session) *Runner {
	s.runnerMutex.Lock()
	defer s.runnerMutex.Unlock()

	if runner, exists := s.runners[sess.GetID()]; exists {
		if !runner.Done() {
			return runner
		}
		runner.Close()
	}
	runner := NewRunner(sess, s.notifier, s.metrics, s.timers, s.levelService, s.matchService, s.player)
	s.runners[sess.GetID()] = runner
	return runner
}

func (s *GameServer) getRunner(sessionID string) (*Runner, bool) {
	s.runnerMutex.Lock()
	defer s.runnerMutex.Unlock()
	runner, exists := s.runners[sessionID]
	return runner, exists
}

func (s *GameServer) removeRunner(sessionID string) {
	s.runnerMutex.Lock()
	defer s.runnerMutex.Unlock()

	if runner, exists := s.runners[sessionID]; exists {
		runner.Close()
		delete(s.runners, sessionID)
	}
}
