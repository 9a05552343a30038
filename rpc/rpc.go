package rpc

import (
	"net"
	"net/rpc"

	"github.com/pitchlab/eartrainer/logger"
	"github.com/pitchlab/eartrainer/models"
	"github.com/pitchlab/eartrainer/services"
)

// Server manages the RPC listener used by internal tooling (profile screens,
// admin back office) to read match stats without going through the game
// socket.
type Server struct {
	listener net.Listener
	address  string
}

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

func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
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

func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// StatsService exposes match read queries over net/rpc.
type StatsService struct {
	matches *services.MatchService
}

func NewStatsService(ms *services.MatchService) *StatsService {
	return &StatsService{matches: ms}
}

type PlayerStatsArgs struct {
	UserID int64
}

type PlayerStatsReply struct {
	Stats models.PlayerStats
}

func (ss *StatsService) GetPlayerStats(args *PlayerStatsArgs, reply *PlayerStatsReply) error {
	stats, err := ss.matches.PlayerStats(args.UserID)
	if err != nil {
		return err
	}
	reply.Stats = *stats
	return nil
}

type MatchHistoryArgs struct {
	UserID int64
	Limit  int
}

type MatchHistoryReply struct {
	Matches []models.MatchRecord
}

func (ss *StatsService) GetMatchHistory(args *MatchHistoryArgs, reply *MatchHistoryReply) error {
	matches, err := ss.matches.MatchHistory(args.UserID, args.Limit)
	if err != nil {
		return err
	}
	reply.Matches = matches
	return nil
}
