package main

import (
	"github.com/pitchlab/eartrainer/audio"
	"github.com/pitchlab/eartrainer/config"
	"github.com/pitchlab/eartrainer/logger"
	"github.com/pitchlab/eartrainer/monitor"
	"github.com/pitchlab/eartrainer/persistence"
	"github.com/pitchlab/eartrainer/server"
)

func main() {
	// Initialize logger
	logger.Init()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Database
	db, err := persistence.NewGormPostgreSQL(
		cfg.Database.Postgres.Host,
		cfg.Database.Postgres.Port,
		cfg.Database.Postgres.User,
		cfg.Database.Postgres.Password,
		cfg.Database.Postgres.DBName,
	)
	if err != nil {
		logger.Log.Fatalf("Failed to connect to database: %v", err)
	}
	logger.Log.Info("Database connection successful.")

	// Select the audio sink for cue playback
	var player audio.Player = audio.NopPlayer{}
	if cfg.Audio.Driver == "midi" {
		midiPlayer, err := audio.NewMIDIPlayer(cfg.Audio.Port)
		if err != nil {
			logger.Log.Fatalf("Failed to open MIDI output: %v", err)
		}
		defer midiPlayer.Close()
		player = midiPlayer
	}

	// Start metrics endpoint
	metrics := monitor.NewMonitor("eartrainer")
	metrics.StartServer(cfg.Server.MetricsAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg.Server.HTTPAddress, cfg.Server.RPCAddress, db, player, metrics)

	// Start Server
	logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
	if err := gameServer.Start(); err != nil {
		logger.Log.Fatalf("Failed to start server: %v", err)
	}
}
