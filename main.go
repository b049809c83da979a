package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wfunc/chairs/config"
	"github.com/wfunc/chairs/logger"
	"github.com/wfunc/chairs/monitor"
	"github.com/wfunc/chairs/persistence"
	"github.com/wfunc/chairs/server"
	"github.com/wfunc/chairs/services"
)

func main() {
	// Initialize logger
	logger.Init()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig(".")
	if err != nil {
		logger.Log.Fatalf("Failed to load configuration: %v", err)
	}

	// 对局记录是可选的，未启用时服务器完全在内存中运行
	var matchService *services.MatchService
	if cfg.Database.Enabled {
		store, err := openStore(cfg)
		if err != nil {
			logger.Log.Fatalf("Failed to connect to database: %v", err)
		}
		defer store.Close()
		logger.Log.Info("Database connection successful.")
		matchService = services.NewMatchService(store)
	}

	// Initialize monitoring
	mon := monitor.NewMonitor("chairs")
	mon.StartServer(cfg.Server.MonitorAddress)

	// Initialize Game Server
	gameServer := server.NewGameServer(cfg, matchService, mon)

	go func() {
		logger.Log.Infof("Starting game server on %s", cfg.Server.HTTPAddress)
		if err := gameServer.Start(); err != nil {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待退出信号后优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	gameServer.Shutdown(ctx)
}

func openStore(cfg *config.Config) (persistence.Store, error) {
	pg := cfg.Database.Postgres
	switch cfg.Database.Driver {
	case "sql":
		return persistence.NewPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	default:
		return persistence.NewGormPostgreSQL(pg.Host, pg.Port, pg.User, pg.Password, pg.DBName)
	}
}
