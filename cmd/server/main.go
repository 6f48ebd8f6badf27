package main

import (
	"context"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/bridge"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/config"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/db"
	clog "github.com/Sidarth-Roy/ChatApp-POC/internal/log"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/server"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/service"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/store"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	// main 负责装配：配置、日志、存储选择、Hub、跨实例桥接与 HTTP 服务。
	cfg := config.Load()
	clog.Init(cfg.Env)

	var st store.MessageStore
	if cfg.DatabaseDSN != "" {
		gdb, err := db.Connect(cfg.DatabaseDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("db connect")
		}
		if err := db.Migrate(gdb); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		st = store.NewGormStore(gdb)
	} else {
		log.Warn().Msg("DATABASE_DSN empty, using in-memory message store")
		st = store.NewMemoryStore()
	}

	hub := ws.NewHub()

	var caster service.Broadcaster = hub
	if cfg.RedisAddr != "" {
		br, err := bridge.NewRedisBridge(cfg, hub)
		if err != nil {
			log.Fatal().Err(err).Msg("redis bridge")
		}
		go br.Run(context.Background())
		caster = br
	}

	roomSvc := service.NewRoomService(hub, st)
	deliverySvc := service.NewDeliveryService(st, hub, caster)
	recoverySvc := service.NewRecoveryService(st)

	h := server.NewHandler(roomSvc, st)
	wsh := server.NewWSHandler(hub, roomSvc, deliverySvc, recoverySvc, cfg)
	r := server.SetupRouter(cfg, h, wsh)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
