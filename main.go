package main

import (
	"context"
	"log"
	"os"
	"time"

	"heiconv/internal/api"
	"heiconv/internal/codec"
	"heiconv/internal/config"
	"heiconv/internal/ratelimit"
	"heiconv/internal/redis"
	"heiconv/internal/service/convert"
	"heiconv/internal/session"
	"heiconv/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	cfgPath := os.Getenv("HEICONV_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.BasicConfig.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	dbType := os.Getenv("HEICONV_DB")
	if dbType == "" {
		dbType = "sqlite3"
	}
	log.Printf("dbType: %s\n", dbType)
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}
	history := storage.NewHistory(db)

	var limiter *ratelimit.Limiter
	if cfg.RedisEnabled() {
		rdb, err := redis.NewClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
		limiter = ratelimit.FromClient(rdb, cfg.RateLimit.UploadsPerMinute)
	}

	store := session.NewStore()
	svc, err := convert.NewService(store, codec.NewHEIF(), history,
		cfg.BasicConfig.UploadDir, cfg.BasicConfig.MaxUploadBytes)
	if err != nil {
		log.Fatalf("init convert service: %v", err)
	}

	cleanCtx, cleanCancel := context.WithCancel(context.Background())
	defer cleanCancel()
	ttl := time.Duration(cfg.BasicConfig.SessionTTL) * time.Minute
	interval := time.Duration(cfg.BasicConfig.CleanInterval) * time.Minute
	svc.StartSessionCleaner(cleanCtx, ttl, interval)

	handlers := api.NewHandler(svc, history, limiter, cfg.BasicConfig.MaxUploadBytes)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.BasicConfig.MaxUploadBytes
	router.LoadHTMLGlob("templates/*")
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}
