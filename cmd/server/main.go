package main

import (
	"log/slog"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"

	"github.com/jengzang/trajectory-explorer/internal/api"
	"github.com/jengzang/trajectory-explorer/internal/config"
	"github.com/jengzang/trajectory-explorer/internal/database"
	"github.com/jengzang/trajectory-explorer/internal/logging"
)

func main() {
	var (
		configPath string
		port       string
		dbPath     string
	)
	pflag.StringVar(&configPath, "config", "", "YAML config file")
	pflag.StringVar(&port, "port", "", "listen address (overrides PORT)")
	pflag.StringVar(&dbPath, "db", "", "SQLite database path (overrides DB_PATH)")
	pflag.Parse()

	// 加载配置
	cfg := config.Load()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			slog.Error("failed to load config", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if port != "" {
		cfg.Port = port
	}
	if dbPath != "" {
		cfg.DBPath = dbPath
	}

	logger := logging.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)
	if logging.ParseLevel(cfg.LogLevel) > slog.LevelDebug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化数据库
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// 初始化路由
	router := api.SetupRouter(cfg, database.GetDB(), logger)

	logger.Info("server starting", "addr", cfg.Port, "auth", cfg.JWTSecret != "")
	if err := router.Run(cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
