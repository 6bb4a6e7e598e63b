package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/Wikid82/warden/backend/internal/cerberus"
	"github.com/Wikid82/warden/backend/internal/config"
	"github.com/Wikid82/warden/backend/internal/database"
	"github.com/Wikid82/warden/backend/internal/logger"
	"github.com/Wikid82/warden/backend/internal/server"
	"github.com/Wikid82/warden/backend/internal/version"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log().WithError(err).Fatal("load config")
	}

	// Setup logging with rotation
	out := io.Writer(os.Stdout)
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		logger.Log().WithError(err).Warn("log directory unavailable, logging to stdout only")
	} else {
		rotator := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.LogDir, "warden.log"),
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		defer rotator.Close()
		out = io.MultiWriter(os.Stdout, rotator)
	}
	logger.Init(cfg.Debug, out)

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		logger.Log().WithError(err).Fatal("connect database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Log().WithError(err).Fatal("migrate database")
	}

	cerb := cerberus.New(cfg.Security, db)

	// Handle CLI commands
	if len(os.Args) > 1 && os.Args[1] == "unblock" {
		if len(os.Args) != 3 {
			logger.Log().Fatalf("Usage: %s unblock <ip>", os.Args[0])
		}
		entry, err := cerb.UpdateIPStatus(os.Args[2], true, nil)
		if err != nil {
			logger.ForIP(os.Args[2]).WithError(err).Fatal("unblock failed")
		}
		logger.ForIP(entry.IPAddress).Info("IP unblocked")
		return
	}

	logger.Log().Infof("starting %s backend on version %s", version.Name, version.Full())

	if err := cerb.Start(); err != nil {
		logger.Log().WithError(err).Fatal("start cerberus")
	}
	defer cerb.Stop()

	srv, err := server.New(db, cfg, cerb)
	if err != nil {
		logger.Log().WithError(err).Fatal("build server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Log().WithError(err).Error("server error")
		return
	}
	logger.Log().Info("shutdown complete")
}
