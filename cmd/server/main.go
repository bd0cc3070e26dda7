package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/betbot/polytrade/internal/api"
	"github.com/betbot/polytrade/internal/app"
	"github.com/betbot/polytrade/pkg/logger"
	"github.com/joho/godotenv"
)

func main() {
	// .env 可选，缺失时只使用真实环境变量
	_ = godotenv.Load()

	cfgPath := flag.String("config", os.Getenv("POLYTRADE_CONFIG"), "config file (yaml/json)")
	listen := flag.String("listen", "", "HTTP listen address (overrides SERVER_ADDR)")
	flag.Parse()

	a, err := app.Open(*cfgPath)
	if err != nil {
		logger.Logger.Fatalf("初始化失败: %v", err)
	}
	addr := a.Config.ServerAddr
	if *listen != "" {
		addr = *listen
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	a.Log.Infof("dry_run=%v", a.Config.Polymarket.DryRun)
	srv := api.New(a.Adapter, &a.Config.Polymarket, logger.WithField("component", "api"))
	runErr := srv.Run(ctx, addr)
	if runErr != nil {
		a.Log.WithError(runErr).Error("server stopped")
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.Close(closeCtx); err != nil || runErr != nil {
		os.Exit(1)
	}
}
