package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"stream_server/server/chat/app"
	cmnenv "stream_server/server/common/env"
	commonlog "stream_server/server/common/log"
)

func main() {
	cmnenv.LoadDotEnv()
	cfg, err := app.LoadConfig()
	if err != nil {
		commonlog.Errorf("event=startup service=chat status=failed error=%v", err)
		os.Exit(1)
	}
	if cfg.HTTP.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := app.NewServer(cfg)
	if err != nil {
		commonlog.Errorf("initialize server: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		commonlog.Infof("start chat http server on :%s", cfg.Port)
		if err := server.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			commonlog.Errorf("run http server: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		commonlog.Warnf("shutdown server gracefully: %v", err)
	}
}
