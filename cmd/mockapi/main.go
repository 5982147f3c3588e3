package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/empanada/internal/appcontext"
	"github.com/RoyceAzure/lab/empanada/internal/config"
	"github.com/RoyceAzure/lab/empanada/internal/mockapi/router"
)

func main() {
	configPath := flag.String("config", "", "path of .env config file")
	flag.Parse()

	cm, err := config.NewManager(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	cf := cm.Get()

	app, err := appcontext.NewMockApiContext(context.Background(), cf, nil)
	if err != nil {
		log.Fatal(err)
	}
	if *configPath != "" {
		// 埠號與儲存層需要重新啟動，這裡只提示
		cm.Watch(func(c *config.Config) {
			app.Logger.Warn().Str("log_level", c.LogLevel).Msg("config changed, restart mockapi to apply")
		}, func(err error) {
			app.Logger.Error().Err(err).Msg("reload config failed")
		})
	}

	// 設置路由
	r := router.SetupRouter(app.Server, app.LoginLimiter, app.Logger)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cf.MockApiPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 設置訊號監聽
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	shutDonwCompleted := make(chan struct{}, 1)
	go func() {
		<-sigChan
		app.Logger.Info().Msg("Received shutdown signal")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Server shutdown error")
		}

		if err := app.Shutdown(shutdownCtx); err != nil {
			app.Logger.Error().Err(err).Msg("Application shutdown error")
		}

		shutDonwCompleted <- struct{}{}
	}()

	app.Logger.Info().Str("addr", srv.Addr).Msg("Server starting")
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal(err)
	}
	<-shutDonwCompleted
	log.Printf("closed completed")
}
