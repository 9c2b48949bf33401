package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drstein77/fitstore/internal/app"
	"github.com/drstein77/fitstore/internal/models"
)

func main() {
	const shutdownTimeout = 5 * time.Second
	models.EncodeMoneyAsNumbers()

	ctx, cancel := context.WithCancel(context.Background())

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)

	server := app.NewServer(ctx)
	go func() {
		sig := <-signalCh
		server.Log.Info(fmt.Sprintf("Received signal: %+v", sig))

		server.Shutdown(shutdownTimeout)
		cancel()
	}()

	server.Serve()
}
