package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/drstein77/fitstore/internal/apiclient"
	"github.com/drstein77/fitstore/internal/config"
	"github.com/drstein77/fitstore/internal/console"
	"github.com/drstein77/fitstore/internal/logger"
	"github.com/drstein77/fitstore/internal/models"
)

func main() {
	models.EncodeMoneyAsNumbers()

	opts, err := config.ParseConsole(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalln(err)
	}

	nLogger, err := logger.NewConsoleLogger(opts.LogLevel)
	if err != nil {
		log.Fatalln(err)
	}
	defer nLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	api := apiclient.New(opts.APIURL, opts.Timeout, nLogger.With(zap.String("component", "apiclient")))
	repl := console.NewREPL(os.Stdin, os.Stdout)
	repl.Attach(console.New(console.Deps{
		API:       api,
		Notifier:  repl,
		Confirmer: repl,
		Log:       nLogger,
	}))

	nLogger.Info("console started", zap.String("api", opts.APIURL))
	if err := repl.Run(ctx); err != nil {
		nLogger.Error("console stopped", zap.Error(err))
		os.Exit(1)
	}
}
