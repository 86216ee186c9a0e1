package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"mesocratic/cmd"

	log "github.com/sirupsen/logrus"
)

func main() {
	// Handle graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Execute(ctx); err != nil {
		stop()
		log.WithError(err).Fatal("Command failed")
	}
}
