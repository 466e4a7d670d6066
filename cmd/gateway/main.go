// Command gateway serves the MindFlow HTTP API.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindflow/internal/gateway/app"
)

const shutdownGrace = 5 * time.Second

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("mindflow: init: %v", err)
	}
	log.Printf("mindflow: starting gateway %s", a.Describe())

	serveErr := make(chan error, 1)
	go func() { serveErr <- a.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		if err != nil {
			log.Printf("mindflow: server stopped: %v", err)
		}
	case sig := <-quit:
		log.Printf("mindflow: %s received, draining requests", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := a.Shutdown(ctx); err != nil {
		log.Fatalf("mindflow: shutdown: %v", err)
	}
	log.Println("mindflow: stopped")
}
