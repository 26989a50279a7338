// Command stubserver runs the in-memory CIAAN stub API for local
// development.
package main

import (
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"ciaan/config"
	"ciaan/stubserver"
)

func main() {
	cfg := config.LoadConfig()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	srv := stubserver.New(cfg, logger)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down stub server...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Stub server starting on port %s...", cfg.Port)
	log.Fatal(srv.Listen())
}
