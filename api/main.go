// @title Caption Chat
// @version 0.1
// @description Chat rooms with file sharing, image galleries and generated captions.

// @host localhost:8080
// @BasePath /
// @query.collection.format multi
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "tush00nka/captionchat/docs"
	"tush00nka/captionchat/internal/app"
	"tush00nka/captionchat/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := app.InitTracing(ctx, cfg)
	if err != nil {
		log.Fatalf("Tracing error: %v", err)
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(c); err != nil {
			log.Printf("Tracing shutdown: %v", err)
		}
	}()

	if err := app.Run(ctx, cfg); err != nil {
		log.Printf("Server error: %v", err)
	}
}
