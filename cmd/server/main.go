package main

import (
	"context"
	"log"
	"net/http"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/catalog"
	"github.com/balcao-pos/api/internal/config"
	"github.com/balcao-pos/api/internal/order"
	"github.com/balcao-pos/api/internal/router"
	"github.com/balcao-pos/api/internal/store"
	"github.com/balcao-pos/api/internal/ws"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file, using environment")
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	client := backend.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	st := store.New(client)

	hub := ws.NewHub()
	go hub.Run()

	catalogSvc := catalog.NewService(st)
	orderSvc := order.NewService(st, hub)

	ctx := context.Background()

	// Pre-warm the catalog; a failure here is not fatal, the first
	// /products call retries it.
	if products, err := catalogSvc.Load(ctx); err != nil {
		log.Printf("WARN: initial catalog load failed: %v", err)
	} else {
		log.Printf("catalog loaded: %d products", len(products))
	}

	monitor := backend.NewMonitor(client)
	if err := monitor.Check(ctx); err != nil {
		log.Printf("WARN: initial backend health check failed: %v", err)
	}
	go monitor.Run(ctx, cfg.HealthInterval)

	refresher := order.NewRefresher(orderSvc, hub, cfg.RefreshInterval)
	go refresher.Run(ctx)

	r := router.New(catalogSvc, orderSvc, monitor, hub)

	log.Printf("Starting server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
