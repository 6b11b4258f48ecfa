package router

import (
	"log"
	"net/http"

	"github.com/balcao-pos/api/internal/backend"
	"github.com/balcao-pos/api/internal/catalog"
	"github.com/balcao-pos/api/internal/handler"
	"github.com/balcao-pos/api/internal/order"
	"github.com/balcao-pos/api/internal/ws"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a Chi router with all application routes wired up.
func New(catalogSvc *catalog.Service, orderSvc *order.Service, monitor *backend.Monitor, hub *ws.Hub) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration: the UI pages are served separately.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300, // 5 minutes
	}))

	healthHandler := handler.NewHealthHandler(monitor)
	r.Get("/health", healthHandler.Get)

	// WebSocket subscribe for order events; connected clients also keep
	// the periodic listing refresh running.
	r.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		ws.ServeWS(hub, w, r)
	})

	productHandler := handler.NewProductHandler(catalogSvc)
	r.Route("/products", productHandler.RegisterRoutes)

	orderHandler := handler.NewOrderHandler(orderSvc, catalogSvc)
	r.Route("/orders", orderHandler.RegisterRoutes)

	log.Println("Router initialized with all handlers")
	return r
}
