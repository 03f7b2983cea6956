package api

import (
	"net/http"

	"drone-delivery-service/internal/api/handlers"
	"drone-delivery-service/internal/sim"
)

// NewRouter wires HTTP handlers with their dependencies and returns an
// http.Handler. Handlers only see the scheduler's snapshot/admission
// operations, never its internal state.
func NewRouter(scheduler *sim.Scheduler) http.Handler {
	mux := http.NewServeMux()

	pkgHandler := &handlers.PackageHandler{Scheduler: scheduler}
	droneHandler := &handlers.DroneHandler{Scheduler: scheduler}

	mux.HandleFunc("/health", handlers.Health)
	mux.HandleFunc("/packages", pkgHandler.Handle)
	mux.HandleFunc("/drones", droneHandler.List)

	return loggingMiddleware(mux)
}
