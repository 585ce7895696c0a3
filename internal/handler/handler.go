// Package handler exposes the workflow and catalog surfaces over HTTP.
// Handlers are thin: decode, delegate, map the domain error.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/inventory"
	"github.com/dorneles/workshop-api/internal/domain/order"
	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

// Handler holds the ports the HTTP surface delegates to.
type Handler struct {
	orders    order.API
	customers customer.Directory
	vehicles  vehicle.Directory
	services  catalog.ServiceRepository
	parts     catalog.PartRepository
	ledger    inventory.Ledger
}

// New constructs a Handler with the required dependencies.
func New(
	orders order.API,
	customers customer.Directory,
	vehicles vehicle.Directory,
	services catalog.ServiceRepository,
	parts catalog.PartRepository,
	ledger inventory.Ledger,
) *Handler {
	return &Handler{
		orders:    orders,
		customers: customers,
		vehicles:  vehicles,
		services:  services,
		parts:     parts,
		ledger:    ledger,
	}
}

// Routes registers all API endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.createOrder)
		r.Get("/", h.listOrders)
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/status", h.transitionStatus)
	})

	r.Get("/reports/service-duration/{serviceID}", h.serviceDuration)

	r.Route("/customers", func(r chi.Router) {
		r.Post("/", h.createCustomer)
		r.Get("/", h.listCustomers)
	})
	r.Route("/vehicles", func(r chi.Router) {
		r.Post("/", h.createVehicle)
		r.Get("/", h.listVehicles)
	})
	r.Route("/services", func(r chi.Router) {
		r.Post("/", h.createService)
		r.Get("/", h.listServices)
	})
	r.Route("/parts", func(r chi.Router) {
		r.Post("/", h.createPart)
		r.Get("/", h.listParts)
		r.Post("/{partID}/stock", h.replenishStock)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	return json.NewDecoder(r.Body).Decode(v)
}
