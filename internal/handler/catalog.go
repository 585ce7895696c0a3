package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dorneles/workshop-api/internal/domain/catalog"
	"github.com/dorneles/workshop-api/internal/domain/customer"
	"github.com/dorneles/workshop-api/internal/domain/vehicle"
)

// The entities below are plain pass-through CRUD: no workflow, no
// invariants beyond required fields.

type customerRequest struct {
	Name     string `json:"name"`
	Document string `json:"document"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type vehicleRequest struct {
	Plate      string `json:"plate"`
	Brand      string `json:"brand"`
	Model      string `json:"model"`
	Year       int    `json:"year"`
	CustomerID string `json:"customer_id"`
}

type serviceRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
}

type partRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock int             `json:"stock"`
}

type replenishRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req customerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Document) == "" {
		writeInvalidRequest(w, "name and document are required")
		return
	}

	c := &customer.Customer{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Document:  req.Document,
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, customers)
}

func (h *Handler) createVehicle(w http.ResponseWriter, r *http.Request) {
	var req vehicleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Plate) == "" {
		writeInvalidRequest(w, "plate is required")
		return
	}

	v := &vehicle.Vehicle{
		ID:         uuid.New().String(),
		Plate:      req.Plate,
		Brand:      req.Brand,
		Model:      req.Model,
		Year:       req.Year,
		CustomerID: req.CustomerID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.vehicles.Create(r.Context(), v); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (h *Handler) listVehicles(w http.ResponseWriter, r *http.Request) {
	vehicles, err := h.vehicles.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, vehicles)
}

func (h *Handler) createService(w http.ResponseWriter, r *http.Request) {
	var req serviceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeInvalidRequest(w, "name is required")
		return
	}

	s := &catalog.Service{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.services.Create(r.Context(), s); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.services.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, services)
}

func (h *Handler) createPart(w http.ResponseWriter, r *http.Request) {
	var req partRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeInvalidRequest(w, "name is required")
		return
	}
	if req.Stock < 0 {
		writeInvalidRequest(w, "stock must not be negative")
		return
	}

	p := &catalog.Part{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Price: req.Price,
		Stock: req.Stock,
	}
	if err := h.parts.Create(r.Context(), p); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *Handler) listParts(w http.ResponseWriter, r *http.Request) {
	parts, err := h.parts.List(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, parts)
}

// replenishStock adds units to a part's stock through the ledger's restore
// path. This is the standalone replenishment operation, outside the order
// workflow.
func (h *Handler) replenishStock(w http.ResponseWriter, r *http.Request) {
	var req replenishRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if req.Quantity <= 0 {
		writeInvalidRequest(w, "quantity must be greater than 0")
		return
	}

	partID := chi.URLParam(r, "partID")
	if err := h.ledger.Restore(r.Context(), partID, req.Quantity); err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	p, err := h.parts.FindByID(r.Context(), partID)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
