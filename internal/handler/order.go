package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dorneles/workshop-api/internal/domain/order"
)

type createOrderRequest struct {
	CustomerDocument string   `json:"customer_document"`
	VehiclePlate     string   `json:"vehicle_plate"`
	ServiceIDs       []string `json:"service_ids"`
	PartIDs          []string `json:"part_ids"`
}

type transitionRequest struct {
	Status string `json:"status"`
}

type lineItemPayload struct {
	ID        string `json:"id"`
	RefID     string `json:"ref_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total"`
}

type orderPayload struct {
	ID           string            `json:"id"`
	CustomerID   string            `json:"customer_id"`
	VehicleID    string            `json:"vehicle_id"`
	Status       string            `json:"status"`
	ServiceItems []lineItemPayload `json:"service_items"`
	PartItems    []lineItemPayload `json:"part_items"`
	Total        string            `json:"total"`
	CreatedAt    time.Time         `json:"created_at"`
	CompletedAt  *time.Time        `json:"completed_at,omitempty"`
	DeliveredAt  *time.Time        `json:"delivered_at,omitempty"`
}

type orderDetailPayload struct {
	orderPayload
	CustomerName string `json:"customer_name"`
	VehiclePlate string `json:"vehicle_plate"`
}

type durationReportPayload struct {
	ServiceID       string `json:"service_id"`
	ServiceName     string `json:"service_name"`
	AverageDuration string `json:"average_duration"`
	AnalyzedOrders  int    `json:"analyzed_orders"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.CustomerDocument) == "" {
		writeInvalidRequest(w, "customer_document is required")
		return
	}
	if strings.TrimSpace(req.VehiclePlate) == "" {
		writeInvalidRequest(w, "vehicle_plate is required")
		return
	}

	o, err := h.orders.CreateOrder(r.Context(), order.CreateOrderRequest{
		CustomerDocument: req.CustomerDocument,
		VehiclePlate:     req.VehiclePlate,
		ServiceIDs:       req.ServiceIDs,
		PartIDs:          req.PartIDs,
	})
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(o))
}

func (h *Handler) transitionStatus(w http.ResponseWriter, r *http.Request) {
	var req transitionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeInvalidRequest(w, "malformed JSON body")
		return
	}

	target, err := order.ParseStatus(req.Status)
	if err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	o, err := h.orders.TransitionStatus(r.Context(), chi.URLParam(r, "orderID"), target)
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(o))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	detail, err := h.orders.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, orderDetailPayload{
		orderPayload: toOrderPayload(detail.Order),
		CustomerName: detail.Customer.Name,
		VehiclePlate: detail.Vehicle.Plate,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	payload := make([]orderPayload, len(orders))
	for i, o := range orders {
		payload[i] = toOrderPayload(o)
	}
	writeJSON(w, http.StatusOK, payload)
}

func (h *Handler) serviceDuration(w http.ResponseWriter, r *http.Request) {
	report, err := h.orders.AverageDuration(r.Context(), chi.URLParam(r, "serviceID"))
	if err != nil {
		writeDomainError(r.Context(), w, err)
		return
	}

	writeJSON(w, http.StatusOK, durationReportPayload{
		ServiceID:       report.ServiceID,
		ServiceName:     report.ServiceName,
		AverageDuration: report.Formatted,
		AnalyzedOrders:  report.AnalyzedOrders,
	})
}

func toOrderPayload(o *order.ServiceOrder) orderPayload {
	serviceItems := make([]lineItemPayload, len(o.ServiceLines))
	for i, line := range o.ServiceLines {
		serviceItems[i] = lineItemPayload{
			ID:        line.ID,
			RefID:     line.ServiceID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		}
	}
	partItems := make([]lineItemPayload, len(o.PartLines))
	for i, line := range o.PartLines {
		partItems[i] = lineItemPayload{
			ID:        line.ID,
			RefID:     line.PartID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.StringFixed(2),
			LineTotal: line.LineTotal.StringFixed(2),
		}
	}

	return orderPayload{
		ID:           o.ID,
		CustomerID:   o.CustomerID,
		VehicleID:    o.VehicleID,
		Status:       string(o.Status),
		ServiceItems: serviceItems,
		PartItems:    partItems,
		Total:        o.Total.StringFixed(2),
		CreatedAt:    o.CreatedAt,
		CompletedAt:  o.CompletedAt,
		DeliveredAt:  o.DeliveredAt,
	}
}
