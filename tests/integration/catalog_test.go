//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListSeededCatalog(t *testing.T) {
	services := decodeJSON[[]serviceResponse](t, doGet(t, "/api/services"))
	if len(services) < 2 {
		t.Errorf("services = %d, want at least the 2 seeded entries", len(services))
	}

	parts := decodeJSON[[]partResponse](t, doGet(t, "/api/parts"))
	if len(parts) < 2 {
		t.Errorf("parts = %d, want at least the 2 seeded entries", len(parts))
	}
}

func TestCreateService_Validation(t *testing.T) {
	resp := doPost(t, "/api/services", map[string]any{"description": "nameless"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	e := decodeJSON[errorResponse](t, resp)
	if e.Error != "invalid_request" {
		t.Errorf("error = %q, want invalid_request", e.Error)
	}
}

func TestCreatePart_NegativeStockRejected(t *testing.T) {
	resp := doPost(t, "/api/parts", map[string]any{"name": "Bad part", "price": "10.00", "stock": -1})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestReplenishStock_UnknownPart(t *testing.T) {
	resp := doPost(t, "/api/parts/00000000-0000-0000-0000-000000000000/stock", map[string]any{"quantity": 5})
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListCustomers(t *testing.T) {
	created := createCustomer(t)

	customers := decodeJSON[[]customerResponse](t, doGet(t, "/api/customers"))
	found := false
	for _, c := range customers {
		if c.ID == created.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("customer %s missing from list", created.ID)
	}
}
