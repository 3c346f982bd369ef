package hypercerts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestFetchHypercerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var request graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if !strings.Contains(request.Query, "hypercerts") {
			t.Errorf("unexpected query: %s", request.Query)
		}

		fmt.Fprint(w, `{
			"data": {
				"hypercerts": {
					"data": [
						{
							"hypercert_id": "42220-0xabc-1",
							"units": "100000000",
							"creation_block_timestamp": "1718000000",
							"orders": {"totalUnitsForSale": "50000000"},
							"sales": {
								"data": [
									{
										"currency": "0x765DE816845861e75A25fCA122bb6898B8B1282a",
										"currency_amount": "1000000000000000000",
										"buyer": "0xBuyer1",
										"creation_block_timestamp": 1718100000
									},
									{
										"currency": "0x765DE816845861e75A25fCA122bb6898B8B1282a",
										"currency_amount": "2000000000000000000",
										"buyer": "",
										"creation_block_timestamp": "1718200000"
									}
								]
							}
						},
						{
							"hypercert_id": "42220-0xabc-2",
							"units": "100000000",
							"creation_block_timestamp": 1717000000,
							"orders": null,
							"sales": {"data": []}
						}
					]
				}
			}
		}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	hypercerts, err := client.FetchHypercerts(context.Background())
	if err != nil {
		t.Fatalf("FetchHypercerts failed: %v", err)
	}

	if len(hypercerts) != 2 {
		t.Fatalf("expected 2 hypercerts, got %d", len(hypercerts))
	}

	first := hypercerts[0]
	if first.HypercertID != "42220-0xabc-1" {
		t.Errorf("unexpected id: %s", first.HypercertID)
	}
	if first.CreationBlockTimestamp != 1718000000 {
		t.Errorf("expected string timestamp parsed to 1718000000, got %d", first.CreationBlockTimestamp)
	}
	if !first.Listed() {
		t.Error("expected first hypercert to be listed")
	}
	if len(first.Sales) != 2 {
		t.Fatalf("expected 2 sales, got %d", len(first.Sales))
	}
	if first.Sales[1].Buyer != "0x0" {
		t.Errorf("expected missing buyer to default to 0x0, got %s", first.Sales[1].Buyer)
	}
	if first.Sales[1].CreationBlockTimestamp != 1718200000 {
		t.Errorf("expected sale timestamp 1718200000, got %d", first.Sales[1].CreationBlockTimestamp)
	}

	if hypercerts[1].Listed() {
		t.Error("expected second hypercert to be unlisted")
	}
}

func TestAttestationCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var request graphqlRequest
		if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if request.Variables["start"] != float64(0) {
			t.Errorf("expected start 0, got %v", request.Variables["start"])
		}
		if request.Variables["end"] != float64(1718000000) {
			t.Errorf("expected end 1718000000, got %v", request.Variables["end"])
		}
		fmt.Fprint(w, `{"data": {"attestations": {"count": 7}}}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	count, err := client.AttestationCount(context.Background(), 0, 1718000000)
	if err != nil {
		t.Fatalf("AttestationCount failed: %v", err)
	}
	if count != 7 {
		t.Errorf("expected 7 attestations, got %d", count)
	}
}

func TestGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "rate limited"}]}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.FetchHypercerts(context.Background()); err == nil {
		t.Error("expected error from graphql errors")
	}
	if _, err := client.AttestationCount(context.Background(), 0, 1); err == nil {
		t.Error("expected error from graphql errors")
	}
}

func TestServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	if _, err := client.FetchHypercerts(context.Background()); err == nil {
		t.Error("expected error for non-200 response")
	}
}
