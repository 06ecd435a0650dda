package shopapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/relicvault/storefront/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClientWithHTTP(srv.URL+"/api/v1", srv.Client())
}

func writeEnvelope(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func TestGetProductDecodesSnapshot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/products/p1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"_id":          "p1",
				"name":         "Signed Jersey",
				"price":        100,
				"countInStock": 5,
				"images":       []interface{}{map[string]interface{}{"url": "https://img/p1.png"}},
				"category":     map[string]interface{}{"name": "Jerseys"},
			},
		})
	})

	product, err := client.GetProduct(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if product.ID != "p1" || product.Name != "Signed Jersey" {
		t.Fatalf("unexpected product %+v", product)
	}
	if product.Price.String() != "100.00" || product.CountInStock != 5 {
		t.Fatalf("want price 100.00 stock 5 got %s %d", product.Price, product.CountInStock)
	}
	if product.ImageURL != "https://img/p1.png" || product.Category != "Jerseys" {
		t.Fatalf("unexpected image/category %q %q", product.ImageURL, product.Category)
	}
}

func TestStatusMapping(t *testing.T) {
	cases := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusInternalServerError, ErrRejected},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(w, tc.status, map[string]interface{}{"success": false, "message": "nope"})
		})
		_, err := client.GetProduct(context.Background(), "x")
		if !errors.Is(err, tc.want) {
			t.Fatalf("status %d want %v got %v", tc.status, tc.want, err)
		}
		if MessageOf(err) != "nope" {
			t.Fatalf("status %d message want nope got %q", tc.status, MessageOf(err))
		}
	}
}

func TestSuccessFalseIsRejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{"success": false, "message": "out of stock"})
	})
	_, err := client.PlaceOrder(context.Background(), "tok", OrderRequest{})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("want ErrRejected got %v", err)
	}
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	client := NewClientWithHTTP(srv.URL, srv.Client())
	srv.Close()
	if _, err := client.GetProduct(context.Background(), "p1"); !errors.Is(err, ErrRequestFailed) {
		t.Fatalf("want ErrRequestFailed got %v", err)
	}
}

func TestListResourceWrappedAndPagination(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("authorization header want Bearer tok got %q", got)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("limit") != "10" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"teams": []interface{}{map[string]interface{}{"_id": "t1", "name": "Lakers"}},
				"count": 11,
			},
			"pagination": map[string]interface{}{"total": 11, "pages": 2},
		})
	})
	rows, page, err := client.ListResource(context.Background(), "tok", "teams", ListQuery{Page: 2, Limit: 10})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "Lakers" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if page.Total != 11 || page.Pages != 2 {
		t.Fatalf("unexpected pagination %+v", page)
	}
}

func TestCreateResourceMultipart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("expected multipart request got %s", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart failed: %v", err)
		}
		if r.FormValue("name") != "Lakers" {
			t.Errorf("name field want Lakers got %q", r.FormValue("name"))
		}
		file, _, err := r.FormFile("logo")
		if err != nil {
			t.Errorf("logo file missing: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if string(data) != "PNGDATA" {
				t.Errorf("unexpected file content %q", string(data))
			}
		}
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"_id": "t9", "name": "Lakers"},
		})
	})
	record, err := client.CreateResource(context.Background(), "tok", "teams",
		models.JSON{"name": "Lakers"},
		[]FileUpload{{Field: "logo", Filename: "logo.png", ContentType: "image/png", Data: []byte("PNGDATA")}},
	)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if record["_id"] != "t9" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestExchangeTokenRequiresToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"token": ""},
		})
	})
	if _, err := client.ExchangeToken(context.Background(), "id-token"); !errors.Is(err, ErrResponseInvalid) {
		t.Fatalf("want ErrResponseInvalid got %v", err)
	}
}
