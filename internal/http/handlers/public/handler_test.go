package public

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/relicvault/storefront/internal/cache"
	"github.com/relicvault/storefront/internal/constants"
	"github.com/relicvault/storefront/internal/models"
	"github.com/relicvault/storefront/internal/provider"
	"github.com/relicvault/storefront/internal/repository"
	"github.com/relicvault/storefront/internal/service"
	"github.com/relicvault/storefront/internal/shopapi"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type envelope struct {
	StatusCode int                    `json:"status_code"`
	Msg        string                 `json:"msg"`
	Data       map[string]interface{} `json:"data"`
}

type fakeShop struct {
	mu     sync.Mutex
	orders []map[string]interface{}
	tokens []string
}

func (f *fakeShop) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/products/p1":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"_id": "p1", "name": "Signed Jersey", "price": 50, "countInStock": 3},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/products/sold-out":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    map[string]interface{}{"_id": "sold-out", "name": "Rookie Card", "price": 10, "countInStock": 0},
			})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/products":
			_ = json.NewEncoder(w).Encode(map[string]interface{}{
				"success":    true,
				"data":       map[string]interface{}{"products": []interface{}{map[string]interface{}{"_id": "p1", "name": "Signed Jersey", "price": 50}}},
				"pagination": map[string]interface{}{"total": 1, "pages": 1},
			})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/orders":
			var body map[string]interface{}
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode order failed: %v", err)
			}
			f.mu.Lock()
			f.orders = append(f.orders, body)
			f.tokens = append(f.tokens, r.Header.Get("Authorization"))
			f.mu.Unlock()
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": map[string]interface{}{"_id": "o1"}})
		default:
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "message": "not found"})
		}
	}
}

func setupPublicRouter(t *testing.T, sessionID string) (*gin.Engine, *fakeShop) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shop := &fakeShop{}
	srv := httptest.NewServer(shop.handler(t))
	t.Cleanup(srv.Close)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	api := shopapi.NewClientWithHTTP(srv.URL+"/api/v1", srv.Client())
	durable := service.NewDurableStore(repository.NewClientStorageRepository(db))
	session := cache.NewSessionStore(time.Hour)
	catalog := service.NewCatalogService(api)
	cart := service.NewCartService(durable, session, catalog)
	h := New(&provider.Container{
		ShopAPI:         api,
		CatalogService:  catalog,
		CartService:     cart,
		CheckoutService: service.NewCheckoutService(cart, session, api),
	})

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if sessionID != "" {
			c.Set(constants.ContextClientSession, sessionID)
		}
		if token := c.GetHeader("X-Test-Token"); token != "" {
			c.Set(constants.ContextSessionToken, token)
		}
		c.Next()
	})
	r.GET("/store/products", h.ListProducts)
	r.GET("/store/products/:id", h.GetProduct)
	r.GET("/cart", h.GetCart)
	r.DELETE("/cart", h.ClearCart)
	r.POST("/cart/items", h.AddCartItem)
	r.PATCH("/cart/items/:product_id", h.UpdateCartItem)
	r.DELETE("/cart/items/:product_id", h.RemoveCartItem)
	r.PUT("/cart/shipping", h.SetShippingInfo)
	r.POST("/checkout/start", h.StartCheckout)
	r.POST("/checkout/orders", h.PlaceOrder)
	r.GET("/auth/captcha", h.GetImageCaptcha)
	return r, shop
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, headers ...string) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body failed: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", w.Code)
	}
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode response failed: %v body=%s", err, w.Body.String())
	}
	return env
}

func cartOf(t *testing.T, env envelope) map[string]interface{} {
	t.Helper()
	cart, ok := env.Data["cart"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing cart in %+v", env.Data)
	}
	return cart
}

func TestListProducts(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	req := httptest.NewRequest(http.MethodGet, "/store/products?keyword=jersey&page_size=5", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var body struct {
		StatusCode int                      `json:"status_code"`
		Data       []map[string]interface{} `json:"data"`
		Pagination struct {
			PageSize int   `json:"page_size"`
			Total    int64 `json:"total"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if body.StatusCode != 0 || len(body.Data) != 1 {
		t.Fatalf("unexpected list response %s", w.Body.String())
	}
	if body.Pagination.PageSize != 5 || body.Pagination.Total != 1 {
		t.Fatalf("unexpected pagination %+v", body.Pagination)
	}
}

func TestGetProductNotFound(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	env := doJSON(t, r, http.MethodGet, "/store/products/missing", nil, "Accept-Language", "zh-CN")
	if env.StatusCode != 404 {
		t.Fatalf("status_code want 404 got %d", env.StatusCode)
	}
	if env.Msg != "商品不存在" {
		t.Fatalf("want localized message got %q", env.Msg)
	}
}

func TestAddCartItemClampsToStock(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	env := doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": "p1", "quantity": 9})
	if env.StatusCode != 0 {
		t.Fatalf("add item failed: %+v", env)
	}
	item := env.Data["item"].(map[string]interface{})
	if item["quantity"].(float64) != 3 {
		t.Fatalf("quantity want 3 got %v", item["quantity"])
	}
	notice := env.Data["notice"].(map[string]interface{})
	if notice["type"] != constants.NoticeSuccess {
		t.Fatalf("want success notice got %v", notice)
	}
	cart := cartOf(t, env)
	if cart["total_units"].(float64) != 3 || cart["total_price"] != "150.00" {
		t.Fatalf("unexpected totals %v", cart)
	}
}

func TestAddCartItemErrors(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	cases := []struct {
		name string
		body interface{}
		want int
	}{
		{name: "missing fields", body: gin.H{}, want: 400},
		{name: "zero quantity", body: gin.H{"product_id": "p1", "quantity": -2}, want: 400},
		{name: "unknown product", body: gin.H{"product_id": "nope", "quantity": 1}, want: 404},
		{name: "sold out", body: gin.H{"product_id": "sold-out", "quantity": 1}, want: 409},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			env := doJSON(t, r, http.MethodPost, "/cart/items", tc.body)
			if env.StatusCode != tc.want {
				t.Fatalf("status_code want %d got %d (%s)", tc.want, env.StatusCode, env.Msg)
			}
			if _, ok := env.Data["notice"]; !ok {
				t.Fatalf("error response should carry a notice")
			}
		})
	}
}

func TestUpdateCartItemBounds(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": "p1", "quantity": 3})

	env := doJSON(t, r, http.MethodPatch, "/cart/items/p1", gin.H{"delta": 1})
	if env.StatusCode != 0 || env.Data["changed"] != false {
		t.Fatalf("increment beyond stock should be a no-op: %+v", env)
	}
	env = doJSON(t, r, http.MethodPatch, "/cart/items/p1", gin.H{"delta": -1})
	if env.Data["changed"] != true || cartOf(t, env)["total_units"].(float64) != 2 {
		t.Fatalf("decrement should apply: %+v", env)
	}
	env = doJSON(t, r, http.MethodPatch, "/cart/items/p1", gin.H{"delta": 5})
	if env.StatusCode != 400 {
		t.Fatalf("delta outside -1/1 want 400 got %d", env.StatusCode)
	}
}

func TestRemoveAndClearCart(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": "p1", "quantity": 1})

	env := doJSON(t, r, http.MethodDelete, "/cart/items/unknown", nil)
	if env.StatusCode != 0 || env.Data["removed"] != false {
		t.Fatalf("removing an absent line should succeed: %+v", env)
	}
	doJSON(t, r, http.MethodPut, "/cart/shipping", gin.H{"address": "1 Main St"})
	env = doJSON(t, r, http.MethodDelete, "/cart", nil)
	if env.StatusCode != 0 {
		t.Fatalf("clear failed: %+v", env)
	}
	env = doJSON(t, r, http.MethodGet, "/cart", nil)
	items, _ := env.Data["items"].([]interface{})
	shipping, _ := env.Data["shipping_info"].(map[string]interface{})
	if len(items) != 0 || len(shipping) != 0 {
		t.Fatalf("cart should be empty after clear: %+v", env.Data)
	}
}

func TestSetShippingInfoRequiresBody(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	env := doJSON(t, r, http.MethodPut, "/cart/shipping", gin.H{})
	if env.StatusCode != 400 {
		t.Fatalf("empty shipping want 400 got %d", env.StatusCode)
	}
}

func TestCheckoutFlow(t *testing.T) {
	r, shop := setupPublicRouter(t, "s1")

	env := doJSON(t, r, http.MethodPost, "/checkout/start", nil)
	if env.StatusCode != 400 || env.Msg != "Your cart is empty" {
		t.Fatalf("empty cart checkout want 400 got %d %q", env.StatusCode, env.Msg)
	}

	doJSON(t, r, http.MethodPost, "/cart/items", gin.H{"product_id": "p1", "quantity": 2})
	env = doJSON(t, r, http.MethodPost, "/checkout/orders", nil)
	if env.StatusCode != 409 {
		t.Fatalf("order before checkout want 409 got %d", env.StatusCode)
	}
	env = doJSON(t, r, http.MethodPost, "/checkout/start", nil)
	if env.StatusCode != 400 {
		t.Fatalf("checkout without shipping want 400 got %d", env.StatusCode)
	}

	doJSON(t, r, http.MethodPut, "/cart/shipping", gin.H{"address": "1 Main St", "city": "Boston"})
	env = doJSON(t, r, http.MethodPost, "/checkout/start", nil)
	if env.StatusCode != 0 {
		t.Fatalf("start checkout failed: %+v", env)
	}

	env = doJSON(t, r, http.MethodPost, "/checkout/orders", gin.H{"payment_info": gin.H{"id": "pay_1"}}, "X-Test-Token", "tok")
	if env.StatusCode != 0 || env.Msg != "Order placed" {
		t.Fatalf("place order failed: %+v", env)
	}
	if len(shop.orders) != 1 || shop.tokens[0] != "Bearer tok" {
		t.Fatalf("order should reach the shop api with the session token: %v %v", shop.orders, shop.tokens)
	}
	if shop.orders[0]["totalPrice"] != "100.00" {
		t.Fatalf("total price want 100.00 got %v", shop.orders[0]["totalPrice"])
	}

	env = doJSON(t, r, http.MethodGet, "/cart", nil)
	if items, _ := env.Data["items"].([]interface{}); len(items) != 0 {
		t.Fatalf("cart should be cleared after order, got %v", items)
	}
}

func TestCartRequiresClientSession(t *testing.T) {
	r, _ := setupPublicRouter(t, "")
	env := doJSON(t, r, http.MethodGet, "/cart", nil)
	if env.StatusCode != 400 {
		t.Fatalf("missing session want 400 got %d", env.StatusCode)
	}
}

func TestCaptchaNotRequiredWhenDisabled(t *testing.T) {
	r, _ := setupPublicRouter(t, "s1")
	env := doJSON(t, r, http.MethodGet, "/auth/captcha", nil)
	if env.StatusCode != 0 || env.Data["required"] != false || env.Data["scene"] != constants.CaptchaSceneLogin {
		t.Fatalf("disabled captcha should report required=false: %+v", env)
	}
}
