package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"agriconnect/models"
	"agriconnect/storage"
	"agriconnect/utils"
)

type memCatalog struct {
	farms []*models.Farm
}

func (m *memCatalog) Farms() []*models.Farm { return m.farms }
func (m *memCatalog) LoadedAt() time.Time   { return time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC) }
func (m *memCatalog) Get(id string) (*models.Farm, error) {
	for _, f := range m.farms {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrFarmNotFound, id)
}

type memCache struct {
	mu      sync.Mutex
	reports map[string]*models.InsightReport
}

func (m *memCache) Get(_ context.Context, key string) (*models.InsightReport, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[key]
	return r, ok, nil
}

func (m *memCache) Set(_ context.Context, key string, r *models.InsightReport, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[key] = r
	return nil
}

func (m *memCache) Invalidate(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reports, key)
	return nil
}

func testCatalog() []*models.Farm {
	crop := func(t string, price float64, days int) models.Crop {
		return models.Crop{Type: t, Quantity: 10, Unit: "tons", PricePerUnit: price, Quality: models.QualityStandard, AvailableIn: days}
	}
	return []*models.Farm{
		{ID: "f1", Name: "Green Valley Farm", Location: "Ludhiana", State: "Punjab", Lat: 30.9, Lon: 75.85, Certified: true, Rating: 4.8,
			Crops: []models.Crop{crop("Wheat", 25000, 15)}},
		{ID: "f2", Name: "Riverbank Farm", Location: "Amritsar", State: "Punjab", Lat: 31.63, Lon: 74.87, Rating: 4.0,
			Crops: []models.Crop{crop("Wheat", 24000, 0), crop("Mustard", 52000, 20)}},
		{ID: "f3", Name: "Sunrise Organics", Location: "Nashik", State: "Maharashtra", Lat: 20.0, Lon: 73.78, Certified: true, Rating: 4.6,
			Crops: []models.Crop{crop("Onion", 18000, 5)}},
	}
}

type testEnv struct {
	router *gin.Engine
	cache  *memCache
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	shortlist, err := storage.NewSQLiteShortlist(filepath.Join(t.TempDir(), "shortlist.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = shortlist.Close() })

	cache := &memCache{reports: map[string]*models.InsightReport{}}
	srv := &Server{
		Catalog:   &memCatalog{farms: testCatalog()},
		Favorites: shortlist,
		Wishlist:  shortlist,
		Cache:     cache,
		Logger:    utils.NewLoggerTo(&bytes.Buffer{}, &bytes.Buffer{}, utils.LevelError),
		Options:   Options{CORSOrigins: []string{"*"}},
	}
	return &testEnv{router: srv.NewRouter(), cache: cache}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var out map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("%s %s: body is not JSON: %s", method, path, w.Body.String())
		}
	}
	return w, out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/api/health", nil)
	if w.Code != http.StatusOK || body["ok"] != true || body["farms"] != float64(3) {
		t.Errorf("health = %d %v", w.Code, body)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("response should carry a request id")
	}
}

func TestListFarms(t *testing.T) {
	env := newTestEnv(t)
	tests := []struct {
		query string
		code  int
		count float64
	}{
		{"", http.StatusOK, 3},
		{"?certified=true", http.StatusOK, 2},
		{"?state=Punjab&crop=Wheat", http.StatusOK, 2},
		{"?crop=Onion,Mustard", http.StatusOK, 2},
		{"?maxPrice=20000", http.StatusOK, 1},
		{"?days=1", http.StatusOK, 1},
		{"?minPrice=500&maxPrice=100", http.StatusBadRequest, 0},
		{"?days=-3", http.StatusBadRequest, 0},
		{"?certified=maybe", http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		w, body := env.do(t, http.MethodGet, "/api/farms"+tt.query, nil)
		if w.Code != tt.code {
			t.Errorf("GET /api/farms%s = %d; want %d", tt.query, w.Code, tt.code)
			continue
		}
		if tt.code == http.StatusOK && body["count"] != tt.count {
			t.Errorf("GET /api/farms%s count = %v; want %v", tt.query, body["count"], tt.count)
		}
	}
}

func TestGetFarm(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/api/farms/f3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("GET f3 = %d", w.Code)
	}
	if data := body["data"].(map[string]interface{}); data["name"] != "Sunrise Organics" {
		t.Errorf("unexpected farm %v", data)
	}

	w, _ = env.do(t, http.MethodGet, "/api/farms/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("GET unknown farm = %d; want 404", w.Code)
	}
}

func TestNearby(t *testing.T) {
	env := newTestEnv(t)
	w, body := env.do(t, http.MethodGet, "/api/farms/nearby?lat=30.9&lon=75.85&radius=200", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("nearby = %d", w.Code)
	}
	if got := len(body["data"].([]interface{})); got != 2 {
		t.Errorf("expected 2 nearby farms, got %d", got)
	}

	for _, q := range []string{"?lat=30.9", "?lat=95&lon=10", "?lat=1&lon=1&radius=0"} {
		if w, _ := env.do(t, http.MethodGet, "/api/farms/nearby"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("nearby%s = %d; want 400", q, w.Code)
		}
	}
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodGet, "/api/search?q=w", nil)
	if len(body["farms"].([]interface{})) != 0 || len(body["crops"].([]interface{})) != 0 {
		t.Errorf("single-character query should be empty, got %v", body)
	}

	_, body = env.do(t, http.MethodGet, "/api/search?q=wheat", nil)
	if len(body["crops"].([]interface{})) != 2 || body["more"] != false {
		t.Errorf("wheat search = %v", body)
	}

	_, body = env.do(t, http.MethodGet, "/api/search?q=farm&limit=1", nil)
	if len(body["farms"].([]interface{})) != 1 || body["more"] != true || body["totalFarms"] != float64(2) {
		t.Errorf("limited search = %v", body)
	}
}

func TestMap(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/map", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("map = %d", w.Code)
	}
	if body["farms"] != float64(3) || body["clusters"] != float64(2) {
		t.Errorf("clustered map = farms %v clusters %v; want 3, 2", body["farms"], body["clusters"])
	}

	_, body = env.do(t, http.MethodGet, "/api/map?cluster=false", nil)
	if body["clusters"] != float64(3) {
		t.Errorf("unclustered map clusters = %v; want 3", body["clusters"])
	}

	_, body = env.do(t, http.MethodGet, "/api/map?strategy=stable&state=Punjab", nil)
	markers := body["markers"].([]interface{})
	if len(markers) != 1 || markers[0].(map[string]interface{})["size"] != float64(2) {
		t.Errorf("stable Punjab markers = %v", markers)
	}

	for _, q := range []string{"?minLat=10&maxLat=10", "?strategy=kmeans", "?width=0", "?minPrice=9&maxPrice=1"} {
		if w, _ := env.do(t, http.MethodGet, "/api/map"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("map%s = %d; want 400", q, w.Code)
		}
	}
}

func TestInsightsCached(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/insights", nil)
	if w.Code != http.StatusOK || w.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first insights = %d %s", w.Code, w.Header().Get("X-Cache"))
	}
	if data := body["data"].(map[string]interface{}); data["totalFarms"] != float64(3) {
		t.Errorf("totalFarms = %v", data["totalFarms"])
	}

	w, _ = env.do(t, http.MethodGet, "/api/insights", nil)
	if w.Header().Get("X-Cache") != "HIT" {
		t.Errorf("second insights should be served from cache, got %s", w.Header().Get("X-Cache"))
	}

	_ = env.cache.Invalidate(context.Background(), InsightCacheKey())
	w, _ = env.do(t, http.MethodGet, "/api/insights", nil)
	if w.Header().Get("X-Cache") != "MISS" {
		t.Errorf("insights after invalidation = %s; want MISS", w.Header().Get("X-Cache"))
	}
}

func TestCompare(t *testing.T) {
	env := newTestEnv(t)

	w, body := env.do(t, http.MethodGet, "/api/compare?ids=f2,f1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("compare = %d", w.Code)
	}
	data := body["data"].([]interface{})
	if len(data) != 2 || data[0].(map[string]interface{})["averagePrice"] != float64(38000) {
		t.Errorf("compare data = %v", data)
	}

	if w, _ := env.do(t, http.MethodGet, "/api/compare?ids=a,b,c,d,e", nil); w.Code != http.StatusBadRequest {
		t.Errorf("compare 5 ids = %d; want 400", w.Code)
	}
	if w, _ := env.do(t, http.MethodGet, "/api/compare", nil); w.Code != http.StatusBadRequest {
		t.Errorf("compare without ids = %d; want 400", w.Code)
	}
}

func TestFavorites(t *testing.T) {
	env := newTestEnv(t)

	_, body := env.do(t, http.MethodPut, "/api/users/u1/favorites/f1", nil)
	if body["data"].(map[string]interface{})["favorite"] != true {
		t.Fatalf("first toggle = %v", body)
	}
	if w, _ := env.do(t, http.MethodPut, "/api/users/u1/favorites/nope", nil); w.Code != http.StatusNotFound {
		t.Errorf("toggle unknown farm = %d; want 404", w.Code)
	}

	_, body = env.do(t, http.MethodGet, "/api/users/u1/favorites", nil)
	ids := body["data"].(map[string]interface{})["farmIds"].([]interface{})
	if len(ids) != 1 || ids[0] != "f1" {
		t.Errorf("favorites = %v", ids)
	}

	_, body = env.do(t, http.MethodPut, "/api/users/u1/favorites/f1", nil)
	if body["data"].(map[string]interface{})["favorite"] != false {
		t.Errorf("second toggle = %v", body)
	}

	_, _ = env.do(t, http.MethodPut, "/api/users/u1/favorites/f2", nil)
	if w, _ := env.do(t, http.MethodDelete, "/api/users/u1/favorites", nil); w.Code != http.StatusNoContent {
		t.Errorf("clear favorites = %d", w.Code)
	}
	_, body = env.do(t, http.MethodGet, "/api/users/u1/favorites/f2", nil)
	if body["data"].(map[string]interface{})["favorite"] != false {
		t.Errorf("f2 should be cleared, got %v", body)
	}
}

func TestWishlist(t *testing.T) {
	env := newTestEnv(t)
	item := map[string]string{"farmId": "f2", "cropType": "Mustard"}

	if w, _ := env.do(t, http.MethodPost, "/api/users/u1/wishlist", item); w.Code != http.StatusCreated {
		t.Fatalf("add = %d; want 201", w.Code)
	}
	w, body := env.do(t, http.MethodPost, "/api/users/u1/wishlist", item)
	if w.Code != http.StatusOK || body["added"] != false {
		t.Errorf("duplicate add = %d %v", w.Code, body)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/users/u1/wishlist", map[string]string{"farmId": "f2", "cropType": "Rice"}); w.Code != http.StatusBadRequest {
		t.Errorf("crop not offered = %d; want 400", w.Code)
	}
	if w, _ := env.do(t, http.MethodPost, "/api/users/u1/wishlist", map[string]string{"farmId": "f2"}); w.Code != http.StatusBadRequest {
		t.Errorf("missing cropType = %d; want 400", w.Code)
	}

	_, body = env.do(t, http.MethodGet, "/api/users/u1/wishlist", nil)
	if items := body["data"].([]interface{}); len(items) != 1 {
		t.Errorf("wishlist = %v", items)
	}

	_, body = env.do(t, http.MethodGet, "/api/users/u1/wishlist?farmId=f2&cropType=Mustard", nil)
	if body["data"].(map[string]interface{})["inWishlist"] != true {
		t.Errorf("contains f2/Mustard = %v", body)
	}
	_, body = env.do(t, http.MethodGet, "/api/users/u2/wishlist?farmId=f2&cropType=Mustard", nil)
	if body["data"].(map[string]interface{})["inWishlist"] != false {
		t.Errorf("other user contains f2/Mustard = %v", body)
	}
	if w, _ := env.do(t, http.MethodGet, "/api/users/u1/wishlist?cropType=Mustard", nil); w.Code != http.StatusBadRequest {
		t.Errorf("half-specified contains = %d; want 400", w.Code)
	}

	if w, _ := env.do(t, http.MethodDelete, "/api/users/u1/wishlist?farmId=f2", nil); w.Code != http.StatusBadRequest {
		t.Errorf("half-specified delete = %d; want 400", w.Code)
	}
	if w, _ := env.do(t, http.MethodDelete, "/api/users/u1/wishlist?farmId=f2&cropType=Mustard", nil); w.Code != http.StatusNoContent {
		t.Errorf("remove = %d", w.Code)
	}
	_, body = env.do(t, http.MethodGet, "/api/users/u1/wishlist", nil)
	if items := body["data"].([]interface{}); len(items) != 0 {
		t.Errorf("wishlist after remove = %v", items)
	}
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/farms", strings.NewReader(""))
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight allow-origin = %q", w.Header().Get("Access-Control-Allow-Origin"))
	}
}
