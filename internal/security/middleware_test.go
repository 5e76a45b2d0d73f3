package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newValidationRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(InputValidationMiddleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	router.GET("/items", ok)
	router.GET("/items/:id", ok)
	router.GET("/by-key/:key", ok)
	return router
}

func TestInputValidationQueryParams(t *testing.T) {
	router := newValidationRouter()

	cases := []struct {
		path string
		want int
	}{
		{"/items?limit=10", http.StatusOK},
		{"/items?limit=abc", http.StatusBadRequest},
		{"/items?limit=-5", http.StatusBadRequest},
		{"/items?status=pending", http.StatusOK},
		{"/items?status=PENDING", http.StatusBadRequest},
		{"/items?type=new_keyword", http.StatusOK},
		{"/items?type=drop;table", http.StatusBadRequest},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		router.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Errorf("GET %s = %d, want %d", c.path, w.Code, c.want)
		}
	}
}

func TestInputValidationPathParams(t *testing.T) {
	router := newValidationRouter()

	cases := []struct {
		path string
		want int
	}{
		{"/items/42", http.StatusOK},
		{"/items/not-a-number", http.StatusBadRequest},
		{"/by-key/wayback", http.StatusOK},
		{"/by-key/common_crawl-2024", http.StatusOK},
		{"/by-key/Bad%20Key", http.StatusBadRequest},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, c.path, nil)
		router.ServeHTTP(w, req)
		if w.Code != c.want {
			t.Errorf("GET %s = %d, want %d", c.path, w.Code, c.want)
		}
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestSizeMiddleware(10))
	router.POST("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	req.ContentLength = 100
	router.ServeHTTP(w, req)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("Expected 413 for oversized request, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/submit", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 for small request, got %d", w.Code)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	limiter := NewRateLimiter(1, 2)
	router.Use(RateLimitMiddleware(limiter))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-Real-IP", "10.0.0.1")
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	// Burst of 2 allowed, the third is throttled.
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Errorf("Expected burst allowed, got %v", codes)
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("Expected third request throttled, got %v", codes)
	}

	// A different client has its own bucket.
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Real-IP", "10.0.0.2")
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("Expected independent bucket per client, got %d", w.Code)
	}
}

func TestIsValidSlug(t *testing.T) {
	cases := []struct {
		in     string
		maxLen int
		want   bool
	}{
		{"pending", 30, true},
		{"new_keyword", 30, true},
		{"with-hyphen", 30, true},
		{"", 30, false},
		{"UPPER", 30, false},
		{"has space", 30, false},
		{"toolong", 3, false},
	}
	for _, c := range cases {
		if got := isValidSlug(c.in, c.maxLen); got != c.want {
			t.Errorf("isValidSlug(%q, %d) = %v, want %v", c.in, c.maxLen, got, c.want)
		}
	}
}
