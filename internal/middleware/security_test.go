package middleware

import (
	"net/http"
	"net/http/httptest"
	"context"
	"strings"
	"testing"
	"time"

	"rigcheck/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestOriginAllowed(t *testing.T) {
	tests := []struct {
		allowed []string
		origin  string
		want    bool
	}{
		{nil, "https://app.example.com", true},
		{nil, "", false},
		{[]string{"*"}, "https://x.test", true},
		{[]string{"https://app.example.com/"}, "https://app.example.com", true},
		{[]string{"app.example.com"}, "https://app.example.com", true},
		{[]string{"https://app.example.com"}, "https://evil.test", false},
		{[]string{" ", ""}, "https://app.example.com", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OriginAllowed(tt.allowed, tt.origin), "%v %q", tt.allowed, tt.origin)
	}
}

func TestCORSMiddleware_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.example.com"}))
	r.POST("/api/analyze", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/api/analyze", nil)
	req.Header.Set("Origin", "https://app.example.com")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestRateLimiter_SweepDropsIdleIPs(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	stale := rl.GetLimiter("10.0.0.1")
	assert.True(t, stale.Allow())
	assert.False(t, rl.GetLimiter("10.0.0.1").Allow())

	now = now.Add(5 * time.Minute)
	rl.GetLimiter("10.0.0.2")

	now = now.Add(6 * time.Minute)
	assert.Equal(t, 1, rl.Sweep(10*time.Minute))
	assert.Equal(t, 1, rl.Len())

	assert.NotSame(t, stale, rl.GetLimiter("10.0.0.1"), "swept IP gets a fresh bucket")
	assert.Equal(t, 2, rl.Len())
	assert.Equal(t, 0, rl.Sweep(10*time.Minute))
}

func TestRateLimiter_RunSweeperStops(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	rl.GetLimiter("10.0.0.1")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rl.RunSweeper(ctx, time.Millisecond, 0, nil) }()

	assert.Eventually(t, func() bool { return rl.Len() == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestIPWhitelist(t *testing.T) {
	wl := NewIPWhitelist([]string{"10.0.0.1"})
	assert.True(t, wl.IsAllowed("127.0.0.1"))
	assert.True(t, wl.IsAllowed("10.0.0.1"))
	assert.True(t, wl.IsAllowed("10.0.0.1:9090"))
	assert.False(t, wl.IsAllowed("10.0.0.2"))
	assert.False(t, wl.IsAllowed("203.0.113.9:443"))
}

func TestIPWhitelist_EmptyAllowsLoopbackOnly(t *testing.T) {
	wl := NewIPWhitelist(nil)
	assert.True(t, wl.IsAllowed("127.0.0.1"))
	assert.True(t, wl.IsAllowed("::1"))
	assert.False(t, wl.IsAllowed("203.0.113.9"))
	assert.False(t, NewIPWhitelist([]string{" ", ""}).IsAllowed("10.0.0.1"))
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("bearer abc"))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken("Bearer "))
}

func TestInputValidator(t *testing.T) {
	v := NewInputValidator()

	assert.NoError(t, v.ValidateRequest(models.AnalysisRequest{CPU: "i5-4460", GPU: "RTX 4090", RAM: "16GB DDR4-3200"}))
	assert.Error(t, v.ValidateRequest(models.AnalysisRequest{CPU: "i5-4460", GPU: "RTX 4090"}))
	assert.Error(t, v.ValidateRequest(models.AnalysisRequest{CPU: "i5-4460", GPU: "\t", RAM: "16GB"}))
	err := v.ValidateRequest(models.AnalysisRequest{CPU: strings.Repeat("a", 129), GPU: "x", RAM: "y"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "cpu failed max")
	}

	assert.True(t, v.ValidateBuildID("6f1c0b2e-8d4a-4f3e-9b7a-1c2d3e4f5a6b"))
	assert.False(t, v.ValidateBuildID("../etc/passwd"))
	assert.True(t, v.ValidateToken("aaaaaaaaaa.bbbbbbbbbb.cccccccccc"))
	assert.False(t, v.ValidateToken("short"))
}
