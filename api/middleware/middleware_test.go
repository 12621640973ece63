package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/use-agent/ownerlookup/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestKnownKey(t *testing.T) {
	keys := [][]byte{[]byte("alpha"), []byte("beta")}

	assert.True(t, knownKey(keys, []byte("alpha")))
	assert.True(t, knownKey(keys, []byte("beta")))
	assert.False(t, knownKey(keys, []byte("gamma")))
	assert.False(t, knownKey(keys, []byte("alph")))
}

func serve(h gin.HandlerFunc, header, value string) int {
	r := gin.New()
	r.GET("/", h, func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(header, value)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestAuth(t *testing.T) {
	h := Auth([]string{"k1", ""})

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "X-API-Key", "nope"))
	assert.Equal(t, http.StatusNoContent, serve(h, "X-API-Key", "k1"))
	assert.Equal(t, http.StatusNoContent, serve(h, "Authorization", "Bearer k1"))
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Authorization", "Basic k1"))
}

func TestAuth_NoKeysIsOpen(t *testing.T) {
	assert.Equal(t, http.StatusNoContent, serve(Auth(nil), "", ""))
}

func TestRateLimit_Disabled(t *testing.T) {
	h := RateLimit(context.Background(), config.RateLimitConfig{})
	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusNoContent, serve(h, "", ""))
	}
}

func TestRateLimit_PerIdentity(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h := RateLimit(ctx, config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1})

	assert.Equal(t, http.StatusNoContent, serve(h, "", ""))
	assert.Equal(t, http.StatusTooManyRequests, serve(h, "", ""))
}
