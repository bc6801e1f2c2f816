package server

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

var testKey = []byte("test-signing-key")

func protectedRouter(adminOnly bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	group := router.Group("/", AuthRequired(testKey))
	if adminOnly {
		group = group.Group("", AdminOnly())
	}
	group.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return router
}

func mintToken(t *testing.T, key []byte, role string, expiry time.Duration) string {
	t.Helper()
	claims := Claims{
		Username: "tester",
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func doRequest(router *gin.Engine, token string) int {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRequired(t *testing.T) {
	router := protectedRouter(false)

	if code := doRequest(router, ""); code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", code)
	}
	if code := doRequest(router, "not-a-jwt"); code != http.StatusUnauthorized {
		t.Fatalf("garbage token: got %d, want 401", code)
	}
	if code := doRequest(router, mintToken(t, []byte("wrong-key"), "admin", time.Hour)); code != http.StatusUnauthorized {
		t.Fatalf("wrong key: got %d, want 401", code)
	}
	if code := doRequest(router, mintToken(t, testKey, "admin", -time.Hour)); code != http.StatusUnauthorized {
		t.Fatalf("expired token: got %d, want 401", code)
	}
	if code := doRequest(router, mintToken(t, testKey, "viewer", time.Hour)); code != http.StatusOK {
		t.Fatalf("valid token: got %d, want 200", code)
	}
}

func TestAdminOnly(t *testing.T) {
	router := protectedRouter(true)

	if code := doRequest(router, mintToken(t, testKey, "viewer", time.Hour)); code != http.StatusForbidden {
		t.Fatalf("viewer on admin route: got %d, want 403", code)
	}
	if code := doRequest(router, mintToken(t, testKey, "admin", time.Hour)); code != http.StatusOK {
		t.Fatalf("admin on admin route: got %d, want 200", code)
	}
}
