package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func doRequest(r *gin.Engine, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestMiddleware_ExtractsIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	var got Context
	var ok bool
	r.GET("/whoami", func(c *gin.Context) {
		got, ok = FromContext(c)
		c.Status(http.StatusOK)
	})

	doRequest(r, map[string]string{
		"X-User-Id":    "u1",
		"X-User-Name":  "Ada",
		"X-User-Email": "ada@example.com",
		"X-User-Role":  RoleAdmin,
	})

	if !ok {
		t.Fatal("expected caller context")
	}
	if got.UserID != "u1" || got.Name != "Ada" || got.Email != "ada@example.com" || got.Role != RoleAdmin {
		t.Fatalf("bad context: %+v", got)
	}
	if !got.IsAdmin() {
		t.Fatal("admin role not recognized")
	}
}

func TestMiddleware_AnonymousPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())

	var ok bool
	r.GET("/whoami", func(c *gin.Context) {
		_, ok = FromContext(c)
		c.Status(http.StatusOK)
	})

	w := doRequest(r, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("anonymous request must reach the handler, got %d", w.Code)
	}
	if ok {
		t.Fatal("expected no caller context")
	}
}

func TestRequireUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/whoami", RequireUser(), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}
	if w := doRequest(r, map[string]string{"X-User-Id": "u1", "X-User-Role": RoleUser}); w.Code != http.StatusOK {
		t.Fatalf("user: expected 200, got %d", w.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/whoami", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	if w := doRequest(r, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous: expected 401, got %d", w.Code)
	}
	if w := doRequest(r, map[string]string{"X-User-Id": "u1", "X-User-Role": RoleUser}); w.Code != http.StatusForbidden {
		t.Fatalf("non-admin: expected 403, got %d", w.Code)
	}
	if w := doRequest(r, map[string]string{"X-User-Id": "a1", "X-User-Role": RoleAdmin}); w.Code != http.StatusOK {
		t.Fatalf("admin: expected 200, got %d", w.Code)
	}
}
