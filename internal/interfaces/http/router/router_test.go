package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubDocumentRoutes answers with the method and the :id param
type stubDocumentRoutes struct {
	name string
}

func (s stubDocumentRoutes) Get(c *gin.Context) {
	c.String(http.StatusOK, s.name+" get "+c.Param("id"))
}

func (s stubDocumentRoutes) Update(c *gin.Context) {
	c.String(http.StatusOK, s.name+" update "+c.Param("id"))
}

func (s stubDocumentRoutes) Delete(c *gin.Context) {
	c.String(http.StatusOK, s.name+" delete "+c.Param("id"))
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestNewRouter(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))
	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	r.Register(group).Setup()

	w := serve(engine, http.MethodGet, "/api/v1/test/ping")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())
}

func TestRouterUse(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine).Use(func(c *gin.Context) {
		c.Header("X-Api", "yes")
		c.Next()
	})

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.Register(group).Setup()
	engine.GET("/outside", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, "yes", serve(engine, http.MethodGet, "/api/v1/test/ping").Header().Get("X-Api"))
	assert.Empty(t, serve(engine, http.MethodGet, "/outside").Header().Get("X-Api"))
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("finance", "/finance")
		assert.Equal(t, "finance", g.Name())
		assert.Equal(t, "/finance", g.Prefix())
	})

	t.Run("registers each method", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.GET("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "get") }).
			PUT("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "put") }).
			DELETE("/items/:id", func(c *gin.Context) { c.String(http.StatusOK, "delete") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		for method, body := range map[string]string{
			http.MethodGet:    "get",
			http.MethodPut:    "put",
			http.MethodDelete: "delete",
		} {
			w := serve(engine, method, "/api/v1/test/items/1")
			assert.Equal(t, http.StatusOK, w.Code, method)
			assert.Equal(t, body, w.Body.String(), method)
		}
	})

	t.Run("applies middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("test", "/test")
		g.Use(func(c *gin.Context) {
			c.Header("X-Test-Middleware", "applied")
			c.Next()
		})
		g.GET("/items", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, http.MethodGet, "/api/v1/test/items")
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})
}

func TestNewFinanceGroup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine)
	r.Register(NewFinanceGroup(
		stubDocumentRoutes{name: "payable"},
		stubDocumentRoutes{name: "receivable"},
	)).Setup()

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/api/v1/finance/payables/42", "payable get 42"},
		{http.MethodPut, "/api/v1/finance/payables/42", "payable update 42"},
		{http.MethodDelete, "/api/v1/finance/payables/42", "payable delete 42"},
		{http.MethodGet, "/api/v1/finance/receivables/7", "receivable get 7"},
		{http.MethodPut, "/api/v1/finance/receivables/7", "receivable update 7"},
		{http.MethodDelete, "/api/v1/finance/receivables/7", "receivable delete 7"},
	}
	for _, tt := range tests {
		w := serve(engine, tt.method, tt.path)
		assert.Equal(t, http.StatusOK, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.body, w.Body.String())
	}

	w := serve(engine, http.MethodPost, "/api/v1/finance/payables/42")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
