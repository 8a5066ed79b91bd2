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

type registrarFunc func(rg *gin.RouterGroup)

func (f registrarFunc) RegisterRoutes(rg *gin.RouterGroup) { f(rg) }

func serve(engine *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestNewRouter(t *testing.T) {
	r := NewRouter(gin.New())

	assert.NotNil(t, r)
	assert.Equal(t, "v1", r.apiVersion)
	assert.Empty(t, r.registrars)
	assert.Empty(t, r.root)
}

func TestRouterWithAPIVersion(t *testing.T) {
	r := NewRouter(gin.New(), WithAPIVersion("v2"))

	assert.Equal(t, "v2", r.apiVersion)
}

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v1"))

	group := NewDomainGroup("analytics", "/analytics")
	group.GET("/ratios", func(c *gin.Context) {
		c.String(http.StatusOK, "ratios")
	})
	r.Register(group)
	r.RegisterRoot(registrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "healthy") })
	}))
	r.Setup()

	w := serve(engine, "/api/v1/analytics/ratios")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ratios", w.Body.String())

	w = serve(engine, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", w.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(engine, "/api/v1/health").Code)
}

func TestDomainGroup(t *testing.T) {
	t.Run("creates group with name and prefix", func(t *testing.T) {
		g := NewDomainGroup("analytics", "/analytics")
		assert.Equal(t, "analytics", g.Name())
		assert.Equal(t, "/analytics", g.Prefix())
	})

	t.Run("mounted registrar sits behind group middleware", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("analytics", "/analytics").
			Use(func(c *gin.Context) {
				c.Header("X-Test-Middleware", "applied")
				c.Next()
			}).
			Mount(registrarFunc(func(rg *gin.RouterGroup) {
				rg.GET("/bundle", func(c *gin.Context) { c.String(http.StatusOK, "bundle") })
			}))

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "/api/v1/analytics/bundle")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "applied", w.Header().Get("X-Test-Middleware"))
	})

	t.Run("middleware can stop the chain", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("analytics", "/analytics").
			Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusTooManyRequests) })
		g.GET("/ratios", func(c *gin.Context) { c.String(http.StatusOK, "ratios") })

		g.RegisterRoutes(engine.Group("/api/v1"))

		assert.Equal(t, http.StatusTooManyRequests, serve(engine, "/api/v1/analytics/ratios").Code)
	})

	t.Run("creates subgroups", func(t *testing.T) {
		engine := gin.New()
		g := NewDomainGroup("analytics", "/analytics")
		g.Group("reports", "/reports").GET("/ratios", func(c *gin.Context) {
			c.String(http.StatusOK, "ratios report")
		})

		g.RegisterRoutes(engine.Group("/api/v1"))

		w := serve(engine, "/api/v1/analytics/reports/ratios")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ratios report", w.Body.String())
	})
}
