package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dentalbuddy/clinic-api/internal/middleware"
)

// Handler registers routes that need no permission guard.
type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// GuardedHandler registers routes behind per-route permission checks.
type GuardedHandler interface {
	RegisterRoutes(*gin.RouterGroup, *middleware.AuthMiddleware)
}

type Router struct {
	engine   *gin.Engine
	auth     *middleware.AuthMiddleware
	authH    Handler
	healthH  Handler
	patientH GuardedHandler
	procH    GuardedHandler
	billingH GuardedHandler
	roleH    GuardedHandler
	userH    GuardedHandler
	reportH  GuardedHandler
	metrics  *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type Config struct {
	CORSConfig    middleware.CORSConfig
	RateLimiter   *middleware.RateLimiter
	MetricsPrefix string
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH Handler,
	healthH Handler,
	patientH GuardedHandler,
	procH GuardedHandler,
	billingH GuardedHandler,
	roleH GuardedHandler,
	userH GuardedHandler,
	reportH GuardedHandler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		healthH:  healthH,
		patientH: patientH,
		procH:    procH,
		billingH: billingH,
		roleH:    roleH,
		userH:    userH,
		reportH:  reportH,
		metrics:  initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
	)
	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimiter != nil {
		engine.Use(config.RateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	middleware.RegisterValidations()

	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	// Public routes
	r.healthH.RegisterRoutes(api)
	r.authH.RegisterRoutes(api)

	// Everything else requires an authenticated principal; permission
	// checks are attached per route.
	protected := api.Group("")
	protected.Use(r.auth.Authenticate())

	r.patientH.RegisterRoutes(protected, r.auth)
	r.procH.RegisterRoutes(protected, r.auth)
	r.billingH.RegisterRoutes(protected, r.auth)
	r.reportH.RegisterRoutes(protected, r.auth)

	admin := protected.Group("/admin")
	r.roleH.RegisterRoutes(admin, r.auth)
	r.userH.RegisterRoutes(admin, r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
