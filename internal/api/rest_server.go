// Package api - админское REST API сервера мира: статус, чтение и правка
// клеток, принудительное сохранение. Мир меняется только через игровой цикл.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/sandbox-world/internal/auth"
	"github.com/annel0/sandbox-world/internal/game"
	"github.com/annel0/sandbox-world/internal/logging"
	"github.com/annel0/sandbox-world/internal/middleware"
)

// World - то, что API требует от игрового сервера
type World interface {
	Do(ctx context.Context, fn func(w *game.World) error) error
	RequestSave(ctx context.Context) error
	Info() game.Info
}

// RestServer представляет REST API сервер
type RestServer struct {
	router     *gin.Engine
	world      World
	signer     *auth.Signer
	addr       string
	metrics    *ServerMetrics
	logger     *logging.Logger
	httpServer *http.Server
	timeout    time.Duration
	creds      auth.Credentials
	tokenTTL   time.Duration
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr        string // адрес для запуска сервера
	MetricsPath string
	DataDir     string // каталог сохранений для отчёта о диске
	World       World
	Signer      *auth.Signer
	Registerer  prometheus.Registerer
	Gatherer    prometheus.Gatherer
	// RequestTimeout ограничивает ожидание игрового цикла
	RequestTimeout time.Duration
	// Admin включает POST /api/login, если задан хэш пароля
	Admin    auth.Credentials
	TokenTTL time.Duration
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.World == nil {
		return nil, errors.New("api: не задан World")
	}
	if config.Signer == nil {
		return nil, errors.New("api: не задан Signer")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.MetricsPath == "" {
		config.MetricsPath = "/metrics"
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}
	if config.Gatherer == nil {
		config.Gatherer = prometheus.DefaultGatherer
	}
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 5 * time.Second
	}
	if config.TokenTTL <= 0 {
		config.TokenTTL = 12 * time.Hour
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// === Observability middleware ===
	router.Use(otelgin.Middleware("admin_api"))
	router.Use(middleware.NewRequestLogger(logging.GetComponentLogger(logging.ComponentHTTP)).Handler())

	promMw, err := middleware.NewPrometheusMiddleware("admin_api", config.Registerer)
	if err != nil {
		return nil, err
	}
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.MetricsPath, config.Gatherer)

	server := &RestServer{
		router:   router,
		world:    config.World,
		signer:   config.Signer,
		addr:     config.Addr,
		metrics:  NewServerMetrics(config.DataDir),
		logger:   logging.GetServerLogger(),
		timeout:  config.RequestTimeout,
		creds:    config.Admin,
		tokenTTL: config.TokenTTL,
	}
	server.setupRoutes()
	return server, nil
}

// Handler возвращает http.Handler, удобно для тестов
func (rs *RestServer) Handler() http.Handler {
	return rs.router
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.GET("/health", rs.handleHealth)
	if rs.creds.Enabled() {
		rs.router.POST("/api/login", rs.handleLogin)
	}

	api := rs.router.Group("/api")
	api.Use(rs.jwtMiddleware())
	{
		api.GET("/status", rs.handleStatus)
		api.GET("/block-types", rs.handleBlockTypes)
		api.GET("/wall-types", rs.handleWallTypes)
		api.GET("/blocks/:x/:y", rs.handleGetBlock)
		api.GET("/walls/:x/:y", rs.handleGetWall)

		admin := api.Group("/")
		admin.Use(rs.adminMiddleware())
		{
			admin.POST("/blocks", rs.handleSetBlock)
			admin.POST("/walls", rs.handleSetWall)
			admin.POST("/save", rs.handleSave)
		}
	}
}

// handleHealth отвечает без авторизации: для балансировщиков и k8s
func (rs *RestServer) handleHealth(c *gin.Context) {
	info := rs.world.Info()
	status := http.StatusOK
	if info.Status == game.StatusStopped {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"status": info.Status,
		"time":   time.Now().Unix(),
	})
}

func (rs *RestServer) handleStatus(c *gin.Context) {
	memoryMB, _ := rs.metrics.GetMemoryUsage()
	cpuPercent, err := rs.metrics.GetCPUUsage()
	if err != nil {
		rs.logger.Debug("CPU процесса: %v", err)
	}
	diskFree, err := rs.metrics.GetDiskFree()
	if err != nil {
		rs.logger.Debug("свободное место: %v", err)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статус сервера",
		Data: gin.H{
			"world":  rs.world.Info(),
			"server": gin.H{
				"uptime":       rs.metrics.GetUptime(),
				"memory_mb":    memoryMB,
				"cpu_percent":  cpuPercent,
				"disk_free_mb": diskFree,
				"server_time":  time.Now().Unix(),
			},
			"memory_details": rs.metrics.GetDetailedMemoryStats(),
		},
	})
}

// Start запускает HTTP-сервер и блокируется до Stop
func (rs *RestServer) Start() error {
	rs.httpServer = &http.Server{
		Addr:              rs.addr,
		Handler:           rs.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	rs.logger.Info("🛠 Админ-API слушает %s", rs.addr)
	if err := rs.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop корректно останавливает HTTP-сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.httpServer == nil {
		return nil
	}
	return rs.httpServer.Shutdown(ctx)
}
