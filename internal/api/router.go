package api

import (
	"github.com/gin-gonic/gin"
	"github.com/wfunc/cash-acceptor/internal/config"
	"github.com/wfunc/cash-acceptor/internal/database"
	"github.com/wfunc/cash-acceptor/internal/hardware"
	"github.com/wfunc/cash-acceptor/internal/repository"
	"github.com/wfunc/cash-acceptor/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine  *gin.Engine
	handler *AcceptorHandler
	hub     *websocket.Hub
	wsCfg   *config.WebSocketConfig
	log     *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, driver *hardware.Driver, hub *websocket.Hub, cfg *config.Config, log *zap.Logger) *Router {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// 创建处理器
	handler := NewAcceptorHandler(
		driver,
		repository.NewBillCountRepository(db),
		repository.NewAcceptorEventRepository(db),
		log,
	)

	router := &Router{
		engine:  engine,
		handler: handler,
		hub:     hub,
		wsCfg:   &cfg.WebSocket,
		log:     log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// Engine 返回Gin引擎
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// 事件推送
	r.engine.GET(r.wsCfg.Path, func(c *gin.Context) {
		websocket.ServeWS(r.hub, r.wsCfg, c.Writer, c.Request)
	})

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 账本查询
		bills := v1.Group("/bills")
		{
			bills.GET("/counts", r.handler.GetCounts)
			bills.GET("/total", r.handler.GetTotal)
		}

		// 纸币器控制
		acceptor := v1.Group("/acceptor")
		{
			acceptor.GET("/status", r.handler.GetStatus)
			acceptor.GET("/events", r.handler.GetRecentEvents)
			acceptor.POST("/enable", r.handler.Enable)
			acceptor.POST("/disable", r.handler.Disable)
		}
	}
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":   "ok",
		"database": database.IsConnected(),
		"clients":  r.hub.ClientCount(),
	})
}
