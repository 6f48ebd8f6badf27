package server

import (
	"net/http"
	"os"

	"github.com/Sidarth-Roy/ChatApp-POC/internal/config"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/metrics"
	"github.com/Sidarth-Roy/ChatApp-POC/internal/mw"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRouter 统一初始化 Gin 中间件、REST API 以及 WebSocket 端点。
func SetupRouter(cfg config.Config, h *Handler, wsh *WSHandler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(mw.CORS(cfg.Env))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	api.GET("/rooms", h.ListRooms)
	api.GET("/rooms/:name/messages", h.ListMessages)

	r.GET("/ws", wsh.Serve())

	// 静态页面仅在 web 目录存在时挂载，核心服务不依赖它。
	if fi, err := os.Stat("./web"); err == nil && fi.IsDir() {
		r.Static("/app", "./web")
	}
	return r
}
