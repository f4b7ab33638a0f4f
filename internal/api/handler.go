// Package api exposes the report generator over HTTP.
package api

import (
	"path/filepath"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weeklyreport/internal/app"
	"weeklyreport/internal/config"
	"weeklyreport/internal/importer"
)

// Handler API 处理器
type Handler struct {
	app       *app.App
	previewer *importer.Coordinator // 预览不写导入日志
	dataDir   string
	downloads *downloadStore
	logger    *zap.Logger

	cfgMu sync.RWMutex
	cfg   config.AppConfig
}

// NewHandler 创建 API 处理器
func NewHandler(a *app.App) *Handler {
	logger := a.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("api")
	removeStaleExports(filepath.Join(a.DataDir, exportsDir), logger)
	return &Handler{
		app:       a,
		previewer: importer.NewCoordinator(nil, a.ParserOptions, logger),
		dataDir:   a.DataDir,
		downloads: newDownloadStore(logger),
		logger:    logger,
		cfg:       *a.Config,
	}
}

// Close 删除尚未过期的导出文件
func (h *Handler) Close() {
	h.downloads.clear()
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/skills", h.ListSkills)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 上传预览与生成
	router.POST("/preview", h.Preview)
	router.POST("/generate", h.Generate)
	router.POST("/generate/stream", h.GenerateStream)
	router.GET("/download/:token", h.Download)

	// 历史记录
	router.GET("/imports", h.ListImports)
	router.GET("/generations", h.ListGenerations)
}

func (h *Handler) config() config.AppConfig {
	h.cfgMu.RLock()
	defer h.cfgMu.RUnlock()
	return h.cfg
}
