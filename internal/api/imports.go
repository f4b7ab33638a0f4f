package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const defaultListLimit = 20

// ListImports 最近的导入记录（仅元数据）
// GET /api/imports?limit=20
func (h *Handler) ListImports(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	logs, err := h.app.Store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "获取导入记录失败")
		return
	}
	success(c, logs)
}

// ListGenerations 最近的生成记录（不含报告内容）
// GET /api/generations?limit=20
func (h *Handler) ListGenerations(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	logs, err := h.app.Store.ListGenerationLogs(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, "获取生成记录失败")
		return
	}
	success(c, logs)
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.DefaultQuery("limit", strconv.Itoa(defaultListLimit))
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 || limit > 200 {
		errorResponse(c, http.StatusBadRequest, "limit 必须是 1-200 的整数")
		return 0, false
	}
	return limit, true
}
