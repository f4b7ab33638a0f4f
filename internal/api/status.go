package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weeklyreport/internal/model"
)

// 模型连通性检查超时
const modelCheckTimeout = 3 * time.Second

// modelLister 能列出可用模型的客户端（Ollama）
type modelLister interface {
	Models(ctx context.Context) ([]string, error)
}

// StatusResponse 系统状态响应
type StatusResponse struct {
	Provider       string           `json:"provider"`
	Model          string           `json:"model"`
	ModelReachable bool             `json:"modelReachable"`
	Models         []string         `json:"models,omitempty"`
	ModelError     string           `json:"modelError,omitempty"`
	Skills         int              `json:"skills"`
	Stats          model.StoreStats `json:"stats"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	cfg := h.config()
	resp := StatusResponse{
		Provider: cfg.LLM.Provider,
		Model:    h.app.Client.Name(),
		Skills:   len(h.app.Skills.List()),
	}

	stats, err := h.app.Store.Stats(c.Request.Context())
	if err != nil {
		h.logger.Warn("load stats failed", zap.Error(err))
	} else {
		resp.Stats = stats
	}

	if lister, ok := h.app.Client.(modelLister); ok {
		ctx, cancel := context.WithTimeout(c.Request.Context(), modelCheckTimeout)
		defer cancel()
		models, err := lister.Models(ctx)
		if err != nil {
			resp.ModelError = err.Error()
		} else {
			resp.ModelReachable = true
			resp.Models = models
		}
	}

	success(c, resp)
}

// SkillInfo 技能列表项
type SkillInfo struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Source      string `json:"source"`
	Default     bool   `json:"default"`
}

// ListSkills 可选技能（none 在最前）
// GET /api/skills
func (h *Handler) ListSkills(c *gin.Context) {
	def := h.defaultSkill(c.Request.Context())
	skills := h.app.Skills.List()
	out := make([]SkillInfo, 0, len(skills))
	for _, s := range skills {
		out = append(out, SkillInfo{
			Name:        s.Name,
			Title:       s.Title,
			Description: s.Description,
			Source:      s.Source,
			Default:     s.Name == def,
		})
	}
	success(c, out)
}
