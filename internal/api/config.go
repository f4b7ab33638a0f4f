package api

import (
	"context"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weeklyreport/internal/config"
	"weeklyreport/internal/store"
)

// ConfigResponse 配置响应（不返回密钥本身）
type ConfigResponse struct {
	Provider       string  `json:"provider"`
	OllamaHost     string  `json:"ollamaHost"`
	OllamaModel    string  `json:"ollamaModel"`
	GeminiModel    string  `json:"geminiModel"`
	GeminiKeySet   bool    `json:"geminiKeySet"`
	Temperature    float64 `json:"temperature"`
	TimeoutSeconds int     `json:"timeoutSeconds"`

	DefaultSkill   string `json:"defaultSkill"`
	DefaultRequest string `json:"defaultRequest"`
	Timezone       string `json:"timezone"`
	MaxTableRows   int    `json:"maxTableRows"`
	MaxRisks       int    `json:"maxRisks"`

	// 界面上次使用的值
	LastSkill   string `json:"lastSkill"`
	LastRequest string `json:"lastRequest"`
}

// UpdateConfigRequest 更新配置请求，只更新非空字段
type UpdateConfigRequest struct {
	Provider       *string  `json:"provider"`
	OllamaHost     *string  `json:"ollamaHost"`
	OllamaModel    *string  `json:"ollamaModel"`
	GeminiModel    *string  `json:"geminiModel"`
	Temperature    *float64 `json:"temperature"`
	TimeoutSeconds *int     `json:"timeoutSeconds"`
	DefaultSkill   *string  `json:"defaultSkill"`
	DefaultRequest *string  `json:"defaultRequest"`
	Timezone       *string  `json:"timezone"`
	MaxTableRows   *int     `json:"maxTableRows"`
	MaxRisks       *int     `json:"maxRisks"`
}

// GetConfig 获取配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	cfg := h.config()
	ctx := c.Request.Context()

	resp := ConfigResponse{
		Provider:       cfg.LLM.Provider,
		OllamaHost:     cfg.Ollama.Host,
		OllamaModel:    cfg.Ollama.Model,
		GeminiModel:    cfg.Gemini.Model,
		GeminiKeySet:   cfg.Gemini.APIKey != "",
		Temperature:    cfg.LLM.Temperature,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
		DefaultSkill:   cfg.Report.DefaultSkill,
		DefaultRequest: cfg.Report.DefaultRequest,
		Timezone:       cfg.Report.Timezone,
		MaxTableRows:   cfg.Report.MaxTableRows,
		MaxRisks:       cfg.Report.MaxRisks,
		LastSkill:      h.defaultSkill(ctx),
		LastRequest:    h.setting(ctx, store.SettingLastRequest),
	}
	success(c, resp)
}

// UpdateConfig 更新配置并写回 config.toml
//
// 模型相关的修改在重启后生效，默认技能和默认需求立即生效。
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "请求格式错误")
		return
	}

	h.cfgMu.Lock()
	defer h.cfgMu.Unlock()

	next := h.cfg
	restart := false
	setString := func(dst *string, v *string, needRestart bool) {
		if v == nil || *v == *dst {
			return
		}
		*dst = *v
		restart = restart || needRestart
	}
	setInt := func(dst *int, v *int, needRestart bool) {
		if v == nil || *v == *dst {
			return
		}
		*dst = *v
		restart = restart || needRestart
	}

	setString(&next.LLM.Provider, req.Provider, true)
	setString(&next.Ollama.Host, req.OllamaHost, true)
	setString(&next.Ollama.Model, req.OllamaModel, true)
	setString(&next.Gemini.Model, req.GeminiModel, true)
	if req.Temperature != nil && *req.Temperature != next.LLM.Temperature {
		next.LLM.Temperature = *req.Temperature
		restart = true
	}
	setInt(&next.LLM.TimeoutSeconds, req.TimeoutSeconds, true)
	setString(&next.Report.DefaultSkill, req.DefaultSkill, false)
	setString(&next.Report.DefaultRequest, req.DefaultRequest, false)
	setString(&next.Report.Timezone, req.Timezone, true)
	setInt(&next.Report.MaxTableRows, req.MaxTableRows, true)
	setInt(&next.Report.MaxRisks, req.MaxRisks, true)

	if err := next.Validate(); err != nil {
		errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.DefaultSkill != nil {
		if _, err := h.app.Skills.Get(*req.DefaultSkill); err != nil {
			errorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	toSave := next
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && key == toSave.Gemini.APIKey {
		// 来自环境变量的密钥不写入文件
		toSave.Gemini.APIKey = ""
	}
	if err := config.SaveConfig(h.app.ConfigPath, &toSave); err != nil {
		h.logger.Error("save config failed", zap.Error(err))
		errorResponse(c, http.StatusInternalServerError, "保存配置失败")
		return
	}
	h.cfg = next

	success(c, gin.H{"restartRequired": restart})
}

// defaultSkill 上次使用的技能，没有记录时为配置的默认技能
func (h *Handler) defaultSkill(ctx context.Context) string {
	if v := h.setting(ctx, store.SettingLastSkill); v != "" {
		return v
	}
	return h.config().Report.DefaultSkill
}

func (h *Handler) setting(ctx context.Context, key string) string {
	v, ok, err := h.app.Store.GetSetting(ctx, key)
	if err != nil {
		h.logger.Warn("load setting failed", zap.String("key", key), zap.Error(err))
		return ""
	}
	if !ok {
		return ""
	}
	return v
}
