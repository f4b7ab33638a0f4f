package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName 默认配置文件名
const ConfigFileName = "config.toml"

// 模型提供方
const (
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
	ProviderNone   = "none"
)

// AppConfig 应用配置
type AppConfig struct {
	Server    ServerConfig    `toml:"server"`
	Data      DataConfig      `toml:"data"`
	LLM       LLMConfig       `toml:"llm"`
	Ollama    OllamaConfig    `toml:"ollama"`
	Gemini    GeminiConfig    `toml:"gemini"`
	Report    ReportConfig    `toml:"report"`
	Log       LogConfig       `toml:"log"`
	Normalize NormalizeConfig `toml:"normalize"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port        int  `toml:"port"`
	DevMode     bool `toml:"dev_mode"`
	OpenBrowser bool `toml:"open_browser"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir string `toml:"data_dir"`
}

// LLMConfig 叙述内容生成配置
type LLMConfig struct {
	Provider       string  `toml:"provider"` // ollama | gemini | none
	Temperature    float64 `toml:"temperature"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
}

// OllamaConfig 本地 Ollama 配置
type OllamaConfig struct {
	Host  string `toml:"host"`
	Model string `toml:"model"`
}

// GeminiConfig Gemini API 配置
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// ReportConfig 周报生成配置
type ReportConfig struct {
	DefaultSkill   string `toml:"default_skill"`
	DefaultRequest string `toml:"default_request"`
	Timezone       string `toml:"timezone"`
	MaxTableRows   int    `toml:"max_table_rows"`
	MaxRisks       int    `toml:"max_risks"`
	TemplatePath   string `toml:"template_path"`
	SkillsDir      string `toml:"skills_dir"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `toml:"level"`
	JSON  bool   `toml:"json"`
}

// NormalizeConfig 列名、状态同义词扩展（key 为规范字段名或状态值）
type NormalizeConfig struct {
	ColumnAliases map[string][]string `toml:"column_aliases"`
	StatusAliases map[string][]string `toml:"status_aliases"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:        20262,
			DevMode:     false,
			OpenBrowser: true,
		},
		Data: DataConfig{
			DataDir: "data",
		},
		LLM: LLMConfig{
			Provider:       ProviderOllama,
			Temperature:    0.3,
			TimeoutSeconds: 120,
		},
		Ollama: OllamaConfig{
			Host:  "http://127.0.0.1:11434",
			Model: "qwen3:14b",
		},
		Gemini: GeminiConfig{
			Model: "gemini-2.5-flash",
		},
		Report: ReportConfig{
			DefaultSkill: "weekly_report",
			Timezone:     "Local",
			MaxTableRows: 25,
			MaxRisks:     5,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

// DefaultConfigPath 可执行文件同目录下的 config.toml
func DefaultConfigPath() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		exeDir = "."
	}
	return filepath.Join(exeDir, ConfigFileName)
}

// LoadConfigWithInfo 从 path 加载配置并返回元信息；path 为空时使用默认位置
func LoadConfigWithInfo(path string) (*AppConfig, LoadConfigInfo, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	info := LoadConfigInfo{Path: path}
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	applyEnv(config)

	if err := config.Validate(); err != nil {
		return nil, info, err
	}
	return config, info, nil
}

// LoadConfig 从 path 加载配置
func LoadConfig(path string) (*AppConfig, error) {
	config, _, err := LoadConfigWithInfo(path)
	return config, err
}

// 环境变量覆盖配置文件
func applyEnv(config *AppConfig) {
	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		config.Ollama.Host = v
	}
	if v := os.Getenv("OLLAMA_MODEL"); v != "" {
		config.Ollama.Model = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Gemini.APIKey = v
	}
	if v := os.Getenv("WEEKLYREPORT_LLM_PROVIDER"); v != "" {
		config.LLM.Provider = v
	}
	if v := os.Getenv("WEEKLYREPORT_SKILLS_DIR"); v != "" {
		config.Report.SkillsDir = v
	}
}

// Validate 校验配置取值
func (c *AppConfig) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	switch c.LLM.Provider {
	case ProviderOllama, ProviderGemini, ProviderNone:
	case "":
		c.LLM.Provider = ProviderNone
	default:
		return fmt.Errorf("invalid llm.provider %q", c.LLM.Provider)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("invalid llm.temperature %v", c.LLM.Temperature)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid report.timezone %q: %w", c.Report.Timezone, err)
	}
	return nil
}

// Location 报告使用的时区
func (c *AppConfig) Location() (*time.Location, error) {
	switch c.Report.Timezone {
	case "", "Local":
		return time.Local, nil
	default:
		return time.LoadLocation(c.Report.Timezone)
	}
}

// Timeout 模型调用超时，<= 0 时为 120 秒
func (c *AppConfig) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 120 * time.Second
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// SaveConfig 保存配置到 path
func SaveConfig(path string, config *AppConfig) error {
	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ResolvePath 相对路径按可执行文件目录解析
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	exeDir, err := GetExeDir()
	if err != nil {
		exeDir = "."
	}
	return filepath.Join(exeDir, p)
}

// EnsureDataDir 确保数据目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := ResolvePath(config.Data.DataDir)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"exports"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}
