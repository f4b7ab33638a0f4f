// Package app wires the configuration into the services shared by the HTTP
// server and the command line.
package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"weeklyreport/internal/config"
	"weeklyreport/internal/importer"
	"weeklyreport/internal/llm"
	"weeklyreport/internal/parser"
	"weeklyreport/internal/report"
	"weeklyreport/internal/service/excel"
	"weeklyreport/internal/service/generator"
	"weeklyreport/internal/skill"
	"weeklyreport/internal/store"
)

// App 进程内共享的服务
type App struct {
	Config        *config.AppConfig
	ConfigPath    string
	Logger        *zap.Logger
	DataDir       string
	Store         *store.Store
	Skills        *skill.Registry
	Client        llm.Client
	ParserOptions parser.Options
	Importer      *importer.Coordinator
	Generator     *generator.Generator
	Exporter      *excel.Exporter
}

// New 按配置创建所有服务；调用方负责 Close
func New(ctx context.Context, cfg *config.AppConfig, configPath string, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	st, err := store.New(filepath.Join(dataDir, store.DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	skills, err := skill.NewRegistry(config.ResolvePath(cfg.Report.SkillsDir), logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	tmpl, err := loadTemplate(config.ResolvePath(cfg.Report.TemplatePath), logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	opts := ParserOptions(cfg)
	opts.Location = loc

	a := &App{
		Config:        cfg,
		ConfigPath:    configPath,
		Logger:        logger,
		DataDir:       dataDir,
		Store:         st,
		Skills:        skills,
		Client:        client,
		ParserOptions: opts,
		Importer:      importer.NewCoordinator(st, opts, logger.Named("importer")),
		Generator: generator.New(skills, client, st, logger.Named("generator"), generator.Options{
			MaxRisks:     cfg.Report.MaxRisks,
			MaxTableRows: cfg.Report.MaxTableRows,
			Timeout:      cfg.Timeout(),
			Location:     loc,
			Template:     tmpl,
		}),
		Exporter: excel.NewExporter(),
	}
	logger.Info("services ready",
		zap.String("dataDir", dataDir),
		zap.String("model", client.Name()),
		zap.Int("skills", len(skills.List())),
	)
	return a, nil
}

// Close 释放数据库连接
func (a *App) Close() error {
	if a.Store == nil {
		return nil
	}
	return a.Store.Close()
}

// NewClient 按 llm.provider 创建模型客户端
func NewClient(ctx context.Context, cfg *config.AppConfig) (llm.Client, error) {
	switch cfg.LLM.Provider {
	case config.ProviderOllama:
		return llm.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.Model, cfg.LLM.Temperature, nil), nil
	case config.ProviderGemini:
		return llm.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.LLM.Temperature)
	default:
		return llm.Disabled{}, nil
	}
}

// ParserOptions 默认同义词加上配置中的扩展
func ParserOptions(cfg *config.AppConfig) parser.Options {
	return parser.Options{
		Columns:  parser.DefaultColumnSynonyms().Extend(cfg.Normalize.ColumnAliases),
		Statuses: parser.DefaultStatusSynonyms().Extend(cfg.Normalize.StatusAliases),
	}
}

func loadTemplate(path string, logger *zap.Logger) (*report.Template, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report template: %w", err)
	}
	tmpl := report.NewTemplate(string(data))
	if missing := tmpl.Missing(); len(missing) > 0 {
		logger.Warn("report template lacks placeholders", zap.String("path", path), zap.Strings("missing", missing))
	}
	return &tmpl, nil
}
