package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"weeklyreport/internal/config"
	"weeklyreport/internal/logging"
)

var (
	// 全局参数
	configPath string
	dataDir    string
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "weeklyreport",
		Short: "项目周报生成器：Excel/CSV 任务清单 → 模板化周报",
		Long: `weeklyreport 读取任务清单（xlsx/csv），识别列名和状态，统计进度、风险、负责人分布，
并按公司模板输出周报；可选调用本地 Ollama 或 Gemini 生成叙述段落。

不带子命令时启动本地 Web 界面（同 serve）。`,
		SilenceUsage: true,
		RunE:         runServe,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "配置文件路径 (默认: 可执行文件目录下的 config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "输出调试日志")

	addServeFlags(rootCmd)

	rootCmd.AddCommand(serveCmd, reportCmd, skillsCmd, historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig 加载配置并应用命令行覆盖
func loadConfig() (*config.AppConfig, config.LoadConfigInfo, error) {
	cfg, info, err := config.LoadConfigWithInfo(configPath)
	if err != nil {
		return nil, info, fmt.Errorf("加载配置失败: %w", err)
	}
	if dataDir != "" {
		cfg.Data.DataDir = dataDir
	}
	return cfg, info, nil
}

func newLogger(cfg *config.AppConfig) (*zap.Logger, error) {
	logger, err := logging.New(cfg.Log, verbose)
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(logger)
	return logger, nil
}
