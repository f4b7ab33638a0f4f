package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"weeklyreport/internal/app"
	"weeklyreport/internal/server"
	"weeklyreport/internal/skill"
	"weeklyreport/internal/util"
)

var (
	port      int
	devMode   bool
	noBrowser bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "启动本地 Web 界面",
		RunE:  runServe,
	}
)

func init() {
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "不自动打开浏览器")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, info, err := loadConfig()
	if err != nil {
		return err
	}
	if port > 0 && !info.PortSpecified {
		cfg.Server.Port = port
	}
	if devMode {
		cfg.Server.DevMode = true
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fmt.Println("==========================================")
	fmt.Println("  项目周报生成器")
	fmt.Println("==========================================")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, info.Path, logger)
	if err != nil {
		return err
	}
	defer a.Close()
	fmt.Printf("数据目录: %s\n", a.DataDir)

	srv := server.NewServer(a)
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(gctx, addr)
	})

	if a.Skills.Dir() != "" {
		g.Go(func() error {
			if err := skill.NewWatcher(a.Skills, logger, nil).Run(gctx); err != nil {
				logger.Warn("skills hot reload disabled", zap.String("dir", a.Skills.Dir()), zap.Error(err))
			}
			return nil
		})
	}

	switch {
	case cfg.Server.DevMode:
		fmt.Printf("开发模式: 请访问 %s\n", url)
	case cfg.Server.OpenBrowser && !noBrowser:
		g.Go(func() error {
			// 等监听就绪
			select {
			case <-time.After(500 * time.Millisecond):
			case <-gctx.Done():
				return nil
			}
			fmt.Printf("正在打开浏览器: %s\n", url)
			if err := util.OpenBrowser(url); err != nil {
				logger.Warn("open browser failed", zap.Error(err))
				fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
			}
			return nil
		})
	default:
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")
	if err := g.Wait(); err != nil {
		return fmt.Errorf("服务异常退出: %w", err)
	}
	fmt.Println("\n服务已关闭")
	return nil
}
