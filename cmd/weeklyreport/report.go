package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"weeklyreport/internal/app"
	"weeklyreport/internal/importer"
	"weeklyreport/internal/model"
	"weeklyreport/internal/service/generator"
)

var (
	reportFile    string
	reportSkill   string
	reportRequest string
	reportDate    string
	reportOut     string
	reportXLSX    string
	reportNoLLM   bool
	reportPretty  bool
	reportTrace   bool

	reportCmd = &cobra.Command{
		Use:   "report",
		Short: "从任务清单生成一份周报",
		Example: `  weeklyreport report --file tasks.xlsx
  weeklyreport report --file tasks.csv --date 2024-06-01 --no-llm --out weekly.md --xlsx weekly.xlsx
  weeklyreport report --file tasks.xlsx --skill none --request "只写一段总结"`,
		RunE: runReport,
	}
)

func init() {
	reportCmd.Flags().StringVarP(&reportFile, "file", "f", "", "任务清单文件 (.xlsx/.csv)")
	reportCmd.Flags().StringVarP(&reportSkill, "skill", "s", "", "技能名称，none 为直通模式 (默认: 配置中的 default_skill)")
	reportCmd.Flags().StringVarP(&reportRequest, "request", "r", "", "自然语言需求")
	reportCmd.Flags().StringVar(&reportDate, "date", "", "参考日期 YYYY-MM-DD (默认: 当前时间)")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Markdown 输出路径 (默认: 标准输出)")
	reportCmd.Flags().StringVar(&reportXLSX, "xlsx", "", "同时导出 xlsx 汇总")
	reportCmd.Flags().BoolVar(&reportNoLLM, "no-llm", false, "不调用模型，叙述段落留空")
	reportCmd.Flags().BoolVar(&reportPretty, "pretty", false, "在终端中渲染 Markdown")
	reportCmd.Flags().BoolVar(&reportTrace, "trace", false, "打印执行轨迹")
	_ = reportCmd.MarkFlagRequired("file")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, info, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx := cmd.Context()
	a, err := app.New(ctx, cfg, info.Path, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	data, err := os.ReadFile(reportFile)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	ref, err := generator.ParseRefDate(reportDate, a.ParserOptions.Location)
	if err != nil {
		return err
	}
	skillName := reportSkill
	if !cmd.Flags().Changed("skill") {
		skillName = cfg.Report.DefaultSkill
	}
	request := reportRequest
	if strings.TrimSpace(request) == "" {
		request = cfg.Report.DefaultRequest
	}

	stderr := cmd.ErrOrStderr()
	var notify func(model.ProgressEvent)
	if reportTrace {
		notify = func(ev model.ProgressEvent) {
			fmt.Fprintf(stderr, "[%s] %s\n", ev.Type, ev.Message)
		}
	}
	trace := model.NewTrace(notify)

	imported, err := a.Importer.Import(ctx, importer.ImportRequest{Filename: reportFile, Data: data}, trace)
	if err != nil {
		return err
	}

	result, err := a.Generator.Generate(ctx, generator.Request{
		Tasks:       imported.Normalized.Tasks,
		Skill:       skillName,
		Request:     request,
		RefTime:     ref,
		UseModel:    !reportNoLLM,
		ImportLogID: imported.ImportLogID,
		Trace:       trace,
	})
	if err != nil {
		if errors.Is(err, generator.ErrPassthroughFailed) {
			return fmt.Errorf("%w（可使用 --skill weekly_report 生成不依赖模型的数据部分）", err)
		}
		return err
	}
	if result.NarrativeStatus == model.NarrativeFailed {
		fmt.Fprintf(stderr, "模型调用失败，叙述段落已留空: %s\n", result.NarrativeError)
	}
	if n := imported.Normalized.DroppedRows; n > 0 {
		fmt.Fprintf(stderr, "已跳过 %d 行缺少任务名称的记录\n", n)
	}

	if reportXLSX != "" {
		f, err := a.Exporter.Export(result.Summary, imported.Normalized.Tasks, result.Report)
		if err != nil {
			return fmt.Errorf("导出 xlsx 失败: %w", err)
		}
		defer f.Close()
		if err := f.SaveAs(reportXLSX); err != nil {
			return fmt.Errorf("写入 xlsx 失败: %w", err)
		}
		fmt.Fprintf(stderr, "已导出: %s\n", reportXLSX)
	}

	if reportOut != "" {
		if err := os.WriteFile(reportOut, []byte(result.Report), 0o644); err != nil {
			return fmt.Errorf("写入报告失败: %w", err)
		}
		fmt.Fprintf(stderr, "已生成: %s\n", reportOut)
		return nil
	}

	out := result.Report
	if reportPretty {
		rendered, err := renderPretty(out)
		if err != nil {
			fmt.Fprintf(stderr, "警告: 终端渲染失败，输出原始 Markdown: %v\n", err)
		} else {
			out = rendered
		}
	}
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

func renderPretty(markdown string) (string, error) {
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}
	return renderer.Render(markdown)
}
