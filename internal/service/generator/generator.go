// Package generator runs one report generation: aggregate the normalized
// tasks, optionally ask the model for narrative text, then render.
package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weeklyreport/internal/calculator"
	"weeklyreport/internal/llm"
	"weeklyreport/internal/model"
	"weeklyreport/internal/report"
	"weeklyreport/internal/skill"
	"weeklyreport/internal/store"
)

// ErrPassthroughFailed 直通模式下模型不可用，没有可返回的报告
var ErrPassthroughFailed = errors.New("passthrough generation failed")

// 默认值
const (
	DefaultTimeout      = 120 * time.Second
	DefaultMaxTableRows = 25
)

// Options 生成器选项
type Options struct {
	MaxRisks     int
	MaxTableRows int
	Timeout      time.Duration
	Location     *time.Location
	Template     *report.Template // 非空时替换所有技能的输出模板
}

// Generator 周报生成器，可并发调用；每次生成各自持有任务、参考时间和汇总结果
type Generator struct {
	skills *skill.Registry
	client llm.Client
	calc   *calculator.Calculator
	store  *store.Store
	logger *zap.Logger
	opts   Options
	now    func() time.Time
}

// New 创建生成器；client 为 nil 时不调用模型，st 为 nil 时不记录生成日志
func New(skills *skill.Registry, client llm.Client, st *store.Store, logger *zap.Logger, opts Options) *Generator {
	if client == nil {
		client = llm.Disabled{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxTableRows <= 0 {
		opts.MaxTableRows = DefaultMaxTableRows
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	return &Generator{
		skills: skills,
		client: client,
		calc:   calculator.NewCalculator(opts.MaxRisks),
		store:  st,
		logger: logger,
		opts:   opts,
		now:    time.Now,
	}
}

// ModelName 当前模型名称
func (g *Generator) ModelName() string {
	return g.client.Name()
}

// Request 一次生成的输入
type Request struct {
	Tasks       []model.Task
	Skill       string
	Request     string    // 用户的自然语言需求
	RefTime     time.Time // 参考时间（决定逾期和周期），零值为当前时间
	UseModel    bool
	ImportLogID int64
	Trace       *model.Trace
}

// Result 一次生成的输出
type Result struct {
	GenerationID    string                `json:"generationId"`
	Skill           string                `json:"skill"`
	Model           string                `json:"model,omitempty"`
	Report          string                `json:"report"`
	Summary         model.Summary         `json:"summary"`
	Narrative       report.Narrative      `json:"narrative"`
	NarrativeStatus string                `json:"narrativeStatus"`
	NarrativeError  string                `json:"narrativeError,omitempty"`
	Prompt          skill.Prompt          `json:"-"`
	Trace           []model.ProgressEvent `json:"trace"`
	DurationMs      int64                 `json:"durationMs"`
}

// Generate 汇总 → （可选）模型叙述 → 渲染
//
// 技能模式下模型失败不影响数据部分，叙述槽位渲染为（无）；直通模式下模型失败返回 ErrPassthroughFailed。
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	start := g.now()
	trace := req.Trace
	if trace == nil {
		trace = model.NewTrace(nil)
	}

	sk, err := g.skills.Get(req.Skill)
	if err != nil {
		trace.Add(model.EventError, err.Error(), nil)
		return nil, err
	}
	if !sk.Passthrough() {
		trace.Add(model.EventInfo, fmt.Sprintf("Loaded skill pack: %s", sk.Name), map[string]string{"source": sk.Source})
	}

	ref := req.RefTime
	if ref.IsZero() {
		ref = start.In(g.opts.Location)
	}
	summary := g.calc.Calculate(req.Tasks, ref)
	trace.Add(model.EventInfo, "Computed weekly KPIs", map[string]int{
		"total":   summary.Total,
		"done":    summary.Done,
		"doing":   summary.Doing,
		"blocked": summary.Blocked,
		"todo":    summary.Todo,
		"overdue": summary.Overdue,
	})

	result := &Result{
		GenerationID:    uuid.New().String(),
		Skill:           sk.Name,
		Summary:         summary,
		NarrativeStatus: model.NarrativeSkipped,
	}

	var reply string
	if req.UseModel {
		reply, err = g.callModel(ctx, sk, req, summary, result, trace)
		if err != nil && sk.Passthrough() {
			g.finish(ctx, req, result, start, trace)
			return result, fmt.Errorf("%w: %v", ErrPassthroughFailed, err)
		}
	}

	tmpl := sk.Template
	if g.opts.Template != nil {
		tmpl = *g.opts.Template
	}
	switch {
	case sk.Passthrough() && reply != "":
		result.Report = llm.CleanResponse(reply)
		result.NarrativeStatus = model.NarrativeRawReply
	default:
		if reply != "" {
			result.Narrative = llm.ParseNarrative(reply)
		}
		result.Report = report.Render(tmpl, summary, result.Narrative)
	}
	trace.Add(model.EventDone, "Rendered report", map[string]int{"chars": len(result.Report)})

	g.finish(ctx, req, result, start, trace)
	return result, nil
}

func (g *Generator) callModel(ctx context.Context, sk *skill.Skill, req Request, summary model.Summary, result *Result, trace *model.Trace) (string, error) {
	if _, disabled := g.client.(llm.Disabled); disabled {
		trace.Add(model.EventWarn, "Model disabled, narrative skipped", nil)
		return "", llm.ErrDisabled
	}

	summaryJSON, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal summary: %w", err)
	}
	result.Prompt = sk.BuildPrompt(skill.PromptInput{
		Request:     req.Request,
		SummaryJSON: string(summaryJSON),
		TaskTable:   report.TaskTableMarkdown(req.Tasks, g.opts.MaxTableRows),
	})
	result.Model = g.client.Name()
	trace.Add(model.EventInfo, "Built LLM prompt", map[string]int{
		"systemChars": len(result.Prompt.System),
		"userChars":   len(result.Prompt.User),
	})

	callCtx, cancel := context.WithTimeout(ctx, g.opts.Timeout)
	defer cancel()

	callStart := time.Now()
	reply, err := g.client.Chat(callCtx, result.Prompt.System, result.Prompt.User)
	if err != nil {
		result.NarrativeStatus = model.NarrativeFailed
		result.NarrativeError = err.Error()
		trace.Add(model.EventWarn, fmt.Sprintf("Model chat failed: %v", err), map[string]string{"model": result.Model})
		g.logger.Warn("model chat failed", zap.String("model", result.Model), zap.Error(err))
		return "", err
	}
	result.NarrativeStatus = model.NarrativeOK
	trace.Add(model.EventInfo, "Model chat completed", map[string]any{
		"model":     result.Model,
		"latencyMs": time.Since(callStart).Milliseconds(),
	})
	return reply, nil
}

func (g *Generator) finish(ctx context.Context, req Request, result *Result, start time.Time, trace *model.Trace) {
	result.DurationMs = g.now().Sub(start).Milliseconds()
	result.Trace = trace.Events()

	g.logger.Info("report generated",
		zap.String("id", result.GenerationID),
		zap.String("skill", result.Skill),
		zap.String("narrative", result.NarrativeStatus),
		zap.Int("tasks", result.Summary.Total),
		zap.Int64("durationMs", result.DurationMs),
	)

	if g.store == nil {
		return
	}
	_, err := g.store.CreateGenerationLog(ctx, model.GenerationLog{
		GenerationID:    result.GenerationID,
		ImportLogID:     req.ImportLogID,
		Skill:           result.Skill,
		Model:           result.Model,
		NarrativeStatus: result.NarrativeStatus,
		TotalTasks:      result.Summary.Total,
		DurationMs:      result.DurationMs,
	})
	if err != nil {
		g.logger.Warn("create generation log failed", zap.Error(err))
	}
}

// ParseRefDate 解析 YYYY-MM-DD 为当天 00:00；空字符串返回零值（使用当前时间）
func ParseRefDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
