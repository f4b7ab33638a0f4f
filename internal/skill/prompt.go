package skill

import (
	"fmt"
	"strings"
)

// DefaultRequest 用户未填写需求时使用的默认指令
const DefaultRequest = "给我生成本周项目周报：总体进度、里程碑、Top 风险、按负责人统计、下周行动清单（按公司模板输出）。"

// 叙述段落标题，模型按这些标题分段输出
const (
	SectionKeyTakeaway     = "key_takeaway"
	SectionRiskNotes       = "risk_notes"
	SectionNextWeekActions = "next_week_actions"
	SectionLeadershipAsks  = "leadership_asks"
)

// NarrativeSections 叙述段落，按输出顺序
var NarrativeSections = []string{
	SectionKeyTakeaway,
	SectionRiskNotes,
	SectionNextWeekActions,
	SectionLeadershipAsks,
}

const passthroughSystem = "你是一个项目管理助理。请根据用户需求和提供的数据，输出清晰的项目周报（Markdown）。" +
	"优先基于事实数据，不要编造。若数据缺失请标注“待补充”。"

// Prompt 发给模型的一组消息
type Prompt struct {
	System string `json:"system"`
	User   string `json:"user"`
}

// PromptInput 组装提示词所需的数据
type PromptInput struct {
	Request     string // 用户的自然语言需求
	SummaryJSON string // 汇总结果（JSON）
	TaskTable   string // 任务表前若干行（Markdown）
}

// BuildPrompt 按技能组装系统提示词和用户消息
func (s *Skill) BuildPrompt(in PromptInput) Prompt {
	request := strings.TrimSpace(in.Request)
	if request == "" {
		request = DefaultRequest
	}
	if s.Passthrough() {
		return Prompt{
			System: passthroughSystem,
			User: fmt.Sprintf("用户需求：\n%s\n\n数据（汇总KPIs，JSON）：\n%s\n\n数据（任务表前若干行，Markdown 表格）：\n%s\n\n请输出一份项目周报（Markdown）。",
				request, in.SummaryJSON, in.TaskTable),
		}
	}
	return Prompt{
		System: s.systemPrompt(),
		User: fmt.Sprintf("用户需求：\n%s\n\n输入数据（汇总KPIs，JSON）：\n%s\n\n输入数据（任务表前若干行，Markdown 表格）：\n%s\n\n现在请按要求输出四个段落。",
			request, in.SummaryJSON, in.TaskTable),
	}
}

func (s *Skill) systemPrompt() string {
	var b strings.Builder
	b.WriteString("你是企业内部的“周报生成技能（Skill）”执行器。\n\n")
	b.WriteString("[Skill 指令]\n")
	b.WriteString(s.Instructions)
	b.WriteString("\n\n[输出模板]\n")
	b.WriteString(s.Template.Text())
	if s.RubricText != "" {
		b.WriteString("\n\n[质检 Rubric]\n")
		b.WriteString(s.RubricText)
	}
	b.WriteString("\n\n注意：\n")
	b.WriteString("- 模板中的数字、项目表、负责人表和风险列表由系统根据数据填充，你不需要输出它们。\n")
	b.WriteString("- 必须引用给定数据；不能编造项目、里程碑或指标。\n")
	b.WriteString("- 对缺失字段用“待补充”标注；不要瞎猜。\n")
	b.WriteString("- 输出必须是 Markdown（不加代码块围栏），并且只包含以下四个段落，每段以三级标题开头：\n")
	for _, name := range NarrativeSections {
		b.WriteString("### " + name + "\n")
	}
	return b.String()
}
