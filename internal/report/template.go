// Package report renders the weekly status report from a computed summary.
package report

import (
	_ "embed"
	"regexp"
)

// 模板占位符（持久化契约，名称不可更改）
const (
	PHWeekRange       = "week_range"
	PHGeneratedAt     = "generated_at"
	PHTotalTasks      = "total_tasks"
	PHDone            = "done"
	PHDoing           = "doing"
	PHBlocked         = "blocked"
	PHTodo            = "todo"
	PHOverdue         = "overdue"
	PHKeyTakeaway     = "key_takeaway"
	PHProjectRows     = "project_rows"
	PHTopRiskBullets  = "top_risk_bullets"
	PHOwnerRows       = "owner_rows"
	PHNextWeekActions = "next_week_actions"
	PHLeadershipAsks  = "leadership_asks"
)

// Placeholders 全部已识别占位符
var Placeholders = []string{
	PHWeekRange,
	PHGeneratedAt,
	PHTotalTasks,
	PHDone,
	PHDoing,
	PHBlocked,
	PHTodo,
	PHOverdue,
	PHKeyTakeaway,
	PHProjectRows,
	PHTopRiskBullets,
	PHOwnerRows,
	PHNextWeekActions,
	PHLeadershipAsks,
}

//go:embed weekly_template.md
var defaultTemplateText string

var placeholderRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// Template 周报模板（不可变值）
type Template struct {
	text string
}

// NewTemplate 包装模板文本
func NewTemplate(text string) Template {
	return Template{text: text}
}

// DefaultTemplate 内置周报模板
func DefaultTemplate() Template {
	return Template{text: defaultTemplateText}
}

// Text 模板原文
func (t Template) Text() string {
	return t.text
}

// Token 占位符在模板中的写法
func Token(name string) string {
	return "{{" + name + "}}"
}

// Used 模板中出现的占位符名（按首次出现顺序，含未识别的）
func (t Template) Used() []string {
	var names []string
	seen := make(map[string]bool)
	for _, m := range placeholderRe.FindAllStringSubmatch(t.text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			names = append(names, m[1])
		}
	}
	return names
}

// Missing 模板中缺失的已识别占位符
func (t Template) Missing() []string {
	used := make(map[string]bool)
	for _, name := range t.Used() {
		used[name] = true
	}
	var missing []string
	for _, name := range Placeholders {
		if !used[name] {
			missing = append(missing, name)
		}
	}
	return missing
}
