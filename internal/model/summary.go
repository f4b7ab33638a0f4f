package model

import (
	"strconv"
	"time"
)

// GroupRow 项目/负责人维度的一行汇总
type GroupRow struct {
	Name    string `json:"name"`
	Done    int    `json:"done"`
	Doing   int    `json:"doing"`
	Blocked int    `json:"blocked"`
	Todo    int    `json:"todo"`
	Overdue int    `json:"overdue"`
	Note    string `json:"note"`
}

// Total 组内任务总数
func (g GroupRow) Total() int {
	return g.Done + g.Doing + g.Blocked + g.Todo
}

// RiskItem 排名后的风险项（结构化形式，供导出和模型上下文使用）
type RiskItem struct {
	Project  string `json:"project"`
	Task     string `json:"task"`
	Owner    string `json:"owner"`
	Status   Status `json:"status"`
	DueDate  string `json:"dueDate,omitempty"`
	Overdue  bool   `json:"overdue"`
	Detail   string `json:"detail,omitempty"`
	Severity int    `json:"severity"`
	Bullet   string `json:"bullet"`
}

// Summary 一次生成的汇总结果，不持久化
type Summary struct {
	GeneratedAt time.Time `json:"generatedAt"`
	WeekRange   string    `json:"weekRange"`

	Total   int `json:"totalTasks"`
	Done    int `json:"done"`
	Doing   int `json:"doing"`
	Blocked int `json:"blocked"`
	Todo    int `json:"todo"`
	Overdue int `json:"overdue"`

	ProjectRows []GroupRow `json:"projectRows"`
	OwnerRows   []GroupRow `json:"ownerRows"`
	RiskBullets []string   `json:"riskBullets"`
	TopRisks    []RiskItem `json:"topRisks"`
}

// FormatPercent 百分比文本，整数不带小数
func FormatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
