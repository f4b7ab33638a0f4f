package model

import (
	"strings"
	"time"
)

// Unassigned 项目/负责人为空时的归类名
const Unassigned = "Unassigned"

// Status 任务状态（封闭枚举）
type Status string

const (
	StatusTodo    Status = "todo"
	StatusDoing   Status = "doing"
	StatusDone    Status = "done"
	StatusBlocked Status = "blocked"
)

// Statuses 全部状态，按报告中的列顺序
var Statuses = []Status{StatusDone, StatusDoing, StatusBlocked, StatusTodo}

// Label 中文展示名
func (s Status) Label() string {
	switch s {
	case StatusDone:
		return "已完成"
	case StatusDoing:
		return "进行中"
	case StatusBlocked:
		return "阻塞"
	default:
		return "未开始"
	}
}

// Valid 是否为枚举内的值
func (s Status) Valid() bool {
	switch s {
	case StatusTodo, StatusDoing, StatusDone, StatusBlocked:
		return true
	}
	return false
}

// Priority 优先级
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Label 中文展示名
func (p Priority) Label() string {
	switch p {
	case PriorityHigh:
		return "高"
	case PriorityLow:
		return "低"
	default:
		return "中"
	}
}

// Task 规范化后的任务记录，构造后不可修改
type Task struct {
	RowNo    int        `json:"rowNo"` // 源表行号（含表头，从 1 开始）
	Project  string     `json:"project"`
	Module   string     `json:"module,omitempty"`
	Task     string     `json:"task"`
	Owner    string     `json:"owner"`
	Status   Status     `json:"status"`
	Priority Priority   `json:"priority"`
	DueDate  *time.Time `json:"dueDate,omitempty"`
	Progress *float64   `json:"progress,omitempty"` // 0-100
	Blocker  string     `json:"blocker,omitempty"`
	Risk     string     `json:"risk,omitempty"`
}

// TaskFields 构造 Task 的输入
type TaskFields struct {
	RowNo    int
	Project  string
	Module   string
	Task     string
	Owner    string
	Status   Status
	Priority Priority
	DueDate  *time.Time
	Progress *float64
	Blocker  string
	Risk     string
}

// NewTask 构造任务记录：补齐 Unassigned、非法状态回落为 todo、进度截断到 [0,100]
func NewTask(f TaskFields) Task {
	t := Task{
		RowNo:    f.RowNo,
		Project:  strings.TrimSpace(f.Project),
		Module:   strings.TrimSpace(f.Module),
		Task:     strings.TrimSpace(f.Task),
		Owner:    strings.TrimSpace(f.Owner),
		Status:   f.Status,
		Priority: f.Priority,
		Blocker:  strings.TrimSpace(f.Blocker),
		Risk:     strings.TrimSpace(f.Risk),
	}
	if t.Project == "" {
		t.Project = Unassigned
	}
	if t.Owner == "" {
		t.Owner = Unassigned
	}
	if !t.Status.Valid() {
		t.Status = StatusTodo
	}
	switch t.Priority {
	case PriorityLow, PriorityMedium, PriorityHigh:
	default:
		t.Priority = PriorityMedium
	}
	if f.DueDate != nil {
		d := *f.DueDate
		t.DueDate = &d
	}
	if f.Progress != nil {
		p := ClampPercent(*f.Progress)
		t.Progress = &p
	}
	return t
}

// ClampPercent 截断到 [0,100]
func ClampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// IsOverdue 截止日期早于参考时间且未完成
func (t Task) IsOverdue(ref time.Time) bool {
	if t.DueDate == nil || t.Status == StatusDone {
		return false
	}
	return t.DueDate.Before(ref)
}

// HasBlocker 是否填写了阻塞说明
func (t Task) HasBlocker() bool {
	return t.Blocker != ""
}

// DueDateString 截止日期文本，空值返回 ""
func (t Task) DueDateString() string {
	if t.DueDate == nil {
		return ""
	}
	return t.DueDate.Format("2006-01-02")
}

// ProgressString 进度文本，空值返回 ""
func (t Task) ProgressString() string {
	if t.Progress == nil {
		return ""
	}
	return FormatPercent(*t.Progress)
}
