package calculator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"weeklyreport/internal/model"
)

// 风险分值：阻塞 3、逾期 2，二者可叠加；仅有风险/阻塞文字时为 1
const (
	severityBlocked = 3
	severityOverdue = 2
	severityText    = 1
)

type riskCandidate struct {
	task     model.Task
	overdue  bool
	severity int
	order    int
	item     model.RiskItem
}

// rankRisks 选出 Top N 风险：候选为有风险/阻塞说明或已逾期的任务
//
// 排序：分值降序 -> 截止日期升序（无日期排最后）-> 任务名升序 -> 文案 -> 原始顺序。
// 文案相同的条目只保留一条；不足 N 条时不补齐。
func rankRisks(tasks []model.Task, ref time.Time, limit int) []model.RiskItem {
	var candidates []riskCandidate
	for i, t := range tasks {
		overdue := t.IsOverdue(ref)
		if t.Risk == "" && t.Blocker == "" && !overdue {
			continue
		}
		c := riskCandidate{
			task:     t,
			overdue:  overdue,
			severity: riskSeverity(t, overdue),
			order:    i,
		}
		c.item = toRiskItem(c)
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.severity != b.severity {
			return a.severity > b.severity
		}
		if c := compareDue(a.task.DueDate, b.task.DueDate); c != 0 {
			return c < 0
		}
		if a.task.Task != b.task.Task {
			return a.task.Task < b.task.Task
		}
		if a.item.Bullet != b.item.Bullet {
			return a.item.Bullet < b.item.Bullet
		}
		return a.order < b.order
	})

	items := make([]model.RiskItem, 0, limit)
	seen := make(map[string]bool)
	for _, c := range candidates {
		if len(items) >= limit {
			break
		}
		item := c.item
		if seen[item.Bullet] {
			continue
		}
		seen[item.Bullet] = true
		items = append(items, item)
	}
	return items
}

func riskSeverity(t model.Task, overdue bool) int {
	score := 0
	if t.Status == model.StatusBlocked {
		score += severityBlocked
	}
	if overdue {
		score += severityOverdue
	}
	if score == 0 {
		score = severityText
	}
	return score
}

// compareDue 有日期的排在无日期之前
func compareDue(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}

func toRiskItem(c riskCandidate) model.RiskItem {
	t := c.task
	detail := t.Blocker
	if detail == "" {
		detail = t.Risk
	}

	var parts []string
	if detail != "" {
		parts = append(parts, detail)
	} else if t.Status == model.StatusBlocked {
		parts = append(parts, "状态：阻塞")
	}
	if c.overdue {
		parts = append(parts, fmt.Sprintf("已逾期（截止 %s）", t.DueDateString()))
	}

	bullet := fmt.Sprintf("[%s] %s（负责人：%s）", t.Project, t.Task, t.Owner)
	if len(parts) > 0 {
		bullet += "：" + strings.Join(parts, "；")
	}

	return model.RiskItem{
		Project:  t.Project,
		Task:     t.Task,
		Owner:    t.Owner,
		Status:   t.Status,
		DueDate:  t.DueDateString(),
		Overdue:  c.overdue,
		Detail:   detail,
		Severity: c.severity,
		Bullet:   bullet,
	}
}
