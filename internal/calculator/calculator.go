package calculator

import (
	"sort"
	"strings"
	"time"

	"weeklyreport/internal/model"
)

// DefaultMaxRisks Top 风险条数上限
const DefaultMaxRisks = 5

const (
	noteBlocked   = "存在阻塞"
	noteOverdue   = "存在逾期"
	noteSeparator = "；"
)

// Calculator 周报汇总计算器（纯函数，只读任务记录）
type Calculator struct {
	maxRisks int
}

// NewCalculator 创建计算器；maxRisks <= 0 时使用默认值
func NewCalculator(maxRisks int) *Calculator {
	if maxRisks <= 0 {
		maxRisks = DefaultMaxRisks
	}
	return &Calculator{maxRisks: maxRisks}
}

// Aggregate 使用默认配置计算汇总
func Aggregate(tasks []model.Task, ref time.Time) model.Summary {
	return NewCalculator(DefaultMaxRisks).Calculate(tasks, ref)
}

// Calculate 计算状态计数、项目/负责人维度汇总和 Top 风险
func (c *Calculator) Calculate(tasks []model.Task, ref time.Time) model.Summary {
	s := model.Summary{
		GeneratedAt: ref,
		WeekRange:   WeekRange(ref),
	}

	projects := newGrouper()
	owners := newGrouper()

	for _, t := range tasks {
		overdue := t.IsOverdue(ref)

		s.Total++
		switch t.Status {
		case model.StatusDone:
			s.Done++
		case model.StatusDoing:
			s.Doing++
		case model.StatusBlocked:
			s.Blocked++
		default:
			s.Todo++
		}
		if overdue {
			s.Overdue++
		}

		projects.add(t.Project, t.Status, overdue)
		owners.add(t.Owner, t.Status, overdue)
	}

	s.ProjectRows = projects.rows()
	s.OwnerRows = owners.rows()
	s.TopRisks = rankRisks(tasks, ref, c.maxRisks)
	s.RiskBullets = make([]string, 0, len(s.TopRisks))
	for _, r := range s.TopRisks {
		s.RiskBullets = append(s.RiskBullets, r.Bullet)
	}
	return s
}

// WeekRange 参考日期所在自然周（周一至周日）
func WeekRange(ref time.Time) string {
	offset := (int(ref.Weekday()) + 6) % 7
	monday := time.Date(ref.Year(), ref.Month(), ref.Day()-offset, 0, 0, 0, 0, ref.Location())
	sunday := monday.AddDate(0, 0, 6)
	return monday.Format("2006-01-02") + " ~ " + sunday.Format("2006-01-02")
}

type grouper struct {
	index map[string]int
	list  []model.GroupRow
}

func newGrouper() *grouper {
	return &grouper{index: make(map[string]int)}
}

func (g *grouper) add(name string, status model.Status, overdue bool) {
	i, ok := g.index[name]
	if !ok {
		i = len(g.list)
		g.index[name] = i
		g.list = append(g.list, model.GroupRow{Name: name})
	}
	row := &g.list[i]
	switch status {
	case model.StatusDone:
		row.Done++
	case model.StatusDoing:
		row.Doing++
	case model.StatusBlocked:
		row.Blocked++
	default:
		row.Todo++
	}
	if overdue {
		row.Overdue++
	}
}

// rows 按任务总数降序、名称升序（忽略大小写）排序，并生成备注
func (g *grouper) rows() []model.GroupRow {
	out := make([]model.GroupRow, len(g.list))
	copy(out, g.list)
	for i := range out {
		out[i].Note = groupNote(out[i])
	}
	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].Total(), out[j].Total()
		if ti != tj {
			return ti > tj
		}
		li, lj := strings.ToLower(out[i].Name), strings.ToLower(out[j].Name)
		if li != lj {
			return li < lj
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func groupNote(row model.GroupRow) string {
	var notes []string
	if row.Blocked > 0 {
		notes = append(notes, noteBlocked)
	}
	if row.Overdue > 0 {
		notes = append(notes, noteOverdue)
	}
	return strings.Join(notes, noteSeparator)
}
