package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"weeklyreport/internal/model"
)

// StatusSynonyms 状态 -> 同义词
type StatusSynonyms map[model.Status][]string

// DefaultStatusSynonyms 默认状态同义词
func DefaultStatusSynonyms() StatusSynonyms {
	return StatusSynonyms{
		model.StatusDone:    {"done", "完成", "已完成", "closed", "resolved", "complete", "completed", "finished", "已关闭", "已结束", "已上线", "已交付"},
		model.StatusDoing:   {"doing", "进行中", "开发中", "处理中", "in progress", "wip", "ongoing", "started", "执行中", "测试中", "进行"},
		model.StatusBlocked: {"blocked", "阻塞", "卡住", "blocked by", "block", "受阻", "挂起", "on hold", "stuck"},
		model.StatusTodo:    {"todo", "未开始", "待办", "open", "pending", "not started", "new", "backlog", "未完成", "待开始", "计划中"},
	}
}

// Extend 返回追加了额外同义词的副本
func (s StatusSynonyms) Extend(extra map[string][]string) StatusSynonyms {
	out := make(StatusSynonyms, len(s))
	for st, syns := range s {
		out[st] = append([]string(nil), syns...)
	}
	for name, syns := range extra {
		st := model.Status(NormalizeKey(name))
		if !st.Valid() {
			continue
		}
		out[st] = append(out[st], syns...)
	}
	return out
}

// statusOrder 精确匹配时的检查顺序
var statusOrder = []model.Status{model.StatusDone, model.StatusDoing, model.StatusBlocked, model.StatusTodo}

// StatusMatcher 状态文本归一化
type StatusMatcher struct {
	exact map[string]model.Status
}

// NewStatusMatcher 创建状态匹配器；同一个键出现在多个状态下时以先出现的为准
func NewStatusMatcher(synonyms StatusSynonyms) *StatusMatcher {
	if synonyms == nil {
		synonyms = DefaultStatusSynonyms()
	}
	exact := make(map[string]model.Status)
	for _, st := range statusOrder {
		for _, syn := range synonyms[st] {
			k := NormalizeKey(syn)
			if _, exists := exact[k]; k != "" && !exists {
				exact[k] = st
			}
		}
	}
	return &StatusMatcher{exact: exact}
}

// Match 状态归一化：同义词精确匹配，其次关键字推断，都不命中时为 todo
func (m *StatusMatcher) Match(c model.Cell) model.Status {
	k := NormalizeKey(c.String())
	if k == "" {
		return model.StatusTodo
	}
	if st, ok := m.exact[k]; ok {
		return st
	}
	switch {
	case ContainsAny(k, []string{"未", "待", "not", "todo"}):
		return model.StatusTodo
	case ContainsAny(k, []string{"阻", "block", "卡"}):
		return model.StatusBlocked
	case ContainsAny(k, []string{"完", "close", "done", "complete", "finish"}):
		return model.StatusDone
	case ContainsAny(k, []string{"进行", "progress", "doing", "中"}):
		return model.StatusDoing
	}
	return model.StatusTodo
}

var priorityKeys = map[string]model.Priority{
	"high": model.PriorityHigh, "h": model.PriorityHigh, "高": model.PriorityHigh,
	"p0": model.PriorityHigh, "p1": model.PriorityHigh, "urgent": model.PriorityHigh,
	"critical": model.PriorityHigh, "紧急": model.PriorityHigh, "重要": model.PriorityHigh,
	"highest": model.PriorityHigh,
	"medium": model.PriorityMedium, "mid": model.PriorityMedium, "m": model.PriorityMedium,
	"中": model.PriorityMedium, "p2": model.PriorityMedium, "normal": model.PriorityMedium,
	"普通": model.PriorityMedium, "一般": model.PriorityMedium,
	"low": model.PriorityLow, "l": model.PriorityLow, "低": model.PriorityLow,
	"p3": model.PriorityLow, "p4": model.PriorityLow, "minor": model.PriorityLow,
	"lowest": model.PriorityLow,
}

// ParsePriority 优先级归一化，无法识别时为 medium
func ParsePriority(c model.Cell) model.Priority {
	if p, ok := priorityKeys[NormalizeKey(c.String())]; ok {
		return p
	}
	return model.PriorityMedium
}

var (
	dateLayouts = []string{
		"2006-01-02",
		"2006-1-2",
		"2006/01/02",
		"2006/1/2",
		"2006.01.02",
		"2006.1.2",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006/1/2 15:04:05",
		"2006/1/2 15:04",
		"2006-01-02T15:04:05",
		"1/2/2006",
		"01-02-06",
		"02-Jan-2006",
		"2 Jan 2006",
		"Jan 2, 2006",
		"January 2, 2006",
		"20060102",
	}
	zonedLayouts = []string{time.RFC3339, time.RFC3339Nano}
	cnDateRe     = regexp.MustCompile(`^(\d{4})年0?(\d{1,2})月0?(\d{1,2})[日号]?$`)
	cnMonthDayRe = regexp.MustCompile(`^0?(\d{1,2})月0?(\d{1,2})[日号]?$`)
)

// Excel 序列日期的合理区间（1900-01-01 ~ 2173-10-14）
const maxExcelSerial = 100000

// DateParser 截止日期解析；无年份的 "6月1日" 按参考年份补齐
type DateParser struct {
	loc     *time.Location
	refYear int
}

// NewDateParser 创建日期解析器
func NewDateParser(loc *time.Location, refYear int) *DateParser {
	if loc == nil {
		loc = time.Local
	}
	return &DateParser{loc: loc, refYear: refYear}
}

// Parse 解析失败返回 nil
func (p *DateParser) Parse(c model.Cell) *time.Time {
	switch c.Kind {
	case model.CellNumber:
		return p.parseNumber(c.Number)
	case model.CellText:
		return p.parseText(FoldText(c.Text))
	}
	return nil
}

func (p *DateParser) parseNumber(v float64) *time.Time {
	if v >= 1 && v < maxExcelSerial {
		t, err := excelize.ExcelDateToTime(v, false)
		if err != nil {
			return nil
		}
		d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, p.loc)
		return &d
	}
	if v == math.Trunc(v) {
		return p.parseText(strconv.FormatFloat(v, 'f', 0, 64))
	}
	return nil
}

func (p *DateParser) parseText(s string) *time.Time {
	if s == "" {
		return nil
	}
	if m := cnDateRe.FindStringSubmatch(s); m != nil {
		return p.ymd(m[1], m[2], m[3])
	}
	if m := cnMonthDayRe.FindStringSubmatch(s); m != nil && p.refYear > 0 {
		return p.ymd(strconv.Itoa(p.refYear), m[1], m[2])
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.In(p.loc)
			return &t
		}
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, p.loc); err == nil {
			return &t
		}
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && v >= 1 && v < maxExcelSerial {
		return p.parseNumber(v)
	}
	return nil
}

func (p *DateParser) ymd(ys, ms, ds string) *time.Time {
	y, _ := strconv.Atoi(ys)
	m, _ := strconv.Atoi(ms)
	d, _ := strconv.Atoi(ds)
	if m < 1 || m > 12 || d < 1 || d > 31 {
		return nil
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, p.loc)
	if t.Day() != d {
		return nil
	}
	return &t
}

// ParseProgress 进度百分比：支持 "%" 后缀与逗号小数；不带 % 的 0~1 视为比例
func ParseProgress(c model.Cell) *float64 {
	var v float64
	switch c.Kind {
	case model.CellNumber:
		v = scaleFraction(c.Number)
	case model.CellText:
		s := FoldText(c.Text)
		hasPct := strings.Contains(s, "%")
		s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
		if strings.Contains(s, ",") {
			if strings.Contains(s, ".") {
				s = strings.ReplaceAll(s, ",", "")
			} else {
				s = strings.ReplaceAll(s, ",", ".")
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		v = f
		if !hasPct {
			v = scaleFraction(f)
		}
	default:
		return nil
	}
	v = model.ClampPercent(v)
	return &v
}

func scaleFraction(v float64) float64 {
	if v >= 0 && v <= 1 {
		return v * 100
	}
	return v
}
