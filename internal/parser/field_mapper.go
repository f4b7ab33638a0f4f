package parser

import (
	"unicode/utf8"
)

// SynonymTable 规范字段 -> 列名同义词（按优先级排列）
type SynonymTable map[Field][]string

// DefaultColumnSynonyms 默认列名同义词
func DefaultColumnSynonyms() SynonymTable {
	return SynonymTable{
		FieldProject:  {"project", "项目", "项目名称", "proj", "工程", "project_name", "所属项目"},
		FieldModule:   {"module", "模块", "子系统", "workstream", "领域", "component", "组件"},
		FieldTask:     {"task", "任务", "任务名称", "事项", "需求", "issue", "title", "summary", "工作项", "task_name"},
		FieldOwner:    {"owner", "负责人", "owner_name", "assignee", "经办人", "执行人", "处理人", "责任人"},
		FieldStatus:   {"status", "状态", "进度状态", "stage", "任务状态", "state"},
		FieldPriority: {"priority", "优先级", "p", "prio", "级别"},
		FieldDueDate:  {"due_date", "截止", "截止日期", "deadline", "due", "计划完成日期", "截止时间", "due date", "完成日期", "end_date"},
		FieldProgress: {"progress", "完成度", "percent", "百分比", "进展", "进度", "完成率", "%complete"},
		FieldBlocker:  {"blocker", "阻塞", "障碍", "block", "问题", "风险点", "阻塞原因", "blocked_by"},
		FieldRisk:     {"risk", "风险", "risk_level", "风险等级", "风险描述", "risks"},
	}
}

// Extend 返回追加了额外同义词的副本；额外同义词排在默认值之后
func (t SynonymTable) Extend(extra map[string][]string) SynonymTable {
	out := make(SynonymTable, len(t))
	for f, syns := range t {
		out[f] = append([]string(nil), syns...)
	}
	for name, syns := range extra {
		f := Field(NormalizeKeyField(name))
		if _, ok := out[f]; !ok {
			continue
		}
		out[f] = append(out[f], syns...)
	}
	return out
}

// NormalizeKeyField 配置里的字段名（允许 dueDate / due-date 等写法）
func NormalizeKeyField(name string) string {
	k := NormalizeKey(name)
	for _, f := range CanonicalFields {
		if NormalizeKey(string(f)) == k {
			return string(f)
		}
	}
	return k
}

// FieldMapper 列名 -> 规范字段映射器
type FieldMapper struct {
	keys map[Field][]string
}

// NewFieldMapper 创建字段映射器，同义词键在此处一次性计算
func NewFieldMapper(synonyms SynonymTable) *FieldMapper {
	if synonyms == nil {
		synonyms = DefaultColumnSynonyms()
	}
	keys := make(map[Field][]string, len(synonyms))
	for _, f := range CanonicalFields {
		for _, s := range synonyms[f] {
			if k := NormalizeKey(s); k != "" {
				keys[f] = append(keys[f], k)
			}
		}
	}
	return &FieldMapper{keys: keys}
}

// Map 为每个规范字段找到对应列
//
// 第一轮精确匹配：按字段优先级、同义词优先级、列顺序，先到先得。
// 第二轮包含匹配：未绑定的列按最长同义词归入未绑定的字段（同义词至少 2 个字符）。
// 每列最多绑定一个字段。
func (m *FieldMapper) Map(columnNames []string) (mappings []FieldMapping, unmapped []string) {
	normalized := make([]string, len(columnNames))
	for i, col := range columnNames {
		normalized[i] = NormalizeKey(col)
	}

	used := make(map[int]bool)
	bound := make(map[Field]FieldMapping)

	for _, f := range CanonicalFields {
	synonyms:
		for _, key := range m.keys[f] {
			for idx, col := range normalized {
				if col == "" || used[idx] || col != key {
					continue
				}
				bound[f] = FieldMapping{Field: f, ColumnIndex: idx, ColumnName: columnNames[idx], Exact: true}
				used[idx] = true
				break synonyms
			}
		}
	}

	for idx, col := range normalized {
		if col == "" || used[idx] {
			continue
		}
		best, bestLen := Field(""), 0
		for _, f := range CanonicalFields {
			if _, ok := bound[f]; ok {
				continue
			}
			for _, key := range m.keys[f] {
				n := utf8.RuneCountInString(key)
				if n < 2 || n <= bestLen {
					continue
				}
				if containsKey(col, key) {
					best, bestLen = f, n
				}
			}
		}
		if best != "" {
			bound[best] = FieldMapping{Field: best, ColumnIndex: idx, ColumnName: columnNames[idx]}
			used[idx] = true
		}
	}

	for _, f := range CanonicalFields {
		if fm, ok := bound[f]; ok {
			mappings = append(mappings, fm)
		}
	}
	for idx, col := range columnNames {
		if !used[idx] && NormalizeColumnName(col) != "" {
			unmapped = append(unmapped, col)
		}
	}
	return mappings, unmapped
}

func containsKey(col, key string) bool {
	return len(col) > len(key) && ContainsAny(col, []string{key})
}
