package parser

import "weeklyreport/internal/model"

// Field 规范字段名
type Field string

const (
	FieldProject  Field = "project"
	FieldModule   Field = "module"
	FieldTask     Field = "task"
	FieldOwner    Field = "owner"
	FieldStatus   Field = "status"
	FieldPriority Field = "priority"
	FieldDueDate  Field = "due_date"
	FieldProgress Field = "progress"
	FieldBlocker  Field = "blocker"
	FieldRisk     Field = "risk"
)

// CanonicalFields 规范字段，顺序即列匹配的优先级
var CanonicalFields = []Field{
	FieldProject,
	FieldModule,
	FieldTask,
	FieldOwner,
	FieldStatus,
	FieldPriority,
	FieldDueDate,
	FieldProgress,
	FieldBlocker,
	FieldRisk,
}

// FieldMapping 字段映射结果
type FieldMapping struct {
	Field       Field  `json:"field"`
	ColumnIndex int    `json:"columnIndex"` // 表头列索引
	ColumnName  string `json:"columnName"`  // 原始列名
	Exact       bool   `json:"exact"`       // 是否精确匹配同义词
}

// RowIssue 行级提示（不致命）
type RowIssue struct {
	RowNo   int    `json:"rowNo"`
	Message string `json:"message"`
	Dropped bool   `json:"dropped"`
}

// NormalizeResult 规范化结果
type NormalizeResult struct {
	Source      string         `json:"source"`
	TotalRows   int            `json:"totalRows"`
	Tasks       []model.Task   `json:"tasks"`
	Mappings    []FieldMapping `json:"mappings"`
	Unmapped    []string       `json:"unmapped"`    // 未识别的列名
	BlankRows   int            `json:"blankRows"`   // 静默丢弃的空行
	DroppedRows int            `json:"droppedRows"` // 缺少任务名被丢弃的行
	Issues      []RowIssue     `json:"issues,omitempty"`
}

// MappedColumn 返回字段绑定的列
func (r NormalizeResult) MappedColumn(f Field) (FieldMapping, bool) {
	for _, m := range r.Mappings {
		if m.Field == f {
			return m, true
		}
	}
	return FieldMapping{}, false
}
