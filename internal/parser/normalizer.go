package parser

import (
	"fmt"
	"time"

	"weeklyreport/internal/model"
)

// Options 规范化选项
type Options struct {
	Columns  SynonymTable   // 列名同义词，nil 使用默认值
	Statuses StatusSynonyms // 状态同义词，nil 使用默认值
	Location *time.Location // 日期解析时区，nil 使用本地时区
	RefYear  int            // 缺少年份的日期按此补齐
}

// Normalizer 将任意表头的任务表转换为规范任务记录
type Normalizer struct {
	mapper *FieldMapper
	status *StatusMatcher
	dates  *DateParser
}

// NewNormalizer 创建规范化器
func NewNormalizer(opts Options) *Normalizer {
	return &Normalizer{
		mapper: NewFieldMapper(opts.Columns),
		status: NewStatusMatcher(opts.Statuses),
		dates:  NewDateParser(opts.Location, opts.RefYear),
	}
}

// Normalize 规范化整张表
//
// 只有无表头或没有任何可识别列时返回 *model.InputError；单元格格式问题按字段回落为默认值。
func (n *Normalizer) Normalize(table model.Table) (NormalizeResult, error) {
	result := NormalizeResult{
		Source:    table.Source,
		TotalRows: len(table.Rows),
	}

	if !hasHeader(table.Headers) {
		return result, &model.InputError{Source: table.Source, Reason: "missing header row"}
	}

	mappings, unmapped := n.mapper.Map(table.Headers)
	result.Mappings = mappings
	result.Unmapped = unmapped
	if len(mappings) == 0 {
		return result, &model.InputError{Source: table.Source, Reason: "no recognizable columns"}
	}

	cols := make(map[Field]int, len(mappings))
	for _, m := range mappings {
		cols[m.Field] = m.ColumnIndex
	}
	_, hasTaskColumn := cols[FieldTask]

	result.Tasks = make([]model.Task, 0, len(table.Rows))
	for i, row := range table.Rows {
		rowNo := table.HeaderRow + i + 2
		get := func(f Field) model.Cell {
			idx, ok := cols[f]
			if !ok {
				return model.EmptyCell()
			}
			return row.At(idx)
		}

		if isBlankRow(get) {
			result.BlankRows++
			continue
		}

		taskName := get(FieldTask).String()
		module := get(FieldModule).String()
		if taskName == "" {
			switch {
			case module != "":
				taskName = module
				if hasTaskColumn {
					result.Issues = append(result.Issues, RowIssue{RowNo: rowNo, Message: "缺少任务名称，使用模块名代替"})
				}
			case !hasTaskColumn:
				taskName = fmt.Sprintf("第%d行", rowNo)
			default:
				result.DroppedRows++
				result.Issues = append(result.Issues, RowIssue{RowNo: rowNo, Message: "缺少任务名称，已跳过", Dropped: true})
				continue
			}
		}

		dueCell := get(FieldDueDate)
		due := n.dates.Parse(dueCell)
		if due == nil && !dueCell.IsEmpty() {
			result.Issues = append(result.Issues, RowIssue{RowNo: rowNo, Message: fmt.Sprintf("无法识别的截止日期 %q", dueCell.String())})
		}

		result.Tasks = append(result.Tasks, model.NewTask(model.TaskFields{
			RowNo:    rowNo,
			Project:  get(FieldProject).String(),
			Module:   module,
			Task:     taskName,
			Owner:    get(FieldOwner).String(),
			Status:   n.status.Match(get(FieldStatus)),
			Priority: ParsePriority(get(FieldPriority)),
			DueDate:  due,
			Progress: ParseProgress(get(FieldProgress)),
			Blocker:  get(FieldBlocker).String(),
			Risk:     get(FieldRisk).String(),
		}))
	}

	return result, nil
}

func hasHeader(headers []string) bool {
	for _, h := range headers {
		if NormalizeColumnName(h) != "" {
			return true
		}
	}
	return false
}

func isBlankRow(get func(Field) model.Cell) bool {
	for _, f := range CanonicalFields {
		if !get(f).IsEmpty() {
			return false
		}
	}
	return true
}
