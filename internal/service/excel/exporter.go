package excel

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"weeklyreport/internal/model"
)

// 导出工作簿中的 sheet 名称
const (
	SheetOverview = "概览"
	SheetProjects = "项目"
	SheetOwners   = "负责人"
	SheetRisks    = "风险"
	SheetTasks    = "任务明细"
)

// Exporter 周报汇总 Excel 导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// Export 导出汇总、分组统计、风险和任务明细
func (e *Exporter) Export(summary model.Summary, tasks []model.Task, report string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, err
	}

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return nil, err
	}

	overview := [][]any{
		{"指标", "数值"},
		{"周期", summary.WeekRange},
		{"生成时间", summary.GeneratedAt.Format("2006-01-02 15:04")},
		{"任务总数", summary.Total},
		{"已完成", summary.Done},
		{"进行中", summary.Doing},
		{"阻塞", summary.Blocked},
		{"未开始", summary.Todo},
		{"逾期", summary.Overdue},
	}
	if err := writeRows(f, SheetOverview, overview, headerStyle); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetOverview, "A", "A", 14)
	_ = f.SetColWidth(SheetOverview, "B", "B", 28)

	if err := writeGroupSheet(f, SheetProjects, "项目", summary.ProjectRows, headerStyle); err != nil {
		return nil, err
	}
	if err := writeGroupSheet(f, SheetOwners, "负责人", summary.OwnerRows, headerStyle); err != nil {
		return nil, err
	}

	risks := [][]any{{"项目", "任务", "负责人", "状态", "截止日期", "逾期", "说明", "严重度"}}
	for _, r := range summary.TopRisks {
		overdue := ""
		if r.Overdue {
			overdue = "是"
		}
		risks = append(risks, []any{r.Project, r.Task, r.Owner, r.Status.Label(), r.DueDate, overdue, r.Detail, r.Severity})
	}
	if err := newSheet(f, SheetRisks, risks, headerStyle); err != nil {
		return nil, err
	}
	_ = f.SetColWidth(SheetRisks, "A", "F", 14)
	_ = f.SetColWidth(SheetRisks, "G", "G", 40)

	detail := [][]any{{"行号", "项目", "模块", "任务", "负责人", "状态", "优先级", "截止日期", "进度", "阻塞", "风险"}}
	for _, t := range tasks {
		var progress any = ""
		if t.Progress != nil {
			progress = *t.Progress / 100
		}
		detail = append(detail, []any{
			t.RowNo, t.Project, t.Module, t.Task, t.Owner, t.Status.Label(), t.Priority.Label(),
			t.DueDateString(), progress, t.Blocker, t.Risk,
		})
	}
	if err := newSheet(f, SheetTasks, detail, headerStyle); err != nil {
		return nil, err
	}
	if len(tasks) > 0 {
		pct, err := f.NewStyle(&excelize.Style{NumFmt: 9})
		if err == nil {
			_ = f.SetCellStyle(SheetTasks, "I2", fmt.Sprintf("I%d", len(tasks)+1), pct)
		}
	}
	_ = f.SetColWidth(SheetTasks, "B", "E", 16)
	_ = f.SetColWidth(SheetTasks, "J", "K", 30)

	if report != "" {
		if err := writeReportSheet(f, report); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// ExportBytes 导出为 xlsx 字节
func (e *Exporter) ExportBytes(summary model.Summary, tasks []model.Task, report string) ([]byte, error) {
	f, err := e.Export(summary, tasks, report)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeGroupSheet(f *excelize.File, sheet, nameHeader string, rows []model.GroupRow, style int) error {
	data := [][]any{{nameHeader, "已完成", "进行中", "阻塞", "未开始", "逾期", "合计", "备注"}}
	for _, r := range rows {
		data = append(data, []any{r.Name, r.Done, r.Doing, r.Blocked, r.Todo, r.Overdue, r.Total(), r.Note})
	}
	if err := newSheet(f, sheet, data, style); err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 24)
	_ = f.SetColWidth(sheet, "H", "H", 24)
	return nil
}

// writeReportSheet 报告正文按行写入，便于在 Excel 中直接查看
func writeReportSheet(f *excelize.File, report string) error {
	const sheet = "周报"
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	row := 1
	for _, line := range strings.Split(strings.ReplaceAll(report, "\r\n", "\n"), "\n") {
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetCellStr(sheet, cell, line); err != nil {
			return err
		}
		row++
	}
	return f.SetColWidth(sheet, "A", "A", 120)
}

func newSheet(f *excelize.File, sheet string, rows [][]any, style int) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	return writeRows(f, sheet, rows, style)
}

func writeRows(f *excelize.File, sheet string, rows [][]any, style int) error {
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetRowStyle(sheet, 1, 1, style)
}
