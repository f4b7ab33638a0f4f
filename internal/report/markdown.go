package report

import (
	"fmt"
	"strings"

	"weeklyreport/internal/model"
)

// NoDataRow 分组表没有数据时的占位行
const NoDataRow = "| （无数据） | - | - | - | - | - |"

var cellEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

// EscapeCell 表格单元格转义
func EscapeCell(s string) string {
	return cellEscaper.Replace(strings.TrimSpace(s))
}

// GroupRowsMarkdown 每组一行：| name | done | doing | blocked | todo | note |
func GroupRowsMarkdown(rows []model.GroupRow) string {
	if len(rows) == 0 {
		return NoDataRow
	}
	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, fmt.Sprintf("| %s | %d | %d | %d | %d | %s |",
			EscapeCell(r.Name), r.Done, r.Doing, r.Blocked, r.Todo, EscapeCell(r.Note)))
	}
	return strings.Join(lines, "\n")
}

// BulletList Markdown 无序列表
func BulletList(items []string) string {
	lines := make([]string, 0, len(items))
	for _, it := range items {
		lines = append(lines, "- "+strings.ReplaceAll(strings.TrimSpace(it), "\n", " "))
	}
	return strings.Join(lines, "\n")
}

var taskTableHeader = []string{"project", "module", "task", "owner", "status", "priority", "due_date", "progress", "blocker", "risk"}

// TaskTableMarkdown 任务明细表（前 maxRows 行），用于模型上下文
func TaskTableMarkdown(tasks []model.Task, maxRows int) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(taskTableHeader, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(taskTableHeader)) + "\n")

	n := len(tasks)
	if maxRows > 0 && n > maxRows {
		n = maxRows
	}
	for _, t := range tasks[:n] {
		cells := []string{
			t.Project, t.Module, t.Task, t.Owner, string(t.Status), string(t.Priority),
			t.DueDateString(), t.ProgressString(), t.Blocker, t.Risk,
		}
		for i := range cells {
			cells[i] = EscapeCell(cells[i])
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	if n < len(tasks) {
		fmt.Fprintf(&b, "\n（仅展示前 %d 行，共 %d 行）\n", n, len(tasks))
	}
	return b.String()
}
