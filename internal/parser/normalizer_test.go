package parser

import (
	"errors"
	"testing"
	"time"

	"weeklyreport/internal/model"
)

func newTestNormalizer() *Normalizer {
	return NewNormalizer(Options{Location: time.UTC, RefYear: 2024})
}

func TestNormalize_Scenario(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.csv", [][]string{
		{"project", "task", "owner", "status", "due_date", "blocker"},
		{"Alpha", "Design", "Amy", "进行中", "2099-01-01", ""},
		{"Alpha", "Build", "Bo", "Blocked", "", "waiting on vendor"},
	})

	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(res.Tasks))
	}

	design, build := res.Tasks[0], res.Tasks[1]
	if design.Status != model.StatusDoing || design.DueDate == nil || design.DueDate.Year() != 2099 {
		t.Fatalf("unexpected design task: %+v", design)
	}
	if build.Status != model.StatusBlocked || build.Blocker != "waiting on vendor" || build.DueDate != nil {
		t.Fatalf("unexpected build task: %+v", build)
	}
	if design.RowNo != 2 || build.RowNo != 3 {
		t.Fatalf("unexpected row numbers: %d %d", design.RowNo, build.RowNo)
	}
}

func TestNormalize_DefaultsAndDegradation(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.xlsx", [][]string{
		{"项目", "任务", "负责人", "状态", "优先级", "截止日期", "完成度", "风险"},
		{"", "整理需求", "", "随便", "???", "下周", "abc", ""},
		{"", "", "", "", "", "", "", ""},
		{"Beta", "联调", "Cy", "完成", "高", "2024-05-01", "120%", "接口变更"},
	})

	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(res.Tasks))
	}
	if res.BlankRows != 1 {
		t.Fatalf("expected 1 blank row, got %d", res.BlankRows)
	}

	first := res.Tasks[0]
	if first.Project != model.Unassigned || first.Owner != model.Unassigned {
		t.Fatalf("empty project/owner should be Unassigned: %+v", first)
	}
	if first.Status != model.StatusTodo || first.Priority != model.PriorityMedium {
		t.Fatalf("unexpected fallbacks: %+v", first)
	}
	if first.DueDate != nil || first.Progress != nil {
		t.Fatalf("malformed date/progress should be nil: %+v", first)
	}
	if len(res.Issues) != 1 || res.Issues[0].RowNo != 2 {
		t.Fatalf("expected one date issue on row 2, got %+v", res.Issues)
	}

	second := res.Tasks[1]
	if second.Status != model.StatusDone || second.Priority != model.PriorityHigh {
		t.Fatalf("unexpected second task: %+v", second)
	}
	if second.Progress == nil || *second.Progress != 100 {
		t.Fatalf("progress should be clamped to 100: %+v", second.Progress)
	}
	if second.Risk != "接口变更" {
		t.Fatalf("risk=%q", second.Risk)
	}
}

func TestNormalize_MissingTaskName(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.csv", [][]string{
		{"project", "module", "task", "owner"},
		{"Alpha", "支付", "", "Amy"},
		{"Alpha", "", "", "Bo"},
	})
	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Task != "支付" {
		t.Fatalf("expected module fallback, got %+v", res.Tasks)
	}
	if res.DroppedRows != 1 {
		t.Fatalf("expected one dropped row, got %d", res.DroppedRows)
	}
}

func TestNormalize_NoTaskColumnUsesRowLabel(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.csv", [][]string{
		{"project", "owner", "status"},
		{"Alpha", "Amy", "done"},
	})
	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 1 || res.Tasks[0].Task != "第2行" {
		t.Fatalf("unexpected tasks: %+v", res.Tasks)
	}
}

func TestNormalize_InputErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]model.Table{
		"empty":        model.NewTableFromStrings("a.csv", nil),
		"blank header": model.NewTableFromStrings("b.csv", [][]string{{" ", ""}, {"x", "y"}}),
		"no usable":    model.NewTableFromStrings("c.csv", [][]string{{"foo", "bar"}, {"x", "y"}}),
	}
	for name, table := range cases {
		_, err := newTestNormalizer().Normalize(table)
		var inputErr *model.InputError
		if !errors.As(err, &inputErr) {
			t.Fatalf("%s: expected InputError, got %v", name, err)
		}
	}
}

func TestNormalize_ZeroRowsIsValid(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.csv", [][]string{{"task", "status"}})
	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 0 {
		t.Fatalf("expected no tasks, got %d", len(res.Tasks))
	}
}

func TestNormalize_KeepsNumericLookingText(t *testing.T) {
	t.Parallel()

	table := model.NewTableFromStrings("tasks.csv", [][]string{
		{"project", "module", "task", "owner", "status", "progress"},
		{"007", "1.10", "Release", "Nan", "doing", "0.5"},
		{"Alpha", "", "NaN", "Inf", "todo", ""},
		{"Alpha", "", "12345678901234567890", "Amy", "todo", ""},
	})

	res, err := newTestNormalizer().Normalize(table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(res.Tasks) != 3 || res.DroppedRows != 0 {
		t.Fatalf("expected 3 tasks and no drops, got %d tasks, dropped=%d issues=%v", len(res.Tasks), res.DroppedRows, res.Issues)
	}

	release := res.Tasks[0]
	if release.Project != "007" || release.Module != "1.10" || release.Owner != "Nan" {
		t.Fatalf("unexpected release task: %+v", release)
	}
	if release.Progress == nil || *release.Progress != 50 {
		t.Fatalf("numeric progress should still parse: %+v", release.Progress)
	}
	if res.Tasks[1].Task != "NaN" || res.Tasks[1].Owner != "Inf" {
		t.Fatalf("unexpected NaN task: %+v", res.Tasks[1])
	}
	if res.Tasks[2].Task != "12345678901234567890" {
		t.Fatalf("long id changed: %q", res.Tasks[2].Task)
	}
}
