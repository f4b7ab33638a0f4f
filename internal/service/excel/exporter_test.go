package excel_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"weeklyreport/internal/calculator"
	"weeklyreport/internal/model"
	"weeklyreport/internal/service/excel"
)

func TestExporter_ExportBytes(t *testing.T) {
	t.Parallel()

	due := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	progress := 40.0
	tasks := []model.Task{
		model.NewTask(model.TaskFields{RowNo: 2, Project: "Alpha", Task: "Design", Owner: "Amy", Status: model.StatusDoing, Progress: &progress}),
		model.NewTask(model.TaskFields{RowNo: 3, Project: "Alpha", Task: "Build", Owner: "Bo", Status: model.StatusBlocked, DueDate: &due, Blocker: "vendor"}),
	}
	ref := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	summary := calculator.Aggregate(tasks, ref)

	data, err := excel.NewExporter().ExportBytes(summary, tasks, "# 周报\n第二行")
	if err != nil {
		t.Fatalf("ExportBytes failed: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("OpenReader failed: %v", err)
	}
	defer f.Close()

	want := []string{excel.SheetOverview, excel.SheetProjects, excel.SheetOwners, excel.SheetRisks, excel.SheetTasks, "周报"}
	got := f.GetSheetList()
	if len(got) != len(want) {
		t.Fatalf("sheets=%v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sheets=%v, want %v", got, want)
		}
	}

	if v, _ := f.GetCellValue(excel.SheetOverview, "B4"); v != "2" {
		t.Fatalf("total=%q, want 2", v)
	}
	if v, _ := f.GetCellValue(excel.SheetProjects, "A2"); v != "Alpha" {
		t.Fatalf("project=%q", v)
	}
	if v, _ := f.GetCellValue(excel.SheetProjects, "G2"); v != "2" {
		t.Fatalf("project total=%q", v)
	}
	if v, _ := f.GetCellValue(excel.SheetRisks, "B2"); v != "Build" {
		t.Fatalf("risk task=%q", v)
	}
	if v, _ := f.GetCellValue(excel.SheetRisks, "F2"); v != "是" {
		t.Fatalf("risk overdue=%q", v)
	}
	rows, err := f.GetRows(excel.SheetTasks)
	if err != nil {
		t.Fatalf("GetRows failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("task rows=%d, want 3", len(rows))
	}
	if v, _ := f.GetCellValue("周报", "A2"); v != "第二行" {
		t.Fatalf("report line=%q", v)
	}
}
