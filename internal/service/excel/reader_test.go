package excel_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"

	"weeklyreport/internal/model"
	"weeklyreport/internal/parser"
	"weeklyreport/internal/service/excel"
)

func buildWorkbook(t *testing.T, sheets map[string][][]any, order ...string) *excelize.File {
	t.Helper()

	wb := excelize.NewFile()
	for i, name := range order {
		if i == 0 {
			if err := wb.SetSheetName("Sheet1", name); err != nil {
				t.Fatalf("SetSheetName failed: %v", err)
			}
		} else if _, err := wb.NewSheet(name); err != nil {
			t.Fatalf("NewSheet failed: %v", err)
		}
		for r, row := range sheets[name] {
			cell, _ := excelize.CoordinatesToCellName(1, r+1)
			values := row
			if err := wb.SetSheetRow(name, cell, &values); err != nil {
				t.Fatalf("SetSheetRow failed: %v", err)
			}
		}
	}
	t.Cleanup(func() { _ = wb.Close() })
	return wb
}

func TestReadWorkbook_PicksTaskSheet(t *testing.T) {
	t.Parallel()

	wb := buildWorkbook(t, map[string][][]any{
		"说明": {{"本表用于周会"}},
		"任务清单": {
			{"2024 第 22 周项目任务"},
			{"项目", "任务", "负责人", "状态", "截止日期", "进度"},
			{"Alpha", "Design", "Amy", "进行中", 45444, 0.5},
		},
	}, "说明", "任务清单")

	res, err := excel.NewReader(nil).ReadWorkbook(wb, "tasks.xlsx")
	if err != nil {
		t.Fatalf("ReadWorkbook failed: %v", err)
	}
	if res.Recognition.SheetName != "任务清单" || res.Recognition.HeaderRow != 1 {
		t.Fatalf("unexpected recognition: %+v", res.Recognition)
	}
	if res.Table.Source != "tasks.xlsx#任务清单" {
		t.Fatalf("Source=%q", res.Table.Source)
	}
	if len(res.Table.Headers) != 6 || res.Table.Headers[0] != "项目" {
		t.Fatalf("Headers=%v", res.Table.Headers)
	}
	if len(res.Table.Rows) != 1 {
		t.Fatalf("Rows=%d, want 1", len(res.Table.Rows))
	}
	if c := res.Table.Rows[0].At(4); c.Kind != model.CellNumber || c.Number != 45444 {
		t.Fatalf("due cell=%+v, want serial number", c)
	}

	norm, err := parser.NewNormalizer(parser.Options{}).Normalize(res.Table)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	task := norm.Tasks[0]
	if task.RowNo != 3 {
		t.Fatalf("RowNo=%d, want 3", task.RowNo)
	}
	if task.DueDateString() != "2024-06-01" {
		t.Fatalf("DueDate=%q", task.DueDateString())
	}
	if task.Progress == nil || *task.Progress != 50 {
		t.Fatalf("Progress=%v", task.Progress)
	}
}

func TestReadCSV_Encodings(t *testing.T) {
	t.Parallel()

	content := "项目,任务,负责人,状态\nAlpha,设计,小王,完成\n"
	gbk, err := simplifiedchinese.GB18030.NewEncoder().Bytes([]byte(content))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	cases := map[string]struct {
		data     []byte
		encoding string
	}{
		"utf8":    {[]byte(content), "utf-8"},
		"utf8bom": {append([]byte("\xef\xbb\xbf"), content...), "utf-8"},
		"gb18030": {gbk, "gb18030"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			res, err := excel.NewReader(nil).Read("tasks.csv", bytes.NewReader(tc.data))
			if err != nil {
				t.Fatalf("Read failed: %v", err)
			}
			if res.Encoding != tc.encoding {
				t.Fatalf("Encoding=%q, want %q", res.Encoding, tc.encoding)
			}
			if res.Table.Headers[0] != "项目" {
				t.Fatalf("Headers=%q", res.Table.Headers)
			}
			if got := res.Table.Rows[0].At(2).String(); got != "小王" {
				t.Fatalf("owner=%q", got)
			}
		})
	}
}

func TestReadCSV_TabDelimited(t *testing.T) {
	t.Parallel()

	data := "project\ttask\towner\tstatus\nA\t\tBo\tdoing\n"
	res, err := excel.NewReader(nil).Read("tasks.tsv", bytes.NewReader([]byte(data)))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	row := res.Table.Rows[0]
	if len(row) != 4 || !row.At(1).IsEmpty() || row.At(2).String() != "Bo" {
		t.Fatalf("row=%+v", row)
	}
}

func TestRead_Rejects(t *testing.T) {
	t.Parallel()

	r := excel.NewReader(nil)
	var inputErr *model.InputError

	if _, err := r.Read("tasks.pdf", bytes.NewReader(nil)); !errors.As(err, &inputErr) {
		t.Fatalf("pdf: want InputError, got %v", err)
	}
	if _, err := r.Read("tasks.xls", bytes.NewReader([]byte("not a zip"))); !errors.As(err, &inputErr) {
		t.Fatalf("xls: want InputError, got %v", err)
	}
	big := bytes.Repeat([]byte("a"), excel.MaxFileSize+1)
	if _, err := r.Read("tasks.csv", bytes.NewReader(big)); !errors.As(err, &inputErr) {
		t.Fatalf("big: want InputError, got %v", err)
	}
}

func TestRead_EmptyCSVFailsNormalization(t *testing.T) {
	t.Parallel()

	res, err := excel.NewReader(nil).Read("empty.csv", bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	_, err = parser.NewNormalizer(parser.Options{}).Normalize(res.Table)
	var inputErr *model.InputError
	if !errors.As(err, &inputErr) {
		t.Fatalf("want InputError, got %v", err)
	}
}
