package parser

import (
	"testing"
	"time"

	"weeklyreport/internal/model"
)

func TestStatusMatcher_Synonyms(t *testing.T) {
	t.Parallel()

	m := NewStatusMatcher(nil)
	cases := map[string]model.Status{
		"进行中":         model.StatusDoing,
		"In Progress": model.StatusDoing,
		"WIP":         model.StatusDoing,
		"complete":    model.StatusDone,
		"完成":          model.StatusDone,
		"Done ":       model.StatusDone,
		"Blocked":     model.StatusBlocked,
		"阻塞":          model.StatusBlocked,
		"未开始":         model.StatusTodo,
		"未完成":         model.StatusTodo,
		"随便":          model.StatusTodo,
		"":            model.StatusTodo,
	}
	for in, want := range cases {
		if got := m.Match(model.TextCell(in)); got != want {
			t.Fatalf("Match(%q)=%s want=%s", in, got, want)
		}
	}
}

func TestStatusMatcher_Heuristics(t *testing.T) {
	t.Parallel()

	m := NewStatusMatcher(nil)
	if got := m.Match(model.TextCell("blocked on review")); got != model.StatusBlocked {
		t.Fatalf("got %s", got)
	}
	if got := m.Match(model.TextCell("已完成验收")); got != model.StatusDone {
		t.Fatalf("got %s", got)
	}
	if got := m.Match(model.TextCell("not started yet")); got != model.StatusTodo {
		t.Fatalf("got %s", got)
	}
	if got := m.Match(model.NumberCell(3)); got != model.StatusTodo {
		t.Fatalf("got %s", got)
	}
}

func TestStatusSynonyms_Extend(t *testing.T) {
	t.Parallel()

	m := NewStatusMatcher(DefaultStatusSynonyms().Extend(map[string][]string{"Done": {"验收通过"}}))
	if got := m.Match(model.TextCell("验收通过")); got != model.StatusDone {
		t.Fatalf("got %s", got)
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	cases := map[string]model.Priority{
		"高":      model.PriorityHigh,
		"P0":     model.PriorityHigh,
		"high":   model.PriorityHigh,
		"中":      model.PriorityMedium,
		"Low":    model.PriorityLow,
		"P3":     model.PriorityLow,
		"whatever": model.PriorityMedium,
		"":       model.PriorityMedium,
	}
	for in, want := range cases {
		if got := ParsePriority(model.TextCell(in)); got != want {
			t.Fatalf("ParsePriority(%q)=%s want=%s", in, got, want)
		}
	}
}

func TestDateParser_Formats(t *testing.T) {
	t.Parallel()

	p := NewDateParser(time.UTC, 2024)
	want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	inputs := []model.Cell{
		model.TextCell("2024-06-01"),
		model.TextCell("2024/6/1"),
		model.TextCell("2024.06.01"),
		model.TextCell("2024年6月1日"),
		model.TextCell("6月1日"),
		model.TextCell("6/1/2024"),
		model.TextCell("20240601"),
		model.TextCell("２０２４－０６－０１"),
		model.TextCell("2024-06-01 00:00:00"),
		model.NumberCell(45444),
		model.NumberCell(20240601),
	}
	for _, in := range inputs {
		got := p.Parse(in)
		if got == nil {
			t.Fatalf("Parse(%q) returned nil", in.String())
		}
		if !got.Equal(want) {
			t.Fatalf("Parse(%q)=%v want=%v", in.String(), got, want)
		}
	}
}

func TestDateParser_Unparsable(t *testing.T) {
	t.Parallel()

	p := NewDateParser(time.UTC, 2024)
	for _, in := range []model.Cell{
		model.TextCell("next week"),
		model.TextCell("2024-13-01"),
		model.TextCell("2024年2月30日"),
		model.EmptyCell(),
	} {
		if got := p.Parse(in); got != nil {
			t.Fatalf("Parse(%q) expected nil, got %v", in.String(), got)
		}
	}
}

func TestParseProgress(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   model.Cell
		want float64
	}{
		{model.TextCell("45%"), 45},
		{model.TextCell("45,5%"), 45.5},
		{model.TextCell("１００％"), 100},
		{model.TextCell("0.5"), 50},
		{model.NumberCell(0.8), 80},
		{model.NumberCell(60), 60},
		{model.TextCell("150"), 100},
		{model.TextCell("-3"), 0},
		{model.TextCell("0.5%"), 0.5},
	}
	for _, tc := range cases {
		got := ParseProgress(tc.in)
		if got == nil {
			t.Fatalf("ParseProgress(%q) returned nil", tc.in.String())
		}
		if *got != tc.want {
			t.Fatalf("ParseProgress(%q)=%v want=%v", tc.in.String(), *got, tc.want)
		}
	}

	if got := ParseProgress(model.TextCell("half")); got != nil {
		t.Fatalf("expected nil for text, got %v", *got)
	}
	if got := ParseProgress(model.EmptyCell()); got != nil {
		t.Fatalf("expected nil for empty, got %v", *got)
	}
}
