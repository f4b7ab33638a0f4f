package parser

import "testing"

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Due_Date":      "duedate",
		" due date ":    "duedate",
		"ＯＷＮＥＲ":         "owner",
		"负责人\n":         "负责人",
		"Blocked-By":    "blockedby",
		"In   Progress": "inprogress",
	}
	for in, want := range cases {
		if got := NormalizeKey(in); got != want {
			t.Fatalf("NormalizeKey(%q)=%q want=%q", in, got, want)
		}
	}
}

func TestNormalizeColumnName_StripsWhitespace(t *testing.T) {
	t.Parallel()

	if got := NormalizeColumnName(" 截止\t日期 \r\n"); got != "截止日期" {
		t.Fatalf("unexpected: %q", got)
	}
}
