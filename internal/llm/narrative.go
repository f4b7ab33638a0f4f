package llm

import (
	"regexp"
	"strings"

	"weeklyreport/internal/report"
	"weeklyreport/internal/skill"
)

var (
	thinkBlockRe = regexp.MustCompile(`(?s)<think>.*?</think>`)
	headingRe    = regexp.MustCompile(`^\s{0,3}#{1,6}\s+(.+?)\s*#*\s*$`)
	numberingRe  = regexp.MustCompile(`^[0-9一二三四五六七八九十]+[.、)）]\s*`)
)

// 段落标题别名，按匹配顺序排列（“领导决策”先于“风险”，避免被包含关系误判）
var sectionAliases = []struct {
	section string
	aliases []string
}{
	{skill.SectionLeadershipAsks, []string{"leadership", "领导决策", "资源支持", "决策"}},
	{skill.SectionNextWeekActions, []string{"next_week", "next week", "下周", "行动项", "action"}},
	{skill.SectionRiskNotes, []string{"risk", "风险", "阻塞"}},
	{skill.SectionKeyTakeaway, []string{"key_takeaway", "takeaway", "关键结论", "结论", "总结", "概览"}},
}

// CleanResponse 去掉推理模型的 <think> 块和包裹整段输出的代码围栏
func CleanResponse(text string) string {
	text = thinkBlockRe.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") && strings.HasSuffix(text, "```") && len(text) >= 6 {
		inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 && !strings.Contains(inner[:nl], " ") {
			inner = inner[nl+1:] // 语言标记
		}
		text = strings.TrimSpace(inner)
	}
	return text
}

// ParseNarrative 把模型回复按“### 段落名”拆成四个叙述槽位
//
// 标题可以是段落名本身，也可以是中文章节名；找不到任何可识别的标题时，
// 全文作为关键结论。可识别标题之前的文字并入关键结论。
func ParseNarrative(text string) report.Narrative {
	text = CleanResponse(text)
	if text == "" {
		return report.Narrative{}
	}

	sections := make(map[string][]string)
	var preamble []string
	current := ""
	found := false

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if m := headingRe.FindStringSubmatch(line); m != nil {
			if name := matchSection(m[1]); name != "" {
				current = name
				found = true
				continue
			}
		}
		if current == "" {
			preamble = append(preamble, line)
		} else {
			sections[current] = append(sections[current], line)
		}
	}

	if !found {
		return report.Narrative{KeyTakeaway: text}
	}

	key := joinLines(sections[skill.SectionKeyTakeaway])
	if pre := joinLines(preamble); pre != "" {
		if key == "" {
			key = pre
		} else {
			key = pre + "\n\n" + key
		}
	}
	return report.Narrative{
		KeyTakeaway:     key,
		RiskNotes:       joinLines(sections[skill.SectionRiskNotes]),
		NextWeekActions: joinLines(sections[skill.SectionNextWeekActions]),
		LeadershipAsks:  joinLines(sections[skill.SectionLeadershipAsks]),
	}
}

func matchSection(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	t = strings.Trim(t, "*_`:： ")
	t = numberingRe.ReplaceAllString(t, "")
	for _, name := range skill.NarrativeSections {
		if t == name {
			return name
		}
	}
	for _, s := range sectionAliases {
		for _, alias := range s.aliases {
			if strings.Contains(t, alias) {
				return s.section
			}
		}
	}
	return ""
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
