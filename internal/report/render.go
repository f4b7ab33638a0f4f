package report

import (
	"strconv"
	"strings"

	"weeklyreport/internal/model"
)

// EmptySlot 叙述性占位符没有内容时的文本
const EmptySlot = "（无）"

// GeneratedAtLayout 生成时间格式
const GeneratedAtLayout = "2006-01-02 15:04"

// Narrative 由模型提供的叙述性内容；任一字段为空时渲染为 EmptySlot
type Narrative struct {
	KeyTakeaway     string `json:"keyTakeaway"`
	RiskNotes       string `json:"riskNotes"` // 附加在计算出的风险列表之后，不会替换它
	NextWeekActions string `json:"nextWeekActions"`
	LeadershipAsks  string `json:"leadershipAsks"`
}

// IsEmpty 四个槽位是否都为空
func (n Narrative) IsEmpty() bool {
	return strings.TrimSpace(n.KeyTakeaway) == "" &&
		strings.TrimSpace(n.RiskNotes) == "" &&
		strings.TrimSpace(n.NextWeekActions) == "" &&
		strings.TrimSpace(n.LeadershipAsks) == ""
}

// Render 用汇总结果和叙述内容填充模板，返回新字符串
//
// 替换是单遍字面替换：叙述文本中出现的 {{...}} 不会再被展开；模板中未识别的占位符原样保留。
func Render(tmpl Template, s model.Summary, n Narrative) string {
	values := Values(s, n)
	pairs := make([]string, 0, len(Placeholders)*2)
	for _, name := range Placeholders {
		pairs = append(pairs, Token(name), values[name])
	}
	return strings.NewReplacer(pairs...).Replace(tmpl.Text())
}

// Values 每个已识别占位符的替换文本
func Values(s model.Summary, n Narrative) map[string]string {
	return map[string]string{
		PHWeekRange:       s.WeekRange,
		PHGeneratedAt:     s.GeneratedAt.Format(GeneratedAtLayout),
		PHTotalTasks:      strconv.Itoa(s.Total),
		PHDone:            strconv.Itoa(s.Done),
		PHDoing:           strconv.Itoa(s.Doing),
		PHBlocked:         strconv.Itoa(s.Blocked),
		PHTodo:            strconv.Itoa(s.Todo),
		PHOverdue:         strconv.Itoa(s.Overdue),
		PHKeyTakeaway:     slot(n.KeyTakeaway),
		PHProjectRows:     GroupRowsMarkdown(s.ProjectRows),
		PHTopRiskBullets:  riskSection(s.RiskBullets, n.RiskNotes),
		PHOwnerRows:       GroupRowsMarkdown(s.OwnerRows),
		PHNextWeekActions: slot(n.NextWeekActions),
		PHLeadershipAsks:  slot(n.LeadershipAsks),
	}
}

func slot(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return EmptySlot
	}
	return text
}

// riskSection 计算出的风险列表始终在前，模型补充内容只追加
func riskSection(bullets []string, notes string) string {
	var b strings.Builder
	if len(bullets) == 0 {
		b.WriteString(EmptySlot)
	} else {
		b.WriteString(BulletList(bullets))
	}
	if notes = strings.TrimSpace(notes); notes != "" {
		b.WriteString("\n\n补充说明：\n\n")
		b.WriteString(notes)
	}
	return b.String()
}
