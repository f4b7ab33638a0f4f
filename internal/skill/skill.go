// Package skill selects the SOP, template and system prompt used for one
// report generation.
package skill

import (
	"errors"
	"strings"

	"weeklyreport/internal/report"
)

// ErrUnknownSkill 未注册的技能名
var ErrUnknownSkill = errors.New("unknown skill")

const (
	// NameNone 不使用技能：把数据直接交给模型自由生成
	NameNone = "none"
	// NameWeeklyReport 内置周报技能
	NameWeeklyReport = "weekly_report"
)

// Metadata skill.md 头部的 YAML 元数据
type Metadata struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// Skill 一个技能包：SOP 指令 + 输出模板 + 质检 Rubric
type Skill struct {
	Name         string          `json:"name"`
	Title        string          `json:"title"`
	Description  string          `json:"description"`
	Source       string          `json:"source"` // builtin 或技能包目录
	Instructions string          `json:"-"`
	Template     report.Template `json:"-"`
	Rubric       Rubric          `json:"rubric"`
	RubricText   string          `json:"-"`
}

// Passthrough 是否为直通模式
func (s *Skill) Passthrough() bool {
	return s.Name == NameNone
}

// NormalizeName 统一技能名：去空格、转小写，空值视为 none
func NormalizeName(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return NameNone
	}
	return name
}

func passthroughSkill() *Skill {
	return &Skill{
		Name:        NameNone,
		Title:       "不使用技能",
		Description: "直接把数据和需求交给模型，输出不受模板约束",
		Source:      "builtin",
		Template:    report.DefaultTemplate(),
	}
}
