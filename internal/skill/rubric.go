package skill

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Criterion 质检条目
type Criterion struct {
	ID          string `yaml:"id" json:"id"`
	Description string `yaml:"description" json:"description"`
	Weight      int    `yaml:"weight" json:"weight"`
}

// Rubric 技能输出的质检标准
type Rubric struct {
	Name      string      `yaml:"name" json:"name"`
	PassScore int         `yaml:"pass_score" json:"passScore"`
	Criteria  []Criterion `yaml:"criteria" json:"criteria"`
}

// TotalWeight 权重之和
func (r Rubric) TotalWeight() int {
	total := 0
	for _, c := range r.Criteria {
		total += c.Weight
	}
	return total
}

// ParseRubric 解析 rubric.yaml
func ParseRubric(data []byte) (Rubric, error) {
	var r Rubric
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rubric{}, fmt.Errorf("parse rubric: %w", err)
	}
	seen := make(map[string]bool, len(r.Criteria))
	for i, c := range r.Criteria {
		if c.ID == "" {
			return Rubric{}, fmt.Errorf("rubric criterion %d: missing id", i+1)
		}
		if seen[c.ID] {
			return Rubric{}, fmt.Errorf("rubric criterion %q: duplicated", c.ID)
		}
		if c.Weight < 0 {
			return Rubric{}, fmt.Errorf("rubric criterion %q: negative weight", c.ID)
		}
		seen[c.ID] = true
	}
	return r, nil
}
