package model

import "fmt"

// InputError 输入表格结构不可用（无表头或无可识别列），整次生成被拒绝
type InputError struct {
	Source string
	Reason string
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("invalid input table: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input table %q: %s", e.Source, e.Reason)
}
