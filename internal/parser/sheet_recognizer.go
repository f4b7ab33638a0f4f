package parser

import (
	"strings"
)

// 表头行只在前几行中查找（表格上方常有标题行）
const maxHeaderScanRows = 5

// 识别为任务清单所需的最低置信度
const minTaskSheetConfidence = 0.2

// SheetRecognitionResult Sheet 识别结果
type SheetRecognitionResult struct {
	SheetName  string  `json:"sheetName"`
	HeaderRow  int     `json:"headerRow"`  // 表头所在行索引（从 0 开始）
	Matched    int     `json:"matched"`    // 命中的规范字段数
	Confidence float64 `json:"confidence"` // 置信度 0-1
}

// IsTaskSheet 是否像一张任务清单
func (r SheetRecognitionResult) IsTaskSheet() bool {
	return r.Matched > 0 && r.Confidence >= minTaskSheetConfidence
}

// SheetRecognizer Sheet 识别器：判断哪张表、哪一行是任务清单的表头
type SheetRecognizer struct {
	mapper *FieldMapper
}

// NewSheetRecognizer 创建识别器
func NewSheetRecognizer(synonyms SynonymTable) *SheetRecognizer {
	return &SheetRecognizer{mapper: NewFieldMapper(synonyms)}
}

// Recognize 在前几行中找出命中规范字段最多的一行作为表头
func (r *SheetRecognizer) Recognize(sheetName string, rows [][]string) SheetRecognitionResult {
	best := SheetRecognitionResult{SheetName: sheetName}

	limit := len(rows)
	if limit > maxHeaderScanRows {
		limit = maxHeaderScanRows
	}
	for i := 0; i < limit; i++ {
		mappings, _ := r.mapper.Map(rows[i])
		score := 0.0
		for _, m := range mappings {
			if m.Exact {
				score += 1
			} else {
				score += 0.5
			}
		}
		confidence := score / float64(len(CanonicalFields))
		if confidence > best.Confidence {
			best.HeaderRow = i
			best.Matched = len(mappings)
			best.Confidence = confidence
		}
	}

	// Sheet 名称辅助判定
	name := strings.ToLower(sheetName)
	if best.Matched > 0 && ContainsAny(name, []string{"任务", "task", "清单", "周报", "todo"}) {
		best.Confidence += 0.1
	}
	if best.Confidence > 1 {
		best.Confidence = 1
	}
	return best
}

// PickSheet 从多张表中选出置信度最高的任务清单；都不像时返回第一张非空表
func (r *SheetRecognizer) PickSheet(names []string, load func(name string) ([][]string, error)) (SheetRecognitionResult, [][]string, error) {
	var (
		best      SheetRecognitionResult
		bestRows  [][]string
		firstRows [][]string
		firstName string
		found     bool
	)
	for _, name := range names {
		rows, err := load(name)
		if err != nil {
			return SheetRecognitionResult{}, nil, err
		}
		if len(rows) == 0 {
			continue
		}
		if firstRows == nil {
			firstRows, firstName = rows, name
		}
		res := r.Recognize(name, rows)
		if res.IsTaskSheet() && (!found || res.Confidence > best.Confidence) {
			best, bestRows, found = res, rows, true
		}
	}
	if found {
		return best, bestRows, nil
	}
	return SheetRecognitionResult{SheetName: firstName}, firstRows, nil
}
