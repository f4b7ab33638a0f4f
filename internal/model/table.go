package model

import (
	"math"
	"strconv"
	"strings"
)

// CellKind 单元格值类型
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
)

// Cell 原始单元格（文本/数值/空 三选一）；数值单元格的 Text 保留原始写法
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
}

// TextCell 文本单元格；空白文本视为空
func TextCell(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Cell{Kind: CellEmpty}
	}
	return Cell{Kind: CellText, Text: s}
}

// NumberCell 数值单元格
func NumberCell(v float64) Cell {
	return Cell{Kind: CellNumber, Number: v}
}

// EmptyCell 空单元格
func EmptyCell() Cell {
	return Cell{Kind: CellEmpty}
}

// ParseCell 从表格读取到的字符串推断单元格类型；NaN、Inf 之类的写法仍按文本处理
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if s == "" {
		return EmptyCell()
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
		return Cell{Kind: CellNumber, Number: v, Text: s}
	}
	return Cell{Kind: CellText, Text: raw}
}

// IsEmpty 是否为空
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String 文本形式：优先原始写法，没有原始写法的数值去掉多余的 0
func (c Cell) String() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		if s := strings.TrimSpace(c.Text); s != "" {
			return s
		}
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// RawRow 一行原始数据，与 Table.Headers 按位置对齐
type RawRow []Cell

// At 按列索引取值，越界返回空单元格
func (r RawRow) At(idx int) Cell {
	if idx < 0 || idx >= len(r) {
		return EmptyCell()
	}
	return r[idx]
}

// Table 通用行列表格（外部加载器的产物）
type Table struct {
	Source    string   `json:"source"`    // 文件名或 sheet 名
	HeaderRow int      `json:"headerRow"` // 表头在源文件中的行索引（从 0 开始），用于还原行号
	Headers   []string `json:"headers"`
	Rows      []RawRow `json:"-"`
}

// NewTableFromStrings 由字符串矩阵构造表格，第一行为表头
func NewTableFromStrings(source string, records [][]string) Table {
	t := Table{Source: source}
	if len(records) == 0 {
		return t
	}
	t.Headers = append([]string(nil), records[0]...)
	for _, rec := range records[1:] {
		row := make(RawRow, len(rec))
		for i, v := range rec {
			row[i] = ParseCell(v)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}
