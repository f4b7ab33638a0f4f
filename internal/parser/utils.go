package parser

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	keyStripper  = strings.NewReplacer("_", "", "-", "", ".", "", "/", "", "\\", "")
)

// NormalizeColumnName 规范化列名，去除空白和换行
func NormalizeColumnName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "\n", "")
	name = strings.ReplaceAll(name, "\r", "")
	name = strings.ReplaceAll(name, "\t", "")
	return whitespaceRe.ReplaceAllString(name, "")
}

// NormalizeKey 列名/枚举值的比较键：全角转半角、大小写折叠、去掉空白和 _ - . / 分隔符
func NormalizeKey(s string) string {
	s = width.Fold.String(s)
	s = cases.Fold().String(s)
	s = NormalizeColumnName(s)
	return keyStripper.Replace(s)
}

// FoldText 单元格文本的宽度折叠（全角数字、符号转半角）并去除首尾空白
func FoldText(s string) string {
	return strings.TrimSpace(width.Fold.String(s))
}

// ContainsAny 检查字符串是否包含任意一个关键词
func ContainsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
