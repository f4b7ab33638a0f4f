package generator

import "time"

// 导出文件扩展名
const (
	ExtMarkdown = ".md"
	ExtExcel    = ".xlsx"
)

const fileNameLayout = "20060102_1504"

// FileName 下载文件名，形如 weekly_report_20240605_0907.md
func FileName(t time.Time, ext string) string {
	return "weekly_report_" + t.Format(fileNameLayout) + ext
}
