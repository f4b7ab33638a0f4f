package model

import "time"

// 导入状态
const (
	ImportProcessing = "processing"
	ImportSuccess    = "success"
	ImportFailed     = "failed"
)

// 叙述内容生成状态：ok 模型返回了内容；failed 调用失败或超时，叙述槽位为空；
// skipped 未启用模型；raw 直通模式，模型回复即报告
const (
	NarrativeOK       = "ok"
	NarrativeFailed   = "failed"
	NarrativeSkipped  = "skipped"
	NarrativeRawReply = "raw"
)

// ImportLog 一次文件导入的元数据（不含任务内容）
type ImportLog struct {
	ID           int64      `json:"id"`
	Filename     string     `json:"filename"`
	FileSize     int64      `json:"fileSize"`
	FileHash     string     `json:"fileHash"`
	Sheet        string     `json:"sheet"`
	TotalRows    int        `json:"totalRows"`
	ImportedRows int        `json:"importedRows"`
	DroppedRows  int        `json:"droppedRows"`
	Status       string     `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	CompletedAt  *time.Time `json:"completedAt,omitempty"`
}

// ImportResult 导入完成时回写的统计
type ImportResult struct {
	Sheet        string
	TotalRows    int
	ImportedRows int
	DroppedRows  int
	Status       string
	ErrorMessage string
}

// GenerationLog 一次周报生成的元数据（不保存报告正文）
type GenerationLog struct {
	ID              int64     `json:"id"`
	GenerationID    string    `json:"generationId"`
	ImportLogID     int64     `json:"importLogId"`
	Skill           string    `json:"skill"`
	Model           string    `json:"model"`
	NarrativeStatus string    `json:"narrativeStatus"`
	TotalTasks      int       `json:"totalTasks"`
	DurationMs      int64     `json:"durationMs"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StoreStats 状态页统计
type StoreStats struct {
	Imports        int        `json:"imports"`
	Generations    int        `json:"generations"`
	LastImportAt   *time.Time `json:"lastImportAt,omitempty"`
	LastGenerateAt *time.Time `json:"lastGenerateAt,omitempty"`
}
