package importer

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"weeklyreport/internal/model"
	"weeklyreport/internal/parser"
	"weeklyreport/internal/service/excel"
	"weeklyreport/internal/store"
)

// Coordinator 导入协调器：读取文件 → 识别表头 → 规范化，并记录导入日志
type Coordinator struct {
	store  *store.Store
	reader *excel.Reader
	opts   parser.Options
	logger *zap.Logger
}

// NewCoordinator 创建导入协调器；st 为 nil 时不记录导入日志
func NewCoordinator(st *store.Store, opts parser.Options, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{
		store:  st,
		reader: excel.NewReader(opts.Columns),
		opts:   opts,
		logger: logger,
	}
}

// ImportRequest 一次导入的输入
type ImportRequest struct {
	Filename string
	Data     []byte
	RefYear  int // 缺少年份的日期按此补齐，0 表示当前年份
}

// ImportResult 导入结果
type ImportResult struct {
	ImportLogID int64                  `json:"importLogId"`
	Filename    string                 `json:"filename"`
	FileHash    string                 `json:"fileHash"`
	Load        *excel.LoadResult      `json:"load"`
	Normalized  parser.NormalizeResult `json:"normalized"`
}

// Import 执行导入；InputError 原样返回（调用方据此拒绝整次生成）
func (c *Coordinator) Import(ctx context.Context, req ImportRequest, trace *model.Trace) (*ImportResult, error) {
	filename := filepath.Base(req.Filename)
	sum := sha256.Sum256(req.Data)
	result := &ImportResult{Filename: filename, FileHash: hex.EncodeToString(sum[:])}

	trace.Add(model.EventStart, fmt.Sprintf("Loaded file: %s", filename), map[string]any{
		"filename": filename,
		"size":     len(req.Data),
	})

	if c.store != nil {
		id, err := c.store.CreateImportLog(ctx, filename, int64(len(req.Data)), result.FileHash)
		if err != nil {
			// 导入日志只是元数据，写入失败不影响生成
			c.logger.Warn("create import log failed", zap.Error(err))
		} else {
			result.ImportLogID = id
		}
	}

	load, err := c.reader.Read(filename, bytes.NewReader(req.Data))
	if err != nil {
		c.finish(ctx, result, model.ImportResult{Status: model.ImportFailed, ErrorMessage: err.Error()})
		trace.Add(model.EventError, fmt.Sprintf("读取文件失败: %v", err), nil)
		return nil, err
	}
	result.Load = load
	trace.Add(model.EventInfo, fmt.Sprintf("Parsed rows: %d", len(load.Table.Rows)), map[string]any{
		"sheet":      load.Recognition.SheetName,
		"headerRow":  load.Table.HeaderRow + 1,
		"confidence": load.Recognition.Confidence,
		"encoding":   load.Encoding,
	})

	opts := c.opts
	if req.RefYear != 0 {
		opts.RefYear = req.RefYear
	}
	norm, err := parser.NewNormalizer(opts).Normalize(load.Table)
	if err != nil {
		c.finish(ctx, result, model.ImportResult{
			Sheet:        load.Recognition.SheetName,
			TotalRows:    len(load.Table.Rows),
			Status:       model.ImportFailed,
			ErrorMessage: err.Error(),
		})
		trace.Add(model.EventError, fmt.Sprintf("规范化失败: %v", err), nil)
		return nil, err
	}
	result.Normalized = norm

	trace.Add(model.EventInfo, "Normalized columns", map[string]any{
		"mapped":   len(norm.Mappings),
		"unmapped": norm.Unmapped,
		"tasks":    len(norm.Tasks),
		"blank":    norm.BlankRows,
		"dropped":  norm.DroppedRows,
	})
	for _, issue := range norm.Issues {
		trace.Add(model.EventWarn, fmt.Sprintf("第 %d 行: %s", issue.RowNo, issue.Message), nil)
	}

	c.finish(ctx, result, model.ImportResult{
		Sheet:        load.Recognition.SheetName,
		TotalRows:    norm.TotalRows,
		ImportedRows: len(norm.Tasks),
		DroppedRows:  norm.DroppedRows,
		Status:       model.ImportSuccess,
	})
	c.logger.Info("import done",
		zap.String("file", filename),
		zap.Int("tasks", len(norm.Tasks)),
		zap.Int("dropped", norm.DroppedRows),
	)
	return result, nil
}

func (c *Coordinator) finish(ctx context.Context, result *ImportResult, r model.ImportResult) {
	if c.store == nil || result.ImportLogID == 0 {
		return
	}
	if err := c.store.UpdateImportLog(ctx, result.ImportLogID, r); err != nil {
		c.logger.Warn("update import log failed", zap.Error(err))
	}
}

// IsInputError 是否为输入结构错误
func IsInputError(err error) bool {
	var inputErr *model.InputError
	return errors.As(err, &inputErr)
}
