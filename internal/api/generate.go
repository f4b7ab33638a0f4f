package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"weeklyreport/internal/importer"
	"weeklyreport/internal/model"
	"weeklyreport/internal/parser"
	"weeklyreport/internal/service/excel"
	"weeklyreport/internal/service/generator"
	"weeklyreport/internal/skill"
	"weeklyreport/internal/store"
)

const (
	previewRows = 50
	exportsDir  = "exports"

	contentTypeMarkdown = "text/markdown; charset=utf-8"
	contentTypeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ImportSummary 导入摘要
type ImportSummary struct {
	ImportLogID  int64                 `json:"importLogId,omitempty"`
	Filename     string                `json:"filename"`
	Format       excel.Format          `json:"format"`
	Sheet        string                `json:"sheet,omitempty"`
	Sheets       []string              `json:"sheets,omitempty"`
	HeaderRow    int                   `json:"headerRow"` // 从 1 开始
	Confidence   float64               `json:"confidence"`
	Encoding     string                `json:"encoding,omitempty"`
	Headers      []string              `json:"headers"`
	Mappings     []parser.FieldMapping `json:"mappings"`
	Unmapped     []string              `json:"unmapped"`
	TotalRows    int                   `json:"totalRows"`
	ImportedRows int                   `json:"importedRows"`
	BlankRows    int                   `json:"blankRows"`
	DroppedRows  int                   `json:"droppedRows"`
	Issues       []parser.RowIssue     `json:"issues,omitempty"`
}

// PreviewResponse 预览响应
type PreviewResponse struct {
	ImportSummary
	Tasks []model.Task `json:"tasks"` // 前 50 条规范化记录
}

// GenerateResponse 生成响应
type GenerateResponse struct {
	*generator.Result
	Import    ImportSummary     `json:"import"`
	Downloads map[string]string `json:"downloads"` // md / xlsx -> 下载地址
}

// httpError 带状态码的错误
type httpError struct {
	status int
	err    error
	data   any
}

func (e *httpError) Error() string { return e.err.Error() }

func (e *httpError) Unwrap() error { return e.err }

func badRequest(err error) *httpError {
	return &httpError{status: http.StatusBadRequest, err: err}
}

// Preview 预览上传文件的识别结果，不生成报告
// POST /api/preview
func (h *Handler) Preview(c *gin.Context) {
	name, data, herr := readUpload(c)
	if herr != nil {
		errorResponse(c, herr.status, herr.Error())
		return
	}

	res, err := h.previewer.Import(c.Request.Context(), importer.ImportRequest{Filename: name, Data: data}, nil)
	if err != nil {
		herr := importError(err)
		errorResponse(c, herr.status, herr.Error())
		return
	}

	tasks := res.Normalized.Tasks
	if len(tasks) > previewRows {
		tasks = tasks[:previewRows]
	}
	success(c, PreviewResponse{ImportSummary: newImportSummary(res), Tasks: tasks})
}

// Generate 上传任务清单并生成周报
// POST /api/generate
func (h *Handler) Generate(c *gin.Context) {
	trace := model.NewTrace(nil)
	resp, herr := h.generate(c, trace)
	if herr != nil {
		data := herr.data
		if data == nil {
			data = gin.H{"trace": trace.Events()}
		}
		errorWithData(c, herr.status, herr.Error(), data)
		return
	}
	success(c, resp)
}

// GenerateStream 生成周报（SSE 推送执行轨迹，最后一条事件携带结果）
// POST /api/generate/stream
func (h *Handler) GenerateStream(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errorResponse(c, http.StatusInternalServerError, "不支持流式响应")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	send := func(event any) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	trace := model.NewTrace(func(ev model.ProgressEvent) { send(ev) })
	resp, herr := h.generate(c, trace)
	if herr != nil {
		send(gin.H{"type": model.EventError, "message": herr.Error(), "status": herr.status})
		return
	}
	send(gin.H{"type": "result", "message": "生成完成", "data": resp})
}

func (h *Handler) generate(c *gin.Context, trace *model.Trace) (*GenerateResponse, *httpError) {
	ctx := c.Request.Context()
	cfg := h.config()

	name, data, herr := readUpload(c)
	if herr != nil {
		return nil, herr
	}

	skillName, ok := c.GetPostForm("skill")
	if !ok {
		skillName = h.defaultSkill(ctx)
	}
	request := strings.TrimSpace(c.PostForm("request"))
	if request == "" {
		request = cfg.Report.DefaultRequest
	}
	ref, err := generator.ParseRefDate(c.PostForm("date"), h.app.ParserOptions.Location)
	if err != nil {
		return nil, badRequest(err)
	}
	useModel := true
	if v := c.PostForm("useModel"); v != "" {
		if useModel, err = strconv.ParseBool(v); err != nil {
			return nil, badRequest(fmt.Errorf("invalid useModel %q", v))
		}
	}

	imported, err := h.app.Importer.Import(ctx, importer.ImportRequest{Filename: name, Data: data}, trace)
	if err != nil {
		return nil, importError(err)
	}
	result, err := h.app.Generator.Generate(ctx, generator.Request{
		Tasks:       imported.Normalized.Tasks,
		Skill:       skillName,
		Request:     request,
		RefTime:     ref,
		UseModel:    useModel,
		ImportLogID: imported.ImportLogID,
		Trace:       trace,
	})
	switch {
	case errors.Is(err, skill.ErrUnknownSkill):
		return nil, badRequest(err)
	case errors.Is(err, generator.ErrPassthroughFailed):
		return nil, &httpError{status: http.StatusBadGateway, err: err, data: result}
	case err != nil:
		h.logger.Error("generate failed", zap.Error(err))
		return nil, &httpError{status: http.StatusInternalServerError, err: err}
	}

	h.rememberInput(c, result.Skill, c.PostForm("request"))

	return &GenerateResponse{
		Result:    result,
		Import:    newImportSummary(imported),
		Downloads: h.exportFiles(result, imported.Normalized.Tasks),
	}, nil
}

// exportFiles 写出 Markdown 和 xlsx 并登记下载令牌；写出失败只记录日志
func (h *Handler) exportFiles(result *generator.Result, tasks []model.Task) map[string]string {
	downloads := make(map[string]string, 2)
	dir := filepath.Join(h.dataDir, exportsDir)
	ts := result.Summary.GeneratedAt
	prefix := result.GenerationID[:8] + "_"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		h.logger.Warn("create exports dir failed", zap.Error(err))
		return downloads
	}

	mdName := generator.FileName(ts, generator.ExtMarkdown)
	mdPath := filepath.Join(dir, prefix+mdName)
	if err := os.WriteFile(mdPath, []byte(result.Report), 0o644); err != nil {
		h.logger.Warn("write markdown export failed", zap.Error(err))
	} else {
		downloads["md"] = "/api/download/" + h.downloads.put(mdPath, mdName, contentTypeMarkdown, downloadTTL)
	}

	xlsxName := generator.FileName(ts, generator.ExtExcel)
	xlsxPath := filepath.Join(dir, prefix+xlsxName)
	f, err := h.app.Exporter.Export(result.Summary, tasks, result.Report)
	if err != nil {
		h.logger.Warn("build xlsx export failed", zap.Error(err))
		return downloads
	}
	defer f.Close()
	if err := f.SaveAs(xlsxPath); err != nil {
		h.logger.Warn("write xlsx export failed", zap.Error(err))
		_ = os.Remove(xlsxPath)
		return downloads
	}
	downloads["xlsx"] = "/api/download/" + h.downloads.put(xlsxPath, xlsxName, contentTypeXLSX, downloadTTL)
	return downloads
}

func (h *Handler) rememberInput(c *gin.Context, skillName, request string) {
	ctx := c.Request.Context()
	for key, value := range map[string]string{
		store.SettingLastSkill:   skillName,
		store.SettingLastRequest: request,
	} {
		if err := h.app.Store.SetSetting(ctx, key, value); err != nil {
			h.logger.Warn("save setting failed", zap.String("key", key), zap.Error(err))
		}
	}
}

// Download 下载导出文件（令牌有效期内可重复下载）
// GET /api/download/:token
func (h *Handler) Download(c *gin.Context) {
	token := c.Param("token")
	item, ok := h.downloads.get(token)
	if !ok {
		errorResponse(c, http.StatusNotFound, "下载链接已失效")
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		errorResponse(c, http.StatusNotFound, "导出文件不存在")
		return
	}

	c.Header("Content-Type", item.contentType)
	c.FileAttachment(item.filePath, item.fileName)
}

func readUpload(c *gin.Context) (string, []byte, *httpError) {
	fh, err := c.FormFile("file")
	if err != nil {
		return "", nil, badRequest(errors.New("未找到上传文件"))
	}
	if fh.Size > excel.MaxFileSize {
		return "", nil, &httpError{
			status: http.StatusRequestEntityTooLarge,
			err:    fmt.Errorf("文件超过 %d MB 上限", excel.MaxFileSize>>20),
		}
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, &httpError{status: http.StatusInternalServerError, err: fmt.Errorf("读取上传文件失败: %w", err)}
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, excel.MaxFileSize+1))
	if err != nil {
		return "", nil, &httpError{status: http.StatusInternalServerError, err: fmt.Errorf("读取上传文件失败: %w", err)}
	}
	return filepath.Base(fh.Filename), data, nil
}

func importError(err error) *httpError {
	if importer.IsInputError(err) {
		return badRequest(err)
	}
	return &httpError{status: http.StatusInternalServerError, err: err}
}

func newImportSummary(res *importer.ImportResult) ImportSummary {
	s := ImportSummary{
		ImportLogID:  res.ImportLogID,
		Filename:     res.Filename,
		Mappings:     res.Normalized.Mappings,
		Unmapped:     res.Normalized.Unmapped,
		TotalRows:    res.Normalized.TotalRows,
		ImportedRows: len(res.Normalized.Tasks),
		BlankRows:    res.Normalized.BlankRows,
		DroppedRows:  res.Normalized.DroppedRows,
		Issues:       res.Normalized.Issues,
	}
	if load := res.Load; load != nil {
		s.Format = load.Format
		s.Sheet = load.Recognition.SheetName
		s.Sheets = load.Sheets
		s.HeaderRow = load.Table.HeaderRow + 1
		s.Confidence = load.Recognition.Confidence
		s.Encoding = load.Encoding
		s.Headers = load.Table.Headers
	}
	return s
}
