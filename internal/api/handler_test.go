package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"weeklyreport/internal/app"
	"weeklyreport/internal/config"
	"weeklyreport/internal/model"
	"weeklyreport/internal/service/generator"
	"weeklyreport/internal/store"
)

const tasksCSV = "项目,任务,负责人,状态,截止日期,阻塞\n" +
	"Alpha,Design,Amy,进行中,2099-01-01,\n" +
	"Alpha,Build,Bo,Blocked,,waiting on vendor\n"

type fakeModel struct {
	reply  string
	models []string
}

func (f *fakeModel) Chat(context.Context, string, string) (string, error) { return f.reply, nil }

func (f *fakeModel) Name() string { return "fake:model" }

func (f *fakeModel) Models(context.Context) ([]string, error) { return f.models, nil }

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Data.DataDir = dir
	cfg.LLM.Provider = config.ProviderNone
	cfg.Report.Timezone = "UTC"

	a, err := app.New(context.Background(), cfg, filepath.Join(dir, config.ConfigFileName), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func withModel(a *app.App, m *fakeModel) {
	a.Client = m
	a.Generator = generator.New(a.Skills, m, a.Store, nil, generator.Options{Location: time.UTC})
}

func newRouter(h *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group("/api"))
	return r
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func do(t *testing.T, r http.Handler, method, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	if body == nil {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	if out != nil && len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func TestGenerate_CSV(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	h := NewHandler(a)
	r := newRouter(h)

	body, ct := multipartBody(t, "tasks.csv", tasksCSV, map[string]string{
		"skill":    "weekly_report",
		"date":     "2024-06-01",
		"useModel": "false",
	})
	rec := do(t, r, http.MethodPost, "/api/generate", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Report          string            `json:"report"`
		Skill           string            `json:"skill"`
		NarrativeStatus string            `json:"narrativeStatus"`
		Summary         model.Summary     `json:"summary"`
		Import          ImportSummary     `json:"import"`
		Downloads       map[string]string `json:"downloads"`
		Trace           []model.ProgressEvent
	}
	env := decode(t, rec, &resp)
	assert.Equal(t, 0, env.Code)
	assert.Equal(t, "weekly_report", resp.Skill)
	assert.Equal(t, model.NarrativeSkipped, resp.NarrativeStatus)
	assert.Equal(t, 2, resp.Summary.Total)
	assert.Equal(t, 1, resp.Summary.Blocked)
	assert.Equal(t, 0, resp.Summary.Overdue)
	assert.Equal(t, "2024-05-27 ~ 2024-06-02", resp.Summary.WeekRange)
	assert.Contains(t, resp.Report, "waiting on vendor")
	assert.Equal(t, 2, resp.Import.ImportedRows)
	assert.Equal(t, 1, resp.Import.HeaderRow)
	assert.NotZero(t, resp.Import.ImportLogID)
	require.Contains(t, resp.Downloads, "md")
	require.Contains(t, resp.Downloads, "xlsx")
	assert.Equal(t, "Loaded file: tasks.csv", resp.Trace[0].Message)

	dl := do(t, r, http.MethodGet, resp.Downloads["md"], nil, "")
	require.Equal(t, http.StatusOK, dl.Code)
	assert.Equal(t, resp.Report, dl.Body.String())
	assert.Contains(t, dl.Header().Get("Content-Disposition"), "weekly_report_20240601_0000.md")

	xl := do(t, r, http.MethodGet, resp.Downloads["xlsx"], nil, "")
	require.Equal(t, http.StatusOK, xl.Code)
	assert.Equal(t, contentTypeXLSX, xl.Header().Get("Content-Type"))

	_, err := os.Stat(filepath.Join(a.DataDir, "uploads"))
	assert.True(t, os.IsNotExist(err), "uploads must not be kept")
	exports, err := os.ReadDir(filepath.Join(a.DataDir, exportsDir))
	require.NoError(t, err)
	assert.Len(t, exports, 2)

	lastSkill, ok, err := a.Store.GetSetting(context.Background(), store.SettingLastSkill)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "weekly_report", lastSkill)
}

func TestGenerate_WithModel(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	withModel(a, &fakeModel{reply: "### key_takeaway\n整体可控\n\n### leadership_asks\n协调供应商"})
	r := newRouter(NewHandler(a))

	body, ct := multipartBody(t, "tasks.csv", tasksCSV, map[string]string{"date": "2024-06-01"})
	rec := do(t, r, http.MethodPost, "/api/generate", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Report          string `json:"report"`
		Model           string `json:"model"`
		NarrativeStatus string `json:"narrativeStatus"`
	}
	decode(t, rec, &resp)
	assert.Equal(t, model.NarrativeOK, resp.NarrativeStatus)
	assert.Equal(t, "fake:model", resp.Model)
	assert.Contains(t, resp.Report, "整体可控")
	assert.Contains(t, resp.Report, "协调供应商")
}

func TestGenerate_Rejects(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	r := newRouter(NewHandler(a))

	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
		status   int
	}{
		{name: "missing file", status: http.StatusBadRequest},
		{name: "unsupported type", filename: "tasks.pdf", content: "x", status: http.StatusBadRequest},
		{name: "no known columns", filename: "tasks.csv", content: "foo,bar\n1,2\n", status: http.StatusBadRequest},
		{name: "bad date", filename: "tasks.csv", content: tasksCSV, fields: map[string]string{"date": "06/01"}, status: http.StatusBadRequest},
		{name: "bad useModel", filename: "tasks.csv", content: tasksCSV, fields: map[string]string{"useModel": "maybe"}, status: http.StatusBadRequest},
		{name: "unknown skill", filename: "tasks.csv", content: tasksCSV, fields: map[string]string{"skill": "nope"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, tt.fields)
			rec := do(t, r, http.MethodPost, "/api/generate", body, ct)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			env := decode(t, rec, nil)
			assert.Equal(t, tt.status, env.Code)
			assert.NotEmpty(t, env.Message)
		})
	}

	logs, err := a.Store.ListImportLogs(context.Background(), 10)
	require.NoError(t, err)
	var failed int
	for _, l := range logs {
		if l.Status == model.ImportFailed {
			failed++
		}
	}
	assert.Equal(t, 2, failed)
}

func TestGenerateStream(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	r := newRouter(NewHandler(a))

	body, ct := multipartBody(t, "tasks.csv", tasksCSV, map[string]string{"useModel": "false"})
	rec := do(t, r, http.MethodPost, "/api/generate/stream", body, ct)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))

	var events []map[string]any
	for _, chunk := range strings.Split(strings.TrimSpace(rec.Body.String()), "\n\n") {
		require.True(t, strings.HasPrefix(chunk, "data: "), chunk)
		var ev map[string]any
		require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(chunk, "data: ")), &ev))
		events = append(events, ev)
	}
	require.NotEmpty(t, events)
	assert.Equal(t, model.EventStart, events[0]["type"])
	last := events[len(events)-1]
	assert.Equal(t, "result", last["type"])
	data := last["data"].(map[string]any)
	assert.Contains(t, data["report"], "Build")
}

func TestPreview(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	r := newRouter(NewHandler(a))

	body, ct := multipartBody(t, "tasks.csv", tasksCSV, nil)
	rec := do(t, r, http.MethodPost, "/api/preview", body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp PreviewResponse
	decode(t, rec, &resp)
	assert.Len(t, resp.Tasks, 2)
	assert.Equal(t, "Build", resp.Tasks[1].Task)
	assert.Len(t, resp.Mappings, 6)
	assert.Empty(t, resp.Unmapped)

	logs, err := a.Store.ListImportLogs(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestConfig_GetAndPatch(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	h := NewHandler(a)
	r := newRouter(h)

	rec := do(t, r, http.MethodGet, "/api/config", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got ConfigResponse
	decode(t, rec, &got)
	assert.Equal(t, config.ProviderNone, got.Provider)
	assert.Equal(t, "weekly_report", got.DefaultSkill)
	assert.Equal(t, "weekly_report", got.LastSkill)
	assert.False(t, got.GeminiKeySet)

	rec = do(t, r, http.MethodPatch, "/api/config", bytes.NewBufferString(`{"defaultSkill":"none","defaultRequest":"简短一些"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var patched struct {
		RestartRequired bool `json:"restartRequired"`
	}
	decode(t, rec, &patched)
	assert.False(t, patched.RestartRequired)
	assert.Equal(t, "none", h.config().Report.DefaultSkill)

	saved, err := config.LoadConfig(a.ConfigPath)
	require.NoError(t, err)
	assert.Equal(t, "简短一些", saved.Report.DefaultRequest)

	rec = do(t, r, http.MethodPatch, "/api/config", bytes.NewBufferString(`{"ollamaModel":"qwen3:8b"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &patched)
	assert.True(t, patched.RestartRequired)

	for _, bad := range []string{`{"provider":"openai"}`, `{"defaultSkill":"nope"}`, `{"timezone":"Mars/Base"}`, `not json`} {
		rec = do(t, r, http.MethodPatch, "/api/config", bytes.NewBufferString(bad), "application/json")
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
	}
	assert.Equal(t, "none", h.config().Report.DefaultSkill)
}

func TestStatusAndSkills(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	withModel(a, &fakeModel{models: []string{"qwen3:14b"}})
	r := newRouter(NewHandler(a))

	rec := do(t, r, http.MethodGet, "/api/status", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var status StatusResponse
	decode(t, rec, &status)
	assert.True(t, status.ModelReachable)
	assert.Equal(t, []string{"qwen3:14b"}, status.Models)
	assert.Equal(t, "fake:model", status.Model)
	assert.Equal(t, 0, status.Stats.Imports)

	rec = do(t, r, http.MethodGet, "/api/skills", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var skills []SkillInfo
	decode(t, rec, &skills)
	require.GreaterOrEqual(t, len(skills), 2)
	assert.Equal(t, "none", skills[0].Name)
	var defaults int
	for _, s := range skills {
		if s.Default {
			defaults++
			assert.Equal(t, "weekly_report", s.Name)
		}
	}
	assert.Equal(t, 1, defaults)
}

func TestListImportsAndGenerations(t *testing.T) {
	t.Parallel()
	a := newTestApp(t)
	r := newRouter(NewHandler(a))

	body, ct := multipartBody(t, "tasks.csv", tasksCSV, map[string]string{"useModel": "false"})
	require.Equal(t, http.StatusOK, do(t, r, http.MethodPost, "/api/generate", body, ct).Code)

	rec := do(t, r, http.MethodGet, "/api/imports", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var imports []model.ImportLog
	decode(t, rec, &imports)
	require.Len(t, imports, 1)
	assert.Equal(t, model.ImportSuccess, imports[0].Status)

	rec = do(t, r, http.MethodGet, "/api/generations?limit=5", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var gens []model.GenerationLog
	decode(t, rec, &gens)
	require.Len(t, gens, 1)
	assert.Equal(t, imports[0].ID, gens[0].ImportLogID)

	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/imports?limit=0", nil, "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, r, http.MethodGet, "/api/imports?limit=abc", nil, "").Code)
}

func TestDownload_UnknownToken(t *testing.T) {
	t.Parallel()
	r := newRouter(NewHandler(newTestApp(t)))

	rec := do(t, r, http.MethodGet, "/api/download/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadStore_Expiry(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "a.md")
	require.NoError(t, os.WriteFile(path, []byte("# report"), 0o644))

	now := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	s := newDownloadStore(nil)
	s.now = func() time.Time { return now }

	token := s.put(path, "a.md", contentTypeMarkdown, time.Minute)
	item, ok := s.get(token)
	require.True(t, ok)
	assert.Equal(t, "a.md", item.fileName)
	_, ok = s.get(token)
	require.True(t, ok, "token is reusable before it expires")
	assert.FileExists(t, path)

	now = now.Add(2 * time.Minute)
	_, ok = s.get(token)
	assert.False(t, ok)
	assert.Empty(t, s.items)
	assert.NoFileExists(t, path)
}

func TestDownloadStore_Clear(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s := newDownloadStore(nil)
	var paths []string
	for _, name := range []string{"a.md", "a.xlsx"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		s.put(path, name, contentTypeMarkdown, time.Hour)
		paths = append(paths, path)
	}

	s.clear()
	assert.Empty(t, s.items)
	for _, path := range paths {
		assert.NoFileExists(t, path)
	}
}

func TestNewHandler_RemovesStaleExports(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	stale := filepath.Join(a.DataDir, exportsDir, "old_weekly_report_20240101_0900.md")
	require.NoError(t, os.WriteFile(stale, []byte("old"), 0o644))

	h := NewHandler(a)
	assert.NoFileExists(t, stale)

	h.Close()
}
