package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"

	"weeklyreport/internal/model"
	"weeklyreport/internal/parser"
)

// 单个上传文件的大小上限
const MaxFileSize = 20 << 20

// Format 输入文件格式
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// LoadResult 读取结果：选中的表格及识别信息
type LoadResult struct {
	Table       model.Table                   `json:"table"`
	Format      Format                        `json:"format"`
	Sheets      []string                      `json:"sheets,omitempty"`
	Recognition parser.SheetRecognitionResult `json:"recognition"`
	Encoding    string                        `json:"encoding,omitempty"`
}

// Reader 任务清单读取器：xlsx 取置信度最高的 sheet，csv/tsv 自动识别编码和分隔符
type Reader struct {
	recognizer *parser.SheetRecognizer
}

// NewReader 创建读取器
func NewReader(synonyms parser.SynonymTable) *Reader {
	return &Reader{recognizer: parser.NewSheetRecognizer(synonyms)}
}

// DetectFormat 按扩展名判断格式
func DetectFormat(filename string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xltx", ".xls":
		return FormatXLSX, true
	case ".csv", ".tsv", ".txt":
		return FormatCSV, true
	}
	return "", false
}

// Read 读取上传的文件
func (r *Reader) Read(filename string, src io.Reader) (*LoadResult, error) {
	format, ok := DetectFormat(filename)
	if !ok {
		return nil, &model.InputError{Source: filename, Reason: "unsupported file type, expected xlsx or csv"}
	}

	data, err := io.ReadAll(io.LimitReader(src, MaxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filename, err)
	}
	if len(data) > MaxFileSize {
		return nil, &model.InputError{Source: filename, Reason: "file too large"}
	}

	if format == FormatCSV {
		return r.ReadCSV(filename, data)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		reason := "failed to open excel"
		if strings.EqualFold(filepath.Ext(filename), ".xls") {
			reason = "legacy .xls workbooks are not supported, save as .xlsx"
		}
		return nil, &model.InputError{Source: filename, Reason: fmt.Sprintf("%s: %v", reason, err)}
	}
	defer f.Close()
	return r.ReadWorkbook(f, filename)
}

// ReadWorkbook 从已打开的工作簿读取任务表
func (r *Reader) ReadWorkbook(f *excelize.File, source string) (*LoadResult, error) {
	sheets := f.GetSheetList()
	load := func(name string) ([][]string, error) {
		// 原始值：日期保留为序列号、百分比保留为小数，由规范化器统一解析
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", name, err)
		}
		return rows, nil
	}

	rec, rows, err := r.recognizer.PickSheet(sheets, load)
	if err != nil {
		return nil, err
	}
	return &LoadResult{
		Table:       buildTable(source+"#"+rec.SheetName, rows, rec.HeaderRow),
		Format:      FormatXLSX,
		Sheets:      sheets,
		Recognition: rec,
	}, nil
}

// ReadCSV 读取 csv/tsv：UTF-8（可带 BOM）或 GB18030
func (r *Reader) ReadCSV(source string, data []byte) (*LoadResult, error) {
	text, encoding, err := decodeText(data)
	if err != nil {
		return nil, &model.InputError{Source: source, Reason: fmt.Sprintf("decode text: %v", err)}
	}

	cr := csv.NewReader(strings.NewReader(text))
	cr.Comma = sniffDelimiter(text)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = cr.Comma != '\t'

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &model.InputError{Source: source, Reason: fmt.Sprintf("parse csv: %v", err)}
	}

	rec := r.recognizer.Recognize(filepath.Base(source), records)
	return &LoadResult{
		Table:       buildTable(source, records, rec.HeaderRow),
		Format:      FormatCSV,
		Recognition: rec,
		Encoding:    encoding,
	}, nil
}

func buildTable(source string, rows [][]string, headerRow int) model.Table {
	if headerRow >= len(rows) {
		headerRow = 0
	}
	if len(rows) == 0 {
		return model.Table{Source: source}
	}
	t := model.NewTableFromStrings(source, rows[headerRow:])
	t.HeaderRow = headerRow
	return t
}

func decodeText(data []byte) (string, string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	out, _, err := transform.Bytes(simplifiedchinese.GB18030.NewDecoder(), data)
	if err != nil {
		return "", "", err
	}
	return string(out), "gb18030", nil
}

// sniffDelimiter 取首个非空行中出现最多的分隔符
func sniffDelimiter(text string) rune {
	line := text
	for _, l := range strings.Split(text, "\n") {
		if strings.TrimSpace(l) != "" {
			line = l
			break
		}
	}
	best, bestCount := ',', strings.Count(line, ",")
	for _, d := range []rune{'\t', ';', '|'} {
		if n := strings.Count(line, string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
