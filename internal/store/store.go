package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"weeklyreport/internal/model"
)

//go:embed schema.sql
var schemaFS embed.FS

// DBFileName 数据目录下的数据库文件名
const DBFileName = "weeklyreport.db"

// Store SQLite 数据库存储层
type Store struct {
	db *sql.DB
}

// New 创建新的 Store 实例
func New(dbPath string) (*Store, error) {
	// 确保 data 目录存在（内存库除外）
	if dbPath != ":memory:" {
		dir := filepath.Dir(dbPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	// 打开数据库连接
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// 测试连接
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// 设置连接池参数
	db.SetMaxOpenConns(1) // SQLite 建议单连接
	db.SetMaxIdleConns(1)

	store := &Store{db: db}

	// 初始化数据库结构
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// initSchema 初始化数据库结构
func (s *Store) initSchema() error {
	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema.sql: %w", err)
	}

	// 执行建表语句
	if _, err := s.db.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Stats 导入与生成次数、最近时间
func (s *Store) Stats(ctx context.Context) (model.StoreStats, error) {
	var (
		stats      model.StoreStats
		lastImport sql.NullString
		lastGen    sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM import_logs),
			(SELECT COUNT(*) FROM generation_logs),
			(SELECT MAX(created_at) FROM import_logs),
			(SELECT MAX(created_at) FROM generation_logs)
	`).Scan(&stats.Imports, &stats.Generations, &lastImport, &lastGen)
	if err != nil {
		return stats, fmt.Errorf("failed to query stats: %w", err)
	}
	stats.LastImportAt = parseTimestamp(lastImport)
	stats.LastGenerateAt = parseTimestamp(lastGen)
	return stats, nil
}

// 聚合函数的结果没有列类型，驱动按字符串返回
func parseTimestamp(v sql.NullString) *time.Time {
	if !v.Valid || v.String == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.String); err == nil {
			return &t
		}
	}
	return nil
}
