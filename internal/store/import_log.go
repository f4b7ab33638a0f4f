package store

import (
	"context"
	"database/sql"
	"fmt"

	"weeklyreport/internal/model"
)

// CreateImportLog 创建导入日志，返回 import_log_id
func (s *Store) CreateImportLog(ctx context.Context, filename string, fileSize int64, fileHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO import_logs (filename, file_size, file_hash, status)
		VALUES (?, ?, ?, ?)
	`, filename, fileSize, fileHash, model.ImportProcessing)
	if err != nil {
		return 0, fmt.Errorf("failed to create import log: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get import log id: %w", err)
	}
	return id, nil
}

// UpdateImportLog 完成导入日志更新
func (s *Store) UpdateImportLog(ctx context.Context, id int64, r model.ImportResult) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE import_logs SET
			sheet = ?,
			total_rows = ?,
			imported_rows = ?,
			dropped_rows = ?,
			status = ?,
			error_message = ?,
			completed_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, r.Sheet, r.TotalRows, r.ImportedRows, r.DroppedRows, r.Status, r.ErrorMessage, id)
	if err != nil {
		return fmt.Errorf("failed to update import log: %w", err)
	}
	return nil
}

// ListImportLogs 最近的导入日志（按时间倒序）
func (s *Store) ListImportLogs(ctx context.Context, limit int) ([]model.ImportLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, file_size, file_hash, sheet, total_rows, imported_rows,
			dropped_rows, status, error_message, created_at, completed_at
		FROM import_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list import logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.ImportLog, 0)
	for rows.Next() {
		var (
			l         model.ImportLog
			completed sql.NullTime
		)
		if err := rows.Scan(&l.ID, &l.Filename, &l.FileSize, &l.FileHash, &l.Sheet, &l.TotalRows,
			&l.ImportedRows, &l.DroppedRows, &l.Status, &l.ErrorMessage, &l.CreatedAt, &completed); err != nil {
			return nil, fmt.Errorf("failed to scan import log: %w", err)
		}
		if completed.Valid {
			t := completed.Time
			l.CompletedAt = &t
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
