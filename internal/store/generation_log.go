package store

import (
	"context"
	"database/sql"
	"fmt"

	"weeklyreport/internal/model"
)

// CreateGenerationLog 记录一次周报生成；importLogID 为 0 表示没有关联导入（例如 CLI）
func (s *Store) CreateGenerationLog(ctx context.Context, l model.GenerationLog) (int64, error) {
	var importID sql.NullInt64
	if l.ImportLogID > 0 {
		importID = sql.NullInt64{Int64: l.ImportLogID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generation_logs (generation_id, import_log_id, skill, model, narrative_status, total_tasks, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, l.GenerationID, importID, l.Skill, l.Model, l.NarrativeStatus, l.TotalTasks, l.DurationMs)
	if err != nil {
		return 0, fmt.Errorf("failed to create generation log: %w", err)
	}
	return res.LastInsertId()
}

// ListGenerationLogs 最近的生成记录（按时间倒序）
func (s *Store) ListGenerationLogs(ctx context.Context, limit int) ([]model.GenerationLog, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, generation_id, import_log_id, skill, model, narrative_status, total_tasks, duration_ms, created_at
		FROM generation_logs
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generation logs: %w", err)
	}
	defer rows.Close()

	logs := make([]model.GenerationLog, 0)
	for rows.Next() {
		var (
			l        model.GenerationLog
			importID sql.NullInt64
		)
		if err := rows.Scan(&l.ID, &l.GenerationID, &importID, &l.Skill, &l.Model, &l.NarrativeStatus,
			&l.TotalTasks, &l.DurationMs, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan generation log: %w", err)
		}
		l.ImportLogID = importID.Int64
		logs = append(logs, l)
	}
	return logs, rows.Err()
}
