package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/renato0307/grove/internal/domain"
)

// AppendOutput implements OutputLog.AppendOutput. The sequence number is
// max(seq)+1 for the session, assigned in the same transaction as the insert.
func (r *SQLiteRepository) AppendOutput(ctx context.Context, sessionID string, outputType domain.OutputType, data json.RawMessage) (domain.OutputMessage, error) {
	var model SessionOutputModel

	err := r.transaction(ctx, func(tx *gorm.DB) error {
		now := time.Now().UTC()
		touched := tx.Model(&SessionModel{}).Where("id = ?", sessionID).UpdateColumn("last_activity", now)
		if touched.Error != nil {
			return touched.Error
		}
		if touched.RowsAffected == 0 {
			return domain.NotFoundError("session", sessionID)
		}

		var maxSeq int64
		if err := tx.Model(&SessionOutputModel{}).
			Where("session_id = ?", sessionID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&maxSeq).Error; err != nil {
			return err
		}

		model = SessionOutputModel{
			CreatedAt: now,
			Data:      string(data),
			Seq:       maxSeq + 1,
			SessionID: sessionID,
			Type:      string(outputType),
		}
		return tx.Create(&model).Error
	})
	if err != nil {
		return domain.OutputMessage{}, fmt.Errorf("failed to append output: %w", err)
	}

	return outputModelToDomain(model), nil
}

// ListOutput implements OutputLog.ListOutput
func (r *SQLiteRepository) ListOutput(ctx context.Context, sessionID string, afterSeq int64, limit int) ([]domain.OutputMessage, error) {
	var models []SessionOutputModel

	err := withRetry(ctx, maxBusyRetries, func() error {
		query := r.db.WithContext(ctx).
			Where("session_id = ? AND seq > ?", sessionID, afterSeq).
			Order("seq ASC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query.Find(&models).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list output: %w", err)
	}

	messages := make([]domain.OutputMessage, len(models))
	for i, m := range models {
		messages[i] = outputModelToDomain(m)
	}
	return messages, nil
}
