package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

// perMessageOverheadBytes approximates row overhead (ids, timestamps) when
// estimating conversation size for admission control.
const perMessageOverheadBytes = 64

type MessageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// SaveMessage appends one message to the conversation log.
func (r *MessageRepository) SaveMessage(ctx context.Context, message *model.Message) error {
	if err := r.db.WithContext(ctx).Create(message).Error; err != nil {
		return fmt.Errorf("create message failed: %w", err)
	}
	return nil
}

// ListAll returns every conversation turn ordered by id, excluding
// file-context entries, which exist only as prompt material.
func (r *MessageRepository) ListAll(ctx context.Context) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.WithContext(ctx).
		Where("role <> ?", model.RoleFileContext).
		Order("id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, fmt.Errorf("list messages failed: %w", err)
	}
	return messages, nil
}

// EstimateSizeMB returns a cheap running estimate of the conversation's
// size: role and content byte lengths plus a small per-row overhead.
func (r *MessageRepository) EstimateSizeMB(ctx context.Context) (float64, error) {
	var result struct {
		Bytes int64
		Count int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Select("COALESCE(SUM(LENGTH(role) + LENGTH(content)), 0) AS bytes, COUNT(*) AS count").
		Scan(&result).Error
	if err != nil {
		return 0, fmt.Errorf("estimate conversation size failed: %w", err)
	}
	total := result.Bytes + result.Count*perMessageOverheadBytes
	return float64(total) / (1024 * 1024), nil
}

// DeleteAllTx removes every message inside the given transaction.
func (r *MessageRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.Message{}).Error; err != nil {
		return fmt.Errorf("delete all messages failed: %w", err)
	}
	return nil
}
