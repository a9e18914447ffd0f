package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type ChunkRepository struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) *ChunkRepository {
	return &ChunkRepository{db: db}
}

func (r *ChunkRepository) CreateBatch(ctx context.Context, chunks []model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(&chunks).Error; err != nil {
		return fmt.Errorf("create chunks batch failed: %w", err)
	}
	return nil
}

// ContentsByIDs returns chunk texts in the same order as ids. Missing ids
// are skipped.
func (r *ChunkRepository) ContentsByIDs(ctx context.Context, ids []uint) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var chunks []model.Chunk
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&chunks).Error; err != nil {
		return nil, fmt.Errorf("load chunks by ids failed: %w", err)
	}
	byID := make(map[uint]string, len(chunks))
	for _, c := range chunks {
		byID[c.ID] = c.Content
	}
	contents := make([]string, 0, len(ids))
	for _, id := range ids {
		if content, ok := byID[id]; ok {
			contents = append(contents, content)
		}
	}
	return contents, nil
}

// FullDocumentText reassembles the extracted text of a document by
// concatenating its chunks in ordinal order.
func (r *ChunkRepository) FullDocumentText(ctx context.Context, documentID uint) (string, error) {
	var chunks []model.Chunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentID).
		Order("ordinal ASC").
		Find(&chunks).Error
	if err != nil {
		return "", fmt.Errorf("load document chunks failed: %w", err)
	}
	var b strings.Builder
	for _, c := range chunks {
		b.WriteString(c.Content)
	}
	return b.String(), nil
}

// DeleteAllTx removes every chunk inside the given transaction.
func (r *ChunkRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.Chunk{}).Error; err != nil {
		return fmt.Errorf("delete all chunks failed: %w", err)
	}
	return nil
}
