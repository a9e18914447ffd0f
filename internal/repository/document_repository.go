package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docuchat/internal/model"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(ctx context.Context, doc *model.Document) error {
	if err := r.db.WithContext(ctx).Create(doc).Error; err != nil {
		return fmt.Errorf("create document failed: %w", err)
	}
	return nil
}

// ListAll returns all documents, most recently uploaded first.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]model.Document, error) {
	var docs []model.Document
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("list documents failed: %w", err)
	}
	return docs, nil
}

// Latest returns the most recently uploaded document, or nil when the corpus
// is empty.
func (r *DocumentRepository) Latest(ctx context.Context) (*model.Document, error) {
	var doc model.Document
	err := r.db.WithContext(ctx).Order("id DESC").First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest document failed: %w", err)
	}
	return &doc, nil
}

// DeleteAllTx removes every document inside the given transaction.
func (r *DocumentRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.Document{}).Error; err != nil {
		return fmt.Errorf("delete all documents failed: %w", err)
	}
	return nil
}
