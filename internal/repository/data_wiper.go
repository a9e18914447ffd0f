package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// DataWiper clears the whole store: messages, vectors, chunks and documents
// are deleted in one transaction so a failure in any step rolls back all of
// them.
type DataWiper struct {
	db       *gorm.DB
	messages *MessageRepository
	vectors  *VectorRepository
	chunks   *ChunkRepository
	docs     *DocumentRepository
}

func NewDataWiper(
	db *gorm.DB,
	messages *MessageRepository,
	vectors *VectorRepository,
	chunks *ChunkRepository,
	docs *DocumentRepository,
) *DataWiper {
	return &DataWiper{
		db:       db,
		messages: messages,
		vectors:  vectors,
		chunks:   chunks,
		docs:     docs,
	}
}

func (w *DataWiper) ClearAllData(ctx context.Context) error {
	err := w.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := w.messages.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := w.vectors.DeleteAllTx(tx); err != nil {
			return err
		}
		if err := w.chunks.DeleteAllTx(tx); err != nil {
			return err
		}
		return w.docs.DeleteAllTx(tx)
	})
	if err != nil {
		return fmt.Errorf("clear all data failed: %w", err)
	}
	return nil
}
