package model

import "time"

// Chunk is one fixed-size slice of a document's extracted text. Ordinals are
// 0-based and contiguous: concatenating a document's chunks in ordinal order
// reproduces the extracted text exactly.
type Chunk struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	DocumentID uint      `gorm:"not null;index;constraint:OnDelete:CASCADE" json:"document_id"`
	Ordinal    int       `gorm:"not null" json:"ordinal"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}
