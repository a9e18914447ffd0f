package model

import (
	"encoding/json"
	"time"
)

// Vector stores a chunk's embedding as a JSON array of float32 for
// portability. One vector per chunk, enforced by the unique index.
type Vector struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ChunkID   uint      `gorm:"not null;uniqueIndex;constraint:OnDelete:CASCADE" json:"chunk_id"`
	Embedding string    `gorm:"type:text;not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (v *Vector) EmbeddingVector() []float32 {
	if v.Embedding == "" {
		return nil
	}
	var vec []float32
	_ = json.Unmarshal([]byte(v.Embedding), &vec)
	return vec
}

// SetEmbedding stores the embedding as JSON.
func (v *Vector) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		v.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	v.Embedding = string(b)
}
