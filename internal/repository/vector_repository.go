package repository

import (
	"context"
	"fmt"
	"math"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"docuchat/internal/model"
)

// VectorRepository persists chunk embeddings and ranks them against a query
// vector. Ranking is an exhaustive O(n) cosine-similarity scan over all
// stored vectors; QuerySimilar is the boundary behind which an index could
// be substituted if the corpus ever outgrows this.
type VectorRepository struct {
	db *gorm.DB
}

func NewVectorRepository(db *gorm.DB) *VectorRepository {
	return &VectorRepository{db: db}
}

// Store upserts the embedding for a chunk. Re-storing the same chunk
// replaces the previous vector rather than accumulating duplicates.
func (r *VectorRepository) Store(ctx context.Context, chunkID uint, embedding []float32) error {
	vec := model.Vector{ChunkID: chunkID}
	vec.SetEmbedding(embedding)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "chunk_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"embedding"}),
		}).
		Create(&vec).Error
	if err != nil {
		return fmt.Errorf("store vector failed: %w", err)
	}
	return nil
}

// QuerySimilar returns the chunk ids of the k stored vectors most similar to
// query, ranked by descending cosine similarity. Fewer than k ids are
// returned when the store is smaller; an empty store yields an empty result.
func (r *VectorRepository) QuerySimilar(ctx context.Context, query []float32, k int) ([]uint, error) {
	if k <= 0 || len(query) == 0 {
		return nil, nil
	}

	var vectors []model.Vector
	if err := r.db.WithContext(ctx).Find(&vectors).Error; err != nil {
		return nil, fmt.Errorf("load vectors failed: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	type scoredChunk struct {
		chunkID uint
		score   float64
	}
	scored := make([]scoredChunk, 0, len(vectors))
	for i := range vectors {
		scored = append(scored, scoredChunk{
			chunkID: vectors[i].ChunkID,
			score:   cosineSimilarity(query, vectors[i].EmbeddingVector()),
		})
	}
	// Stable sort keeps ranking deterministic on exact score ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if k > len(scored) {
		k = len(scored)
	}
	ids := make([]uint, k)
	for i := 0; i < k; i++ {
		ids[i] = scored[i].chunkID
	}
	return ids, nil
}

// DeleteAllTx removes every vector inside the given transaction.
func (r *VectorRepository) DeleteAllTx(tx *gorm.DB) error {
	if err := tx.Where("1 = 1").Delete(&model.Vector{}).Error; err != nil {
		return fmt.Errorf("delete all vectors failed: %w", err)
	}
	return nil
}

// cosineSimilarity = dot(a,b) / (|a|*|b|); zero for mismatched or empty
// vectors.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
