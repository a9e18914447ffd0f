package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat/internal/model"
	"docuchat/internal/pkg/extract"
	"docuchat/internal/pkg/taskpool"
	"docuchat/internal/repository"
)

// IngestService turns an uploaded file into retrievable data: extracted
// text is chunked, the document and its chunks are persisted first, then
// chunk embeddings are computed and stored with bounded concurrency.
type IngestService struct {
	docRepo          *repository.DocumentRepository
	chunkRepo        *repository.ChunkRepository
	vectors          VectorStore
	embedder         Embedder
	chunkSize        int
	embedConcurrency int
}

func NewIngestService(
	docRepo *repository.DocumentRepository,
	chunkRepo *repository.ChunkRepository,
	vectors VectorStore,
	embedder Embedder,
	chunkSize int,
	embedConcurrency int,
) *IngestService {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if embedConcurrency <= 0 {
		embedConcurrency = 1
	}
	return &IngestService{
		docRepo:          docRepo,
		chunkRepo:        chunkRepo,
		vectors:          vectors,
		embedder:         embedder,
		chunkSize:        chunkSize,
		embedConcurrency: embedConcurrency,
	}
}

// Ingest processes one uploaded file and returns a file-context message the
// caller persists into the conversation log. Document and chunk rows are
// durable before embedding starts, so ordinal/content recovery never depends
// on embedding success. A chunk whose embedding fails is logged and skipped;
// the document stays usable with reduced retrieval recall.
func (s *IngestService) Ingest(ctx context.Context, data []byte, fileName string) (*model.Message, error) {
	text, err := extract.Text(data, fileName)
	if err != nil {
		return nil, err
	}

	doc := &model.Document{Name: fileName}
	if err := s.docRepo.Create(ctx, doc); err != nil {
		return nil, err
	}

	pieces := ChunkText(text, s.chunkSize)
	if len(pieces) == 0 {
		log.Printf("ingest %q: no extractable text, stored empty document", fileName)
		return fileContextMessage(fileName, text), nil
	}

	chunks := make([]model.Chunk, len(pieces))
	for i, content := range pieces {
		chunks[i] = model.Chunk{
			DocumentID: doc.ID,
			Ordinal:    i,
			Content:    content,
		}
	}
	if err := s.chunkRepo.CreateBatch(ctx, chunks); err != nil {
		return nil, err
	}

	errs := taskpool.Run(ctx, s.embedConcurrency, len(chunks), func(ctx context.Context, i int) error {
		vec, embedErr := s.embedder.Embed(ctx, chunks[i].Content)
		if embedErr != nil {
			return fmt.Errorf("embed: %w", embedErr)
		}
		return s.vectors.Store(ctx, chunks[i].ID, vec)
	})

	stored := 0
	for i, embedErr := range errs {
		if embedErr != nil {
			log.Printf("ingest %q: chunk %d embedding failed: %v", fileName, chunks[i].Ordinal, embedErr)
			continue
		}
		stored++
	}
	log.Printf("ingest %q: %d chunks, %d vectors stored", fileName, len(chunks), stored)

	return fileContextMessage(fileName, text), nil
}

// ListDocuments returns all uploaded documents, newest first.
func (s *IngestService) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.docRepo.ListAll(ctx)
}

func fileContextMessage(fileName, text string) *model.Message {
	return &model.Message{
		Role:    model.RoleFileContext,
		Content: FileContextContent(fileName, strings.TrimSpace(text)),
	}
}
