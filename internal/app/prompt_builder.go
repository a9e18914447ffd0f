package app

import (
	"context"
	"fmt"
	"strings"

	"docuchat/internal/ai"
	"docuchat/internal/model"
)

const (
	personaPrompt  = "You are a helpful assistant."
	fileRolePrompt = `If you see a message with role "file", do not respond to it. Use it only as context for answering user questions.`

	contextSeparator = "\n---\n"

	// maxFileContextRunes bounds the full-document context message so a
	// large upload cannot blow the completion API's input window.
	maxFileContextRunes = 24000
)

// HistoryEntry is one prior conversation turn as sent by the client.
type HistoryEntry struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Embedder converts text into a fixed-length vector via the embedding API.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// VectorStore persists chunk embeddings and ranks them by similarity to a
// query vector.
type VectorStore interface {
	Store(ctx context.Context, chunkID uint, embedding []float32) error
	QuerySimilar(ctx context.Context, query []float32, k int) ([]uint, error)
}

// ChunkReader loads stored chunk text.
type ChunkReader interface {
	ContentsByIDs(ctx context.Context, ids []uint) ([]string, error)
	FullDocumentText(ctx context.Context, documentID uint) (string, error)
}

// DocumentReader exposes the most recently uploaded document.
type DocumentReader interface {
	Latest(ctx context.Context) (*model.Document, error)
}

// PromptBuilder assembles the ordered message list for the completion API:
// persona, file-role instruction, optional full-document context (first turn
// of a fresh conversation only), retrieved context block, normalized
// history, then the new user turn.
type PromptBuilder struct {
	embedder Embedder
	vectors  VectorStore
	chunks   ChunkReader
	docs     DocumentReader
	topK     int
}

func NewPromptBuilder(
	embedder Embedder,
	vectors VectorStore,
	chunks ChunkReader,
	docs DocumentReader,
	topK int,
) *PromptBuilder {
	if topK <= 0 {
		topK = 3
	}
	return &PromptBuilder{
		embedder: embedder,
		vectors:  vectors,
		chunks:   chunks,
		docs:     docs,
		topK:     topK,
	}
}

// Build returns the prompt message list and whether the full-document
// context message was injected. Injection happens only when history is
// empty, so the first question of a fresh conversation sees the whole latest
// document instead of relying on top-k recall alone, without re-sending the
// document on every later turn.
func (b *PromptBuilder) Build(ctx context.Context, prompt string, history []HistoryEntry) ([]ai.ChatMessage, bool, error) {
	var fileContext *ai.ChatMessage
	if len(history) == 0 {
		msg, err := b.latestDocumentContext(ctx)
		if err != nil {
			return nil, false, err
		}
		fileContext = msg
	}

	contextBlock, err := b.retrieveContext(ctx, prompt)
	if err != nil {
		return nil, false, err
	}

	messages := make([]ai.ChatMessage, 0, len(history)+5)
	messages = append(messages,
		ai.ChatMessage{Role: model.RoleSystem, Content: personaPrompt},
		ai.ChatMessage{Role: model.RoleSystem, Content: fileRolePrompt},
	)
	if fileContext != nil {
		messages = append(messages, *fileContext)
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleSystem, Content: contextBlock})
	for _, turn := range history {
		if turn.Role == model.RoleFileContext {
			continue
		}
		role := turn.Role
		if !model.KnownRole(role) {
			role = model.RoleUser
		}
		messages = append(messages, ai.ChatMessage{Role: role, Content: turn.Content})
	}
	messages = append(messages, ai.ChatMessage{Role: model.RoleUser, Content: prompt})

	return messages, fileContext != nil, nil
}

// retrieveContext embeds the prompt, ranks stored chunks and joins the top-k
// into one context block. An empty corpus yields an empty block rather than
// an error.
func (b *PromptBuilder) retrieveContext(ctx context.Context, prompt string) (string, error) {
	queryVec, err := b.embedder.Embed(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("embed prompt: %w", err)
	}
	ids, err := b.vectors.QuerySimilar(ctx, queryVec, b.topK)
	if err != nil {
		return "", err
	}
	contents, err := b.chunks.ContentsByIDs(ctx, ids)
	if err != nil {
		return "", err
	}
	return "Context:\n" + strings.Join(contents, contextSeparator), nil
}

func (b *PromptBuilder) latestDocumentContext(ctx context.Context) (*ai.ChatMessage, error) {
	doc, err := b.docs.Latest(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	text, err := b.chunks.FullDocumentText(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	return &ai.ChatMessage{
		Role:    model.RoleSystem,
		Content: FileContextContent(doc.Name, text),
	}, nil
}

// FileContextContent renders the context-only message body for an uploaded
// document, bounded to a practical prompt size.
func FileContextContent(fileName, text string) string {
	runes := []rune(text)
	if len(runes) > maxFileContextRunes {
		text = string(runes[:maxFileContextRunes])
	}
	return fmt.Sprintf("The user uploaded a file named %q. Its full content follows as context:\n\n%s", fileName, text)
}
