package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docuchat/internal/ai"
	"docuchat/internal/model"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.vector != nil {
		return f.vector, nil
	}
	return []float32{1, 0, 0}, nil
}

type fakeVectorStore struct {
	stored    map[uint][]float32
	similarTo []uint
}

func newFakeVectorStore() *fakeVectorStore {
	return &fakeVectorStore{stored: make(map[uint][]float32)}
}

func (f *fakeVectorStore) Store(ctx context.Context, chunkID uint, embedding []float32) error {
	f.stored[chunkID] = embedding
	return nil
}

func (f *fakeVectorStore) QuerySimilar(ctx context.Context, query []float32, k int) ([]uint, error) {
	if len(f.similarTo) > k {
		return f.similarTo[:k], nil
	}
	return f.similarTo, nil
}

type fakeChunkReader struct {
	contents map[uint]string
	fullText map[uint]string
}

func (f *fakeChunkReader) ContentsByIDs(ctx context.Context, ids []uint) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if content, ok := f.contents[id]; ok {
			out = append(out, content)
		}
	}
	return out, nil
}

func (f *fakeChunkReader) FullDocumentText(ctx context.Context, documentID uint) (string, error) {
	return f.fullText[documentID], nil
}

type fakeDocumentReader struct {
	latest *model.Document
}

func (f *fakeDocumentReader) Latest(ctx context.Context) (*model.Document, error) {
	return f.latest, nil
}

func TestBuildInjectsDocumentOnlyWhenHistoryEmpty(t *testing.T) {
	vectors := newFakeVectorStore()
	chunks := &fakeChunkReader{
		contents: map[uint]string{},
		fullText: map[uint]string{42: "hello world"},
	}
	docs := &fakeDocumentReader{latest: &model.Document{ID: 42, Name: "notes.txt"}}
	builder := NewPromptBuilder(&fakeEmbedder{}, vectors, chunks, docs, 3)

	messages, injected, err := builder.Build(context.Background(), "what does it say?", nil)
	require.NoError(t, err)
	assert.True(t, injected)
	assert.True(t, containsContent(messages, "hello world"), "fresh conversation must carry the full document")

	history := []HistoryEntry{{Role: model.RoleUser, Content: "earlier question"}}
	messages, injected, err = builder.Build(context.Background(), "what does it say?", history)
	require.NoError(t, err)
	assert.False(t, injected)
	assert.False(t, containsContent(messages, "hello world"), "ongoing conversation must not re-inject the document")
}

func TestBuildMessageOrder(t *testing.T) {
	vectors := newFakeVectorStore()
	vectors.similarTo = []uint{1, 2}
	chunks := &fakeChunkReader{
		contents: map[uint]string{1: "chunk one", 2: "chunk two"},
		fullText: map[uint]string{},
	}
	docs := &fakeDocumentReader{}
	builder := NewPromptBuilder(&fakeEmbedder{}, vectors, chunks, docs, 2)

	history := []HistoryEntry{
		{Role: model.RoleUser, Content: "first"},
		{Role: model.RoleAssistant, Content: "second"},
	}
	messages, injected, err := builder.Build(context.Background(), "third", history)
	require.NoError(t, err)
	assert.False(t, injected)

	require.Len(t, messages, 6)
	assert.Equal(t, model.RoleSystem, messages[0].Role)
	assert.Equal(t, personaPrompt, messages[0].Content)
	assert.Equal(t, model.RoleSystem, messages[1].Role)
	assert.Equal(t, "Context:\nchunk one\n---\nchunk two", messages[2].Content)
	assert.Equal(t, "first", messages[3].Content)
	assert.Equal(t, "second", messages[4].Content)
	assert.Equal(t, model.RoleUser, messages[5].Role)
	assert.Equal(t, "third", messages[5].Content)
}

func TestBuildNormalizesHistoryRoles(t *testing.T) {
	builder := NewPromptBuilder(&fakeEmbedder{}, newFakeVectorStore(), &fakeChunkReader{}, &fakeDocumentReader{}, 3)

	history := []HistoryEntry{
		{Role: "bot", Content: "unknown role"},
		{Role: model.RoleFileContext, Content: "file payload"},
		{Role: model.RoleSystem, Content: "kept as system"},
	}
	messages, _, err := builder.Build(context.Background(), "hi", history)
	require.NoError(t, err)

	assert.False(t, containsContent(messages, "file payload"), "file-role turns are context material, not prompt turns")

	var unknownRole string
	for _, m := range messages {
		if m.Content == "unknown role" {
			unknownRole = m.Role
		}
	}
	assert.Equal(t, model.RoleUser, unknownRole)
	assert.True(t, containsContent(messages, "kept as system"))
}

func TestBuildEmptyCorpus(t *testing.T) {
	builder := NewPromptBuilder(&fakeEmbedder{}, newFakeVectorStore(), &fakeChunkReader{}, &fakeDocumentReader{}, 3)

	messages, injected, err := builder.Build(context.Background(), "anything there?", nil)
	require.NoError(t, err)
	assert.False(t, injected)

	found := false
	for _, m := range messages {
		if strings.HasPrefix(m.Content, "Context:") {
			found = true
			assert.Equal(t, "Context:\n", m.Content)
		}
	}
	assert.True(t, found, "an empty corpus still yields an empty context block")
}

func TestFileContextContentBounded(t *testing.T) {
	huge := strings.Repeat("x", maxFileContextRunes*2)
	content := FileContextContent("big.txt", huge)
	assert.LessOrEqual(t, len([]rune(content)), maxFileContextRunes+200)
	assert.Contains(t, content, "big.txt")
}

func containsContent(messages []ai.ChatMessage, s string) bool {
	for _, m := range messages {
		if strings.Contains(m.Content, s) {
			return true
		}
	}
	return false
}
