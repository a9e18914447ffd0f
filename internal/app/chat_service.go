package app

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docuchat/internal/ai"
	"docuchat/internal/model"
)

// MessageSink persists one conversation turn. Implemented by the message
// repository directly, or by the RabbitMQ publisher when asynchronous
// persistence is enabled.
type MessageSink interface {
	SaveMessage(ctx context.Context, msg *model.Message) error
}

// ConversationStore reads the append-only conversation log.
type ConversationStore interface {
	ListAll(ctx context.Context) ([]model.Message, error)
	EstimateSizeMB(ctx context.Context) (float64, error)
}

// CompletionClient drives the completion API in single-shot or streaming
// mode.
type CompletionClient interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
	StreamComplete(ctx context.Context, messages []ai.ChatMessage, onChunk func(chunk string) error) (string, error)
}

// PromptSource assembles the completion request message list.
type PromptSource interface {
	Build(ctx context.Context, prompt string, history []HistoryEntry) ([]ai.ChatMessage, bool, error)
}

// Wiper clears messages and documents atomically.
type Wiper interface {
	ClearAllData(ctx context.Context) error
}

// HistoryCache caches the conversation listing. All call sites tolerate a
// nil cache.
type HistoryCache interface {
	GetHistory(ctx context.Context) ([]model.Message, bool, error)
	SetHistory(ctx context.Context, messages []model.Message) error
	DeleteHistory(ctx context.Context) error
	MarkDirty(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
}

type ChatService struct {
	store             ConversationStore
	sink              MessageSink
	builder           PromptSource
	llm               CompletionClient
	wiper             Wiper
	historyCache      HistoryCache
	maxConversationMB float64
}

func NewChatService(
	store ConversationStore,
	sink MessageSink,
	builder PromptSource,
	llm CompletionClient,
	wiper Wiper,
	historyCache HistoryCache,
	maxConversationMB float64,
) *ChatService {
	return &ChatService{
		store:             store,
		sink:              sink,
		builder:           builder,
		llm:               llm,
		wiper:             wiper,
		historyCache:      historyCache,
		maxConversationMB: maxConversationMB,
	}
}

// ListConversation returns all visible conversation turns, consulting the
// history cache when it is present and clean.
func (s *ChatService) ListConversation(ctx context.Context) ([]model.Message, error) {
	if s.historyCache != nil {
		dirty, err := s.historyCache.IsDirty(ctx)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.historyCache.GetHistory(ctx); cacheErr == nil && hit {
				return cached, nil
			}
		}
	}

	messages, err := s.store.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	if s.historyCache != nil {
		if dirty, dirtyErr := s.historyCache.IsDirty(ctx); dirtyErr == nil && !dirty {
			_ = s.historyCache.SetHistory(ctx, messages)
		}
	}
	return messages, nil
}

// SaveFileContext persists the file-context message produced by ingestion.
func (s *ChatService) SaveFileContext(ctx context.Context, msg *model.Message) error {
	s.invalidateHistory(ctx)
	return s.sink.SaveMessage(ctx, msg)
}

// ClearAll wipes messages, documents, chunks and vectors in one transaction.
func (s *ChatService) ClearAll(ctx context.Context) error {
	if err := s.wiper.ClearAllData(ctx); err != nil {
		return err
	}
	if s.historyCache != nil {
		_ = s.historyCache.DeleteHistory(ctx)
	}
	return nil
}

// StreamConversation runs one completion request: admission control, prompt
// assembly, token streaming through onToken, and persistence of the user and
// assistant turns. The user turn is written concurrently with streaming; the
// assistant turn is written only after the user write finished and the
// stream completed. Canceling ctx (client disconnect) abandons the upstream
// call and persists no assistant turn.
func (s *ChatService) StreamConversation(
	ctx context.Context,
	prompt string,
	history []HistoryEntry,
	onToken func(token string) error,
) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}

	if err := s.admit(ctx, prompt, history); err != nil {
		return "", err
	}

	s.invalidateHistory(ctx)

	// The user turn must survive client disconnects, so it is persisted on
	// a context detached from the request.
	persistCtx := context.WithoutCancel(ctx)
	userDone := make(chan error, 1)
	go func() {
		userDone <- s.sink.SaveMessage(persistCtx, &model.Message{
			Role:    model.RoleUser,
			Content: prompt,
		})
	}()

	messages, fileContextInjected, err := s.builder.Build(ctx, prompt, history)
	if err != nil {
		<-userDone
		return "", err
	}

	var full string
	if fileContextInjected {
		// A fresh conversation carrying the whole document goes through the
		// single-shot call; the answer is delivered as one token event.
		full, err = s.llm.Complete(ctx, messages)
		if err == nil && ctx.Err() == nil && full != "" {
			err = onToken(full)
		}
	} else {
		full, err = s.llm.StreamComplete(ctx, messages, func(chunk string) error {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return onToken(chunk)
		})
	}
	if err != nil {
		<-userDone
		return "", err
	}
	if ctx.Err() != nil {
		<-userDone
		return "", ctx.Err()
	}

	full = strings.TrimSpace(full)
	if full == "" {
		full = "The model returned an empty response."
	}

	if err := <-userDone; err != nil {
		return "", fmt.Errorf("persist user message: %w", err)
	}
	if err := s.sink.SaveMessage(persistCtx, &model.Message{
		Role:    model.RoleAssistant,
		Content: full,
	}); err != nil {
		return "", fmt.Errorf("persist assistant message: %w", err)
	}

	return full, nil
}

// admit rejects the request when the stored conversation plus the incoming
// prompt and history would exceed the configured size bound.
func (s *ChatService) admit(ctx context.Context, prompt string, history []HistoryEntry) error {
	storedMB, err := s.store.EstimateSizeMB(ctx)
	if err != nil {
		return err
	}
	requestBytes := len(prompt)
	for _, turn := range history {
		requestBytes += len(turn.Role) + len(turn.Content)
	}
	totalMB := storedMB + float64(requestBytes)/(1024*1024)
	if totalMB > s.maxConversationMB {
		log.Printf("conversation size %.4f MB over limit %.4f MB, rejecting", totalMB, s.maxConversationMB)
		return ErrConversationTooLarge
	}
	return nil
}

func (s *ChatService) invalidateHistory(ctx context.Context) {
	if s.historyCache == nil {
		return
	}
	_ = s.historyCache.MarkDirty(ctx)
	_ = s.historyCache.DeleteHistory(ctx)
}
