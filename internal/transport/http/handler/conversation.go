package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"docuchat/internal/ai"
	"docuchat/internal/app"
	"docuchat/internal/pkg/extract"
	"docuchat/internal/transport/http/response"
)

const maxFileNameRunes = 128

// allowedUploads maps accepted file extensions to the MIME types a browser
// may attach for them.
var allowedUploads = map[string][]string{
	".pdf": {"application/pdf"},
	".txt": {"text/plain"},
	".md":  {"text/markdown", "text/plain"},
}

type ConversationHandler struct {
	chatService   *app.ChatService
	ingestService *app.IngestService
	maxUploadMB   float64
}

type StreamRequest struct {
	Prompt  string             `json:"prompt" binding:"required"`
	History []app.HistoryEntry `json:"history"`
}

func NewConversationHandler(chatService *app.ChatService, ingestService *app.IngestService, maxUploadMB float64) *ConversationHandler {
	return &ConversationHandler{
		chatService:   chatService,
		ingestService: ingestService,
		maxUploadMB:   maxUploadMB,
	}
}

// Get returns the conversation log and the uploaded document list.
func (h *ConversationHandler) Get(c *gin.Context) {
	messages, err := h.chatService.ListConversation(c.Request.Context())
	if err != nil {
		log.Printf("list conversation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list conversation failed")
		return
	}
	documents, err := h.ingestService.ListDocuments(c.Request.Context())
	if err != nil {
		log.Printf("list documents failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{
		"messages":  messages,
		"documents": documents,
	})
}

// UploadFile validates and ingests one uploaded file, then records the
// file-context message ingestion produced.
func (h *ConversationHandler) UploadFile(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file")
		return
	}
	if float64(file.Size) > h.maxUploadMB*1024*1024 {
		response.Error(c, http.StatusBadRequest, response.CodeFileTooLarge, "file too large")
		return
	}

	name := sanitizeFileName(file.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	mimes, ok := allowedUploads[ext]
	if !ok {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
		return
	}
	if contentType := file.Header.Get("Content-Type"); contentType != "" && !mimeAllowed(contentType, mimes) {
		response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
		return
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to read file")
		return
	}

	contextMsg, err := h.ingestService.Ingest(c.Request.Context(), data, name)
	if err != nil {
		switch {
		case errors.Is(err, extract.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeUnsupportedFile, "unsupported file type")
		case errors.Is(err, extract.ErrCorruptFile):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "file is corrupt or unreadable")
		default:
			log.Printf("ingest %q failed: %v", name, err)
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "file processing failed")
		}
		return
	}

	if err := h.chatService.SaveFileContext(c.Request.Context(), contextMsg); err != nil {
		log.Printf("save file context failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "file processing failed")
		return
	}

	response.OK(c, gin.H{"success": true})
}

// Clear wipes the conversation and all documents atomically.
func (h *ConversationHandler) Clear(c *gin.Context) {
	if err := h.chatService.ClearAll(c.Request.Context()); err != nil {
		log.Printf("clear conversation failed: %v", err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "failed to clear conversation")
		return
	}
	response.OK(c, gin.H{"success": true})
}

type streamEvent struct {
	Token string             `json:"token,omitempty"`
	Done  bool               `json:"done,omitempty"`
	Error *streamErrorDetail `json:"error,omitempty"`
}

type streamErrorDetail struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
	Status  int    `json:"status"`
}

// Stream opens an SSE channel and forwards completion tokens as they
// arrive. Validation failures are rejected before the stream opens; later
// failures become a single in-band error event, since the status line is
// already committed. A client disconnect cancels the request context and
// ends the stream without persisting an assistant turn.
func (h *ConversationHandler) Stream(c *gin.Context) {
	var req StreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "prompt must not be empty")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	_, err := h.chatService.StreamConversation(ctx, req.Prompt, req.History, func(token string) error {
		return writeEvent(c, flusher, streamEvent{Token: token})
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			// Client went away; nothing left to write.
			return
		}
		log.Printf("stream conversation failed: %v", err)
		_ = writeEvent(c, flusher, streamEvent{Error: streamError(err)})
		return
	}

	_ = writeEvent(c, flusher, streamEvent{Done: true})
}

func writeEvent(c *gin.Context, flusher http.Flusher, event streamEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := c.Writer.Write([]byte("data: " + string(payload) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

// streamError maps internal failures to short client-safe event payloads.
func streamError(err error) *streamErrorDetail {
	switch {
	case errors.Is(err, app.ErrEmptyPrompt):
		return &streamErrorDetail{
			Message: "prompt must not be empty",
			Code:    response.CodeBadRequest,
			Status:  http.StatusBadRequest,
		}
	case errors.Is(err, app.ErrConversationTooLarge):
		return &streamErrorDetail{
			Message: "conversation size limit exceeded, clear the conversation to continue",
			Code:    response.CodeConversationTooBig,
			Status:  http.StatusRequestEntityTooLarge,
		}
	case errors.Is(err, ai.ErrUpstream):
		return &streamErrorDetail{
			Message: "assistant is unavailable right now",
			Code:    response.CodeUpstreamUnavailable,
			Status:  http.StatusBadGateway,
		}
	default:
		return &streamErrorDetail{
			Message: "failed to stream conversation",
			Code:    response.CodeInternalServer,
			Status:  http.StatusInternalServerError,
		}
	}
}

// sanitizeFileName reduces a client-supplied name to a safe character subset
// bounded in length, keeping the extension.
func sanitizeFileName(name string) string {
	name = filepath.Base(name)
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	sanitized := b.String()
	if runes := []rune(sanitized); len(runes) > maxFileNameRunes {
		ext := filepath.Ext(sanitized)
		keep := maxFileNameRunes - len([]rune(ext))
		if keep < 1 {
			keep = 1
		}
		sanitized = string(runes[:keep]) + ext
	}
	if sanitized == "" || sanitized == "." {
		sanitized = "upload"
	}
	return sanitized
}

func mimeAllowed(contentType string, allowed []string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	if contentType == "application/octet-stream" {
		// Browsers fall back to octet-stream for types they cannot sniff;
		// the extension check above still gates these.
		return true
	}
	for _, m := range allowed {
		if contentType == m {
			return true
		}
	}
	return false
}
