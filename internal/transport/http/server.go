package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/ai"
	appsvc "docuchat/internal/app"
	"docuchat/internal/bootstrap"
	"docuchat/internal/cache"
	"docuchat/internal/platform/rabbitmq"
	"docuchat/internal/repository"
	"docuchat/internal/transport/http/handler"
	"docuchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	cfg := app.Config

	messageRepo := repository.NewMessageRepository(app.DB)
	docRepo := repository.NewDocumentRepository(app.DB)
	chunkRepo := repository.NewChunkRepository(app.DB)
	vectorRepo := repository.NewVectorRepository(app.DB)
	wiper := repository.NewDataWiper(app.DB, messageRepo, vectorRepo, chunkRepo, docRepo)

	llmClient := ai.NewClient(ai.Settings{
		BaseURL:        cfg.LLM.BaseURL,
		APIKey:         cfg.LLM.APIKey,
		ChatModel:      cfg.LLM.ChatModel,
		EmbeddingModel: cfg.LLM.EmbeddingModel,
	})

	var sink appsvc.MessageSink = messageRepo
	if app.MQConn != nil {
		sink = rabbitmq.NewMessagePublisher(app.MQConn, cfg.RabbitMQ.MessagePersistQueue)
	}

	var historyCache appsvc.HistoryCache
	if app.Redis != nil {
		historyCache = cache.NewHistoryCache(
			app.Redis,
			time.Duration(cfg.Redis.HistoryTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.HistoryDirtyTTLSeconds)*time.Second,
		)
	}

	promptBuilder := appsvc.NewPromptBuilder(llmClient, vectorRepo, chunkRepo, docRepo, cfg.RAG.TopK)
	ingestService := appsvc.NewIngestService(
		docRepo,
		chunkRepo,
		vectorRepo,
		llmClient,
		cfg.RAG.ChunkSize,
		cfg.RAG.EmbedConcurrency,
	)
	chatService := appsvc.NewChatService(
		messageRepo,
		sink,
		promptBuilder,
		llmClient,
		wiper,
		historyCache,
		cfg.Limits.MaxConversationMB,
	)

	healthHandler := handler.NewHealthHandler(app)
	conversationHandler := handler.NewConversationHandler(chatService, ingestService, cfg.Limits.MaxUploadMB)

	router.GET("/healthz", healthHandler.Check)

	api := router.Group("/api")
	api.GET("/conversation", conversationHandler.Get)
	api.POST("/conversation/upload-file", conversationHandler.UploadFile)
	api.POST("/conversation/clear", conversationHandler.Clear)
	api.POST("/conversation/stream", conversationHandler.Stream)

	return router
}
