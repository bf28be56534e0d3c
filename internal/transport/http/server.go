package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"docuchat/internal/ai"
	appsvc "docuchat/internal/app"
	"docuchat/internal/bootstrap"
	"docuchat/internal/cache"
	"docuchat/internal/pkg/chunker"
	"docuchat/internal/platform/rabbitmq"
	"docuchat/internal/repository"
	"docuchat/internal/transport/http/handler"
	"docuchat/internal/transport/http/middleware"
	"docuchat/internal/vectorindex"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/health", healthHandler.Check)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	sessionRepo := repository.NewSessionRepository(app.MySQL)
	fileRepo := repository.NewFileRepository(app.MySQL)
	chunkRepo := repository.NewChunkRepository(app.MySQL)
	turnRepo := repository.NewTurnRepository(app.MySQL)

	chatClient := ai.NewChatClient(ai.ChatConfig{
		BaseURL:     app.Config.LLM.BaseURL,
		APIKey:      app.Config.LLM.APIKey,
		Model:       app.Config.LLM.Model,
		Temperature: float64(app.Config.LLM.Temperature),
		MaxTokens:   app.Config.LLM.MaxTokens,
	})
	embeddingClient := ai.NewEmbeddingClient(ai.EmbeddingConfig{
		BaseURL: app.Config.LLM.BaseURL,
		APIKey:  app.Config.LLM.APIKey,
		Model:   app.Config.LLM.EmbeddingModel,
	})
	index := vectorindex.NewClient(vectorindex.Config{
		IndexHost: app.Config.Pinecone.IndexHost,
		APIKey:    app.Config.Pinecone.APIKey,
		Namespace: app.Config.Pinecone.Namespace,
	})

	historyCache := cache.NewHistoryCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	turnPublisher := rabbitmq.NewTurnPublisher(app.MQConn, app.Config.RabbitMQ.TurnPersistQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		sessionRepo,
		app.Config.Auth.TokenSecret,
		time.Duration(app.Config.Auth.SessionExpireHours)*time.Hour,
	)
	ingestService := appsvc.NewIngestService(
		fileRepo,
		chunkRepo,
		embeddingClient,
		index,
		chunker.New(app.Config.RAG.ChunkSize, app.Config.RAG.ChunkOverlap),
		app.Logger,
	)
	retrievalService := appsvc.NewRetrievalService(embeddingClient, index, chunkRepo, app.Config.RAG.TopK)
	chatService := appsvc.NewChatService(
		turnRepo,
		retrievalService,
		chatClient,
		turnPublisher,
		historyCache,
		app.Config.RAG.TopK,
		app.Config.RAG.HistoryWindow,
	)

	authHandler := handler.NewAuthHandler(authService)
	documentsHandler := handler.NewDocumentsHandler(ingestService)
	chatHandler := handler.NewChatHandler(chatService)

	auth := middleware.AuthSession(authService)

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/logout", auth, authHandler.Logout)
	authGroup.GET("/me", auth, authHandler.Me)

	docGroup := v1.Group("/documents")
	docGroup.Use(auth)
	docGroup.POST("/upload", documentsHandler.Upload)
	docGroup.GET("", documentsHandler.List)
	docGroup.GET("/:id", documentsHandler.Get)
	docGroup.DELETE("/:id", documentsHandler.Delete)

	chatGroup := v1.Group("/chat")
	chatGroup.Use(auth)
	chatGroup.POST("", chatHandler.Ask)
	chatGroup.GET("/threads", chatHandler.Threads)
	chatGroup.GET("/:conversation_id/history", chatHandler.History)

	return router
}
