package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/HapppyEnd/aibot/db"
	"github.com/HapppyEnd/aibot/internal/config"
	"github.com/HapppyEnd/aibot/internal/dispatch"
	"github.com/HapppyEnd/aibot/internal/handler"
	"github.com/HapppyEnd/aibot/internal/queue"
	"github.com/HapppyEnd/aibot/internal/repository"
	"github.com/HapppyEnd/aibot/internal/session"
	"github.com/HapppyEnd/aibot/pkg/llm"
	"github.com/HapppyEnd/aibot/pkg/telegram"
)

func main() {

	godotenv.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()

	err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("error connecting to DB: %v", err)
	}
	defer db.Close()

	err = db.EnsureSchema()
	if err != nil {
		log.Fatalf("error preparing schema: %v", err)
	}

	err = db.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("error connecting to Redis: %v", err)
	}
	defer db.CloseRedis()

	var generator llm.Generator
	switch cfg.Generator.Provider {
	case "anthropic":
		generator = llm.NewAnthropicClient(cfg.Generator.APIKey)
	default:
		generator = llm.NewOpenAIClient(cfg.Generator.APIKey)
	}

	taskQueue := queue.New(db.Redis)
	publisher := telegram.NewBotClient(cfg.Telegram.BotToken)
	genOpts := llm.Options{MaxTokens: cfg.Generator.MaxTokens}

	sourceRepo := repository.NewSourceRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	keywordRepo := repository.NewKeywordRepository(db.DB)

	sourceHandler := handler.NewSourceHandler(sourceRepo)
	keywordHandler := handler.NewKeywordHandler(keywordRepo)
	contentHandler := handler.NewContentHandler(newsRepo, postRepo, taskQueue,
		generator, publisher, cfg.Telegram.Channel, genOpts,
		dispatch.TaskGenerate, dispatch.TaskPublish)
	authHandler := handler.NewAuthHandler(session.NewStore(db.Redis))
	healthHandler := handler.NewHealthHandler(db.DB, db.Redis)

	r := gin.Default()

	allowedOrigins := []string{"http://localhost:3000"}
	if cfg.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.FrontendURL)
	}

	slog.Info("AllowOrigins URL:", "urls", allowedOrigins)

	r.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type"},
	}))

	r.GET("/sources", sourceHandler.ListSources)
	r.GET("/sources/:id", sourceHandler.GetSource)
	r.POST("/sources", sourceHandler.CreateSource)
	r.PUT("/sources/:id", sourceHandler.UpdateSource)
	r.DELETE("/sources/:id", sourceHandler.DeleteSource)

	r.GET("/keywords", keywordHandler.ListKeywords)
	r.POST("/keywords", keywordHandler.CreateKeyword)
	r.DELETE("/keywords/:id", keywordHandler.DeleteKeyword)

	r.GET("/news", contentHandler.ListNews)
	r.GET("/posts", contentHandler.ListPosts)
	r.GET("/posts/:id", contentHandler.GetPost)
	r.POST("/posts", contentHandler.CreateDraft)
	r.GET("/errors", contentHandler.ListErrors)

	r.POST("/generate", contentHandler.GenerateNow)
	r.POST("/publish", contentHandler.PublishNow)

	r.POST("/auth/request-code", authHandler.RequestCode)
	r.POST("/auth/confirm-code", authHandler.ConfirmCode)
	r.GET("/auth/status", authHandler.AuthStatus)

	r.GET("/health", healthHandler.GetHealth)

	err = r.Run(cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("error starting server: %v", err)
	}
}
