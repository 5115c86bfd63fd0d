package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/HapppyEnd/aibot/db"
	"github.com/HapppyEnd/aibot/internal/config"
	"github.com/HapppyEnd/aibot/internal/dispatch"
	"github.com/HapppyEnd/aibot/internal/filter"
	"github.com/HapppyEnd/aibot/internal/ingest"
	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/internal/queue"
	"github.com/HapppyEnd/aibot/internal/repository"
	"github.com/HapppyEnd/aibot/internal/sched"
	"github.com/HapppyEnd/aibot/pkg/feed"
	"github.com/HapppyEnd/aibot/pkg/llm"
	"github.com/HapppyEnd/aibot/pkg/telegram"
)

const workerCount = 4

// filterStore joins the two repositories the filter reads from.
type filterStore struct {
	news     *repository.NewsRepository
	keywords *repository.KeywordRepository
}

func (s *filterStore) HasDuplicate(item *model.NewsItem) (bool, error) {
	return s.news.HasDuplicate(item)
}

func (s *filterStore) Words() ([]string, error) {
	return s.keywords.Words()
}

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

	sourceRepo := repository.NewSourceRepository(db.DB)
	newsRepo := repository.NewNewsRepository(db.DB)
	postRepo := repository.NewPostRepository(db.DB)
	keywordRepo := repository.NewKeywordRepository(db.DB)

	taskQueue := queue.New(db.Redis)

	pipeline := dispatch.New(dispatch.Deps{
		Config: cfg.Pipeline,
		FilterOpts: filter.Options{
			RequiredLanguage: cfg.Filter.RequiredLanguage,
			AllowSourceIDs:   cfg.Filter.AllowSourceIDs,
			DenySourceIDs:    cfg.Filter.DenySourceIDs,
			CheckKeywords:    cfg.Filter.CheckKeywords,
			CheckDuplicates:  cfg.Filter.CheckDuplicates,
		},
		Sources:   sourceRepo,
		News:      newsRepo,
		Posts:     postRepo,
		Engine:    filter.NewEngine(&filterStore{news: newsRepo, keywords: keywordRepo}),
		Recorder:  ingest.NewRecorder(newsRepo),
		Fetcher:   feed.NewSelector(cfg.Pipeline.ChannelFetchLimit),
		Generator: generator,
		Publisher: telegram.NewBotClient(cfg.Telegram.BotToken),
		Channel:   cfg.Telegram.Channel,
		GenOpts:   llm.Options{MaxTokens: cfg.Generator.MaxTokens},
		Queue:     taskQueue,
	})

	if err := pipeline.Register(taskQueue); err != nil {
		log.Fatalf("error registering tasks: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	scheduler := sched.New(taskQueue, []sched.Beat{
		{Task: dispatch.TaskIngestAll, Interval: cfg.Pipeline.IngestInterval},
		{Task: dispatch.TaskSweep, Interval: cfg.Pipeline.ProcessInterval},
		{Task: dispatch.TaskRepublish, Interval: cfg.Pipeline.PublishInterval},
	})
	go scheduler.Run(ctx)

	slog.Info("worker started", "workers", workerCount)

	if err := taskQueue.Run(ctx, workerCount); err != nil {
		log.Fatalf("error running queue: %v", err)
	}
}
