package dispatch

import (
	"context"
	"time"

	"github.com/HapppyEnd/aibot/internal/config"
	"github.com/HapppyEnd/aibot/internal/filter"
	"github.com/HapppyEnd/aibot/internal/ingest"
	"github.com/HapppyEnd/aibot/internal/model"
	"github.com/HapppyEnd/aibot/internal/queue"
	"github.com/HapppyEnd/aibot/pkg/feed"
	"github.com/HapppyEnd/aibot/pkg/llm"
	"github.com/HapppyEnd/aibot/pkg/telegram"
)

// Task names as they appear on the queue.
const (
	TaskIngestAll    = "ingest-all-sources"
	TaskIngestSource = "ingest-source"
	TaskSweep        = "sweep-and-dispatch"
	TaskGenerate     = "generate-for-item"
	TaskPublish      = "publish-post"
	TaskRepublish    = "republish-stuck"
)

type SourceStore interface {
	ListEnabled() ([]model.Source, error)
	GetByID(id int64) (*model.Source, error)
}

type NewsStore interface {
	GetByID(id string) (*model.NewsItem, error)
	ListRecent(limit int) ([]model.NewsItem, error)
	SaveError(newsID, errMsg, errType string) error
}

type PostStore interface {
	GetByID(id int64) (*model.Post, error)
	NewsState(newsID string) (active bool, published bool, err error)
	UpsertGenerated(newsID, text string) (*model.Post, error)
	MarkPublished(id int64, at time.Time) (bool, error)
	MarkFailed(id int64) (bool, error)
	ListByStatus(status string, limit int) ([]model.Post, error)
}

type Enqueuer interface {
	Enqueue(ctx context.Context, name, payload string, delay time.Duration) error
}

// Deps wires the pipeline to its collaborators.
type Deps struct {
	Config     config.PipelineConfig
	FilterOpts filter.Options

	Sources SourceStore
	News    NewsStore
	Posts   PostStore

	Engine    *filter.Engine
	Recorder  *ingest.Recorder
	Fetcher   feed.Fetcher
	Generator llm.Generator
	Publisher telegram.Publisher
	Channel   string
	GenOpts   llm.Options

	Queue Enqueuer
}

// Pipeline owns the task handlers that move a news item from ingestion
// through generation to publication.
type Pipeline struct {
	cfg        config.PipelineConfig
	filterOpts filter.Options

	sources SourceStore
	news    NewsStore
	posts   PostStore

	engine    *filter.Engine
	recorder  *ingest.Recorder
	fetcher   feed.Fetcher
	generator llm.Generator
	publisher telegram.Publisher
	channel   string
	genOpts   llm.Options

	queue Enqueuer

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

func New(deps Deps) *Pipeline {
	return &Pipeline{
		cfg:        deps.Config,
		filterOpts: deps.FilterOpts,
		sources:    deps.Sources,
		news:       deps.News,
		posts:      deps.Posts,
		engine:     deps.Engine,
		recorder:   deps.Recorder,
		fetcher:    deps.Fetcher,
		generator:  deps.Generator,
		publisher:  deps.Publisher,
		channel:    deps.Channel,
		genOpts:    deps.GenOpts,
		queue:      deps.Queue,
		sleep:      sleepCtx,
		now:        time.Now,
	}
}

// Register installs the pipeline's task descriptors. Retry budgets and
// rate ceilings come from the pipeline config; the periodic sweep tasks
// never retry because the next beat covers for them.
func (p *Pipeline) Register(q *queue.Queue) error {
	descriptors := []queue.Descriptor{
		{Name: TaskIngestAll, Handler: p.IngestAll, Timeout: p.cfg.TaskTimeout},
		{Name: TaskIngestSource, Handler: p.IngestSource, Timeout: p.cfg.TaskTimeout},
		{Name: TaskSweep, Handler: p.SweepAndDispatch, Timeout: p.cfg.TaskTimeout},
		{
			Name:       TaskGenerate,
			Handler:    p.GenerateForItem,
			MaxRetries: p.cfg.GenerateMaxRetries,
			RetryDelay: p.cfg.GenerateRetryDelay,
			RatePerSec: p.cfg.GenerateRatePerSec,
			Timeout:    p.cfg.TaskTimeout,
		},
		{
			Name:       TaskPublish,
			Handler:    p.PublishPost,
			MaxRetries: p.cfg.PublishMaxRetries,
			RetryDelay: p.cfg.PublishRetryDelay,
			RatePerSec: p.cfg.PublishRatePerSec,
			Timeout:    p.cfg.TaskTimeout,
		},
		{Name: TaskRepublish, Handler: p.RepublishStuck, Timeout: p.cfg.TaskTimeout},
	}

	for _, d := range descriptors {
		if err := q.Register(d); err != nil {
			return err
		}
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
