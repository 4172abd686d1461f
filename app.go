package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/rs/zerolog/log"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/coaching"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/interaction"
	"github.com/tanpawarit/ai-sales-assistant/agent/agents/negotiation"
	contractx "github.com/tanpawarit/ai-sales-assistant/agent/contract"
	"github.com/tanpawarit/ai-sales-assistant/agent/gateway"
	"github.com/tanpawarit/ai-sales-assistant/agent/llm"
	promptx "github.com/tanpawarit/ai-sales-assistant/agent/prompt"
	statex "github.com/tanpawarit/ai-sales-assistant/agent/state"
	configx "github.com/tanpawarit/ai-sales-assistant/pkg/config"
	"github.com/tanpawarit/ai-sales-assistant/pkg/crm"
	"github.com/tanpawarit/ai-sales-assistant/pkg/export"
	openrouterx "github.com/tanpawarit/ai-sales-assistant/pkg/openrouter"
	qstashx "github.com/tanpawarit/ai-sales-assistant/pkg/qstash"
	"github.com/tanpawarit/ai-sales-assistant/pkg/sheets"
	"github.com/tanpawarit/ai-sales-assistant/pkg/vectorindex"
)

type AppConfig struct {
	DataDir          string        `split_words:"true"`
	RetrievalTimeout time.Duration `split_words:"true" default:"10s"`
	ShutdownTimeout  time.Duration `split_words:"true" default:"10s"`
}

func (c AppConfig) dataDir() string {
	if dir := strings.TrimSpace(c.DataDir); dir != "" {
		return dir
	}
	return filepath.Join(xdg.DataHome, "ai-sales-assistant")
}

// services holds everything the serving commands share.
type services struct {
	repo         *crm.Repository
	index        *vectorindex.Index
	interactions *interaction.Orchestrator
	negotiations *negotiation.Manager
}

func (s *services) Close() error {
	var errs []error
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	if s.repo != nil {
		errs = append(errs, s.repo.Close())
	}
	return errors.Join(errs...)
}

func openRepository(ctx context.Context, appCfg AppConfig) (*crm.Repository, error) {
	cfg := configx.MustNew[crm.Config]("CRM")
	if strings.TrimSpace(cfg.Path) == "" {
		cfg.Path = filepath.Join(appCfg.dataDir(), "crm.db")
	}

	db, err := crm.OpenDatabase(ctx, *cfg)
	if err != nil {
		return nil, fmt.Errorf("open crm database: %w", err)
	}
	log.Info().Str("driver", cfg.Driver).Str("path", cfg.Path).Msg("crm ready")

	return crm.NewRepository(db, crm.WithRetryPolicy(crm.RetryPolicy{
		Attempts: cfg.RetryAttempts,
		Delay:    cfg.RetryDelay,
	})), nil
}

func openIndex(appCfg AppConfig) (*vectorindex.Index, *openrouterx.EmbeddingConfig, error) {
	embCfg := configx.MustNew[openrouterx.EmbeddingConfig]("EMBEDDING")
	client := openrouterx.NewEmbeddingClient(*embCfg)
	if client == nil {
		return nil, nil, fmt.Errorf("%w: embedding api key is required", contractx.ErrValidation)
	}
	embedder, err := vectorindex.NewOpenAIEmbedder(client, embCfg.Model)
	if err != nil {
		return nil, nil, err
	}

	idxCfg := configx.MustNew[vectorindex.Config]("INDEX")
	dir := strings.TrimSpace(idxCfg.Dir)
	if dir == "" {
		dir = filepath.Join(appCfg.dataDir(), "index")
	}

	index, err := vectorindex.Open(dir, embedder)
	if err != nil {
		return nil, nil, fmt.Errorf("open vector index: %w", err)
	}
	log.Info().Str("dir", dir).Int("documents", index.Len()).Msg("vector index ready")
	return index, embCfg, nil
}

// newChatModels builds one chat model per task from the OPENROUTER settings.
func newChatModels(ctx context.Context, cfg llm.Config) (map[contractx.Task]einomodel.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	models := make(map[contractx.Task]einomodel.BaseChatModel, len(llm.Tasks()))
	for _, task := range llm.Tasks() {
		taskCfg := cfg.OpenRouterFor(task)
		m, err := taskCfg.New(ctx)
		if err != nil {
			return nil, fmt.Errorf("chat model for %s: %w", task, err)
		}
		models[task] = m
	}
	return models, nil
}

func newExportSink(ctx context.Context) (export.Sink, error) {
	sinks := export.Fanout{export.LogSink{}}

	sheetsCfg := configx.MustNew[sheets.Config]("SHEETS")
	if sheetsCfg.Enabled() {
		client, err := sheets.NewClient(ctx, *sheetsCfg)
		if err != nil {
			return nil, fmt.Errorf("sheets sink: %w", err)
		}
		sinks = append(sinks, client)
	}

	qstashCfg := configx.MustNew[qstashx.Config]("QSTASH")
	if qstashCfg.Enabled() {
		queue, err := export.NewQueueSink(qstashx.MustNew(*qstashCfg), qstashCfg.Destination)
		if err != nil {
			return nil, fmt.Errorf("queue sink: %w", err)
		}
		sinks = append(sinks, queue)
	}

	log.Debug().Int("sinks", len(sinks)).Msg("metrics export ready")
	return sinks, nil
}

// newCoachingSink writes coaching rows to the log and, when configured, to
// their own range of the export sheet.
func newCoachingSink(ctx context.Context, cfg coaching.Config) (export.Sink, error) {
	sinks := export.Fanout{export.LogSink{}}

	sheetsCfg := configx.MustNew[sheets.Config]("SHEETS")
	if sheetsCfg.Enabled() {
		coachingCfg := *sheetsCfg
		coachingCfg.Range = cfg.SheetRange
		client, err := sheets.NewClient(ctx, coachingCfg)
		if err != nil {
			return nil, fmt.Errorf("coaching sheets sink: %w", err)
		}
		sinks = append(sinks, client)
	}
	return sinks, nil
}

// newCoach needs only the classification model, so coaching runs without
// the CRM or the listing index.
func newCoach(ctx context.Context) (*coaching.Coach, error) {
	llmCfg := configx.MustNew[llm.Config]("OPENROUTER")
	models, err := newChatModels(ctx, *llmCfg)
	if err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}
	classifier, err := gateway.NewClassifier(ctx, models[contractx.TaskClassification], prompts, llmCfg.Timeout)
	if err != nil {
		return nil, err
	}

	coachCfg := configx.MustNew[coaching.Config]("COACHING")
	sink, err := newCoachingSink(ctx, *coachCfg)
	if err != nil {
		return nil, err
	}
	return coaching.New(classifier, sink)
}

func newSessionStore(ctx context.Context, cfg negotiation.Config) (statex.Store, error) {
	redisCfg := configx.MustNew[statex.UpstashRedisConfig]("UPSTASH_REDIS")
	if redisCfg.Enabled() {
		return statex.NewUpstashRedisStore(*redisCfg, statex.WithTTL(cfg.SessionTTL))
	}

	log.Info().Dur("ttl", cfg.SessionTTL).Msg("negotiation sessions kept in memory")
	store := statex.NewMemoryStore(cfg.SessionTTL, time.Now)
	go store.RunJanitor(ctx, cfg.SweepInterval)
	return store, nil
}

// newServices wires the repository, the index and both agents.
func newServices(ctx context.Context, appCfg AppConfig) (_ *services, err error) {
	s := &services{}
	defer func() {
		if err != nil {
			_ = s.Close()
		}
	}()

	if s.repo, err = openRepository(ctx, appCfg); err != nil {
		return nil, err
	}
	if s.index, _, err = openIndex(appCfg); err != nil {
		return nil, err
	}

	llmCfg := configx.MustNew[llm.Config]("OPENROUTER")
	models, err := newChatModels(ctx, *llmCfg)
	if err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	classifier, err := gateway.NewClassifier(ctx, models[contractx.TaskClassification], prompts, llmCfg.Timeout)
	if err != nil {
		return nil, err
	}
	generator, err := gateway.NewGenerator(ctx, models, prompts, llmCfg.Timeout)
	if err != nil {
		return nil, err
	}
	retriever := gateway.NewRetriever(s.index, appCfg.RetrievalTimeout)

	orchCfg := configx.MustNew[interaction.Config]("ORCHESTRATOR")
	if s.interactions, err = interaction.New(s.repo, classifier, retriever, generator, *orchCfg); err != nil {
		return nil, err
	}

	negCfg := configx.MustNew[negotiation.Config]("NEGOTIATION")
	store, err := newSessionStore(ctx, *negCfg)
	if err != nil {
		return nil, err
	}
	sink, err := newExportSink(ctx)
	if err != nil {
		return nil, err
	}
	if s.negotiations, err = negotiation.New(s.repo, classifier, generator, store, sink, *negCfg); err != nil {
		return nil, err
	}

	return s, nil
}
