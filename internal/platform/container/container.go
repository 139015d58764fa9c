package container

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	coreask "github.com/jinford/catalog-rag/internal/core/ask"
	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/document"
	coreingestion "github.com/jinford/catalog-rag/internal/core/ingestion"
	"github.com/jinford/catalog-rag/internal/core/llm"
	coresearch "github.com/jinford/catalog-rag/internal/core/search"
	"github.com/jinford/catalog-rag/internal/infra/memory"
	"github.com/jinford/catalog-rag/internal/infra/ollama"
	"github.com/jinford/catalog-rag/internal/infra/openai"
	"github.com/jinford/catalog-rag/internal/infra/postgres"
	"github.com/jinford/catalog-rag/internal/infra/sqlite"
	"github.com/jinford/catalog-rag/internal/infra/tokens"
	"github.com/jinford/catalog-rag/internal/platform/config"
	"github.com/jinford/catalog-rag/internal/platform/database"
)

// ServiceContainer はアプリケーションの依存関係を保持する
type ServiceContainer struct {
	CatalogService *catalog.Service
	Seeder         *catalog.Seeder
	Coordinator    *coreingestion.Coordinator
	SearchService  *coresearch.SearchService
	AskService     *coreask.AskService
	Store          document.Store
	Repositories   catalog.Repositories

	cfg       *config.Config
	logger    *slog.Logger
	pool      *pgxpool.Pool
	closeFunc []func() error
}

type containerOptions struct {
	logger       *slog.Logger
	embedder     llm.Embedder
	generator    llm.Generator
	store        document.Store
	repositories *catalog.Repositories
	tokenCounter coreask.TokenCounter
	locker       coreingestion.BootstrapLocker
	rng          *rand.Rand
	pool         *pgxpool.Pool
}

// ContainerOption は ServiceContainer 構築時のオプション
type ContainerOption func(*containerOptions)

// WithContainerLogger はロガーを差し替える
func WithContainerLogger(logger *slog.Logger) ContainerOption {
	return func(opts *containerOptions) {
		opts.logger = logger
	}
}

// WithContainerEmbedder はカスタム Embedder を注入する
func WithContainerEmbedder(embedder llm.Embedder) ContainerOption {
	return func(opts *containerOptions) {
		opts.embedder = embedder
	}
}

// WithContainerGenerator はカスタム Generator を注入する
func WithContainerGenerator(generator llm.Generator) ContainerOption {
	return func(opts *containerOptions) {
		opts.generator = generator
	}
}

// WithContainerStore はベクトルストアを差し替える
func WithContainerStore(store document.Store) ContainerOption {
	return func(opts *containerOptions) {
		opts.store = store
	}
}

// WithContainerRepositories はカタログのリポジトリを差し替える
func WithContainerRepositories(repos catalog.Repositories) ContainerOption {
	return func(opts *containerOptions) {
		opts.repositories = &repos
	}
}

// WithContainerTokenCounter は TokenCounter を差し替える
func WithContainerTokenCounter(counter coreask.TokenCounter) ContainerOption {
	return func(opts *containerOptions) {
		opts.tokenCounter = counter
	}
}

// WithContainerBootstrapLocker はブートストラップのロックを差し替える
func WithContainerBootstrapLocker(locker coreingestion.BootstrapLocker) ContainerOption {
	return func(opts *containerOptions) {
		opts.locker = locker
	}
}

// WithContainerRand はダミーデータ生成に使う乱数源を差し替える
func WithContainerRand(rng *rand.Rand) ContainerOption {
	return func(opts *containerOptions) {
		opts.rng = rng
	}
}

// WithContainerPool は既存の接続プールを使う。所有権は呼び出し側に残る
func WithContainerPool(pool *pgxpool.Pool) ContainerOption {
	return func(opts *containerOptions) {
		opts.pool = pool
	}
}

// NewContainer は設定からコンテナを生成する
func NewContainer(ctx context.Context, cfg *config.Config, opts ...ContainerOption) (*ServiceContainer, error) {
	options := containerOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.Default()
	}

	c := &ServiceContainer{cfg: cfg, logger: options.logger}

	// PostgreSQL（pgvector またはカタログで使う場合のみ接続）
	var tx *database.TransactionProvider
	needsPool := (cfg.VectorStore == config.VectorStorePgvector && options.store == nil) ||
		(cfg.CatalogStore == config.CatalogStorePostgres && options.repositories == nil)
	if options.pool != nil {
		c.pool = options.pool
	} else if needsPool {
		pool, err := database.NewPool(ctx, database.ConnectionParams{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		c.pool = pool
		c.closeFunc = append(c.closeFunc, func() error { pool.Close(); return nil })
	}
	if c.pool != nil {
		tx = database.NewTransactionProvider(c.pool)
	}

	embedder, err := c.buildEmbedder(options)
	if err != nil {
		c.Close()
		return nil, err
	}
	generator, err := c.buildGenerator(options)
	if err != nil {
		c.Close()
		return nil, err
	}

	// Vector Store
	store, err := c.buildStore(options, tx, embedder.Dimension())
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Store = store

	// Catalog
	if options.repositories != nil {
		c.Repositories = *options.repositories
	} else if cfg.CatalogStore == config.CatalogStorePostgres {
		c.Repositories = postgres.NewCatalogRepository(tx).Repositories()
	} else {
		c.Repositories = memory.NewCatalog().Repositories()
	}

	// Ingestion Coordinator
	locker := options.locker
	if locker == nil && tx != nil {
		locker = postgres.NewBootstrapLocker(tx)
	}
	coordOpts := []coreingestion.CoordinatorOption{
		coreingestion.WithCoordinatorLogger(options.logger),
		coreingestion.WithConcurrency(cfg.Bootstrap.Concurrency),
		coreingestion.WithRateLimit(cfg.Bootstrap.RateLimit),
	}
	if locker != nil {
		coordOpts = append(coordOpts, coreingestion.WithBootstrapLocker(locker))
	}
	c.Coordinator = coreingestion.NewCoordinator(coreingestion.ReadersFrom(c.Repositories), store, embedder, coordOpts...)

	c.CatalogService = catalog.NewService(c.Repositories, c.Coordinator, catalog.WithServiceLogger(options.logger))

	rng := options.rng
	if rng == nil {
		now := uint64(time.Now().UnixNano())
		rng = rand.New(rand.NewPCG(now, now>>1))
	}
	c.Seeder = catalog.NewSeeder(c.CatalogService, rng, options.logger)

	// Search / Ask
	c.SearchService = coresearch.NewSearchService(store, embedder, coresearch.WithSearchLogger(options.logger))

	askOpts := []coreask.AskServiceOption{
		coreask.WithAskLogger(options.logger),
		coreask.WithTopK(cfg.Ask.TopK),
	}
	if cfg.Ask.MaxContextTokens > 0 {
		askOpts = append(askOpts, coreask.WithContextTokenLimit(c.buildTokenCounter(options), cfg.Ask.MaxContextTokens))
	}
	c.AskService = coreask.NewAskService(c.SearchService, generator, askOpts...)

	return c, nil
}

func (c *ServiceContainer) buildEmbedder(options containerOptions) (llm.Embedder, error) {
	if options.embedder != nil {
		return options.embedder, nil
	}
	cfg := c.cfg.LLM
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, openai.ErrAPIKeyNotSet
		}
		embedOpts := []openai.EmbedderOption{
			openai.WithEmbeddingModel(cfg.EmbeddingModel),
			openai.WithEmbeddingDimension(cfg.EmbeddingDimension),
			openai.WithEmbeddingTimeout(cfg.EmbeddingTimeout),
		}
		if cfg.OpenAIBaseURL != "" {
			embedOpts = append(embedOpts, openai.WithEmbeddingBaseURL(cfg.OpenAIBaseURL))
		}
		return openai.NewEmbedder(cfg.OpenAIAPIKey, embedOpts...), nil
	default:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:   cfg.OllamaBaseURL,
			Model:     cfg.EmbeddingModel,
			Timeout:   cfg.EmbeddingTimeout,
			Dimension: cfg.EmbeddingDimension,
		}), nil
	}
}

func (c *ServiceContainer) buildGenerator(options containerOptions) (llm.Generator, error) {
	if options.generator != nil {
		return options.generator, nil
	}
	cfg := c.cfg.LLM
	switch cfg.Provider {
	case config.ProviderOpenAI:
		clientOpts := []openai.ClientOption{
			openai.WithModel(cfg.GenerationModel),
			openai.WithTimeout(cfg.GenerationTimeout),
		}
		if cfg.OpenAIBaseURL != "" {
			clientOpts = append(clientOpts, openai.WithBaseURL(cfg.OpenAIBaseURL))
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenAI client: %w", err)
		}
		return client, nil
	default:
		return ollama.NewGenerator(ollama.GeneratorConfig{
			BaseURL: cfg.OllamaBaseURL,
			Model:   cfg.GenerationModel,
			Timeout: cfg.GenerationTimeout,
		}), nil
	}
}

func (c *ServiceContainer) buildStore(options containerOptions, tx *database.TransactionProvider, dimension int) (document.Store, error) {
	if options.store != nil {
		return options.store, nil
	}
	switch c.cfg.VectorStore {
	case config.VectorStorePgvector:
		return postgres.NewDocumentStore(tx, dimension), nil
	case config.VectorStoreSQLite:
		store, err := sqlite.Open(c.cfg.SQLitePath, dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite vector store: %w", err)
		}
		c.closeFunc = append(c.closeFunc, store.Close)
		return store, nil
	default:
		c.logger.Warn("using in-memory vector store, documents are lost on exit")
		return memory.NewStore(dimension), nil
	}
}

func (c *ServiceContainer) buildTokenCounter(options containerOptions) coreask.TokenCounter {
	if options.tokenCounter != nil {
		return options.tokenCounter
	}
	counter, err := tokens.NewCounter(tokens.DefaultEncoding)
	if err != nil {
		c.logger.Warn("falling back to estimated token counts", "error", err)
		return tokens.Estimator{}
	}
	return counter
}

// Migrate は PostgreSQL のスキーマを作成する。PostgreSQL を使わない構成では何もしない
func (c *ServiceContainer) Migrate(ctx context.Context) error {
	if c.pool == nil {
		return nil
	}
	if err := postgres.Migrate(ctx, c.pool, c.cfg.LLM.EmbeddingDimension); err != nil {
		return err
	}
	c.logger.Info("schema migrated", "dimension", c.cfg.LLM.EmbeddingDimension)
	return nil
}

// Close は内部リソースを解放する
func (c *ServiceContainer) Close() {
	if c == nil {
		return
	}
	for i := len(c.closeFunc) - 1; i >= 0; i-- {
		if err := c.closeFunc[i](); err != nil {
			c.Logger().Warn("failed to release resource", "error", err)
		}
	}
	c.closeFunc = nil
}

// Logger はロガーを返す
func (c *ServiceContainer) Logger() *slog.Logger {
	if c == nil || c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// Pool は PostgreSQL の接続プールを返す。使わない構成では nil
func (c *ServiceContainer) Pool() *pgxpool.Pool {
	if c == nil {
		return nil
	}
	return c.pool
}
