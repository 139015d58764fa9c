package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/core/llm"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// DefaultConcurrency はブートストラップ時の埋め込み並列数のデフォルト値
const DefaultConcurrency = 4

// Coordinator はカタログレコードとベクトルストアの同期を管理する。
// 初回ブートストラップ（フラグで一度きり）と、レコード単位の差分アップサートを提供する。
type Coordinator struct {
	readers     Readers
	store       document.Store
	embedder    llm.Embedder
	locker      BootstrapLocker
	concurrency int
	limiter     *rate.Limiter
	logger      *slog.Logger
}

var _ catalog.Indexer = (*Coordinator)(nil)

// CoordinatorOption は Coordinator のオプション設定
type CoordinatorOption func(*Coordinator)

// WithCoordinatorLogger は Coordinator にロガーを設定する
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// WithBootstrapLocker はブートストラップの排他制御を差し替える
func WithBootstrapLocker(locker BootstrapLocker) CoordinatorOption {
	return func(c *Coordinator) {
		c.locker = locker
	}
}

// WithConcurrency はブートストラップ時の埋め込み並列数を設定する
func WithConcurrency(n int) CoordinatorOption {
	return func(c *Coordinator) {
		c.concurrency = n
	}
}

// WithRateLimit は埋め込みAPIの呼び出しを毎秒 perSecond 回に制限する。0 以下は無制限
func WithRateLimit(perSecond float64) CoordinatorOption {
	return func(c *Coordinator) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewCoordinator は新しい Coordinator を作成する
func NewCoordinator(readers Readers, store document.Store, embedder llm.Embedder, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		readers:     readers,
		store:       store,
		embedder:    embedder,
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.locker == nil {
		c.locker = NewLocalLocker()
	}
	if c.concurrency < 1 {
		c.concurrency = 1
	}
	return c
}

// IsBootstrapped はインジェスト完了フラグが存在するかを返す
func (c *Coordinator) IsBootstrapped(ctx context.Context) (bool, error) {
	flags, err := c.store.FindByFilter(ctx, document.IngestionFlagFilter(), 1)
	if err != nil {
		return false, fmt.Errorf("failed to look up ingestion flag: %w", err)
	}
	return len(flags) > 0, nil
}

// Bootstrap はフラグが存在しない場合に全レコードをインデックス化し、フラグを書き込む。
// 個々のレコードの失敗はログに残してスキップする。次元数の不一致は設定ミスとして中断する。
func (c *Coordinator) Bootstrap(ctx context.Context) (*BootstrapResult, error) {
	var result *BootstrapResult
	err := c.locker.WithLock(ctx, func(ctx context.Context) error {
		var err error
		result, err = c.bootstrap(ctx)
		return err
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func (c *Coordinator) bootstrap(ctx context.Context) (*BootstrapResult, error) {
	start := time.Now()

	done, err := c.IsBootstrapped(ctx)
	if err != nil {
		return nil, err
	}
	if done {
		c.logger.Info("initial ingestion already completed, skipping bootstrap")
		return &BootstrapResult{Skipped: true}, nil
	}

	c.logger.Info("starting initial ingestion")

	records, err := c.listAll(ctx)
	if err != nil {
		return nil, err
	}
	result := &BootstrapResult{Records: len(records)}

	docs := make([]*document.Document, 0, len(records))
	for _, rec := range records {
		doc, err := document.Format(rec)
		if err != nil {
			c.logger.Warn("skipping record with data quality error",
				"kind", rec.Kind(),
				"id", rec.RecordID(),
				"error", err,
			)
			result.DataQualityFails++
			continue
		}
		docs = append(docs, doc)
	}

	embedded, failed, err := c.embedAll(ctx, docs)
	if err != nil {
		return nil, err
	}
	result.EmbeddingFails = failed

	if len(embedded) > 0 {
		if err := c.store.Add(ctx, embedded); err != nil {
			return nil, fmt.Errorf("failed to store documents: %w", err)
		}
	}
	result.Indexed = len(embedded)

	if err := c.writeFlag(ctx); err != nil {
		return nil, err
	}

	result.Duration = time.Since(start)
	c.logger.Info("initial ingestion completed",
		"records", result.Records,
		"indexed", result.Indexed,
		"data_quality_fails", result.DataQualityFails,
		"embedding_fails", result.EmbeddingFails,
		"duration", result.Duration,
	)
	return result, nil
}

// embedAll はドキュメントを並列に埋め込む。失敗したドキュメントは除外し、入力順を保って返す
func (c *Coordinator) embedAll(ctx context.Context, docs []*document.Document) ([]*document.Document, int, error) {
	vectors := make([][]float32, len(docs))
	var failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, doc := range docs {
		g.Go(func() error {
			vec, err := c.embed(gctx, doc.Content)
			if err != nil {
				if isFatal(gctx, err) {
					return err
				}
				c.logger.Warn("skipping record after embedding failure",
					"kind", doc.RecordType,
					"id", doc.RecordID,
					"error", err,
				)
				failed.Add(1)
				return nil
			}
			vectors[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("bootstrap aborted: %w", err)
	}

	embedded := make([]*document.Document, 0, len(docs))
	for i, doc := range docs {
		if vectors[i] == nil {
			continue
		}
		doc.Vector = vectors[i]
		embedded = append(embedded, doc)
	}
	return embedded, int(failed.Load()), nil
}

func (c *Coordinator) writeFlag(ctx context.Context) error {
	flag := document.NewIngestionFlag()
	vec, err := c.embed(ctx, flag.Content)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFlagWrite, err)
	}
	flag.Vector = vec
	if err := c.store.Add(ctx, []*document.Document{flag}); err != nil {
		return fmt.Errorf("%w: %w", ErrFlagWrite, err)
	}
	return nil
}

// Upsert は指定レコードを現在の状態で読み直し、ドキュメントを更新する。
// ブートストラップの状態に関係なく動作する。
func (c *Coordinator) Upsert(ctx context.Context, kind catalog.Kind, id int64) error {
	rec, err := c.find(ctx, kind, id)
	if err != nil {
		return err
	}
	return c.UpsertRecord(ctx, rec)
}

// UpsertRecord はレコードをドキュメント化して埋め込み、レコードキーで保存する
func (c *Coordinator) UpsertRecord(ctx context.Context, rec catalog.Record) error {
	doc, err := document.Format(rec)
	if err != nil {
		return err
	}
	vec, err := c.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed %s %d: %w", rec.Kind(), rec.RecordID(), err)
	}
	doc.Vector = vec
	if err := c.store.Add(ctx, []*document.Document{doc}); err != nil {
		return fmt.Errorf("failed to store %s %d: %w", rec.Kind(), rec.RecordID(), err)
	}

	c.logger.Debug("document upserted", "kind", rec.Kind(), "id", rec.RecordID())
	return nil
}

// Reindex は指定種別の全レコードを差分アップサートで再インデックス化する。
// 埋め込みモデルを変更した後などに使う。
func (c *Coordinator) Reindex(ctx context.Context, kind catalog.Kind) (*ReindexResult, error) {
	records, err := c.list(ctx, kind)
	if err != nil {
		return nil, err
	}

	result := &ReindexResult{Kind: kind}
	for _, rec := range records {
		if err := c.UpsertRecord(ctx, rec); err != nil {
			if isFatal(ctx, err) {
				return result, err
			}
			c.logger.Warn("failed to reindex record", "kind", kind, "id", rec.RecordID(), "error", err)
			result.Failed++
			continue
		}
		result.Indexed++
	}

	c.logger.Info("reindex completed", "kind", kind, "indexed", result.Indexed, "failed", result.Failed)
	return result, nil
}

func (c *Coordinator) embed(ctx context.Context, text string) ([]float32, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	vec, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if err := llm.CheckDimension(vec, c.embedder.Dimension()); err != nil {
		return nil, err
	}
	return vec, nil
}

func (c *Coordinator) listAll(ctx context.Context) ([]catalog.Record, error) {
	var records []catalog.Record
	for _, kind := range catalog.Kinds {
		recs, err := c.list(ctx, kind)
		if err != nil {
			return nil, err
		}
		records = append(records, recs...)
	}
	return records, nil
}

func (c *Coordinator) list(ctx context.Context, kind catalog.Kind) ([]catalog.Record, error) {
	switch kind {
	case catalog.KindProduct:
		return listRecords(ctx, c.readers.Products, kind)
	case catalog.KindCustomer:
		return listRecords(ctx, c.readers.Customers, kind)
	case catalog.KindPurchase:
		return listRecords(ctx, c.readers.Purchases, kind)
	default:
		return nil, fmt.Errorf("unknown record kind: %q", kind)
	}
}

func (c *Coordinator) find(ctx context.Context, kind catalog.Kind, id int64) (catalog.Record, error) {
	switch kind {
	case catalog.KindProduct:
		return findRecord(ctx, c.readers.Products, kind, id)
	case catalog.KindCustomer:
		return findRecord(ctx, c.readers.Customers, kind, id)
	case catalog.KindPurchase:
		return findRecord(ctx, c.readers.Purchases, kind, id)
	default:
		return nil, fmt.Errorf("unknown record kind: %q", kind)
	}
}

func listRecords[T catalog.Record](ctx context.Context, r catalog.Reader[T], kind catalog.Kind) ([]catalog.Record, error) {
	items, err := r.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", kind, err)
	}
	records := make([]catalog.Record, 0, len(items))
	for _, it := range items {
		records = append(records, it)
	}
	return records, nil
}

func findRecord[T catalog.Record](ctx context.Context, r catalog.Reader[T], kind catalog.Kind, id int64) (catalog.Record, error) {
	found, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to find %s %d: %w", kind, id, err)
	}
	rec, ok := found.Get()
	if !ok {
		return nil, fmt.Errorf("%w: %s %d", catalog.ErrNotFound, kind, id)
	}
	return rec, nil
}

// isFatal はバッチ全体を中断すべきエラーかを判定する
func isFatal(ctx context.Context, err error) bool {
	return errors.Is(err, llm.ErrDimensionMismatch) || ctx.Err() != nil
}
