package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/core/llm"
)

// ErrEmptyQuery はクエリが空の場合のエラー
var ErrEmptyQuery = errors.New("query is required")

// SearchService は検索のビジネスロジックを提供する
type SearchService struct {
	store    document.Store
	embedder llm.Embedder
	logger   *slog.Logger
}

// SearchServiceOption は SearchService のオプション設定
type SearchServiceOption func(*SearchService)

// WithSearchLogger は SearchService にロガーを設定する
func WithSearchLogger(logger *slog.Logger) SearchServiceOption {
	return func(s *SearchService) {
		s.logger = logger
	}
}

// NewSearchService は新しいSearchServiceを作成する
func NewSearchService(store document.Store, embedder llm.Embedder, opts ...SearchServiceOption) *SearchService {
	svc := &SearchService{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// Search はクエリを埋め込み、類似度の高い順にドキュメントを返す
func (s *SearchService) Search(ctx context.Context, params Params) ([]*Result, error) {
	// バリデーション
	if strings.TrimSpace(params.Query) == "" {
		return nil, ErrEmptyQuery
	}
	if params.Kind != "" && !params.Kind.Valid() {
		return nil, fmt.Errorf("unknown record kind: %q", params.Kind)
	}

	// クエリをEmbeddingに変換
	queryVector, err := s.embedder.Embed(ctx, params.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// デフォルトのLimit設定
	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	// フィルタの準備
	conds := append([]document.Condition{}, document.ExcludeSystemFilter().Conditions...)
	if params.Kind != "" {
		conds = append(conds, document.Eq(document.MetaType, string(params.Kind)))
	}
	conds = append(conds, params.Filter.Conditions...)
	filter := document.Where(conds...)

	hits, err := s.store.NearestNeighbors(ctx, queryVector, limit, filter)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	s.logger.Debug("search completed", "limit", limit, "filter", filter.String(), "hits", len(hits))

	results := make([]*Result, 0, len(hits))
	for _, h := range hits {
		results = append(results, &Result{
			Content:    h.Document.Content,
			RecordType: h.Document.RecordType,
			RecordID:   h.Document.RecordID,
			Metadata:   h.Document.Metadata,
			Score:      h.Score,
		})
	}
	return results, nil
}
