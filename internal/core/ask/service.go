package ask

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jinford/catalog-rag/internal/core/llm"
	"github.com/jinford/catalog-rag/internal/core/search"
)

// DefaultTopK は検索件数のデフォルト値
const DefaultTopK = 5

// AskService は質問応答のビジネスロジックを提供する
type AskService struct {
	searchService *search.SearchService
	generator     llm.Generator
	counter       TokenCounter
	topK          int
	maxTokens     int
	logger        *slog.Logger
}

type AskServiceOption func(*AskService)

// WithAskLogger は AskService にロガーを設定する
func WithAskLogger(logger *slog.Logger) AskServiceOption {
	return func(s *AskService) {
		s.logger = logger
	}
}

// WithTopK は検索件数のデフォルト値を上書きする
func WithTopK(k int) AskServiceOption {
	return func(s *AskService) {
		s.topK = k
	}
}

// WithContextTokenLimit はコンテキストのトークン上限を設定する。
// 上限を超える場合は順位の低いドキュメントから除外する。
func WithContextTokenLimit(counter TokenCounter, maxTokens int) AskServiceOption {
	return func(s *AskService) {
		s.counter = counter
		s.maxTokens = maxTokens
	}
}

// NewAskService は新しいAskServiceを作成する
func NewAskService(
	searchService *search.SearchService,
	generator llm.Generator,
	opts ...AskServiceOption,
) *AskService {
	svc := &AskService{
		searchService: searchService,
		generator:     generator,
		topK:          DefaultTopK,
		logger:        slog.Default(),
	}

	for _, opt := range opts {
		opt(svc)
	}

	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	if svc.topK <= 0 {
		svc.topK = DefaultTopK
	}

	return svc
}

// Answer は質問文だけを受け取り回答テキストを返す
func (s *AskService) Answer(ctx context.Context, query string) (string, error) {
	result, err := s.Ask(ctx, AskParams{Query: query})
	if err != nil {
		return "", err
	}
	return result.Answer, nil
}

// Ask は質問に対してRAGベースで回答を生成する
func (s *AskService) Ask(ctx context.Context, params AskParams) (*AskResult, error) {
	// 1. バリデーション
	if strings.TrimSpace(params.Query) == "" {
		return nil, ErrEmptyQuery
	}

	topK := params.TopK
	if topK <= 0 {
		topK = s.topK
	}

	// 2. 類似ドキュメントを検索（管理用ドキュメントは除外される）
	hits, err := s.searchService.Search(ctx, search.Params{
		Query: params.Query,
		Limit: topK,
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	// 3. 該当なしの場合は生成を呼ばずに固定の回答を返す
	if len(hits) == 0 {
		s.logger.Info("no relevant documents found", "topK", topK)
		return &AskResult{Answer: NoInformationAnswer, Sources: []SourceReference{}}, nil
	}

	hits = s.fitToBudget(hits)

	// 4. プロンプト構築
	contents := make([]string, 0, len(hits))
	sources := make([]SourceReference, 0, len(hits))
	for _, h := range hits {
		contents = append(contents, h.Content)
		sources = append(sources, SourceReference{
			RecordType: h.RecordType,
			RecordID:   h.RecordID,
			Score:      h.Score,
		})
	}
	prompt := BuildAskPrompt(params.Query, BuildContext(contents))

	// 5. LLMで回答生成
	s.logger.Info("generating answer with LLM", "documents", len(hits))
	answer, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer: %w", err)
	}

	s.logger.Info("ask completed successfully",
		"answerLength", len(answer),
		"sources", len(sources),
	)

	return &AskResult{
		Answer:  answer,
		Sources: sources,
	}, nil
}

// fitToBudget はトークン上限に収まるまで順位の低い結果を除外する。最上位の1件は常に残す
func (s *AskService) fitToBudget(hits []*search.Result) []*search.Result {
	if s.counter == nil || s.maxTokens <= 0 {
		return hits
	}

	total := 0
	for i, h := range hits {
		total += s.counter.CountTokens(h.Content)
		if i > 0 {
			total += s.counter.CountTokens(ContextSeparator)
		}
		if total > s.maxTokens && i > 0 {
			s.logger.Debug("context truncated to token budget", "kept", i, "dropped", len(hits)-i)
			return hits[:i]
		}
	}
	return hits
}
