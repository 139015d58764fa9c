package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/infra/vecmath"
)

// Store はプロセス内で完結する document.Store 実装。
// 再起動で内容は失われるため、開発とテスト向け。
type Store struct {
	mu        sync.RWMutex
	dimension int
	docs      []*document.Document
	byKey     map[document.RecordKey]int
	now       func() time.Time
}

var _ document.Store = (*Store)(nil)

// NewStore は新しい Store を作成する。dimension が 0 の場合は次元数を検証しない
func NewStore(dimension int) *Store {
	return &Store{
		dimension: dimension,
		byKey:     make(map[document.RecordKey]int),
		now:       time.Now,
	}
}

// Add はドキュメントを保存する。同じレコードキーの既存ドキュメントは挿入位置を保ったまま置き換える
func (s *Store) Add(ctx context.Context, docs []*document.Document) error {
	for _, d := range docs {
		if err := s.checkVector(d.Vector); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range docs {
		c := clone(d)
		if c.CreatedAt.IsZero() {
			c.CreatedAt = s.now()
		}
		if key, ok := c.Key(); ok {
			if idx, exists := s.byKey[key]; exists {
				c.ID = s.docs[idx].ID
				s.docs[idx] = c
				continue
			}
			s.byKey[key] = len(s.docs)
		}
		if c.ID == uuid.Nil {
			c.ID = uuid.New()
		}
		s.docs = append(s.docs, c)
	}
	return nil
}

// NearestNeighbors はコサイン類似度の高い順に最大 k 件を返す
func (s *Store) NearestNeighbors(ctx context.Context, vector []float32, k int, filter document.Filter) ([]*document.ScoredDocument, error) {
	if k < 1 {
		return nil, document.ErrInvalidK
	}
	if err := s.checkVector(vector); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := s.matching(filter)
	s.mu.RUnlock()

	ranked := vecmath.TopK(candidates, func(d *document.Document) []float32 { return d.Vector }, vector, k)
	results := make([]*document.ScoredDocument, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, &document.ScoredDocument{Document: clone(r.Item), Score: r.Score})
	}
	return results, nil
}

// FindByFilter は条件に一致するドキュメントを挿入順に返す
func (s *Store) FindByFilter(ctx context.Context, filter document.Filter, limit int) ([]*document.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.matching(filter)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	out := make([]*document.Document, 0, len(matched))
	for _, d := range matched {
		out = append(out, clone(d))
	}
	return out, nil
}

// Count は条件に一致するドキュメント数を返す
func (s *Store) Count(ctx context.Context, filter document.Filter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matching(filter)), nil
}

// matching は s.mu を保持した状態で呼び出すこと
func (s *Store) matching(filter document.Filter) []*document.Document {
	out := make([]*document.Document, 0, len(s.docs))
	for _, d := range s.docs {
		if filter.Match(d.Metadata) {
			out = append(out, d)
		}
	}
	return out
}

func (s *Store) checkVector(v []float32) error {
	if len(v) == 0 {
		return document.ErrMissingVector
	}
	if s.dimension > 0 && len(v) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", document.ErrDimensionMismatch, len(v), s.dimension)
	}
	return nil
}

func clone(d *document.Document) *document.Document {
	c := *d
	c.Vector = slices.Clone(d.Vector)
	c.Metadata = maps.Clone(d.Metadata)
	return &c
}
