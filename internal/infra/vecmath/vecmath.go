// Package vecmath はSQL側で距離計算を行わないストア向けの類似度計算
package vecmath

import (
	"math"
	"slices"
)

// Cosine はコサイン類似度を返す。長さが異なる、またはゼロベクトルの場合は 0
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Scored は類似度付きの候補
type Scored[T any] struct {
	Item  T
	Score float64
}

// TopK は候補を類似度の降順に並べて上位 k 件を返す。
// 候補は挿入順で渡すこと。同点の場合はその順序を保つ。
func TopK[T any](items []T, vector func(T) []float32, query []float32, k int) []Scored[T] {
	if k < 1 || len(items) == 0 {
		return nil
	}
	scored := make([]Scored[T], 0, len(items))
	for _, it := range items {
		scored = append(scored, Scored[T]{Item: it, Score: Cosine(vector(it), query)})
	}
	slices.SortStableFunc(scored, func(a, b Scored[T]) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
