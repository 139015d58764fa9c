package document

import (
	"fmt"
	"strconv"
	"strings"
)

// Op は条件の比較演算子
type Op string

const (
	OpEq Op = "="
	OpNe Op = "!="
)

// Condition はメタデータの1キーに対する条件。値は文字列表現で比較する（JSONB の ->> と同じ）
type Condition struct {
	Key   string
	Op    Op
	Value string
}

// Filter は条件の論理積。条件がない場合は全件に一致する
type Filter struct {
	Conditions []Condition
}

// Where は条件から Filter を作成する
func Where(conds ...Condition) Filter {
	return Filter{Conditions: conds}
}

// Eq はキーの値が v と等しい条件
func Eq(key string, v any) Condition {
	return Condition{Key: key, Op: OpEq, Value: MetadataString(v)}
}

// Ne はキーの値が v と異なる条件。キーが存在しない場合も一致する
func Ne(key string, v any) Condition {
	return Condition{Key: key, Op: OpNe, Value: MetadataString(v)}
}

// IsEmpty は条件を持たないかを返す
func (f Filter) IsEmpty() bool {
	return len(f.Conditions) == 0
}

// Match はメタデータがすべての条件を満たすかを判定する
func (f Filter) Match(m Metadata) bool {
	for _, c := range f.Conditions {
		raw, ok := m[c.Key]
		switch c.Op {
		case OpEq:
			if !ok || MetadataString(raw) != c.Value {
				return false
			}
		case OpNe:
			if ok && MetadataString(raw) == c.Value {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func (f Filter) String() string {
	parts := make([]string, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		parts = append(parts, fmt.Sprintf("%s %s %q", c.Key, c.Op, c.Value))
	}
	return strings.Join(parts, " AND ")
}

// MetadataString はメタデータ値を比較用の文字列に変換する。
// JSON 経由で float64 になった整数も同じ表現になる。
func MetadataString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", x)
	}
}
