package postgres

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jinford/catalog-rag/internal/core/document"
)

// UUIDToPgtype converts uuid.UUID to pgtype.UUID
func UUIDToPgtype(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

// PgtypeToUUID converts pgtype.UUID to uuid.UUID
func PgtypeToUUID(id pgtype.UUID) uuid.UUID {
	return id.Bytes
}

// StringToNullableText converts string to pgtype.Text (nullable)
func StringToNullableText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}

// Int64ToNullable converts int64 to pgtype.Int8 (0 is NULL)
func Int64ToNullable(v int64) pgtype.Int8 {
	if v == 0 {
		return pgtype.Int8{}
	}
	return pgtype.Int8{Int64: v, Valid: true}
}

// MetadataToJSON converts document.Metadata to JSONB bytes
func MetadataToJSON(m document.Metadata) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return b, nil
}

// JSONToMetadata converts JSONB bytes to document.Metadata
func JSONToMetadata(b []byte) (document.Metadata, error) {
	m := document.Metadata{}
	if len(b) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return m, nil
}

// FilterToSQL は document.Filter を WHERE 句に変換する。
// キーと値はどちらもプレースホルダで渡し、args の後ろに追加する。
func FilterToSQL(f document.Filter, args []any) (string, []any) {
	if f.IsEmpty() {
		return "TRUE", args
	}
	clauses := make([]string, 0, len(f.Conditions))
	for _, c := range f.Conditions {
		args = append(args, c.Key, c.Value)
		keyPos, valPos := len(args)-1, len(args)
		switch c.Op {
		case document.OpNe:
			clauses = append(clauses, fmt.Sprintf("(metadata->>$%d::text) IS DISTINCT FROM $%d::text", keyPos, valPos))
		default:
			clauses = append(clauses, fmt.Sprintf("metadata->>$%d::text = $%d::text", keyPos, valPos))
		}
	}
	return strings.Join(clauses, " AND "), args
}
