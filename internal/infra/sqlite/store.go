// Package sqlite は SQLite をバックエンドにした document.Store を提供する。
// ベクトルは float32 のリトルエンディアン BLOB として保存し、類似度はアプリケーション側で計算する。
package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/infra/vecmath"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS documents (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    content     TEXT NOT NULL,
    embedding   BLOB NOT NULL,
    metadata    TEXT NOT NULL DEFAULT '{}',
    record_type TEXT,
    record_id   INTEGER,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS documents_record_key_idx ON documents (record_type, record_id);
`

const upsertSQL = `
INSERT INTO documents (id, content, embedding, metadata, record_type, record_id, created_at, updated_at)
VALUES (:id, :content, :embedding, :metadata, :record_type, :record_id, :created_at, :created_at)
ON CONFLICT (record_type, record_id) DO UPDATE SET
    content = excluded.content,
    embedding = excluded.embedding,
    metadata = excluded.metadata,
    updated_at = excluded.updated_at`

// Store は SQLite を使った document.Store 実装
type Store struct {
	db        *sqlx.DB
	dimension int
	now       func() time.Time
}

var _ document.Store = (*Store)(nil)

type row struct {
	Seq        int64          `db:"seq"`
	ID         string         `db:"id"`
	Content    string         `db:"content"`
	Embedding  []byte         `db:"embedding"`
	Metadata   string         `db:"metadata"`
	RecordType sql.NullString `db:"record_type"`
	RecordID   sql.NullInt64  `db:"record_id"`
	CreatedAt  int64          `db:"created_at"`
	UpdatedAt  int64          `db:"updated_at"`
}

// Open は path のデータベースを開いてスキーマを作成する。path が ":memory:" の場合はメモリ上に作成する
func Open(path string, dimension int) (*Store, error) {
	dsn := ":memory:"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sqlx.Connect("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	// :memory: は接続ごとに別データベースになるため1接続に固定する
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return &Store{db: db, dimension: dimension, now: time.Now}, nil
}

// Close はデータベース接続を閉じる
func (s *Store) Close() error {
	return s.db.Close()
}

// Add はドキュメントを1トランザクションで保存する。レコードキーが重複する場合は挿入位置を保ったまま置き換える
func (s *Store) Add(ctx context.Context, docs []*document.Document) error {
	for _, d := range docs {
		if err := s.checkVector(d.Vector); err != nil {
			return err
		}
	}
	if len(docs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := s.now().UTC()
	for _, d := range docs {
		r, err := toRow(d, now)
		if err != nil {
			return err
		}
		if _, err := tx.NamedExecContext(ctx, upsertSQL, r); err != nil {
			return fmt.Errorf("saving document: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing documents: %w", err)
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

	candidates, err := s.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	ranked := vecmath.TopK(candidates, func(d *document.Document) []float32 { return d.Vector }, vector, k)
	results := make([]*document.ScoredDocument, 0, len(ranked))
	for _, r := range ranked {
		results = append(results, &document.ScoredDocument{Document: r.Item, Score: r.Score})
	}
	return results, nil
}

// FindByFilter は条件に一致するドキュメントを挿入順に返す
func (s *Store) FindByFilter(ctx context.Context, filter document.Filter, limit int) ([]*document.Document, error) {
	matched, err := s.matching(ctx, filter)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Count は条件に一致するドキュメント数を返す
func (s *Store) Count(ctx context.Context, filter document.Filter) (int, error) {
	if filter.IsEmpty() {
		var n int
		if err := s.db.GetContext(ctx, &n, `SELECT count(*) FROM documents`); err != nil {
			return 0, fmt.Errorf("counting documents: %w", err)
		}
		return n, nil
	}
	matched, err := s.matching(ctx, filter)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

// matching は全行を挿入順に読み出し、メタデータ条件で絞り込む。
// 条件の評価は document.Filter.Match に任せ、他のストアと同じ比較規則を使う。
func (s *Store) matching(ctx context.Context, filter document.Filter) ([]*document.Document, error) {
	var rows []row
	if err := s.db.SelectContext(ctx, &rows, `SELECT * FROM documents ORDER BY seq`); err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	out := make([]*document.Document, 0, len(rows))
	for _, r := range rows {
		d, err := fromRow(r)
		if err != nil {
			return nil, err
		}
		if filter.Match(d.Metadata) {
			out = append(out, d)
		}
	}
	return out, nil
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

func toRow(d *document.Document, now time.Time) (row, error) {
	meta := d.Metadata
	if meta == nil {
		meta = document.Metadata{}
	}
	b, err := json.Marshal(meta)
	if err != nil {
		return row{}, fmt.Errorf("marshaling metadata: %w", err)
	}

	id := d.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	created := d.CreatedAt
	if created.IsZero() {
		created = now
	}

	r := row{
		ID:        id.String(),
		Content:   d.Content,
		Embedding: float32SliceToBytes(d.Vector),
		Metadata:  string(b),
		CreatedAt: created.UnixNano(),
	}
	if key, ok := d.Key(); ok {
		r.RecordType = sql.NullString{String: key.Type, Valid: true}
		r.RecordID = sql.NullInt64{Int64: key.ID, Valid: true}
	}
	return r, nil
}

func fromRow(r row) (*document.Document, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("parsing document id %q: %w", r.ID, err)
	}
	meta := document.Metadata{}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
			return nil, fmt.Errorf("unmarshaling metadata: %w", err)
		}
	}
	vec, err := bytesToFloat32Slice(r.Embedding)
	if err != nil {
		return nil, err
	}
	return &document.Document{
		ID:         id,
		Content:    r.Content,
		Vector:     vec,
		Metadata:   meta,
		RecordType: r.RecordType.String,
		RecordID:   r.RecordID.Int64,
		CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
	}, nil
}

func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

var errCorruptVector = errors.New("corrupt embedding blob")

func bytesToFloat32Slice(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", errCorruptVector, len(data))
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats, nil
}
