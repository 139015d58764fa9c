package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jinford/catalog-rag/internal/core/document"
	"github.com/jinford/catalog-rag/internal/platform/database"
	pgvector "github.com/pgvector/pgvector-go"
)

// DocumentStore は pgvector を使った document.Store 実装
type DocumentStore struct {
	db        DBTX
	tx        *database.TransactionProvider
	dimension int
}

var _ document.Store = (*DocumentStore)(nil)

// NewDocumentStore は新しい DocumentStore を作成する
func NewDocumentStore(tx *database.TransactionProvider, dimension int) *DocumentStore {
	return &DocumentStore{db: tx.Pool(), tx: tx, dimension: dimension}
}

const upsertDocumentSQL = `
INSERT INTO documents (id, content, embedding, metadata, record_type, record_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
ON CONFLICT (record_type, record_id) WHERE record_id IS NOT NULL
DO UPDATE SET content = EXCLUDED.content,
              embedding = EXCLUDED.embedding,
              metadata = EXCLUDED.metadata,
              updated_at = EXCLUDED.updated_at`

const insertDocumentSQL = `
INSERT INTO documents (id, content, embedding, metadata, record_type, record_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

const selectDocumentColumns = `id, content, embedding, metadata, record_type, record_id, created_at`

// Add はドキュメントを1トランザクションで保存する。レコードキーが重複する場合は置き換える
func (s *DocumentStore) Add(ctx context.Context, docs []*document.Document) error {
	for _, d := range docs {
		if err := s.checkVector(d.Vector); err != nil {
			return err
		}
	}
	if len(docs) == 0 {
		return nil
	}

	_, err := database.Transact(ctx, s.tx, func(tx pgx.Tx) (struct{}, error) {
		batch := &pgx.Batch{}
		now := time.Now().UTC()
		for _, d := range docs {
			meta, err := MetadataToJSON(d.Metadata)
			if err != nil {
				return struct{}{}, err
			}
			id := d.ID
			if id == uuid.Nil {
				id = uuid.New()
			}
			created := d.CreatedAt
			if created.IsZero() {
				created = now
			}

			query := insertDocumentSQL
			if _, keyed := d.Key(); keyed {
				query = upsertDocumentSQL
			}
			batch.Queue(query,
				UUIDToPgtype(id),
				d.Content,
				pgvector.NewVector(d.Vector),
				meta,
				StringToNullableText(d.RecordType),
				Int64ToNullable(d.RecordID),
				created,
			)
		}

		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return struct{}{}, fmt.Errorf("failed to insert documents: %w", err)
		}
		return struct{}{}, nil
	})
	return err
}

// NearestNeighbors はコサイン距離の昇順（類似度の降順）に最大 k 件を返す。同距離は挿入順
func (s *DocumentStore) NearestNeighbors(ctx context.Context, vector []float32, k int, filter document.Filter) ([]*document.ScoredDocument, error) {
	if k < 1 {
		return nil, document.ErrInvalidK
	}
	if err := s.checkVector(vector); err != nil {
		return nil, err
	}

	where, args := FilterToSQL(filter, []any{pgvector.NewVector(vector), k})
	query := fmt.Sprintf(`
SELECT %s, 1 - (embedding <=> $1) AS score
FROM documents
WHERE %s
ORDER BY embedding <=> $1, seq
LIMIT $2`, selectDocumentColumns, where)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search documents: %w", err)
	}
	defer rows.Close()

	var results []*document.ScoredDocument
	for rows.Next() {
		var score float64
		doc, err := scanDocument(rows, &score)
		if err != nil {
			return nil, err
		}
		results = append(results, &document.ScoredDocument{Document: doc, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return results, nil
}

// FindByFilter は条件に一致するドキュメントを挿入順に返す
func (s *DocumentStore) FindByFilter(ctx context.Context, filter document.Filter, limit int) ([]*document.Document, error) {
	where, args := FilterToSQL(filter, nil)
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE %s ORDER BY seq`, selectDocumentColumns, where)
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer rows.Close()

	var docs []*document.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	return docs, nil
}

// Count は条件に一致するドキュメント数を返す
func (s *DocumentStore) Count(ctx context.Context, filter document.Filter) (int, error) {
	where, args := FilterToSQL(filter, nil)
	var n int
	if err := s.db.QueryRow(ctx, "SELECT count(*) FROM documents WHERE "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return n, nil
}

func (s *DocumentStore) checkVector(v []float32) error {
	if len(v) == 0 {
		return document.ErrMissingVector
	}
	if s.dimension > 0 && len(v) != s.dimension {
		return fmt.Errorf("%w: got %d, want %d", document.ErrDimensionMismatch, len(v), s.dimension)
	}
	return nil
}

func scanDocument(row pgx.Row, extra ...any) (*document.Document, error) {
	var (
		id         pgtype.UUID
		content    string
		embedding  pgvector.Vector
		meta       []byte
		recordType pgtype.Text
		recordID   pgtype.Int8
		createdAt  time.Time
	)
	dest := append([]any{&id, &content, &embedding, &meta, &recordType, &recordID, &createdAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, fmt.Errorf("failed to scan document: %w", err)
	}

	metadata, err := JSONToMetadata(meta)
	if err != nil {
		return nil, err
	}
	return &document.Document{
		ID:         PgtypeToUUID(id),
		Content:    content,
		Vector:     embedding.Slice(),
		Metadata:   metadata,
		RecordType: recordType.String,
		RecordID:   recordID.Int64,
		CreatedAt:  createdAt,
	}, nil
}
