package postgres

import (
	"context"
	"crypto/sha256"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jinford/catalog-rag/internal/core/ingestion"
	"github.com/jinford/catalog-rag/internal/platform/database"
)

// AdvisoryLocker は PostgreSQL のアドバイザリロックで実行を直列化する。
// 同じデータベースを共有する複数プロセスの間で有効。
type AdvisoryLocker struct {
	tx     *database.TransactionProvider
	lockID int64
}

var _ ingestion.BootstrapLocker = (*AdvisoryLocker)(nil)

// NewAdvisoryLocker は name から導出したロックIDを使う AdvisoryLocker を作成する
func NewAdvisoryLocker(tx *database.TransactionProvider, name ...string) *AdvisoryLocker {
	return &AdvisoryLocker{tx: tx, lockID: GenerateLockID(name...)}
}

// NewBootstrapLocker はブートストラップ用の AdvisoryLocker を作成する
func NewBootstrapLocker(tx *database.TransactionProvider) *AdvisoryLocker {
	return NewAdvisoryLocker(tx, "catalog-rag", "bootstrap")
}

// LockID はロックIDを返す
func (l *AdvisoryLocker) LockID() int64 {
	return l.lockID
}

// WithLock はトランザクションスコープのロック（pg_advisory_xact_lock）を取得して fn を実行する。
// ロックはトランザクション終了時に自動的に解放される。
func (l *AdvisoryLocker) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := database.Transact(ctx, l.tx, func(tx pgx.Tx) (struct{}, error) {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", l.lockID); err != nil {
			return struct{}{}, fmt.Errorf("failed to acquire advisory lock: %w", err)
		}
		return struct{}{}, fn(ctx)
	})
	return err
}

// GenerateLockID は文字列からロックIDを生成する
func GenerateLockID(parts ...string) int64 {
	h := sha256.New()
	for _, part := range parts {
		h.Write([]byte(part))
	}
	hash := h.Sum(nil)

	// ハッシュの最初の8バイトをint64として使用
	var id int64
	for i := range 8 {
		id = (id << 8) | int64(hash[i])
	}
	return id
}
