package ingestion

import (
	"context"
	"sync"
)

// BootstrapLocker はブートストラップを単一の実行に制限する。
// 複数プロセスから起動される場合はプロセス間で共有されるロックを使うこと。
type BootstrapLocker interface {
	// WithLock はロックを取得して fn を実行し、終了後に解放する
	WithLock(ctx context.Context, fn func(ctx context.Context) error) error
}

// LocalLocker はプロセス内のみで有効な BootstrapLocker
type LocalLocker struct {
	mu sync.Mutex
}

// NewLocalLocker は新しい LocalLocker を作成する
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

// WithLock はミューテックスを取得して fn を実行する
func (l *LocalLocker) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}
