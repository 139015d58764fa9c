package catalog

import "errors"

var (
	// ErrNotFound はレコードが存在しない場合のエラー
	ErrNotFound = errors.New("record not found")

	// ErrInvalidPurchase は明細のない購入など、不正な購入リクエスト
	ErrInvalidPurchase = errors.New("invalid purchase")

	// ErrInvalidRecord は必須項目の欠けたレコード
	ErrInvalidRecord = errors.New("invalid record")
)
