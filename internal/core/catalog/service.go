package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/mo"
)

// Indexer はレコード変更後に対応するドキュメントを更新する。
// 失敗してもレコードの書き込みは取り消さない。
type Indexer interface {
	Upsert(ctx context.Context, kind Kind, id int64) error
}

// Service はカタログレコードの CRUD を提供し、作成・更新時に差分インデックスを起動する
type Service struct {
	repos   Repositories
	indexer Indexer
	now     func() time.Time
	logger  *slog.Logger
}

// ServiceOption は Service のオプション設定
type ServiceOption func(*Service)

// WithServiceLogger は Service にロガーを設定する
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock は購入日時の採番に使う時計を差し替える
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService は新しい Service を作成する。indexer が nil の場合はインデックス更新を行わない。
func NewService(repos Repositories, indexer Indexer, opts ...ServiceOption) *Service {
	svc := &Service{
		repos:   repos,
		indexer: indexer,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	if svc.logger == nil {
		svc.logger = slog.Default()
	}
	return svc
}

// === Product ===

// ListProducts は全商品を返す
func (s *Service) ListProducts(ctx context.Context) ([]*Product, error) {
	products, err := s.repos.Products.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return products, nil
}

// GetProduct は商品を取得する
func (s *Service) GetProduct(ctx context.Context, id int64) (*Product, error) {
	return get[*Product](ctx, s.repos.Products, KindProduct, id)
}

// SaveProduct は商品を作成する
func (s *Service) SaveProduct(ctx context.Context, p *Product) (*Product, error) {
	if err := validateProduct(p); err != nil {
		return nil, err
	}
	saved, err := s.repos.Products.Save(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	s.index(ctx, saved)
	return saved, nil
}

// UpdateProduct は既存商品を置き換える
func (s *Service) UpdateProduct(ctx context.Context, id int64, p *Product) (*Product, error) {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return nil, err
	}
	updated := *p
	updated.ID = id
	return s.SaveProduct(ctx, &updated)
}

// DeleteProduct は商品を削除する。対応するドキュメントは残る。
func (s *Service) DeleteProduct(ctx context.Context, id int64) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Products.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

// === Customer ===

// ListCustomers は全顧客を返す
func (s *Service) ListCustomers(ctx context.Context) ([]*Customer, error) {
	customers, err := s.repos.Customers.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return customers, nil
}

// GetCustomer は顧客を取得する
func (s *Service) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	return get[*Customer](ctx, s.repos.Customers, KindCustomer, id)
}

// SaveCustomer は顧客を作成する
func (s *Service) SaveCustomer(ctx context.Context, c *Customer) (*Customer, error) {
	if strings.TrimSpace(c.Name) == "" {
		return nil, fmt.Errorf("%w: customer name is required", ErrInvalidRecord)
	}
	saved, err := s.repos.Customers.Save(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	s.index(ctx, saved)
	return saved, nil
}

// UpdateCustomer は既存顧客を置き換える
func (s *Service) UpdateCustomer(ctx context.Context, id int64, c *Customer) (*Customer, error) {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return nil, err
	}
	updated := *c
	updated.ID = id
	return s.SaveCustomer(ctx, &updated)
}

// DeleteCustomer は顧客を削除する
func (s *Service) DeleteCustomer(ctx context.Context, id int64) error {
	if _, err := s.GetCustomer(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Customers.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

// === Purchase ===

// ListPurchases は全購入を返す
func (s *Service) ListPurchases(ctx context.Context) ([]*Purchase, error) {
	purchases, err := s.repos.Purchases.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	return purchases, nil
}

// GetPurchase は購入を取得する
func (s *Service) GetPurchase(ctx context.Context, id int64) (*Purchase, error) {
	return get[*Purchase](ctx, s.repos.Purchases, KindPurchase, id)
}

// SavePurchase は顧客と明細を解決し、合計金額を計算して購入を作成する
func (s *Service) SavePurchase(ctx context.Context, customerID int64, items []ItemInput) (*Purchase, error) {
	customer, err := s.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	resolved, total, err := s.resolveItems(ctx, items)
	if err != nil {
		return nil, err
	}

	saved, err := s.repos.Purchases.Save(ctx, &Purchase{
		Customer:    customer,
		Items:       resolved,
		PurchasedAt: s.now(),
		TotalValue:  total,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}
	s.index(ctx, saved)
	return saved, nil
}

// UpdatePurchase は購入の顧客と明細を差し替える。None の項目は変更しない。
func (s *Service) UpdatePurchase(ctx context.Context, id int64, customerID mo.Option[int64], items mo.Option[[]ItemInput]) (*Purchase, error) {
	existing, err := s.GetPurchase(ctx, id)
	if err != nil {
		return nil, err
	}

	if cid, ok := customerID.Get(); ok {
		customer, err := s.GetCustomer(ctx, cid)
		if err != nil {
			return nil, err
		}
		existing.Customer = customer
	}

	if inputs, ok := items.Get(); ok {
		resolved, total, err := s.resolveItems(ctx, inputs)
		if err != nil {
			return nil, err
		}
		existing.Items = resolved
		existing.TotalValue = total
	}

	saved, err := s.repos.Purchases.Save(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("failed to update purchase: %w", err)
	}
	s.index(ctx, saved)
	return saved, nil
}

// DeletePurchase は購入を削除する
func (s *Service) DeletePurchase(ctx context.Context, id int64) error {
	if _, err := s.GetPurchase(ctx, id); err != nil {
		return err
	}
	if err := s.repos.Purchases.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return nil
}

func (s *Service) resolveItems(ctx context.Context, inputs []ItemInput) ([]PurchaseItem, float64, error) {
	if len(inputs) == 0 {
		return nil, 0, fmt.Errorf("%w: a purchase needs at least one item", ErrInvalidPurchase)
	}

	items := make([]PurchaseItem, 0, len(inputs))
	var total float64
	for _, in := range inputs {
		if in.Quantity <= 0 {
			return nil, 0, fmt.Errorf("%w: quantity must be positive (product %d)", ErrInvalidPurchase, in.ProductID)
		}
		product, err := s.GetProduct(ctx, in.ProductID)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, PurchaseItem{Product: product, Quantity: in.Quantity})
		total += product.Price * float64(in.Quantity)
	}
	return items, total, nil
}

// index はレコードのドキュメントを更新する。失敗はログに残すのみ。
func (s *Service) index(ctx context.Context, rec Record) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.Upsert(ctx, rec.Kind(), rec.RecordID()); err != nil {
		s.logger.Warn("failed to update document for record",
			"kind", rec.Kind(),
			"id", rec.RecordID(),
			"error", err,
		)
	}
}

func get[T Record](ctx context.Context, r Reader[T], kind Kind, id int64) (T, error) {
	var zero T
	found, err := r.FindByID(ctx, id)
	if err != nil {
		return zero, fmt.Errorf("failed to get %s: %w", kind, err)
	}
	rec, ok := found.Get()
	if !ok {
		return zero, fmt.Errorf("%w: %s %d", ErrNotFound, kind, id)
	}
	return rec, nil
}

func validateProduct(p *Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", ErrInvalidRecord)
	}
	if p.Price < 0 {
		return fmt.Errorf("%w: product price must not be negative", ErrInvalidRecord)
	}
	return nil
}
