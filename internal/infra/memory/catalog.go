package memory

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/samber/mo"
)

type purchaseRow struct {
	id          int64
	customerID  int64
	items       []catalog.ItemInput
	purchasedAt time.Time
	totalValue  float64
}

// Catalog はプロセス内のカタログストア。購入は ID で参照を保持し、読み取り時に解決する
type Catalog struct {
	mu        sync.RWMutex
	products  map[int64]catalog.Product
	customers map[int64]catalog.Customer
	purchases map[int64]purchaseRow
	seq       map[catalog.Kind]int64
}

// NewCatalog は空の Catalog を作成する
func NewCatalog() *Catalog {
	return &Catalog{
		products:  make(map[int64]catalog.Product),
		customers: make(map[int64]catalog.Customer),
		purchases: make(map[int64]purchaseRow),
		seq:       make(map[catalog.Kind]int64),
	}
}

// Repositories は種別ごとのリポジトリを返す
func (c *Catalog) Repositories() catalog.Repositories {
	return catalog.Repositories{
		Products:  &productRepository{c},
		Customers: &customerRepository{c},
		Purchases: &purchaseRepository{c},
	}
}

func (c *Catalog) nextID(kind catalog.Kind) int64 {
	c.seq[kind]++
	return c.seq[kind]
}

// resolvePurchase は c.mu を保持した状態で呼び出すこと
func (c *Catalog) resolvePurchase(row purchaseRow) *catalog.Purchase {
	p := &catalog.Purchase{
		ID:          row.id,
		PurchasedAt: row.purchasedAt,
		TotalValue:  row.totalValue,
	}
	if cust, ok := c.customers[row.customerID]; ok {
		p.Customer = &cust
	}
	for _, in := range row.items {
		item := catalog.PurchaseItem{Quantity: in.Quantity}
		if prod, ok := c.products[in.ProductID]; ok {
			item.Product = &prod
		}
		p.Items = append(p.Items, item)
	}
	return p
}

type productRepository struct{ c *Catalog }

func (r *productRepository) ListAll(ctx context.Context) ([]*catalog.Product, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	out := make([]*catalog.Product, 0, len(r.c.products))
	for _, id := range slices.Sorted(maps.Keys(r.c.products)) {
		p := r.c.products[id]
		out = append(out, &p)
	}
	return out, nil
}

func (r *productRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Product], error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	p, ok := r.c.products[id]
	if !ok {
		return mo.None[*catalog.Product](), nil
	}
	return mo.Some(&p), nil
}

func (r *productRepository) Save(ctx context.Context, p *catalog.Product) (*catalog.Product, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	saved := *p
	if saved.ID == 0 {
		saved.ID = r.c.nextID(catalog.KindProduct)
	} else if _, ok := r.c.products[saved.ID]; !ok {
		return nil, catalog.ErrNotFound
	}
	r.c.products[saved.ID] = saved
	return &saved, nil
}

func (r *productRepository) Delete(ctx context.Context, id int64) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	delete(r.c.products, id)
	return nil
}

type customerRepository struct{ c *Catalog }

func (r *customerRepository) ListAll(ctx context.Context) ([]*catalog.Customer, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	out := make([]*catalog.Customer, 0, len(r.c.customers))
	for _, id := range slices.Sorted(maps.Keys(r.c.customers)) {
		cust := r.c.customers[id]
		out = append(out, &cust)
	}
	return out, nil
}

func (r *customerRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Customer], error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	cust, ok := r.c.customers[id]
	if !ok {
		return mo.None[*catalog.Customer](), nil
	}
	return mo.Some(&cust), nil
}

func (r *customerRepository) Save(ctx context.Context, cust *catalog.Customer) (*catalog.Customer, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	saved := *cust
	if saved.ID == 0 {
		saved.ID = r.c.nextID(catalog.KindCustomer)
	} else if _, ok := r.c.customers[saved.ID]; !ok {
		return nil, catalog.ErrNotFound
	}
	r.c.customers[saved.ID] = saved
	return &saved, nil
}

func (r *customerRepository) Delete(ctx context.Context, id int64) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	delete(r.c.customers, id)
	return nil
}

type purchaseRepository struct{ c *Catalog }

func (r *purchaseRepository) ListAll(ctx context.Context) ([]*catalog.Purchase, error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	out := make([]*catalog.Purchase, 0, len(r.c.purchases))
	for _, id := range slices.Sorted(maps.Keys(r.c.purchases)) {
		out = append(out, r.c.resolvePurchase(r.c.purchases[id]))
	}
	return out, nil
}

func (r *purchaseRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Purchase], error) {
	r.c.mu.RLock()
	defer r.c.mu.RUnlock()

	row, ok := r.c.purchases[id]
	if !ok {
		return mo.None[*catalog.Purchase](), nil
	}
	return mo.Some(r.c.resolvePurchase(row)), nil
}

func (r *purchaseRepository) Save(ctx context.Context, p *catalog.Purchase) (*catalog.Purchase, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()

	row := purchaseRow{
		id:          p.ID,
		purchasedAt: p.PurchasedAt,
		totalValue:  p.TotalValue,
	}
	if p.Customer != nil {
		row.customerID = p.Customer.ID
	}
	for _, item := range p.Items {
		in := catalog.ItemInput{Quantity: item.Quantity}
		if item.Product != nil {
			in.ProductID = item.Product.ID
		}
		row.items = append(row.items, in)
	}

	if row.id == 0 {
		row.id = r.c.nextID(catalog.KindPurchase)
	} else if _, ok := r.c.purchases[row.id]; !ok {
		return nil, catalog.ErrNotFound
	}
	r.c.purchases[row.id] = row
	return r.c.resolvePurchase(row), nil
}

func (r *purchaseRepository) Delete(ctx context.Context, id int64) error {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	delete(r.c.purchases, id)
	return nil
}
