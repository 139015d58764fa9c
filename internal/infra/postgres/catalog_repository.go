package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/platform/database"
	"github.com/samber/mo"
)

// CatalogRepository は商品・顧客・購入の PostgreSQL リポジトリ
type CatalogRepository struct {
	db DBTX
	tx *database.TransactionProvider
}

// NewCatalogRepository は新しい CatalogRepository を作成する
func NewCatalogRepository(tx *database.TransactionProvider) *CatalogRepository {
	return &CatalogRepository{db: tx.Pool(), tx: tx}
}

// Repositories は種別ごとのリポジトリを返す
func (r *CatalogRepository) Repositories() catalog.Repositories {
	return catalog.Repositories{
		Products:  &ProductRepository{r},
		Customers: &CustomerRepository{r},
		Purchases: &PurchaseRepository{r},
	}
}

// === Product ===

// ProductRepository は catalog.ProductRepository の実装
type ProductRepository struct{ r *CatalogRepository }

var _ catalog.ProductRepository = (*ProductRepository)(nil)

func (p *ProductRepository) ListAll(ctx context.Context) ([]*catalog.Product, error) {
	rows, err := p.r.db.Query(ctx, `SELECT id, name, description, price::float8 FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

func (p *ProductRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Product], error) {
	rows, err := p.r.db.Query(ctx, `SELECT id, name, description, price::float8 FROM products WHERE id = $1`, id)
	if err != nil {
		return mo.None[*catalog.Product](), fmt.Errorf("failed to get product: %w", err)
	}
	return collectOne(rows, scanProduct)
}

func (p *ProductRepository) Save(ctx context.Context, prod *catalog.Product) (*catalog.Product, error) {
	saved := *prod
	var err error
	if saved.ID == 0 {
		err = p.r.db.QueryRow(ctx,
			`INSERT INTO products (name, description, price) VALUES ($1, $2, $3) RETURNING id`,
			saved.Name, saved.Description, saved.Price,
		).Scan(&saved.ID)
	} else {
		err = execOne(ctx, p.r.db,
			`UPDATE products SET name = $2, description = $3, price = $4 WHERE id = $1`,
			saved.ID, saved.Name, saved.Description, saved.Price,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save product: %w", err)
	}
	return &saved, nil
}

func (p *ProductRepository) Delete(ctx context.Context, id int64) error {
	if _, err := p.r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (*catalog.Product, error) {
	var p catalog.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price); err != nil {
		return nil, err
	}
	return &p, nil
}

// === Customer ===

// CustomerRepository は catalog.CustomerRepository の実装
type CustomerRepository struct{ r *CatalogRepository }

var _ catalog.CustomerRepository = (*CustomerRepository)(nil)

func (c *CustomerRepository) ListAll(ctx context.Context) ([]*catalog.Customer, error) {
	rows, err := c.r.db.Query(ctx, `SELECT id, name, cpf, phone FROM customers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return pgx.CollectRows(rows, scanCustomer)
}

func (c *CustomerRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Customer], error) {
	rows, err := c.r.db.Query(ctx, `SELECT id, name, cpf, phone FROM customers WHERE id = $1`, id)
	if err != nil {
		return mo.None[*catalog.Customer](), fmt.Errorf("failed to get customer: %w", err)
	}
	return collectOne(rows, scanCustomer)
}

func (c *CustomerRepository) Save(ctx context.Context, cust *catalog.Customer) (*catalog.Customer, error) {
	saved := *cust
	var err error
	if saved.ID == 0 {
		err = c.r.db.QueryRow(ctx,
			`INSERT INTO customers (name, cpf, phone) VALUES ($1, $2, $3) RETURNING id`,
			saved.Name, saved.CPF, saved.Phone,
		).Scan(&saved.ID)
	} else {
		err = execOne(ctx, c.r.db,
			`UPDATE customers SET name = $2, cpf = $3, phone = $4 WHERE id = $1`,
			saved.ID, saved.Name, saved.CPF, saved.Phone,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save customer: %w", err)
	}
	return &saved, nil
}

func (c *CustomerRepository) Delete(ctx context.Context, id int64) error {
	if _, err := c.r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete customer: %w", err)
	}
	return nil
}

func scanCustomer(row pgx.CollectableRow) (*catalog.Customer, error) {
	var c catalog.Customer
	if err := row.Scan(&c.ID, &c.Name, &c.CPF, &c.Phone); err != nil {
		return nil, err
	}
	return &c, nil
}

// === Purchase ===

// PurchaseRepository は catalog.PurchaseRepository の実装。顧客と明細は読み取り時に結合する
type PurchaseRepository struct{ r *CatalogRepository }

var _ catalog.PurchaseRepository = (*PurchaseRepository)(nil)

const selectPurchaseSQL = `
SELECT p.id, p.purchased_at, p.total_value::float8, c.id, c.name, c.cpf, c.phone
FROM purchases p
LEFT JOIN customers c ON c.id = p.customer_id`

const selectItemsSQL = `
SELECT i.purchase_id, i.quantity, pr.id, pr.name, pr.description, pr.price::float8
FROM purchase_items i
LEFT JOIN products pr ON pr.id = i.product_id`

func (p *PurchaseRepository) ListAll(ctx context.Context) ([]*catalog.Purchase, error) {
	rows, err := p.r.db.Query(ctx, selectPurchaseSQL+` ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list purchases: %w", err)
	}
	purchases, err := pgx.CollectRows(rows, scanPurchase)
	if err != nil {
		return nil, fmt.Errorf("failed to read purchases: %w", err)
	}
	if err := p.attachItems(ctx, p.r.db, purchases, selectItemsSQL+` ORDER BY i.purchase_id, i.id`); err != nil {
		return nil, err
	}
	return purchases, nil
}

func (p *PurchaseRepository) FindByID(ctx context.Context, id int64) (mo.Option[*catalog.Purchase], error) {
	return p.findByID(ctx, p.r.db, id)
}

func (p *PurchaseRepository) findByID(ctx context.Context, db DBTX, id int64) (mo.Option[*catalog.Purchase], error) {
	rows, err := db.Query(ctx, selectPurchaseSQL+` WHERE p.id = $1`, id)
	if err != nil {
		return mo.None[*catalog.Purchase](), fmt.Errorf("failed to get purchase: %w", err)
	}
	found, err := collectOne(rows, scanPurchase)
	if err != nil {
		return found, err
	}
	purchase, ok := found.Get()
	if !ok {
		return found, nil
	}
	if err := p.attachItems(ctx, db, []*catalog.Purchase{purchase}, selectItemsSQL+` WHERE i.purchase_id = $1 ORDER BY i.id`, id); err != nil {
		return mo.None[*catalog.Purchase](), err
	}
	return found, nil
}

// Save は購入と明細を同一トランザクションで保存する。明細は全件置き換える
func (p *PurchaseRepository) Save(ctx context.Context, purchase *catalog.Purchase) (*catalog.Purchase, error) {
	saved, err := database.Transact(ctx, p.r.tx, func(tx pgx.Tx) (*catalog.Purchase, error) {
		var customerID pgtype.Int8
		if purchase.Customer != nil {
			customerID = Int64ToNullable(purchase.Customer.ID)
		}

		id := purchase.ID
		if id == 0 {
			if err := tx.QueryRow(ctx,
				`INSERT INTO purchases (customer_id, purchased_at, total_value) VALUES ($1, $2, $3) RETURNING id`,
				customerID, purchase.PurchasedAt, purchase.TotalValue,
			).Scan(&id); err != nil {
				return nil, err
			}
		} else {
			if err := execOne(ctx, tx,
				`UPDATE purchases SET customer_id = $2, purchased_at = $3, total_value = $4 WHERE id = $1`,
				id, customerID, purchase.PurchasedAt, purchase.TotalValue,
			); err != nil {
				return nil, err
			}
			if _, err := tx.Exec(ctx, `DELETE FROM purchase_items WHERE purchase_id = $1`, id); err != nil {
				return nil, err
			}
		}

		for _, item := range purchase.Items {
			var productID pgtype.Int8
			if item.Product != nil {
				productID = Int64ToNullable(item.Product.ID)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO purchase_items (purchase_id, product_id, quantity) VALUES ($1, $2, $3)`,
				id, productID, item.Quantity,
			); err != nil {
				return nil, err
			}
		}

		found, err := p.findByID(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		return found.MustGet(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save purchase: %w", err)
	}
	return saved, nil
}

func (p *PurchaseRepository) Delete(ctx context.Context, id int64) error {
	if _, err := p.r.db.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete purchase: %w", err)
	}
	return nil
}

func (p *PurchaseRepository) attachItems(ctx context.Context, db DBTX, purchases []*catalog.Purchase, query string, args ...any) error {
	if len(purchases) == 0 {
		return nil
	}
	byID := make(map[int64]*catalog.Purchase, len(purchases))
	for _, pu := range purchases {
		byID[pu.ID] = pu
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to list purchase items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			purchaseID int64
			quantity   int
			prodID     pgtype.Int8
			name, desc pgtype.Text
			price      pgtype.Float8
		)
		if err := rows.Scan(&purchaseID, &quantity, &prodID, &name, &desc, &price); err != nil {
			return fmt.Errorf("failed to scan purchase item: %w", err)
		}
		item := catalog.PurchaseItem{Quantity: quantity}
		if prodID.Valid {
			item.Product = &catalog.Product{ID: prodID.Int64, Name: name.String, Description: desc.String, Price: price.Float64}
		}
		if pu, ok := byID[purchaseID]; ok {
			pu.Items = append(pu.Items, item)
		}
	}
	return rows.Err()
}

func scanPurchase(row pgx.CollectableRow) (*catalog.Purchase, error) {
	var (
		p           catalog.Purchase
		purchasedAt time.Time
		custID      pgtype.Int8
		name, cpf   pgtype.Text
		phone       pgtype.Text
	)
	if err := row.Scan(&p.ID, &purchasedAt, &p.TotalValue, &custID, &name, &cpf, &phone); err != nil {
		return nil, err
	}
	p.PurchasedAt = purchasedAt
	if custID.Valid {
		p.Customer = &catalog.Customer{ID: custID.Int64, Name: name.String, CPF: cpf.String, Phone: phone.String}
	}
	return &p, nil
}

// === helpers ===

func collectOne[T any](rows pgx.Rows, fn pgx.RowToFunc[T]) (mo.Option[T], error) {
	v, err := pgx.CollectExactlyOneRow(rows, fn)
	if errors.Is(err, pgx.ErrNoRows) {
		return mo.None[T](), nil
	}
	if err != nil {
		return mo.None[T](), err
	}
	return mo.Some(v), nil
}

func execOne(ctx context.Context, db DBTX, sql string, args ...any) error {
	tag, err := db.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}
