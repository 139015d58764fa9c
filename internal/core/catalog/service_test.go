package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"testing"
	"time"

	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordWithID interface {
	Record
	setID(int64)
}

func (p *Product) setID(id int64)  { p.ID = id }
func (c *Customer) setID(id int64) { c.ID = id }
func (p *Purchase) setID(id int64) { p.ID = id }

type stubRepo[T recordWithID] struct {
	rows   map[int64]T
	nextID int64
}

func newStubRepo[T recordWithID]() *stubRepo[T] {
	return &stubRepo[T]{rows: map[int64]T{}}
}

func (r *stubRepo[T]) ListAll(ctx context.Context) ([]T, error) {
	out := make([]T, 0, len(r.rows))
	for _, v := range r.rows {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (r *stubRepo[T]) FindByID(ctx context.Context, id int64) (mo.Option[T], error) {
	if v, ok := r.rows[id]; ok {
		return mo.Some(v), nil
	}
	return mo.None[T](), nil
}

func (r *stubRepo[T]) Save(ctx context.Context, v T) (T, error) {
	if v.RecordID() == 0 {
		r.nextID++
		v.setID(r.nextID)
	}
	r.rows[v.RecordID()] = v
	return v, nil
}

func (r *stubRepo[T]) Delete(ctx context.Context, id int64) error {
	delete(r.rows, id)
	return nil
}

type stubIndexer struct {
	calls []string
	err   error
}

func (i *stubIndexer) Upsert(ctx context.Context, kind Kind, id int64) error {
	i.calls = append(i.calls, string(kind)+":"+strconv.FormatInt(id, 10))
	return i.err
}

func newTestService(indexer Indexer) *Service {
	repos := Repositories{
		Products:  newStubRepo[*Product](),
		Customers: newStubRepo[*Customer](),
		Purchases: newStubRepo[*Purchase](),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	fixed := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	return NewService(repos, indexer,
		WithServiceLogger(logger),
		WithClock(func() time.Time { return fixed }),
	)
}

func TestService_SaveProductTriggersIndex(t *testing.T) {
	idx := &stubIndexer{}
	svc := newTestService(idx)

	p, err := svc.SaveProduct(context.Background(), &Product{Name: "Blender", Description: "Blends", Price: 99.9})
	require.NoError(t, err)
	assert.Equal(t, int64(1), p.ID)
	assert.Equal(t, []string{"product:1"}, idx.calls)
}

func TestService_SaveProductValidates(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.SaveProduct(context.Background(), &Product{Name: "  ", Price: 1})
	assert.ErrorIs(t, err, ErrInvalidRecord)

	_, err = svc.SaveProduct(context.Background(), &Product{Name: "Lamp", Price: -1})
	assert.ErrorIs(t, err, ErrInvalidRecord)
}

func TestService_IndexFailureDoesNotRollBack(t *testing.T) {
	idx := &stubIndexer{err: errors.New("embedding backend down")}
	svc := newTestService(idx)
	ctx := context.Background()

	c, err := svc.SaveCustomer(ctx, &Customer{Name: "Mia", CPF: "12345", Phone: "9911"})
	require.NoError(t, err)

	got, err := svc.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mia", got.Name)
	assert.Len(t, idx.calls, 1)
}

func TestService_SavePurchaseComputesTotal(t *testing.T) {
	idx := &stubIndexer{}
	svc := newTestService(idx)
	ctx := context.Background()

	blender, err := svc.SaveProduct(ctx, &Product{Name: "Blender", Price: 100})
	require.NoError(t, err)
	kettle, err := svc.SaveProduct(ctx, &Product{Name: "Kettle", Price: 25.5})
	require.NoError(t, err)
	mia, err := svc.SaveCustomer(ctx, &Customer{Name: "Mia"})
	require.NoError(t, err)

	purchase, err := svc.SavePurchase(ctx, mia.ID, []ItemInput{
		{ProductID: blender.ID, Quantity: 2},
		{ProductID: kettle.ID, Quantity: 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 225.5, purchase.TotalValue, 1e-9)
	assert.Equal(t, "Mia", purchase.Customer.Name)
	assert.Len(t, purchase.Items, 2)
	assert.Equal(t, time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC), purchase.PurchasedAt)
	assert.Contains(t, idx.calls, "purchase:1")
}

func TestService_SavePurchaseRejectsInvalidInput(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	p, err := svc.SaveProduct(ctx, &Product{Name: "Blender", Price: 100})
	require.NoError(t, err)
	c, err := svc.SaveCustomer(ctx, &Customer{Name: "Mia"})
	require.NoError(t, err)

	_, err = svc.SavePurchase(ctx, c.ID, nil)
	assert.ErrorIs(t, err, ErrInvalidPurchase)

	_, err = svc.SavePurchase(ctx, c.ID, []ItemInput{{ProductID: p.ID, Quantity: 0}})
	assert.ErrorIs(t, err, ErrInvalidPurchase)

	_, err = svc.SavePurchase(ctx, 999, []ItemInput{{ProductID: p.ID, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.SavePurchase(ctx, c.ID, []ItemInput{{ProductID: 999, Quantity: 1}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_UpdatePurchaseKeepsUnsetFields(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	p, err := svc.SaveProduct(ctx, &Product{Name: "Blender", Price: 10})
	require.NoError(t, err)
	mia, err := svc.SaveCustomer(ctx, &Customer{Name: "Mia"})
	require.NoError(t, err)
	bryan, err := svc.SaveCustomer(ctx, &Customer{Name: "Bryan"})
	require.NoError(t, err)

	purchase, err := svc.SavePurchase(ctx, mia.ID, []ItemInput{{ProductID: p.ID, Quantity: 1}})
	require.NoError(t, err)

	updated, err := svc.UpdatePurchase(ctx, purchase.ID, mo.Some(bryan.ID), mo.None[[]ItemInput]())
	require.NoError(t, err)
	assert.Equal(t, "Bryan", updated.Customer.Name)
	assert.InDelta(t, 10.0, updated.TotalValue, 1e-9)

	updated, err = svc.UpdatePurchase(ctx, purchase.ID, mo.None[int64](), mo.Some([]ItemInput{{ProductID: p.ID, Quantity: 3}}))
	require.NoError(t, err)
	assert.Equal(t, "Bryan", updated.Customer.Name)
	assert.InDelta(t, 30.0, updated.TotalValue, 1e-9)
}

func TestService_UpdateAndDeleteUnknownRecord(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()

	_, err := svc.UpdateProduct(ctx, 42, &Product{Name: "Ghost", Price: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.DeleteCustomer(ctx, 42), ErrNotFound)
}

func TestSeeder_SeedsOnlyEmptyTables(t *testing.T) {
	svc := newTestService(nil)
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	seeder := NewSeeder(svc, rand.New(rand.NewPCG(1, 2)), logger)

	result, err := seeder.Seed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 10, result.Products)
	assert.Equal(t, 10, result.Customers)
	assert.Equal(t, 10, result.Purchases)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	for _, p := range products {
		assert.GreaterOrEqual(t, p.Price, 50.0)
		assert.LessOrEqual(t, p.Price, 2000.0)
	}

	again, err := seeder.Seed(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, SeedResult{}, *again)
}
