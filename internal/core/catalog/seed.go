package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
)

var (
	seedAdjectives = []string{
		"Smart", "Portable", "Durable", "Modern", "Compact", "Efficient", "Fast", "Lightweight",
		"Innovative", "Premium", "Ergonomic", "Wireless", "Eco-Friendly", "Versatile", "Crystal Clear",
	}
	seedNouns = []string{
		"Smartphone", "Laptop", "Headphones", "Smartwatch", "Camera", "Television", "Tablet",
		"Gaming Console", "Robot Vacuum", "Blender", "Coffee Maker", "Fitness Tracker",
		"Bluetooth Speaker", "Drone", "E-Reader",
	}
	seedDescriptions = []string{
		"Unleash incredible performance and long-lasting battery life for your daily tasks.",
		"Perfect for work and entertainment, featuring a stunning high-resolution display.",
		"Immersive audio experience with a comfortable, ergonomic design.",
		"Monitor your health and receive notifications right on your wrist.",
		"Capture unforgettable moments with professional-grade quality.",
		"Experience vibrant images and powerful sound, transforming your living room.",
		"Ideal for productivity and entertainment on the go, designed for ultimate portability.",
		"Engaging gaming experience with cutting-edge graphics and smooth gameplay.",
		"Autonomous and efficient cleaning solution for your smart home.",
		"Effortlessly blend your favorite smoothies and shakes with powerful blades.",
		"Enjoy barista-quality coffee at home with intuitive controls.",
		"Track your progress and stay motivated with advanced fitness metrics.",
		"Powerful sound in a compact design, perfect for any adventure.",
		"Explore the skies with easy-to-fly controls and a high-definition camera.",
		"Read comfortably for hours with a glare-free screen and adjustable light.",
	}
	seedCustomerNames = []string{"Mia", "Bryan", "Robert", "John", "Maya", "Steve", "Mohamed", "Emma", "Sophia", "Harper"}
	seedCPFs          = []string{"12345", "12346", "12347", "12348", "12349", "12351", "12352", "12353", "12354", "12355"}
	seedPhones        = []string{"9911", "9922", "9933", "9944", "9955", "9966", "9977", "9988", "9999", "9900"}
)

// SeedResult はダミーデータ生成の結果
type SeedResult struct {
	Products  int
	Customers int
	Purchases int
}

// Seeder は空のカタログにダミーデータを投入する。
// Service 経由で保存するため、各レコードは差分インデックスの対象になる。
type Seeder struct {
	service *Service
	rng     *rand.Rand
	logger  *slog.Logger
}

// NewSeeder は新しい Seeder を作成する。rng が nil の場合は時刻ベースの乱数を使う。
func NewSeeder(service *Service, rng *rand.Rand, logger *slog.Logger) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{service: service, rng: rng, logger: logger}
}

// Seed は種別ごとにテーブルが空の場合のみダミーデータを生成する
func (s *Seeder) Seed(ctx context.Context, productCount int) (*SeedResult, error) {
	result := &SeedResult{}

	products, err := s.service.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		s.logger.Info("no products found, generating dummy products", "count", productCount)
		if result.Products, err = s.seedProducts(ctx, productCount); err != nil {
			return result, err
		}
	} else {
		s.logger.Info("existing products detected, skipping dummy products")
	}

	customers, err := s.service.ListCustomers(ctx)
	if err != nil {
		return result, err
	}
	if len(customers) == 0 {
		s.logger.Info("no customers found, generating dummy customers")
		if result.Customers, err = s.seedCustomers(ctx); err != nil {
			return result, err
		}
	} else {
		s.logger.Info("existing customers detected, skipping dummy customers")
	}

	purchases, err := s.service.ListPurchases(ctx)
	if err != nil {
		return result, err
	}
	if len(purchases) == 0 {
		s.logger.Info("no purchases found, generating dummy purchases")
		if result.Purchases, err = s.seedPurchases(ctx, 10); err != nil {
			return result, err
		}
	} else {
		s.logger.Info("existing purchases detected, skipping dummy purchases")
	}

	return result, nil
}

func (s *Seeder) seedProducts(ctx context.Context, n int) (int, error) {
	for i := 0; i < n; i++ {
		name := seedAdjectives[s.rng.IntN(len(seedAdjectives))] + " " + seedNouns[s.rng.IntN(len(seedNouns))]
		price := math.Round((s.rng.Float64()*(2000.00-50.00)+50.00)*100) / 100

		p, err := s.service.SaveProduct(ctx, &Product{
			Name:        name,
			Description: seedDescriptions[s.rng.IntN(len(seedDescriptions))],
			Price:       price,
		})
		if err != nil {
			return i, fmt.Errorf("failed to seed product: %w", err)
		}
		s.logger.Debug("dummy product created", "name", p.Name, "price", p.Price)
	}
	return n, nil
}

func (s *Seeder) seedCustomers(ctx context.Context) (int, error) {
	for i := range seedCustomerNames {
		if _, err := s.service.SaveCustomer(ctx, &Customer{
			Name:  seedCustomerNames[i],
			CPF:   seedCPFs[i],
			Phone: seedPhones[i],
		}); err != nil {
			return i, fmt.Errorf("failed to seed customer: %w", err)
		}
	}
	return len(seedCustomerNames), nil
}

func (s *Seeder) seedPurchases(ctx context.Context, n int) (int, error) {
	customers, err := s.service.ListCustomers(ctx)
	if err != nil {
		return 0, err
	}
	products, err := s.service.ListProducts(ctx)
	if err != nil {
		return 0, err
	}
	if len(customers) == 0 || len(products) == 0 {
		s.logger.Warn("cannot generate purchases without customers and products")
		return 0, nil
	}

	created := 0
	for i := 0; i < n; i++ {
		customer := customers[s.rng.IntN(len(customers))]
		s.rng.Shuffle(len(products), func(a, b int) { products[a], products[b] = products[b], products[a] })

		count := min(s.rng.IntN(2)+1, len(products))
		items := make([]ItemInput, 0, count)
		for j := 0; j < count; j++ {
			items = append(items, ItemInput{ProductID: products[j].ID, Quantity: s.rng.IntN(2) + 1})
		}

		if _, err := s.service.SavePurchase(ctx, customer.ID, items); err != nil {
			s.logger.Error("failed to create dummy purchase", "customer", customer.Name, "error", err)
			continue
		}
		created++
	}
	return created, nil
}
