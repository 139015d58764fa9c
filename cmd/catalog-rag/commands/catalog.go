package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/samber/mo"
	"github.com/urfave/cli/v3"

	"github.com/jinford/catalog-rag/internal/core/catalog"
)

// === Product ===

// ProductListAction は商品一覧を表示するコマンドのアクション
func ProductListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	products, err := appCtx.Container.CatalogService.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("商品一覧の取得に失敗: %w", err)
	}
	if len(products) == 0 {
		fmt.Println("商品はありません")
		return nil
	}
	renderProductsTable(os.Stdout, products)
	return nil
}

// ProductShowAction は商品詳細を表示するコマンドのアクション
func ProductShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	p, err := appCtx.Container.CatalogService.GetProduct(ctx, cmd.Int64("id"))
	if err != nil {
		return fmt.Errorf("商品の取得に失敗: %w", err)
	}
	renderProductsTable(os.Stdout, []*catalog.Product{p})
	return nil
}

// ProductSaveAction は商品を作成または更新するコマンドのアクション。--id 指定時は更新
func ProductSaveAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	p := &catalog.Product{
		Name:        cmd.String("name"),
		Description: cmd.String("description"),
		Price:       cmd.Float("price"),
	}
	svc := appCtx.Container.CatalogService

	var saved *catalog.Product
	if id := cmd.Int64("id"); id != 0 {
		saved, err = svc.UpdateProduct(ctx, id, p)
	} else {
		saved, err = svc.SaveProduct(ctx, p)
	}
	if err != nil {
		return fmt.Errorf("商品の保存に失敗: %w", err)
	}
	fmt.Printf("✓ 商品を保存しました (ID: %d)\n", saved.ID)
	return nil
}

// ProductDeleteAction は商品を削除するコマンドのアクション
func ProductDeleteAction(ctx context.Context, cmd *cli.Command) error {
	return deleteRecord(ctx, cmd, catalog.KindProduct)
}

// === Customer ===

// CustomerListAction は顧客一覧を表示するコマンドのアクション
func CustomerListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	customers, err := appCtx.Container.CatalogService.ListCustomers(ctx)
	if err != nil {
		return fmt.Errorf("顧客一覧の取得に失敗: %w", err)
	}
	if len(customers) == 0 {
		fmt.Println("顧客はいません")
		return nil
	}
	renderCustomersTable(os.Stdout, customers)
	return nil
}

// CustomerShowAction は顧客詳細を表示するコマンドのアクション
func CustomerShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	c, err := appCtx.Container.CatalogService.GetCustomer(ctx, cmd.Int64("id"))
	if err != nil {
		return fmt.Errorf("顧客の取得に失敗: %w", err)
	}
	renderCustomersTable(os.Stdout, []*catalog.Customer{c})
	return nil
}

// CustomerSaveAction は顧客を作成または更新するコマンドのアクション。--id 指定時は更新
func CustomerSaveAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	c := &catalog.Customer{
		Name:  cmd.String("name"),
		CPF:   cmd.String("cpf"),
		Phone: cmd.String("phone"),
	}
	svc := appCtx.Container.CatalogService

	var saved *catalog.Customer
	if id := cmd.Int64("id"); id != 0 {
		saved, err = svc.UpdateCustomer(ctx, id, c)
	} else {
		saved, err = svc.SaveCustomer(ctx, c)
	}
	if err != nil {
		return fmt.Errorf("顧客の保存に失敗: %w", err)
	}
	fmt.Printf("✓ 顧客を保存しました (ID: %d)\n", saved.ID)
	return nil
}

// CustomerDeleteAction は顧客を削除するコマンドのアクション
func CustomerDeleteAction(ctx context.Context, cmd *cli.Command) error {
	return deleteRecord(ctx, cmd, catalog.KindCustomer)
}

// === Purchase ===

// PurchaseListAction は購入一覧を表示するコマンドのアクション
func PurchaseListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	purchases, err := appCtx.Container.CatalogService.ListPurchases(ctx)
	if err != nil {
		return fmt.Errorf("購入一覧の取得に失敗: %w", err)
	}
	if len(purchases) == 0 {
		fmt.Println("購入はありません")
		return nil
	}
	renderPurchasesTable(os.Stdout, purchases)
	return nil
}

// PurchaseShowAction は購入詳細を表示するコマンドのアクション
func PurchaseShowAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	p, err := appCtx.Container.CatalogService.GetPurchase(ctx, cmd.Int64("id"))
	if err != nil {
		return fmt.Errorf("購入の取得に失敗: %w", err)
	}
	renderPurchaseDetail(os.Stdout, p)
	return nil
}

// PurchaseSaveAction は購入を作成または更新するコマンドのアクション。
// --id 指定時は --customer / --item のうち指定されたものだけを更新する。
func PurchaseSaveAction(ctx context.Context, cmd *cli.Command) error {
	items, err := parseItems(cmd.StringSlice("item"))
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	svc := appCtx.Container.CatalogService
	var saved *catalog.Purchase
	if id := cmd.Int64("id"); id != 0 {
		customer := mo.None[int64]()
		if cmd.IsSet("customer") {
			customer = mo.Some(cmd.Int64("customer"))
		}
		itemsOpt := mo.None[[]catalog.ItemInput]()
		if len(items) > 0 {
			itemsOpt = mo.Some(items)
		}
		saved, err = svc.UpdatePurchase(ctx, id, customer, itemsOpt)
	} else {
		saved, err = svc.SavePurchase(ctx, cmd.Int64("customer"), items)
	}
	if err != nil {
		return fmt.Errorf("購入の保存に失敗: %w", err)
	}
	fmt.Printf("✓ 購入を保存しました (ID: %d, Total: $%.2f)\n", saved.ID, saved.TotalValue)
	return nil
}

// PurchaseDeleteAction は購入を削除するコマンドのアクション
func PurchaseDeleteAction(ctx context.Context, cmd *cli.Command) error {
	return deleteRecord(ctx, cmd, catalog.KindPurchase)
}

// === ヘルパー関数 ===

func deleteRecord(ctx context.Context, cmd *cli.Command, kind catalog.Kind) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id := cmd.Int64("id")
	svc := appCtx.Container.CatalogService
	switch kind {
	case catalog.KindProduct:
		err = svc.DeleteProduct(ctx, id)
	case catalog.KindCustomer:
		err = svc.DeleteCustomer(ctx, id)
	case catalog.KindPurchase:
		err = svc.DeletePurchase(ctx, id)
	}
	if err != nil {
		return fmt.Errorf("%s %d の削除に失敗: %w", kind, id, err)
	}
	fmt.Printf("✓ %s %d を削除しました\n", kind, id)
	return nil
}

// parseItems は "商品ID:数量" 形式の指定を ItemInput に変換する。数量を省略した場合は1
func parseItems(specs []string) ([]catalog.ItemInput, error) {
	items := make([]catalog.ItemInput, 0, len(specs))
	for _, spec := range specs {
		idPart, qtyPart, hasQty := strings.Cut(strings.TrimSpace(spec), ":")
		productID, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("不正な明細指定です: %q (商品ID:数量)", spec)
		}
		quantity := 1
		if hasQty {
			quantity, err = strconv.Atoi(qtyPart)
			if err != nil {
				return nil, fmt.Errorf("不正な数量です: %q", spec)
			}
		}
		items = append(items, catalog.ItemInput{ProductID: productID, Quantity: quantity})
	}
	return items, nil
}

func renderProductsTable(w io.Writer, products []*catalog.Product) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Description", "Price")
	for _, p := range products {
		table.Append(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			truncateString(p.Description, 50),
			fmt.Sprintf("$%.2f", p.Price),
		)
	}
	table.Render()
}

func renderCustomersTable(w io.Writer, customers []*catalog.Customer) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "CPF", "Phone")
	for _, c := range customers {
		table.Append(strconv.FormatInt(c.ID, 10), c.Name, c.CPF, c.Phone)
	}
	table.Render()
}

func renderPurchasesTable(w io.Writer, purchases []*catalog.Purchase) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Customer", "Items", "Total", "Purchased At")
	for _, p := range purchases {
		table.Append(
			strconv.FormatInt(p.ID, 10),
			customerName(p.Customer),
			strconv.Itoa(len(p.Items)),
			fmt.Sprintf("$%.2f", p.TotalValue),
			p.PurchasedAt.Format("2006-01-02 15:04"),
		)
	}
	table.Render()
}

func renderPurchaseDetail(w io.Writer, p *catalog.Purchase) {
	fmt.Fprintf(w, "\n=== 購入詳細 ===\n\n")
	fmt.Fprintf(w, "ID:           %d\n", p.ID)
	fmt.Fprintf(w, "Customer:     %s\n", customerName(p.Customer))
	fmt.Fprintf(w, "Purchased At: %s\n", p.PurchasedAt.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "Total:        $%.2f\n\n", p.TotalValue)

	table := tablewriter.NewWriter(w)
	table.Header("Product ID", "Product", "Quantity", "Unit Price")
	for _, item := range p.Items {
		if item.Product == nil {
			table.Append("-", "(削除済み)", strconv.Itoa(item.Quantity), "-")
			continue
		}
		table.Append(
			strconv.FormatInt(item.Product.ID, 10),
			item.Product.Name,
			strconv.Itoa(item.Quantity),
			fmt.Sprintf("$%.2f", item.Product.Price),
		)
	}
	table.Render()
}

func customerName(c *catalog.Customer) string {
	if c == nil {
		return "(削除済み)"
	}
	return c.Name
}
