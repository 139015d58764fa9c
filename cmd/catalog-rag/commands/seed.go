package commands

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// SeedAction は空のカタログにダミーデータを投入するコマンドのアクション
func SeedAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	count := int(cmd.Int("count"))
	if count <= 0 {
		count = appCtx.Config.Bootstrap.SeedCount
	}

	result, err := appCtx.Container.Seeder.Seed(ctx, count)
	if err != nil {
		return fmt.Errorf("ダミーデータの投入に失敗: %w", err)
	}
	fmt.Printf("✓ ダミーデータを投入しました (商品 %d件 / 顧客 %d件 / 購入 %d件)\n",
		result.Products, result.Customers, result.Purchases)
	return nil
}
