package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jinford/catalog-rag/cmd/catalog-rag/commands"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "catalog-rag",
		Usage: "商品・顧客・購入データに対する RAG 質問応答システム",
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "データベーススキーマを作成",
				Flags:  []cli.Flag{envFlag()},
				Action: commands.MigrateAction,
			},
			{
				Name:  "bootstrap",
				Usage: "初回インジェストを実行（完了済みの場合は何もしない）",
				Flags: []cli.Flag{
					envFlag(),
					&cli.BoolFlag{
						Name:  "migrate",
						Usage: "実行前にスキーマを作成",
					},
					&cli.BoolFlag{
						Name:  "seed",
						Usage: "カタログが空の場合にダミーデータを投入",
					},
				},
				Action: commands.BootstrapAction,
			},
			{
				Name:  "reindex",
				Usage: "レコードを再インデックス（埋め込みモデル変更後など）",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:  "kind",
						Usage: "対象種別 (product/customer/purchase/all)",
						Value: "all",
					},
				},
				Action: commands.ReindexAction,
			},
			{
				Name:      "ask",
				Usage:     "カタログについて質問する",
				ArgsUsage: "[質問文]",
				Flags: []cli.Flag{
					envFlag(),
					&cli.StringFlag{
						Name:    "query",
						Aliases: []string{"q"},
						Usage:   "質問文（省略時は引数を使用）",
					},
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "検索件数（省略時は ASK_TOP_K）",
					},
					&cli.BoolFlag{
						Name:  "sources",
						Usage: "回答に使用したレコードを表示",
					},
					&cli.BoolFlag{
						Name:  "skip-bootstrap",
						Usage: "回答前の初回インジェスト確認を省略",
					},
				},
				Action: commands.AskAction,
			},
			{
				Name:  "seed",
				Usage: "空のカタログにダミーデータを投入",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "count",
						Usage: "商品の件数（省略時は SEED_COUNT）",
					},
				},
				Action: commands.SeedAction,
			},
			{
				Name:  "product",
				Usage: "商品管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "商品一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.ProductListAction,
					},
					{
						Name:   "show",
						Usage:  "商品詳細を表示",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.ProductShowAction,
					},
					{
						Name:  "save",
						Usage: "商品を作成（--id 指定時は更新）",
						Flags: []cli.Flag{
							envFlag(),
							idFlag(false),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "商品名",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "説明",
							},
							&cli.FloatFlag{
								Name:     "price",
								Usage:    "価格",
								Required: true,
							},
						},
						Action: commands.ProductSaveAction,
					},
					{
						Name:   "delete",
						Usage:  "商品を削除",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.ProductDeleteAction,
					},
				},
			},
			{
				Name:  "customer",
				Usage: "顧客管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "顧客一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.CustomerListAction,
					},
					{
						Name:   "show",
						Usage:  "顧客詳細を表示",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.CustomerShowAction,
					},
					{
						Name:  "save",
						Usage: "顧客を作成（--id 指定時は更新）",
						Flags: []cli.Flag{
							envFlag(),
							idFlag(false),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "顧客名",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "cpf",
								Usage: "CPF",
							},
							&cli.StringFlag{
								Name:  "phone",
								Usage: "電話番号",
							},
						},
						Action: commands.CustomerSaveAction,
					},
					{
						Name:   "delete",
						Usage:  "顧客を削除",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.CustomerDeleteAction,
					},
				},
			},
			{
				Name:  "purchase",
				Usage: "購入管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "購入一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.PurchaseListAction,
					},
					{
						Name:   "show",
						Usage:  "購入詳細を表示",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.PurchaseShowAction,
					},
					{
						Name:  "save",
						Usage: "購入を作成（--id 指定時は指定項目のみ更新）",
						Flags: []cli.Flag{
							envFlag(),
							idFlag(false),
							&cli.Int64Flag{
								Name:  "customer",
								Usage: "顧客ID",
							},
							&cli.StringSliceFlag{
								Name:  "item",
								Usage: "明細 (商品ID:数量、複数指定可)",
							},
						},
						Action: commands.PurchaseSaveAction,
					},
					{
						Name:   "delete",
						Usage:  "購入を削除",
						Flags:  []cli.Flag{envFlag(), idFlag(true)},
						Action: commands.PurchaseDeleteAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func idFlag(required bool) cli.Flag {
	return &cli.Int64Flag{
		Name:     "id",
		Usage:    "レコードID",
		Required: required,
	}
}
