package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/jinford/catalog-rag/internal/core/catalog"
	"github.com/jinford/catalog-rag/internal/core/ingestion"
)

// MigrateAction はデータベーススキーマを作成するコマンドのアクション
func MigrateAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if appCtx.Container.Pool() == nil {
		appCtx.Logger().Info("PostgreSQL を使用しない構成のためマイグレーションをスキップします")
		return nil
	}
	if err := appCtx.Container.Migrate(ctx); err != nil {
		return fmt.Errorf("マイグレーションに失敗: %w", err)
	}
	fmt.Println("✓ スキーマを作成しました")
	return nil
}

// BootstrapAction は初回インジェストを実行するコマンドのアクション
func BootstrapAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if cmd.Bool("migrate") {
		if err := appCtx.Container.Migrate(ctx); err != nil {
			return fmt.Errorf("マイグレーションに失敗: %w", err)
		}
	}
	if cmd.Bool("seed") {
		if _, err := appCtx.Container.Seeder.Seed(ctx, appCtx.Config.Bootstrap.SeedCount); err != nil {
			return fmt.Errorf("ダミーデータの投入に失敗: %w", err)
		}
	}

	result, err := appCtx.Container.Coordinator.Bootstrap(ctx)
	if err != nil {
		return fmt.Errorf("初回インジェストに失敗: %w", err)
	}
	renderBootstrapResult(os.Stdout, result)
	return nil
}

// ReindexAction は指定種別のレコードを再インデックスするコマンドのアクション
func ReindexAction(ctx context.Context, cmd *cli.Command) error {
	kinds, err := parseKinds(cmd.String("kind"))
	if err != nil {
		return err
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	for _, kind := range kinds {
		result, err := appCtx.Container.Coordinator.Reindex(ctx, kind)
		if err != nil {
			return fmt.Errorf("%s の再インデックスに失敗: %w", kind, err)
		}
		fmt.Printf("✓ %s: %d件を再インデックス（失敗 %d件）\n", result.Kind, result.Indexed, result.Failed)
	}
	return nil
}

// parseKinds は --kind の値を種別のリストに変換する。空の場合は全種別
func parseKinds(value string) ([]catalog.Kind, error) {
	if value == "" || value == "all" {
		return catalog.Kinds, nil
	}
	kind := catalog.Kind(value)
	if !kind.Valid() {
		return nil, fmt.Errorf("不明なレコード種別です: %q (product/customer/purchase/all)", value)
	}
	return []catalog.Kind{kind}, nil
}

func renderBootstrapResult(w io.Writer, result *ingestion.BootstrapResult) {
	if result.Skipped {
		fmt.Fprintln(w, "初回インジェストは完了済みのためスキップしました")
		return
	}
	fmt.Fprintf(w, "✓ 初回インジェストが完了しました\n")
	fmt.Fprintf(w, "  Records:            %d\n", result.Records)
	fmt.Fprintf(w, "  Indexed:            %d\n", result.Indexed)
	fmt.Fprintf(w, "  Data quality fails: %d\n", result.DataQualityFails)
	fmt.Fprintf(w, "  Embedding fails:    %d\n", result.EmbeddingFails)
	fmt.Fprintf(w, "  Duration:           %s\n", result.Duration)
}
