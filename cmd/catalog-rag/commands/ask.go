package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	coreask "github.com/jinford/catalog-rag/internal/core/ask"
)

// AskAction は質問に回答するコマンドのアクション
func AskAction(ctx context.Context, cmd *cli.Command) error {
	query := cmd.String("query")
	if query == "" {
		query = strings.Join(cmd.Args().Slice(), " ")
	}
	if strings.TrimSpace(query) == "" {
		return errors.New("質問を --query または引数で指定してください")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if !cmd.Bool("skip-bootstrap") {
		if _, err := appCtx.Container.Coordinator.Bootstrap(ctx); err != nil {
			// インジェストに失敗しても既存のドキュメントで回答を試みる
			appCtx.Logger().Warn("初回インジェストに失敗しました", "error", err)
		}
	}

	result, err := appCtx.Container.AskService.Ask(ctx, coreask.AskParams{
		Query: query,
		TopK:  int(cmd.Int("top-k")),
	})
	if err != nil {
		return fmt.Errorf("回答の生成に失敗: %w", err)
	}

	fmt.Println(result.Answer)
	if cmd.Bool("sources") {
		renderSources(os.Stdout, result.Sources)
	}
	return nil
}

func renderSources(w io.Writer, sources []coreask.SourceReference) {
	if len(sources) == 0 {
		return
	}
	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.Header("Rank", "Type", "Record ID", "Score")
	for i, src := range sources {
		table.Append(
			fmt.Sprintf("%d", i+1),
			src.RecordType,
			fmt.Sprintf("%d", src.RecordID),
			fmt.Sprintf("%.4f", src.Score),
		)
	}
	table.Render()
}
