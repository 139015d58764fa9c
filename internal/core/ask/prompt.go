package ask

import "strings"

// ContextSeparator はコンテキスト内のドキュメント間の区切り
const ContextSeparator = "\n---\n"

// BuildContext は検索結果の本文をランク順に連結する
func BuildContext(contents []string) string {
	return strings.Join(contents, ContextSeparator)
}

// BuildAskPrompt はRAG質問応答用のプロンプトを構築する
func BuildAskPrompt(query, context string) string {
	var sb strings.Builder

	sb.WriteString("You are a helpful shopping assistant for an online store.\n")
	sb.WriteString("Answer the user's question using only the catalog information provided in the context below.\n")
	sb.WriteString("The context may describe products, customers and purchases.\n\n")

	sb.WriteString("Guidelines:\n")
	sb.WriteString("- Do not use any knowledge that is not present in the context.\n")
	sb.WriteString("- If the context does not contain enough information to answer, say that you do not know.\n")
	sb.WriteString("- Keep the answer short and mention product names and prices when relevant.\n\n")

	sb.WriteString("Context:\n")
	sb.WriteString(context)
	sb.WriteString("\n\n")

	sb.WriteString("Question:\n")
	sb.WriteString(query)
	sb.WriteString("\n\n")

	sb.WriteString("Answer:\n")

	return sb.String()
}
