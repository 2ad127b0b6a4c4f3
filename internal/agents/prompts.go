package agents

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"finqa/internal/dataset"
)

//go:embed *.md
var promptFS embed.FS

var userPromptTemplate = template.Must(
	template.New("user_proxy.md").ParseFS(promptFS, "user_proxy.md"),
)

// loadSystemPrompt reads an embedded system prompt by file name.
func loadSystemPrompt(name string) string {
	content, err := promptFS.ReadFile(name)
	if err != nil {
		// Embedded files are fixed at build time; a miss is a programming error.
		panic(fmt.Sprintf("missing embedded prompt %s: %v", name, err))
	}
	return strings.TrimSpace(string(content))
}

var (
	analystSystemPrompt = loadSystemPrompt("financial_analyst.md")
	criticSystemPrompt  = loadSystemPrompt("critic.md")
)

// renderUserPrompt builds the user message embedding question and context.
func renderUserPrompt(question string, docCtx dataset.Context) (string, error) {
	var b strings.Builder
	err := userPromptTemplate.Execute(&b, struct {
		Question string
		PreText  string
		Table    string
		PostText string
	}{
		Question: question,
		PreText:  docCtx.PreText,
		Table:    docCtx.Table,
		PostText: docCtx.PostText,
	})
	if err != nil {
		return "", fmt.Errorf("render user prompt: %w", err)
	}
	return b.String(), nil
}
