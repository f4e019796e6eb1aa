package service

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// readmeClipLimit bounds how much of the README reaches the prompt.
const readmeClipLimit = 4000

//go:embed prompt_template.txt
var defaultPromptTemplate string

var placeholderPattern = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// The template cache is process-wide and populated once per absolute path.
var (
	templateCacheMu sync.Mutex
	templateCache   = make(map[string]string)
)

// RenderTemplate substitutes {{placeholder}} markers with the given values.
// Placeholders without a value render as the empty string.
func RenderTemplate(template string, vars map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		return vars[name]
	})
}

// loadTemplate returns the prompt template text for a path, reading each
// absolute path from disk at most once. An empty path selects the embedded
// default template.
func loadTemplate(path string) (string, error) {
	if path == "" {
		return defaultPromptTemplate, nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve template path: %w", err)
	}

	templateCacheMu.Lock()
	defer templateCacheMu.Unlock()
	if cached, ok := templateCache[abs]; ok {
		return cached, nil
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("read prompt template: %w", err)
	}
	template := string(data)
	templateCache[abs] = template
	return template, nil
}

// PromptBuilderOptions configures a PromptBuilder.
type PromptBuilderOptions struct {
	TemplatePath string
}

// PromptBuilder renders the model prompt from repository metadata and the
// sampled file snippets.
type PromptBuilder struct {
	templatePath string
}

// NewPromptBuilder creates a PromptBuilder. With an empty template path the
// embedded default template is used.
func NewPromptBuilder(opts PromptBuilderOptions) *PromptBuilder {
	return &PromptBuilder{templatePath: opts.TemplatePath}
}

// Build renders the prompt for one repository.
func (b *PromptBuilder) Build(meta *model.RepositoryMetadata, samples []model.FileSample) (string, error) {
	template, err := loadTemplate(b.templatePath)
	if err != nil {
		return "", err
	}

	vars := map[string]string{
		"name":          meta.Name,
		"repo_url":      meta.ResolveRepoURL(),
		"summary":       repositorySummary(meta),
		"existing_tags": existingTagBullets(meta.Tags),
		"readme":        readmeSection(meta.Readme),
		"files":         fileSections(samples),
	}
	return RenderTemplate(template, vars), nil
}

func repositorySummary(meta *model.RepositoryMetadata) string {
	lines := []string{"Name: " + meta.Name}
	if meta.Description != "" {
		lines = append(lines, "Description: "+meta.Description)
	}
	if meta.DefaultBranch != "" {
		lines = append(lines, "Default branch: "+meta.DefaultBranch)
	}
	lines = append(lines, "Repository URL: "+meta.ResolveRepoURL())
	return strings.Join(lines, "\n")
}

func existingTagBullets(existing []model.RepositoryTag) string {
	if len(existing) == 0 {
		return "No existing tags."
	}
	var b strings.Builder
	for _, t := range existing {
		fmt.Fprintf(&b, "- %s: %s\n", t.Key, t.Value)
	}
	return strings.TrimRight(b.String(), "\n")
}

func readmeSection(readme string) string {
	if readme == "" {
		return "README not available."
	}
	if len(readme) > readmeClipLimit {
		return readme[:readmeClipLimit]
	}
	return readme
}

func fileSections(samples []model.FileSample) string {
	var b strings.Builder
	for _, sample := range samples {
		fmt.Fprintf(&b, "## %s\n%s\n", sample.Path, sample.Snippet)
	}
	return b.String()
}
