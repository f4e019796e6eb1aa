package service

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/apphub/tagging-service/internal/domain/model"
)

// Sampling limits. Snippets are what the prompt sees per file; oversized
// files are only skimmed so a single generated bundle cannot dominate the
// token budget.
const (
	maxSampleFiles    = 20
	snippetLimit      = 800
	largeFileCutoff   = 200_000
	largeFileReadSize = 2000
	truncationMarker  = "\n..."
)

// skippedDirs are never descended into during the local fallback walk.
var skippedDirs = map[string]struct{}{
	".git":         {},
	"node_modules": {},
	"dist":         {},
	"build":        {},
	"out":          {},
	"venv":         {},
}

// SamplerOptions configures a Sampler.
type SamplerOptions struct {
	Explorer FileExplorer
	Logger   *slog.Logger
}

// Sampler selects the files whose snippets feed the prompt. It prefers the
// file-explorer's relevance ranking and falls back to walking the local
// checkout when the explorer is unavailable.
type Sampler struct {
	explorer FileExplorer
	logger   *slog.Logger
}

// NewSampler creates a Sampler.
func NewSampler(opts SamplerOptions) *Sampler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Sampler{
		explorer: opts.Explorer,
		logger:   logger.With("component", "sampler"),
	}
}

// Collect returns up to 20 file samples for a repository. Explorer failures
// are advisory: they are logged and the local walk takes over. Files the
// explorer names but the checkout cannot read still appear, with an empty
// snippet, so the prompt reflects the explorer's ranking.
func (s *Sampler) Collect(ctx context.Context, repositoryID, checkoutDir string) []model.FileSample {
	if s.explorer != nil {
		hits, err := s.explorer.Search(ctx, repositoryID, maxSampleFiles)
		if err == nil {
			return s.samplesFromHits(checkoutDir, hits)
		}
		s.logger.WarnContext(ctx, "file explorer search failed, falling back to local walk",
			"repository_id", repositoryID, "error", err)
	}

	paths := discoverLocalFiles(checkoutDir, maxSampleFiles)
	samples := make([]model.FileSample, 0, len(paths))
	for _, path := range paths {
		samples = append(samples, model.FileSample{
			Path:    path,
			Snippet: readSnippet(filepath.Join(checkoutDir, path)),
		})
	}
	return samples
}

func (s *Sampler) samplesFromHits(checkoutDir string, hits []model.FileHit) []model.FileSample {
	if len(hits) > maxSampleFiles {
		hits = hits[:maxSampleFiles]
	}
	samples := make([]model.FileSample, 0, len(hits))
	for _, hit := range hits {
		if hit.Path == "" {
			continue
		}
		snippet := hit.Preview
		if snippet == "" {
			snippet = readSnippet(filepath.Join(checkoutDir, hit.Path))
		}
		samples = append(samples, model.FileSample{Path: hit.Path, Snippet: snippet})
	}
	return samples
}

// discoverLocalFiles walks the checkout depth-first with an explicit stack,
// popping the most recently pushed directory next, and collects up to limit
// relative file paths.
func discoverLocalFiles(root string, limit int) []string {
	var files []string
	stack := []string{root}

	for len(stack) > 0 && len(files) < limit {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if len(files) >= limit {
				break
			}
			name := entry.Name()
			full := filepath.Join(dir, name)
			if entry.IsDir() {
				if _, skip := skippedDirs[name]; skip {
					continue
				}
				stack = append(stack, full)
				continue
			}
			rel, relErr := filepath.Rel(root, full)
			if relErr != nil {
				continue
			}
			files = append(files, filepath.ToSlash(rel))
		}
	}
	return files
}

// readSnippet reads a bounded UTF-8 snippet from a file. Oversized files are
// only skimmed; anything longer than the snippet limit is cut with a marker.
// Unreadable files yield an empty snippet.
func readSnippet(path string) string {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}

	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	readLimit := snippetLimit + len(truncationMarker)
	if info.Size() > largeFileCutoff {
		readLimit = largeFileReadSize
	}
	buf := make([]byte, readLimit)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return ""
	}

	snippet := strings.ToValidUTF8(string(buf[:n]), "")
	if len(snippet) > snippetLimit {
		snippet = snippet[:snippetLimit] + truncationMarker
	}
	return snippet
}
