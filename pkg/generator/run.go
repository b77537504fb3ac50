package generator

import (
	"cmp"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/src-d/enry/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Sumatoshi-tech/autodoc/pkg/observability"
	"github.com/Sumatoshi-tech/autodoc/pkg/textutil"
)

const languageJava = "Java"

// Skip records a file that was not processed.
type Skip struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary aggregates a Run.
type Summary struct {
	Results []*Result `json:"results"`
	Skipped []Skip    `json:"skipped,omitempty"`
}

// Total returns the number of comments with action a across all files.
func (s *Summary) Total(a Action) int {
	n := 0

	for _, r := range s.Results {
		n += r.Count(a)
	}

	return n
}

// FileFindings groups the findings of one file.
type FileFindings struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
}

// Run generates comments for every Java file under paths. With write set,
// changed files are rewritten in place. Results are sorted by path.
func (g *Generator) Run(ctx context.Context, paths []string, write bool) (*Summary, error) {
	ctx, span := g.tracer.Start(ctx, "autodoc.generator.run")
	defer span.End()

	var (
		mu      sync.Mutex
		summary Summary
	)

	skipped, err := g.walk(ctx, paths, func(ctx context.Context, path string, mode fs.FileMode, src []byte) error {
		result, genErr := g.Generate(ctx, path, src)
		if genErr != nil {
			return genErr
		}

		if write && result.Stale {
			writeErr := os.WriteFile(path, result.Output, mode.Perm())
			if writeErr != nil {
				return fmt.Errorf("write %s: %w", path, writeErr)
			}
		}

		mu.Lock()
		summary.Results = append(summary.Results, result)
		mu.Unlock()

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(summary.Results, func(a, b *Result) int { return cmp.Compare(a.Path, b.Path) })
	summary.Skipped = skipped

	return &summary, nil
}

// CheckAll runs Check over every Java file under paths and returns the files
// with findings, sorted by path.
func (g *Generator) CheckAll(ctx context.Context, paths []string) ([]FileFindings, error) {
	ctx, span := g.tracer.Start(ctx, "autodoc.generator.check")
	defer span.End()

	var (
		mu  sync.Mutex
		out []FileFindings
	)

	_, err := g.walk(ctx, paths, func(ctx context.Context, path string, _ fs.FileMode, src []byte) error {
		findings, checkErr := g.Check(ctx, path, src)
		if checkErr != nil {
			return checkErr
		}

		if len(findings) == 0 {
			return nil
		}

		mu.Lock()
		out = append(out, FileFindings{Path: path, Findings: findings})
		mu.Unlock()

		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(out, func(a, b FileFindings) int { return cmp.Compare(a.Path, b.Path) })

	return out, nil
}

type visitFunc func(ctx context.Context, path string, mode fs.FileMode, src []byte) error

// walk feeds every Java file under paths to visit on a bounded worker pool.
// Vendored directories are not descended into.
func (g *Generator) walk(ctx context.Context, paths []string, visit visitFunc) ([]Skip, error) {
	files, err := collect(paths)
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		skipped []Skip
	)

	skip := func(path, reason string) {
		g.logger.DebugContext(ctx, "file skipped", slog.String("path", path), slog.String("reason", reason))
		g.metrics.RecordFile(ctx, observability.FileStats{Skipped: true})

		mu.Lock()
		skipped = append(skipped, Skip{Path: path, Reason: reason})
		mu.Unlock()
	}

	workers := g.opts.Workers
	if workers <= 0 {
		workers = 1
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for _, path := range files {
		if groupCtx.Err() != nil {
			break
		}

		group.Go(func() error {
			if ctxErr := groupCtx.Err(); ctxErr != nil {
				return ctxErr
			}

			info, statErr := os.Stat(path)
			if statErr != nil {
				return fmt.Errorf("stat %s: %w", path, statErr)
			}

			size := uint64(max(info.Size(), 0))
			if limit := g.opts.MaxFileSize; limit > 0 && size > limit {
				skip(path, fmt.Sprintf("size %s exceeds limit %s", humanize.IBytes(size), humanize.IBytes(limit)))

				return nil
			}

			src, readErr := os.ReadFile(path)
			if readErr != nil {
				return fmt.Errorf("read %s: %w", path, readErr)
			}

			if textutil.IsBinary(src) {
				skip(path, "binary content")

				return nil
			}

			if lang := enry.GetLanguage(filepath.Base(path), src); lang != languageJava {
				skip(path, "language "+lang)

				return nil
			}

			return visit(groupCtx, path, info.Mode(), src)
		})
	}

	err = group.Wait()
	if err == nil {
		err = ctx.Err()
	}

	if err != nil {
		return nil, err
	}

	return skipped, nil
}

// collect expands directories into the .java files they contain. Explicit
// file arguments are kept whatever their extension.
func collect(paths []string) ([]string, error) {
	var files []string

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", root, err)
		}

		if !info.IsDir() {
			files = append(files, root)

			continue
		}

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}

			if entry.IsDir() {
				rel, relErr := filepath.Rel(root, path)
				if relErr == nil && rel != "." && enry.IsVendor(filepath.ToSlash(rel)+"/") {
					return filepath.SkipDir
				}

				return nil
			}

			if filepath.Ext(path) == ".java" {
				files = append(files, path)
			}

			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", root, err)
		}
	}

	return files, nil
}
