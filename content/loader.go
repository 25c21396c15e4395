// ABOUTME: Populates a content mapping from a directory tree with bounded parallel reads.
// ABOUTME: Skips hidden and ignored paths; optionally renders Markdown files to HTML.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/samber/lo"
	"github.com/yuin/goldmark"
	"golang.org/x/sync/errgroup"
)

// LoadOptions controls how a directory is turned into a content mapping.
type LoadOptions struct {
	// Ignore holds path.Match patterns tested against each relative path and its base name.
	Ignore []string
	// Markdown renders *.md files to HTML, stored under the *.html key.
	Markdown bool
	// Concurrency bounds parallel file reads. Zero means 8.
	Concurrency int
}

// Load reads every regular file under dir into a mapping keyed by its
// slash-separated path relative to dir.
func Load(ctx context.Context, dir string, opts LoadOptions) (map[string][]byte, error) {
	paths, err := listFiles(dir, opts.Ignore)
	if err != nil {
		return nil, err
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 8
	}

	var mu sync.Mutex
	files := make(map[string][]byte, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, rel := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			body, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("reading %s: %w", rel, err)
			}

			key := rel
			if opts.Markdown && strings.EqualFold(path.Ext(rel), ".md") {
				body, err = renderMarkdown(body)
				if err != nil {
					return fmt.Errorf("rendering %s: %w", rel, err)
				}
				key = strings.TrimSuffix(rel, path.Ext(rel)) + ".html"
			}

			mu.Lock()
			files[key] = body
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// listFiles walks dir and returns the relative paths that survive filtering.
func listFiles(dir string, ignore []string) ([]string, error) {
	var all []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if isHidden(rel) || ignored(rel, ignore) {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			all = append(all, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	return lo.Filter(all, func(rel string, _ int) bool {
		return !isHidden(rel) && !ignored(rel, ignore)
	}), nil
}

func isHidden(rel string) bool {
	return strings.HasPrefix(path.Base(rel), ".")
}

func ignored(rel string, patterns []string) bool {
	return lo.SomeBy(patterns, func(pattern string) bool {
		if ok, _ := path.Match(pattern, rel); ok {
			return true
		}
		ok, _ := path.Match(pattern, path.Base(rel))
		return ok
	})
}

func renderMarkdown(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert(src, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
