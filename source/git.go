// Copyright 2025 Scribelab
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package source

import (
	"context"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-git/v5"

	"github.com/scribelab/docvec/config"
	"github.com/scribelab/docvec/core"
	"github.com/scribelab/docvec/parser"
)

// GitLoader clones configured repositories into a scratch directory and
// yields one document per file matched by the configured glob patterns.
type GitLoader struct {
	repos   []config.RepoSource
	scratch string
	logger  *slog.Logger
	clone   func(ctx context.Context, url, dir string) error
}

// NewGitLoader returns a loader for the given repository sources.
// Clones are placed under scratch, which must outlive the iteration.
func NewGitLoader(repos []config.RepoSource, scratch string, logger *slog.Logger) *GitLoader {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitLoader{
		repos:   repos,
		scratch: scratch,
		logger:  logger.With("component", "source.git"),
		clone:   shallowClone,
	}
}

// Name identifies the loader in logs and run summaries.
func (g *GitLoader) Name() string { return "git" }

// Load clones each repository shallowly and yields its glob matches in
// pattern order. A file matched by more than one pattern is loaded
// once. A pattern that matches nothing logs a warning and is skipped.
func (g *GitLoader) Load(ctx context.Context) iter.Seq2[*core.Document, error] {
	return func(yield func(*core.Document, error) bool) {
		for _, src := range g.repos {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}

			name := RepoName(src.Repo)
			dir := filepath.Join(g.scratch, "repo_sources", name)
			g.logger.Info("cloning repository", "repo", src.Repo, "dir", dir)
			if err := g.clone(ctx, src.Repo, dir); err != nil {
				if !yield(nil, fmt.Errorf("%w: clone %s: %v", core.ErrFetch, src.Repo, err)) {
					return
				}
				continue
			}

			if !g.yieldMatches(ctx, dir, name, src, yield) {
				return
			}
		}
	}
}

func (g *GitLoader) yieldMatches(ctx context.Context, dir, name string, src config.RepoSource, yield func(*core.Document, error) bool) bool {
	fsys := os.DirFS(dir)
	seen := make(map[string]bool)

	for _, pattern := range src.Globs {
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			if !yield(nil, fmt.Errorf("%w: glob %q: %v", core.ErrFetch, pattern, err)) {
				return false
			}
			continue
		}
		if len(matches) == 0 {
			g.logger.Warn("glob matched no files", "repo", name, "pattern", pattern)
			continue
		}

		for _, rel := range matches {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return false
			}
			if seen[rel] {
				continue
			}
			seen[rel] = true

			info, err := fs.Stat(fsys, rel)
			if err != nil || info.IsDir() {
				continue
			}

			doc, err := g.loadFile(dir, name, src.Repo, rel)
			if err != nil {
				if !yield(nil, err) {
					return false
				}
				continue
			}
			if !yield(doc, nil) {
				return false
			}
		}
	}
	return true
}

func (g *GitLoader) loadFile(root, name, repoURL, rel string) (*core.Document, error) {
	p, err := parser.ForPath(rel)
	if err != nil {
		return nil, fmt.Errorf("%s/%s: %w", name, rel, err)
	}

	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s/%s: %v", core.ErrFetch, name, rel, err)
	}

	text, err := p.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s/%s: %v", core.ErrUnsupportedFormat, name, rel, err)
	}

	return &core.Document{
		Source:  name + "/" + rel,
		Title:   path.Base(rel),
		Content: text,
		Metadata: map[string]string{
			"repo": repoURL,
			"path": rel,
		},
	}, nil
}

// RepoName derives a directory-safe name from a repository URL: the
// final path element with any .git suffix removed.
func RepoName(url string) string {
	s := strings.TrimRight(url, "/")
	s = strings.TrimSuffix(s, ".git")
	if i := strings.LastIndexAny(s, "/:"); i >= 0 {
		s = s[i+1:]
	}
	if s == "" {
		return "repo"
	}
	return s
}

// shallowClone fetches only the tip of the default branch. History is
// not needed to read the working tree.
func shallowClone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL:          url,
		Depth:        1,
		SingleBranch: true,
	})
	return err
}
