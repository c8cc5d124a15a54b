// Copyright 2025 walteh LLC
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

// Package discovery expands glob patterns into the list of files to edit.
package discovery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// ErrDiscovery matches every failure to expand a pattern.
var ErrDiscovery = errors.Base("getting files")

// 🚫 Error reports a failed expansion together with its cause
type Error struct {
	Pattern string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", ErrDiscovery.Error(), e.Err)
}

func (e *Error) Unwrap() []error {
	return []error{ErrDiscovery, e.Err}
}

// 🔍 Finder lists the files a run should touch
type Finder interface {
	GetFiles(ctx context.Context, pattern, exclude string) ([]string, error)
}

// 🌐 GlobFinder finds files on the local filesystem with doublestar patterns
type GlobFinder struct{}

// 🏭 NewGlobFinder creates a new GlobFinder
func NewGlobFinder() *GlobFinder {
	return &GlobFinder{}
}

// GetFiles implements Finder.
func (f *GlobFinder) GetFiles(ctx context.Context, pattern, exclude string) ([]string, error) {
	return GetFiles(ctx, pattern, exclude)
}

// 📂 GetFiles returns the regular files matching pattern that do not match exclude.
// Paths are relative to the working directory unless pattern is absolute.
//
// Wildcards never match a name starting with a dot: `**/*` skips `.git/config` and
// `.env`, while `.github/**/*.yml` or `**/.env` name them explicitly. A relative
// exclude is matched against paths relative to the working directory, so it also
// applies to an absolute pattern.
func GetFiles(ctx context.Context, pattern, exclude string) ([]string, error) {
	logger := zerolog.Ctx(ctx)

	if pattern == "" {
		return nil, nil
	}

	if exclude != "" {
		exclude = filepath.Clean(exclude)
		if !doublestar.ValidatePathPattern(exclude) {
			return nil, errors.WithStack(&Error{Pattern: exclude, Err: doublestar.ErrBadPattern})
		}
	}

	matches, err := doublestar.FilepathGlob(pattern,
		doublestar.WithFilesOnly(),
		doublestar.WithFailOnIOErrors(),
	)
	if err != nil {
		return nil, errors.WithStack(&Error{Pattern: pattern, Err: err})
	}

	var cwd string
	if exclude != "" && filepath.IsAbs(exclude) != filepath.IsAbs(pattern) {
		if cwd, err = os.Getwd(); err != nil {
			return nil, errors.WithStack(&Error{Pattern: exclude, Err: err})
		}
	}

	allowed := dotSegments(pattern)

	files := make([]string, 0, len(matches))
	for _, path := range matches {
		if hidden(path, allowed) {
			logger.Debug().Str("file", path).Msg("dot file skipped")
			continue
		}
		if exclude != "" && excluded(exclude, path, cwd) {
			logger.Debug().Str("file", path).Str("pattern", exclude).Msg("file excluded by pattern")
			continue
		}
		files = append(files, path)
	}

	return files, nil
}

// dotSegments returns the pattern segments that may match a name starting with a dot.
// Those are the segments that do not open with a wildcard, such as `.github` or
// `{.github,docs}`.
func dotSegments(pattern string) []string {
	var segs []string
	for _, seg := range strings.Split(filepath.ToSlash(pattern), "/") {
		if seg == "" || strings.ContainsRune("*?[", rune(seg[0])) {
			continue
		}
		segs = append(segs, seg)
	}
	return segs
}

// hidden reports whether path has a dot-named segment that no segment in allowed matches.
func hidden(path string, allowed []string) bool {
	for _, name := range strings.Split(filepath.ToSlash(path), "/") {
		if !strings.HasPrefix(name, ".") || name == "." || name == ".." {
			continue
		}
		explicit := false
		for _, seg := range allowed {
			// segments were validated by the glob, so Match cannot fail
			if ok, _ := doublestar.Match(seg, name); ok {
				explicit = true
				break
			}
		}
		if !explicit {
			return true
		}
	}
	return false
}

// excluded matches path against exclude, first moving path to the same kind
// (absolute or relative to cwd) as exclude when cwd is set.
func excluded(exclude, path, cwd string) bool {
	if cwd != "" {
		if filepath.IsAbs(path) {
			if rel, err := filepath.Rel(cwd, path); err == nil {
				path = rel
			}
		} else {
			path = filepath.Join(cwd, path)
		}
	}

	// exclude was validated up front, so PathMatch cannot fail
	ok, _ := doublestar.PathMatch(exclude, path)
	return ok
}
