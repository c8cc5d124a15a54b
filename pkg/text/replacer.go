// Package text performs literal text replacement in files.
package text

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/replace-in-files/pkg/encoding"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrRead matches failures to read a file.
	ErrRead = errors.Base("reading file content")
	// ErrWrite matches failures to encode or write a file.
	ErrWrite = errors.Base("saving file content")
)

// 🚫 FileError reports an I/O failure for a specific path
type FileError struct {
	Path string
	Kind error // ErrRead or ErrWrite
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Kind.Error(), e.Path, e.Err)
}

func (e *FileError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// 📊 Result describes what happened to a single file
type Result struct {
	Path        string
	WasModified bool
}

// 🔄 ReplaceFirst replaces the first literal occurrence of search in content.
// It reports whether an occurrence was found. An empty search never matches.
func ReplaceFirst(content, search, replacement string) (string, bool) {
	if search == "" {
		return content, false
	}

	idx := strings.Index(content, search)
	if idx < 0 {
		return content, false
	}

	return content[:idx] + replacement + content[idx+len(search):], true
}

// 📝 FileReplacer rewrites files in place
type FileReplacer struct{}

// 🏭 NewFileReplacer creates a new FileReplacer
func NewFileReplacer() *FileReplacer {
	return &FileReplacer{}
}

// ReplaceTextInFile calls the package level ReplaceTextInFile.
func (r *FileReplacer) ReplaceTextInFile(ctx context.Context, path, search, replacement string, enc encoding.Encoding) (*Result, error) {
	return ReplaceTextInFile(ctx, path, search, replacement, enc)
}

// ✏️ ReplaceTextInFile replaces the first occurrence of search with replacement in the
// file at path. The file is decoded and re-encoded with enc (utf8 when empty) and
// rewritten in full. The file is left untouched when search is empty or the
// replacement would not change the decoded text.
//
// The write is not atomic: a failure while writing can leave a truncated file.
func ReplaceTextInFile(ctx context.Context, path, search, replacement string, enc encoding.Encoding) (*Result, error) {
	result := &Result{Path: path}
	if search == "" {
		return result, nil
	}

	logger := zerolog.Ctx(ctx).With().Str("file", path).Str("encoding", enc.String()).Logger()

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WithStack(&FileError{Path: path, Kind: ErrRead, Err: err})
	}

	content, err := enc.Decode(raw)
	if err != nil {
		return nil, errors.WithStack(&FileError{Path: path, Kind: ErrRead, Err: err})
	}

	updated, found := ReplaceFirst(content, search, replacement)
	result.WasModified = found && updated != content

	// ascii and utf16le decoding is lossy, so unchanged text must not be written back
	if !result.WasModified {
		logger.Debug().Bool("found", found).Msg("file left untouched")
		return result, nil
	}

	out, err := enc.Encode(updated)
	if err != nil {
		return nil, errors.WithStack(&FileError{Path: path, Kind: ErrWrite, Err: err})
	}

	if err := os.WriteFile(path, out, 0644); err != nil {
		return nil, errors.WithStack(&FileError{Path: path, Kind: ErrWrite, Err: err})
	}

	logger.Debug().Bool("found", found).Int("bytes", len(out)).Msg("file rewritten")

	return result, nil
}
