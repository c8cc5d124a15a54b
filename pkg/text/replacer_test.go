package text

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/replace-in-files/pkg/encoding"
	"gitlab.com/tozd/go/errors"
)

const testFileContent = "{0}, foo, {0}!"

// newTestFile writes content to a fresh file and returns its path
func newTestFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test-file.txt")
	require.NoError(t, os.WriteFile(path, content, 0644), "writing test file")
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading test file")
	return string(data)
}

func TestReplaceFirst(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		search      string
		replacement string
		want        string
		wantFound   bool
	}{
		{
			name:        "first_occurrence_only",
			content:     "a a a",
			search:      "a",
			replacement: "b",
			want:        "b a a",
			wantFound:   true,
		},
		{
			name:        "special_characters_are_literal",
			content:     "$1 .* (x)",
			search:      ".*",
			replacement: "$&",
			want:        "$1 $& (x)",
			wantFound:   true,
		},
		{
			name:        "no_match",
			content:     "hello",
			search:      "bye",
			replacement: "x",
			want:        "hello",
		},
		{
			name:        "empty_search",
			content:     "hello",
			search:      "",
			replacement: "x",
			want:        "hello",
		},
		{
			name:        "delete_text",
			content:     "hello world",
			search:      " world",
			replacement: "",
			want:        "hello",
			wantFound:   true,
		},
		{
			name:        "multibyte",
			content:     "héllo wörld",
			search:      "ö",
			replacement: "o",
			want:        "héllo world",
			wantFound:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := ReplaceFirst(tt.content, tt.search, tt.replacement)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFound, found)
		})
	}
}

func TestReplaceTextInFile(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces_first_occurrence_per_call", func(t *testing.T) {
		path := newTestFile(t, []byte(testFileContent))

		_, err := ReplaceTextInFile(ctx, path, "{0}", "run", encoding.UTF8)
		require.NoError(t, err)
		assert.Equal(t, "run, foo, {0}!", readFile(t, path))

		_, err = ReplaceTextInFile(ctx, path, "foo", "test", encoding.UTF8)
		require.NoError(t, err)
		_, err = ReplaceTextInFile(ctx, path, "{0}", "run", encoding.UTF8)
		require.NoError(t, err)
		assert.Equal(t, "run, test, run!", readFile(t, path))
	})

	t.Run("search_text_not_found", func(t *testing.T) {
		path := newTestFile(t, []byte(testFileContent))

		result, err := ReplaceTextInFile(ctx, path, "nonexistent", "replacement", encoding.UTF8)
		require.NoError(t, err)
		assert.False(t, result.WasModified)
		assert.Equal(t, testFileContent, readFile(t, path))
	})

	t.Run("empty_search_text", func(t *testing.T) {
		path := newTestFile(t, []byte(testFileContent))

		result, err := ReplaceTextInFile(ctx, path, "", "replacement", encoding.UTF8)
		require.NoError(t, err)
		assert.False(t, result.WasModified)
		assert.Equal(t, path, result.Path)
		assert.Equal(t, testFileContent, readFile(t, path))
	})

	t.Run("empty_search_text_skips_missing_file", func(t *testing.T) {
		_, err := ReplaceTextInFile(ctx, filepath.Join(t.TempDir(), "missing"), "", "x", encoding.UTF8)
		require.NoError(t, err)
	})

	t.Run("default_encoding", func(t *testing.T) {
		path := newTestFile(t, []byte("héllo"))

		result, err := NewFileReplacer().ReplaceTextInFile(ctx, path, "é", "e", "")
		require.NoError(t, err)
		assert.True(t, result.WasModified)
		assert.Equal(t, "hello", readFile(t, path))
	})

	t.Run("replacement_equal_to_search", func(t *testing.T) {
		path := newTestFile(t, []byte("same"))

		result, err := ReplaceTextInFile(ctx, path, "same", "same", encoding.UTF8)
		require.NoError(t, err)
		assert.False(t, result.WasModified)
	})
}

func TestReplaceTextInFileEncodings(t *testing.T) {
	tests := []struct {
		name        string
		enc         encoding.Encoding
		raw         []byte
		search      string
		replacement string
		want        []byte
	}{
		{
			name:        "latin1",
			enc:         encoding.Latin1,
			raw:         []byte{'c', 'a', 'f', 0xe9, ' ', '{', '0', '}'},
			search:      "{0}",
			replacement: "crème",
			want:        []byte{'c', 'a', 'f', 0xe9, ' ', 'c', 'r', 0xe8, 'm', 'e'},
		},
		{
			name:        "utf16le",
			enc:         encoding.UTF16LE,
			raw:         []byte{'a', 0, 'b', 0},
			search:      "b",
			replacement: "c",
			want:        []byte{'a', 0, 'c', 0},
		},
		{
			name:        "ucs2",
			enc:         encoding.UCS2,
			raw:         []byte{'x', 0},
			search:      "x",
			replacement: "yz",
			want:        []byte{'y', 0, 'z', 0},
		},
		{
			name:        "ascii",
			enc:         encoding.ASCII,
			raw:         []byte("version=1"),
			search:      "1",
			replacement: "2",
			want:        []byte("version=2"),
		},
		{
			name:        "base64",
			enc:         encoding.Base64,
			raw:         []byte("hello"),
			search:      "aGVsbG8=",
			replacement: "d29ybGQ=",
			want:        []byte("world"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := newTestFile(t, tt.raw)

			result, err := ReplaceTextInFile(context.Background(), path, tt.search, tt.replacement, tt.enc)
			require.NoError(t, err)
			assert.True(t, result.WasModified)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReplaceTextInFileNoMatchKeepsBytes(t *testing.T) {
	tests := []struct {
		name string
		enc  encoding.Encoding
		raw  []byte
	}{
		{name: "ascii_high_bytes", enc: encoding.ASCII, raw: []byte("caf\xc3\xa9")},
		{name: "utf16le_odd_length", enc: encoding.UTF16LE, raw: []byte("a\x00b")},
		{name: "utf16le_unpaired_surrogate", enc: encoding.UTF16LE, raw: []byte("\x00\xd8a\x00")},
		{name: "ucs2_unpaired_surrogate", enc: encoding.UCS2, raw: []byte("\x00\xdc")},
		{name: "utf8_invalid_bytes", enc: encoding.UTF8, raw: []byte("\xff\xfe")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := newTestFile(t, tt.raw)

			result, err := ReplaceTextInFile(context.Background(), path, "zzz", "yyy", tt.enc)
			require.NoError(t, err)
			assert.False(t, result.WasModified)

			got, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, tt.raw, got, "bytes should be left as they were")
		})
	}
}

func TestReplaceTextInFileNoMatchSkipsWrite(t *testing.T) {
	if os.Getuid() == 0 {
		t.Skip("root ignores file permissions")
	}

	path := newTestFile(t, []byte(testFileContent))
	require.NoError(t, os.Chmod(path, 0444))

	result, err := ReplaceTextInFile(context.Background(), path, "nonexistent", "x", encoding.UTF8)
	require.NoError(t, err, "a read-only file without a match should not be written")
	assert.False(t, result.WasModified)

	_, err = ReplaceTextInFile(context.Background(), path, "foo", "bar", encoding.UTF8)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrWrite))
}

func TestReplaceTextInFileErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("read_error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "missing.txt")

		_, err := ReplaceTextInFile(ctx, path, "a", "b", encoding.UTF8)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRead), "error should match ErrRead")
		assert.True(t, errors.Is(err, os.ErrNotExist), "error should keep its cause")
		assert.Contains(t, err.Error(), "reading file content")

		var ferr *FileError
		require.True(t, errors.As(err, &ferr))
		assert.Equal(t, path, ferr.Path)
	})

	t.Run("directory_read_error", func(t *testing.T) {
		_, err := ReplaceTextInFile(ctx, t.TempDir(), "a", "b", encoding.UTF8)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrRead))
	})

	t.Run("encode_error_is_a_write_error", func(t *testing.T) {
		path := newTestFile(t, []byte("hello"))

		_, err := ReplaceTextInFile(ctx, path, "aGVs", "!!", encoding.Base64)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrWrite), "error should match ErrWrite")
		assert.Contains(t, err.Error(), "saving file content")
		assert.Equal(t, "hello", readFile(t, path), "file should be untouched")
	})
}
