// Package operation drives a replacement run from validated settings to edited files
package operation

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/replace-in-files/pkg/config"
	"github.com/walteh/replace-in-files/pkg/discovery"
	"github.com/walteh/replace-in-files/pkg/encoding"
	"github.com/walteh/replace-in-files/pkg/log"
	"github.com/walteh/replace-in-files/pkg/text"
	"gitlab.com/tozd/go/errors"
)

// ✏️ Replacer rewrites a single file
type Replacer interface {
	ReplaceTextInFile(ctx context.Context, path, search, replacement string, enc encoding.Encoding) (*text.Result, error)
}

// 🔧 Options contains everything a run needs
type Options struct {
	// Settings are the validated inputs
	Settings *config.Settings
	// Finder lists the files to edit, defaults to a discovery.GlobFinder
	Finder discovery.Finder
	// Replacer edits each file, defaults to a text.FileReplacer
	Replacer Replacer
}

// 📊 Result summarises a run
type Result struct {
	Files     []string
	Modified  int
	Unchanged int
	Duration  time.Duration
}

// 🏃 Run finds the files matching the settings and replaces the search text in each,
// at most Settings.MaxParallelism files at a time. Finding no files is not an error.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Settings == nil {
		return nil, errors.Errorf("settings are required")
	}
	if opts.Finder == nil {
		opts.Finder = discovery.NewGlobFinder()
	}
	if opts.Replacer == nil {
		opts.Replacer = text.NewFileReplacer()
	}

	s := opts.Settings
	ulog := log.FromContext(ctx)
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("settings", s.String()).Msg("starting run")

	started := time.Now()

	if ulog.Mode() == log.ModeConsole {
		ulog.Header(s.String())
	}

	files, err := opts.Finder.GetFiles(ctx, s.Files, s.Exclude)
	if err != nil {
		return nil, err
	}

	result := &Result{Files: files}

	if len(files) == 0 {
		ulog.Warning("No files found for the given pattern.")
		result.Duration = time.Since(started)
		return result, nil
	}

	ulog.Infof("Found %d files for the given pattern.", len(files))
	ulog.Infof("Replacing %q with %q.", s.SearchText, s.ReplacementText)

	var modified, unchanged atomic.Int64

	err = ProcessInChunks(ctx, files, func(ctx context.Context, path string) error {
		ulog.Infof("Replacing text in file %s", path)

		res, err := opts.Replacer.ReplaceTextInFile(ctx, path, s.SearchText, s.ReplacementText, s.Encoding)
		if err != nil {
			return err
		}

		if res.WasModified {
			modified.Add(1)
		} else {
			unchanged.Add(1)
		}

		ulog.LogFileOperation(ctx, log.FileOperation{
			Path:       path,
			Encoding:   s.Encoding.String(),
			IsModified: res.WasModified,
		})
		return nil
	}, s.MaxParallelism)
	if err != nil {
		return nil, err
	}

	result.Modified = int(modified.Load())
	result.Unchanged = int(unchanged.Load())
	result.Duration = time.Since(started)

	ulog.Success("Done!")
	ulog.LogSummary(log.Summary{
		Found:     len(files),
		Modified:  result.Modified,
		Unchanged: result.Unchanged,
		Duration:  result.Duration,
	})
	if ulog.Mode() == log.ModeConsole {
		ulog.LogNewline()
	}

	return result, nil
}
