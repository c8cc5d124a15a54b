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

package log

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎨 Display configuration
const (
	fileIndent  = 4  // spaces to indent file entries
	nameWidth   = 35 // Base width for filename
	statusWidth = 15 // Width for status text
)

// 🎯 FileOperation represents a file operation for logging
type FileOperation struct {
	Path       string // File path
	Encoding   string // Encoding the file was read with
	IsModified bool   // Whether the file content changed
}

// 📊 Summary describes a finished run
type Summary struct {
	Found     int
	Modified  int
	Unchanged int
	Duration  time.Duration
}

// 🎯 Logger writes user facing messages and mirrors them to zerolog
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mode    Mode
	mu      sync.Mutex
}

// 🏭 New creates a new logger
func New(console io.Writer, zlog zerolog.Logger, mode Mode) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		mode:    mode,
		mu:      sync.Mutex{},
	}
}

// Mode returns the output style of the logger.
func (l *Logger) Mode() Mode {
	return l.mode
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context
func NewContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// 📝 formatFileOperation formats a file operation for display
func (l *Logger) formatFileOperation(op FileOperation) string {
	symbol, symbolColor, status := '•', color.FgCyan, "unchanged"
	if op.IsModified {
		symbol, symbolColor, status = '⟳', color.FgBlue, "replaced"
	}

	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Path),
		color.New(color.FgYellow).Sprint(fmt.Sprintf("%-*s", statusWidth, status)),
		color.New(color.Faint).Sprint(op.Encoding))
}

// 📝 LogFileOperation logs the outcome for one file
func (l *Logger) LogFileOperation(ctx context.Context, op FileOperation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.mode == ModeActions {
		status := "unchanged"
		if op.IsModified {
			status = "replaced"
		}
		fmt.Fprintln(l.console, command("debug", fmt.Sprintf("%s: %s", op.Path, status)))
	} else {
		fmt.Fprintln(l.console, l.formatFileOperation(op))
	}

	l.zlog.Info().
		Str("file", op.Path).
		Str("encoding", op.Encoding).
		Bool("is_modified", op.IsModified).
		Msg("file operation")
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, msg)
	} else {
		name := color.New(color.Bold, color.FgCyan).Sprint("replace-in-files")
		fmt.Fprintf(l.console, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, msg)
	} else {
		fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, command("warning", msg))
	} else {
		fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	}
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, command("error", msg))
	} else {
		fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	}
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, msg)
	} else {
		fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	}
	l.zlog.Info().Msg(msg)
}

// 📝 Debug logs a message only meant for troubleshooting. The Actions runner hides
// debug commands unless step debug logging is on; the console shows them only at
// debug level.
func (l *Logger) Debug(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.mode == ModeActions {
		fmt.Fprintln(l.console, command("debug", msg))
	} else if l.zlog.GetLevel() <= zerolog.DebugLevel {
		fmt.Fprintf(l.console, "🔍 %s\n", color.New(color.Faint).Sprint(msg))
	}
	l.zlog.Debug().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Debugf logs a formatted debug message
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.Debug(fmt.Sprintf(format, args...))
}

// 📋 LogSummary prints the totals of a run
func (l *Logger) LogSummary(s Summary) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.zlog.Info().
		Int("found", s.Found).
		Int("modified", s.Modified).
		Int("unchanged", s.Unchanged).
		Dur("duration", s.Duration).
		Msg("run summary")

	if l.mode == ModeActions {
		fmt.Fprintf(l.console, "Modified %d of %d files in %s.\n", s.Modified, s.Found, s.Duration.Round(time.Millisecond))
		return
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"Found", "Modified", "Unchanged", "Time"},
		{
			fmt.Sprint(s.Found),
			fmt.Sprint(s.Modified),
			fmt.Sprint(s.Unchanged),
			s.Duration.Round(time.Millisecond).String(),
		},
	}).Srender()
	if err != nil {
		l.zlog.Debug().Err(err).Msg("rendering summary table")
		return
	}

	fmt.Fprintln(l.console)
	fmt.Fprintln(l.console, table)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}
