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

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/walteh/replace-in-files/pkg/config"
	"github.com/walteh/replace-in-files/pkg/encoding"
	"github.com/walteh/replace-in-files/pkg/log"
	"github.com/walteh/replace-in-files/pkg/operation"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/term"
)

const genericFailure = "An error occurred. Run in debug mode for additional info."

// 🧰 app holds the state shared by the command tree
type app struct {
	stdout io.Writer
	stderr io.Writer
	// getenv is the only source of environment variables, INPUT_* included
	getenv func(string) string

	v *viper.Viper

	configFile string
	debug      bool
	output     string

	ulog *log.Logger
}

// 🏗️ newRootCommand builds the command tree
func newRootCommand(a *app) *cobra.Command {
	a.v = viper.New()

	cmd := &cobra.Command{
		Use:   "replace-in-files",
		Short: "Replace text in every file matching a glob pattern",
		Long: `replace-in-files replaces the first occurrence of a literal string in every
file matching a glob pattern. Files are edited in chunks of max-parallelism files.

Every input can be given as a flag, as an INPUT_<NAME> environment variable
(the way GitHub Actions passes inputs, e.g. INPUT_SEARCH-TEXT) or in a config
file (.yaml, .yml, .json, .hcl or .toml).`,
		Version:       GetVersionInfo().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context())
		},
	}

	addRootFlags(cmd, a)
	addInputFlags(cmd, a.v)

	cmd.AddCommand(newVersionCmd(a))

	return cmd
}

// addRootFlags adds shared flags to the root command
func addRootFlags(cmd *cobra.Command, a *app) {
	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "config file path (.yaml, .yml, .json, .hcl, .toml)")
	cmd.PersistentFlags().BoolVarP(&a.debug, "debug", "d", false, "enable debug logging")
	cmd.PersistentFlags().StringVar(&a.output, "output", string(log.ModeAuto), "output style: auto, console or actions")
}

// addInputFlags declares one flag per input and binds it to v
func addInputFlags(cmd *cobra.Command, v *viper.Viper) {
	flags := cmd.Flags()
	flags.String(config.KeyFiles, "", "glob pattern of the files to edit")
	flags.String(config.KeySearchText, "", "literal text to search for")
	flags.String(config.KeyReplacementText, "", "text to replace the first occurrence with")
	flags.String(config.KeyExclude, "", "glob pattern of files to leave alone")
	flags.String(config.KeyEncoding, string(encoding.Default), fmt.Sprintf("file encoding, one of %v", encoding.All()))
	flags.String(config.KeyMaxParallelism, fmt.Sprint(config.DefaultMaxParallelism), "number of files edited at the same time")

	for _, key := range config.Keys {
		// the flag was declared just above, so binding cannot fail
		_ = v.BindPFlag(key, flags.Lookup(key))
	}
}

// inputEnv returns the environment variable GitHub Actions uses for an input,
// e.g. INPUT_SEARCH-TEXT for search-text.
func inputEnv(key string) string {
	return "INPUT_" + strings.ToUpper(key)
}

// setup configures logging and layers the config file and INPUT_* variables under the flags
func (a *app) setup(cmd *cobra.Command) error {
	mode, err := log.ParseMode(a.output)
	if err != nil {
		return err
	}
	mode = mode.Resolve(a.getenv)

	debug := a.debug || a.getenv("RUNNER_DEBUG") == "1"

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}

	zlog := newZerolog(a.stderr, level).With().Str("run_id", uuid.NewString()).Logger()
	a.ulog = log.New(a.stdout, zlog, mode)

	ctx := zlog.WithContext(cmd.Context())
	ctx = log.NewContext(ctx, a.ulog)
	cmd.SetContext(ctx)

	if err := a.loadConfigFile(ctx); err != nil {
		return err
	}

	// environment sits between flags and the config file
	for _, key := range config.Keys {
		if cmd.Root().Flags().Changed(key) {
			continue
		}
		if val := a.getenv(inputEnv(key)); val != "" {
			a.v.Set(key, val)
		}
	}

	return nil
}

// loadConfigFile merges the optional --config file into the input layers
func (a *app) loadConfigFile(ctx context.Context) error {
	if a.configFile == "" {
		return nil
	}

	values, err := config.LoadFile(ctx, a.configFile)
	if err != nil {
		return errors.Errorf("loading config: %w", err)
	}

	merged := make(map[string]any, len(values))
	for k, val := range values {
		merged[k] = val
	}
	if err := a.v.MergeConfigMap(merged); err != nil {
		return errors.Errorf("merging config: %w", err)
	}

	return nil
}

// newZerolog writes JSON lines, or human readable lines when w is a terminal
func newZerolog(w io.Writer, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		w = zerolog.NewConsoleWriter(func(cw *zerolog.ConsoleWriter) {
			cw.Out = f
		})
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// run validates the inputs and replaces text in the matching files
func (a *app) run(ctx context.Context) error {
	inputs := config.InputsFrom(a.v.GetString)

	settings, err := inputs.Validate()
	if err != nil {
		return err
	}

	_, err = operation.Run(ctx, operation.Options{Settings: settings})
	return err
}

// 🚨 reportFailure writes err as the failure message of the run
func (a *app) reportFailure(err error) {
	msg := err.Error()

	var perr *operation.PanicError
	if errors.As(err, &perr) {
		msg = genericFailure
		if a.ulog != nil {
			a.ulog.Debugf("%v\n%s", perr.Value, perr.Stack)
		}
	}

	if a.ulog == nil {
		fmt.Fprintln(a.stderr, msg)
		return
	}
	a.ulog.Error(msg)
}

// execute runs the command tree and returns the process exit code
func execute(ctx context.Context, a *app, args []string) (code int) {
	defer func() {
		if r := recover(); r != nil {
			a.reportFailure(&operation.PanicError{Value: r})
			code = 1
		}
	}()

	cmd := newRootCommand(a)
	cmd.SetArgs(args)
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		a.reportFailure(err)
		return 1
	}
	return 0
}
