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

package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/walteh/replace-in-files/pkg/encoding"
	"gitlab.com/tozd/go/errors"
)

// 🔑 Input names, shared by flags, environment variables and config files
const (
	KeyFiles           = "files"
	KeySearchText      = "search-text"
	KeyReplacementText = "replacement-text"
	KeyExclude         = "exclude"
	KeyEncoding        = "encoding"
	KeyMaxParallelism  = "max-parallelism"
)

// Keys lists every known input name.
var Keys = []string{
	KeyFiles,
	KeySearchText,
	KeyReplacementText,
	KeyExclude,
	KeyEncoding,
	KeyMaxParallelism,
}

// DefaultMaxParallelism bounds how many files are open at once when nothing is configured.
const DefaultMaxParallelism = 10

// ErrInvalidParallelism is returned when max-parallelism is not a positive integer.
var ErrInvalidParallelism = errors.Base("invalid max-parallelism")

// 📥 Inputs holds the raw, unvalidated configuration values
type Inputs struct {
	Files           string
	SearchText      string
	ReplacementText string
	Exclude         string
	Encoding        string
	MaxParallelism  string
}

// ⚙️ Settings is the validated form of Inputs
type Settings struct {
	Files           string
	SearchText      string
	ReplacementText string
	Exclude         string
	Encoding        encoding.Encoding
	MaxParallelism  int
}

// 🏭 InputsFrom builds Inputs by looking every key up with get
func InputsFrom(get func(key string) string) Inputs {
	return Inputs{
		Files:           get(KeyFiles),
		SearchText:      get(KeySearchText),
		ReplacementText: get(KeyReplacementText),
		Exclude:         get(KeyExclude),
		Encoding:        get(KeyEncoding),
		MaxParallelism:  get(KeyMaxParallelism),
	}
}

// 🔍 Validate checks the encoding first, then max-parallelism
func (in Inputs) Validate() (*Settings, error) {
	enc, err := encoding.Parse(in.Encoding)
	if err != nil {
		return nil, err
	}

	if !IsPositiveInteger(in.MaxParallelism) {
		return nil, errors.Errorf("%w: %s", ErrInvalidParallelism, in.MaxParallelism)
	}

	// IsPositiveInteger already proved this parses
	limit, _ := strconv.Atoi(strings.TrimSpace(in.MaxParallelism))

	return &Settings{
		Files:           in.Files,
		SearchText:      in.SearchText,
		ReplacementText: in.ReplacementText,
		Exclude:         in.Exclude,
		Encoding:        enc,
		MaxParallelism:  limit,
	}, nil
}

// 📝 String returns a short description of the run
func (s *Settings) String() string {
	str := fmt.Sprintf("%s [%s, max %d]", s.Files, s.Encoding, s.MaxParallelism)
	if s.Exclude != "" {
		str += " excluding " + s.Exclude
	}
	return str
}

// ✅ IsPositiveInteger reports whether value is a base-10 integer greater than zero
func IsPositiveInteger(value string) bool {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return false
	}

	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return false
	}

	return n > 0
}
