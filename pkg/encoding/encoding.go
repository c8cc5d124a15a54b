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

// Package encoding names the text encodings files can be read and written with.
package encoding

import (
	"encoding/base64"
	"slices"
	"strings"

	"gitlab.com/tozd/go/errors"
	xencoding "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// 🔤 Encoding is one of the supported text encodings
type Encoding string

const (
	ASCII   Encoding = "ascii"
	UTF8    Encoding = "utf8"
	UTF16LE Encoding = "utf16le"
	UCS2    Encoding = "ucs2"
	Base64  Encoding = "base64"
	Latin1  Encoding = "latin1"
)

// Default is used when no encoding is given.
const Default = UTF8

// ErrInvalidEncoding is returned for names outside the supported set.
var ErrInvalidEncoding = errors.Base("invalid encoding")

var encodings = []Encoding{ASCII, UTF8, UTF16LE, UCS2, Base64, Latin1}

// 📋 All returns the supported encodings
func All() []Encoding {
	return slices.Clone(encodings)
}

// ✅ IsValid reports whether name is exactly one of the supported encodings
func IsValid(name string) bool {
	return slices.Contains(encodings, Encoding(name))
}

// 🔍 Parse converts name to an Encoding
func Parse(name string) (Encoding, error) {
	if !IsValid(name) {
		return "", errors.Errorf("%w: %s", ErrInvalidEncoding, name)
	}
	return Encoding(name), nil
}

func (e Encoding) String() string {
	return string(e)
}

func (e Encoding) orDefault() Encoding {
	if e == "" {
		return Default
	}
	return e
}

// 📖 Decode turns raw file bytes into text
func (e Encoding) Decode(data []byte) (string, error) {
	switch e.orDefault() {
	case UTF8:
		return string(data), nil
	case ASCII:
		// high bit is dropped, the same way a 7-bit reader would see the file
		out := make([]byte, len(data))
		for i, b := range data {
			out[i] = b & 0x7f
		}
		return string(out), nil
	case Latin1:
		return decodeWith(charmap.ISO8859_1, data)
	case UTF16LE, UCS2:
		return decodeWith(utf16le, data)
	case Base64:
		return base64.StdEncoding.EncodeToString(data), nil
	default:
		return "", errors.Errorf("%w: %s", ErrInvalidEncoding, e)
	}
}

// 📝 Encode turns text back into raw file bytes
func (e Encoding) Encode(text string) ([]byte, error) {
	switch e.orDefault() {
	case UTF8:
		return []byte(text), nil
	case ASCII, Latin1:
		return encodeWith(charmap.ISO8859_1, text)
	case UTF16LE, UCS2:
		return encodeWith(utf16le, text)
	case Base64:
		return decodeBase64(text)
	default:
		return nil, errors.Errorf("%w: %s", ErrInvalidEncoding, e)
	}
}

// BOMs are left in the text so they survive a round trip.
var utf16le = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func decodeWith(enc xencoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", errors.Errorf("decoding content: %w", err)
	}
	return string(out), nil
}

func encodeWith(enc xencoding.Encoding, text string) ([]byte, error) {
	out, err := xencoding.ReplaceUnsupported(enc.NewEncoder()).String(text)
	if err != nil {
		return nil, errors.Errorf("encoding content: %w", err)
	}
	return []byte(out), nil
}

// decodeBase64 accepts padded or unpadded input in either the standard or URL alphabet.
func decodeBase64(text string) ([]byte, error) {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\r', '\n', '=':
			return -1
		case '-':
			return '+'
		case '_':
			return '/'
		}
		return r
	}, text)

	out, err := base64.RawStdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.Errorf("decoding base64 content: %w", err)
	}
	return out, nil
}
