package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for config file parsers
type Parser interface {
	// 📝 Parse decodes a flat key/value document
	Parse(ctx context.Context, filename string, data []byte) (map[string]string, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

func init() {
	Register(&YAMLParser{})
	Register(&JSONParser{})
	Register(&HCLParser{})
	Register(&TOMLParser{})
}

// LoadFile reads a config file and returns its inputs keyed by input name.
// The format is determined by the file extension:
// - .yaml or .yml for YAML
// - .json for JSON
// - .hcl for HCL
// - .toml for TOML
func LoadFile(ctx context.Context, path string) (map[string]string, error) {
	zerolog.Ctx(ctx).Debug().Str("path", path).Msg("loading config file")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	values, err := p.Parse(ctx, path, data)
	if err != nil {
		return nil, errors.Errorf("parsing config: %w", err)
	}

	for key := range values {
		if !slices.Contains(Keys, key) {
			return nil, errors.Errorf("unknown input %q in %s", key, path)
		}
	}

	return values, nil
}

func hasExt(filename string, exts ...string) bool {
	return slices.Contains(exts, strings.ToLower(filepath.Ext(filename)))
}

// scalarString flattens a decoded scalar so that `max-parallelism: 10` and
// `max-parallelism: "10"` mean the same thing. Floats and dates are rejected since
// their decoded form no longer matches the text that was written.
func scalarString(key string, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case bool, int, int64, uint64, json.Number:
		return fmt.Sprint(val), nil
	case float64:
		return "", errors.Errorf("input %q is a number with a fraction, quote it to keep it as written", key)
	case time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return "", errors.Errorf("input %q is a date, quote it to keep it as written", key)
	default:
		return "", errors.Errorf("input %q must be a scalar, got %T", key, v)
	}
}

func flatten(raw map[string]any) (map[string]string, error) {
	values := make(map[string]string, len(raw))
	for key, v := range raw {
		s, err := scalarString(key, v)
		if err != nil {
			return nil, err
		}
		values[key] = s
	}
	return values, nil
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func (p *YAMLParser) CanParse(filename string) bool {
	return hasExt(filename, ".yaml", ".yml")
}

// Parse keeps scalars exactly as written, so `1.10` stays "1.10" and dates stay text.
func (p *YAMLParser) Parse(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return map[string]string{}, nil
		}
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if len(doc.Content) == 0 {
		return map[string]string{}, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.Errorf("parsing YAML: expected a mapping at the top level, got %s", root.Tag)
	}

	values := make(map[string]string, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i].Value, root.Content[i+1]
		if val.Kind == yaml.AliasNode && val.Alias != nil {
			val = val.Alias
		}
		if val.Kind != yaml.ScalarNode {
			return nil, errors.Errorf("input %q must be a scalar", key)
		}
		if val.Tag == "!!null" {
			values[key] = ""
			continue
		}
		values[key] = val.Value
	}
	return values, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func (p *JSONParser) CanParse(filename string) bool {
	return hasExt(filename, ".json")
}

func (p *JSONParser) Parse(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	raw := map[string]any{}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return flatten(raw)
}

// 🔧 TOMLParser implements the Parser interface for TOML files
type TOMLParser struct{}

func (p *TOMLParser) CanParse(filename string) bool {
	return hasExt(filename, ".toml")
}

func (p *TOMLParser) Parse(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	raw := map[string]any{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, errors.Errorf("parsing TOML: %w", err)
	}
	return flatten(raw)
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func (p *HCLParser) CanParse(filename string) bool {
	return hasExt(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, filename string, data []byte) (map[string]string, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	attrs, diags := hclFile.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	values := make(map[string]string, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, errors.Errorf("evaluating %q: %s", name, diags.Error())
		}

		if val.Type() == cty.Number && val.IsKnown() && !val.IsNull() && !val.AsBigFloat().IsInt() {
			return nil, errors.Errorf("input %q is a number with a fraction, quote it to keep it as written", name)
		}

		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return nil, errors.Errorf("input %q must be a scalar: %w", name, err)
		}

		if str.IsNull() {
			values[name] = ""
			continue
		}
		values[name] = str.AsString()
	}

	return values, nil
}
