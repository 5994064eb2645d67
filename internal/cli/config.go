package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"dicom-anonymizer/internal/anonymizer"
)

// ConfigOptions describes how the effective rule set is assembled: an
// optional config file (JSON or YAML by extension), an optional UID root
// override, and tags forced to Keep.
type ConfigOptions struct {
	Path    string
	UIDRoot string
	Exclude []string
}

// BuildConfig assembles and freezes the effective config.
func BuildConfig(opts ConfigOptions) (*anonymizer.Config, error) {
	cfg := anonymizer.DefaultConfig()
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("could not read config file: %w", err)
		}
		if isYAMLPath(opts.Path) {
			if data, err = yamlToJSON(data); err != nil {
				return nil, fmt.Errorf("config file %s: %w", opts.Path, err)
			}
		}
		if cfg, err = anonymizer.ParseConfig(data); err != nil {
			return nil, fmt.Errorf("config file %s: %w", opts.Path, err)
		}
	}

	if opts.UIDRoot == "" && len(opts.Exclude) == 0 {
		return cfg, nil
	}

	b := cfg.Builder()
	if opts.UIDRoot != "" {
		b.UIDRoot(opts.UIDRoot)
	}
	for _, raw := range opts.Exclude {
		t, err := anonymizer.ParseTag(raw)
		if err != nil {
			return nil, err
		}
		b.TagAction(t, anonymizer.Keep())
	}
	return b.Build()
}

// ParseTagList splits a comma-separated --exclude list into tag keys. Commas
// inside a parenthesised tag like (0008,0050) do not separate entries.
func ParseTagList(raw string) []string {
	var tags []string
	depth, start := 0, 0
	flush := func(end int) {
		if part := strings.TrimSpace(raw[start:end]); part != "" {
			tags = append(tags, part)
		}
	}
	for i, r := range raw {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}
	flush(len(raw))
	return tags
}

// EncodeConfig renders cfg for the given output path: YAML for .yaml/.yml,
// indented JSON otherwise. With diffOnly only the delta against the built-in
// defaults is emitted.
func EncodeConfig(cfg *anonymizer.Config, outPath string, diffOnly bool) ([]byte, error) {
	var data []byte
	var err error
	if diffOnly {
		data, err = cfg.MarshalDiffJSON()
	} else {
		data, err = json.Marshal(cfg)
	}
	if err != nil {
		return nil, err
	}

	if isYAMLPath(outPath) {
		return jsonToYAML(data)
	}

	var indented bytes.Buffer
	if err := json.Indent(&indented, data, "", "  "); err != nil {
		return nil, err
	}
	indented.WriteByte('\n')
	return indented.Bytes(), nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func yamlToJSON(data []byte) ([]byte, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid YAML: %w", err)
	}
	return json.Marshal(doc)
}

func jsonToYAML(data []byte) ([]byte, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}
