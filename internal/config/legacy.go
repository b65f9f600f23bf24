package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/dombom/mark/internal/migrate"
	"github.com/tailscale/hujson"
)

// ///////////////////////////////////////////////
// Legacy settings.jsonc Import
// ///////////////////////////////////////////////

// legacyMigrations upgrades a settings.jsonc document, schema version 0, to
// the TOML schema.
var legacyMigrations = &migrate.Registry{CurrentVersion: CurrentVersion}

func init() {
	legacyMigrations.Register(migrate.Migration{
		Version:     1,
		Description: "convert settings.jsonc to TOML",
		Upgrade:     jsoncToTOML,
	})
}

// ImportLegacy converts a settings.jsonc file into a Config by running it
// through the legacy migrations and decoding the result over DefaultConfig,
// so every key the two formats share keeps its meaning.
func ImportLegacy(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read legacy settings: %w", err)
	}
	data, _, err := legacyMigrations.Run(raw, 0, nil)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// jsoncToTOML standardizes the JSONC (comments, trailing commas) to plain
// JSON, decodes the tree and re-encodes it as TOML. The top-level
// "colorblind" flag moves to [discord].
func jsoncToTOML(raw []byte) ([]byte, error) {
	std, err := hujson.Standardize(raw)
	if err != nil {
		return nil, fmt.Errorf("parse legacy settings: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("parse legacy settings: %w", err)
	}

	if cb, ok := tree["colorblind"]; ok {
		delete(tree, "colorblind")
		tree["discord"] = map[string]any{"colorblind": cb}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(normalizeJSON(tree)); err != nil {
		return nil, fmt.Errorf("convert legacy settings: %w", err)
	}
	return buf.Bytes(), nil
}

// normalizeJSON turns json.Number leaves into int64 or float64 so the TOML
// encoder writes them as numbers.
func normalizeJSON(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, child := range t {
			t[k] = normalizeJSON(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = normalizeJSON(child)
		}
		return t
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	default:
		return v
	}
}
