package arch

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/colorfulnotion/yan85/log"
	"github.com/colorfulnotion/yan85/vmerrors"
	"gopkg.in/yaml.v3"
)

//go:embed configs/*.json configs/*.yaml
var configFS embed.FS

var presetFile = map[string]string{
	"default": "configs/default.json",
	"variant": "configs/variant.yaml",
}

// Presets lists the embedded configuration names.
func Presets() []string {
	return []string{"default", "variant"}
}

// Default returns the embedded "default" preset.
func Default() *Config {
	cfg, err := Load("default")
	if err != nil {
		panic(fmt.Sprintf("embedded default config: %v", err))
	}
	return cfg
}

// Load reads an embedded preset by name, or a .json/.yaml/.yml file by path,
// and validates it.
func Load(id string) (*Config, error) {
	var (
		data []byte
		name string
		err  error
	)
	if path, ok := presetFile[id]; ok {
		name = path
		data, err = configFS.ReadFile(path)
	} else {
		name = id
		data, err = os.ReadFile(id)
		if os.IsNotExist(err) && !strings.ContainsAny(id, "./") {
			return nil, fmt.Errorf("%w: %q", vmerrors.ErrUnknownPreset, id)
		}
	}
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data, filepath.Ext(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	log.Debug(log.ConfigModule, "loaded config", "source", name, "fieldOrder", cfg.FieldOrder)
	return cfg, nil
}

// Parse decodes a configuration; ext selects YAML (".yaml", ".yml") or JSON.
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
