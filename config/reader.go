package config

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
)

// Read reads a config from the given file. ${VAR} references are replaced from the environment
// before parsing.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", filePath)
	}

	return FromReader(filePath, bytes.NewReader(buf))
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from. The document is JSON5; keys it sets override Default and unknown
// keys are an error.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read config")
	}

	var raw map[string]interface{}
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", originalPath)
	}

	cfg := Default()
	if err := decodeOnto(raw, cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot decode config %q", originalPath)
	}
	cfg.ConfigFilePath = originalPath

	if originalPath != "" && cfg.PointsFile != "" && !filepath.IsAbs(cfg.PointsFile) {
		cfg.PointsFile = filepath.Join(filepath.Dir(originalPath), cfg.PointsFile)
	}

	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeOnto(raw map[string]interface{}, cfg *Config) error {
	var md mapstructure.Metadata
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:    "json",
		Result:     cfg,
		Metadata:   &md,
		DecodeHook: wholeNumberHook,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(raw); err != nil {
		return err
	}
	if len(md.Unused) > 0 {
		unused := append([]string(nil), md.Unused...)
		sort.Strings(unused)
		return errors.Errorf("unknown keys: %s", strings.Join(unused, ", "))
	}
	return nil
}

// wholeNumberHook rejects fractional numbers decoded into integer fields, which mapstructure
// would otherwise truncate.
func wholeNumberHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.Float64 || to.Kind() != reflect.Int {
		return data, nil
	}
	f, ok := data.(float64)
	if ok && f != math.Trunc(f) {
		return nil, errors.Errorf("expected a whole number, got %v", f)
	}
	return data, nil
}

// Schema returns the JSON schema of the config file.
func Schema() ([]byte, error) {
	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(&Config{})
	schema.Title = "pointview config"
	return json.MarshalIndent(schema, "", "  ")
}
