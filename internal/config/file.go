package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileConfig is the connection file (config.json or YAML). Only these keys
// are read; anything else in the file is ignored, and credentials never come
// from it.
type FileConfig struct {
	Host           string  `yaml:"host"`
	Port           flexInt `yaml:"port"`
	DBName         string  `yaml:"dbname"`
	SSLMode        string  `yaml:"sslmode"`
	ConnectTimeout flexInt `yaml:"connect_timeout"`
	ClientEncoding string  `yaml:"client_encoding"`
}

// flexInt accepts both 5432 and "5432".
type flexInt struct {
	Value int
	Set   bool
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *flexInt) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("must be a scalar, got %s", value.ShortTag())
	}
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	f.Value, f.Set = n, true
	return nil
}

// LoadFile reads a JSON or YAML connection file.
func LoadFile(path string) (FileConfig, error) {
	var fc FileConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return fc, fieldError("CONFIG_FILE", fmt.Errorf("read %s: %w", path, err))
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fc, fieldError("CONFIG_FILE", fmt.Errorf("parse %s: %w", path, err))
	}
	return fc, nil
}

func (fc FileConfig) apply(t *Target) {
	if fc.Host != "" {
		t.Host = fc.Host
	}
	if fc.Port.Set {
		t.Port = fc.Port.Value
	}
	if fc.DBName != "" {
		t.DBName = fc.DBName
	}
	if fc.SSLMode != "" {
		t.SSLMode = fc.SSLMode
	}
	if fc.ConnectTimeout.Set {
		t.ConnectTimeout = fc.ConnectTimeout.Value
	}
	if fc.ClientEncoding != "" {
		t.ClientEncoding = fc.ClientEncoding
	}
}

// TargetFromFile returns the default target overlaid with the file keys.
// Used by the one-shot checker, which takes credentials interactively.
func TargetFromFile(fc FileConfig) Target {
	t := defaults().Target
	fc.apply(&t)
	return t
}
