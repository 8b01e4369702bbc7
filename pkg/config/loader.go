package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mockbird/mockbird/pkg/stub"
)

// Common errors for configuration loading/saving. Wrap sites add the
// offending path; callers test with errors.Is.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidJSON      = errors.New("invalid JSON syntax")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
)

// LoadFromFile loads a StubCollection from a YAML or JSON file. The format
// is chosen by extension: .yaml and .yml parse as YAML, everything else as
// JSON. Environment variable references (${VAR} and ${VAR:-default}) are
// expanded before parsing.
func LoadFromFile(path string) (*StubCollection, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	data = []byte(ExpandEnvVars(string(data)))

	if isYAMLPath(path) {
		return ParseYAML(data)
	}
	return ParseJSON(data)
}

// ParseJSON parses and validates a StubCollection from JSON bytes.
func ParseJSON(data []byte) (*StubCollection, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: malformed document", ErrInvalidJSON)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := validateCollectionDocument(doc); err != nil {
		return nil, err
	}

	var collection StubCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if err := collection.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &collection, nil
}

// ParseYAML parses and validates a StubCollection from YAML bytes.
func ParseYAML(data []byte) (*StubCollection, error) {
	// Decode generically first and roundtrip through JSON so the schema
	// validator sees consistent types.
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	jsonDoc, err := yamlDocToJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := validateCollectionDocument(jsonDoc); err != nil {
		return nil, err
	}

	var collection StubCollection
	if err := yaml.Unmarshal(data, &collection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := collection.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &collection, nil
}

// SaveToFile writes a StubCollection to path, creating parent directories as
// needed. The write is atomic: content goes to a temp file in the target
// directory which is then renamed over path. The format follows the
// extension, like LoadFromFile.
func SaveToFile(path string, collection *StubCollection) error {
	if collection == nil {
		return errors.New("cannot save nil collection")
	}

	var (
		data []byte
		err  error
	)
	if isYAMLPath(path) {
		data, err = ToYAML(collection)
	} else {
		data, err = ToJSON(collection)
	}
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".mockbird-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// ToJSON serializes a collection as indented JSON with a trailing newline.
func ToJSON(collection *StubCollection) ([]byte, error) {
	if collection == nil {
		return nil, errors.New("cannot serialize nil collection")
	}
	data, err := json.MarshalIndent(collection, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// ToYAML serializes a collection as YAML.
func ToYAML(collection *StubCollection) ([]byte, error) {
	if collection == nil {
		return nil, errors.New("cannot serialize nil collection")
	}
	data, err := yaml.Marshal(collection)
	if err != nil {
		return nil, fmt.Errorf("encoding YAML: %w", err)
	}
	return data, nil
}

// LoadStubsFromFile is a convenience that loads a collection and returns
// just its stubs.
func LoadStubsFromFile(path string) ([]*stub.Stub, error) {
	collection, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	return collection.Stubs, nil
}

// SaveStubsToFile wraps stubs in a CurrentVersion collection and saves it.
func SaveStubsToFile(path string, stubs []*stub.Stub, name string) error {
	return SaveToFile(path, &StubCollection{
		Version: CurrentVersion,
		Name:    name,
		Stubs:   stubs,
	})
}

// DefaultConfigNames are the server config filenames probed by
// DiscoverConfigFile, in order.
var DefaultConfigNames = []string{"mockbird.yaml", "mockbird.yml", "mockbird.json"}

// DiscoverConfigFile looks for a server config file in the current working
// directory. It returns ErrFileNotFound when none of DefaultConfigNames
// exists.
func DiscoverConfigFile() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting current directory: %w", err)
	}
	for _, name := range DefaultConfigNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w: no %s in %s", ErrFileNotFound, strings.Join(DefaultConfigNames, ", "), cwd)
}

// LoadServerConfig loads a ServerConfig from a YAML or JSON file. Fields
// absent from the file keep their DefaultServerConfig values. Environment
// variable references are expanded before parsing.
func LoadServerConfig(path string) (*ServerConfig, error) {
	data, err := readConfigFile(path)
	if err != nil {
		return nil, err
	}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := DefaultServerConfig()
	if isYAMLPath(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
		}
	} else {
		if !json.Valid(data) {
			return nil, fmt.Errorf("%w: malformed document", ErrInvalidJSON)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return cfg, nil
}

// readConfigFile reads path and maps OS errors to the package sentinels.
func readConfigFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		if os.IsPermission(err) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		}
		return nil, fmt.Errorf("reading configuration file: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyFile, path)
	}
	return data, nil
}

func isYAMLPath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// yamlDocToJSON roundtrips a decoded YAML value through encoding/json so
// numbers and maps carry the types the schema validator expects.
func yamlDocToJSON(doc any) (any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("document is not representable as JSON: %v", err)
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
