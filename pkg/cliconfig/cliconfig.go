// Package cliconfig resolves where the mockbird CLI sends control requests.
// Precedence: --url flag, then MOCKBIRD_URL, then the user config file,
// then the default local address.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// EnvURL overrides the control URL for every CLI command.
const EnvURL = "MOCKBIRD_URL"

// DefaultURL is where a default-configured local server listens.
const DefaultURL = "http://localhost:4280"

const appDir = "mockbird"

// Control URL provenance, shown by "mockbird status".
const (
	SourceFlag    = "flag"
	SourceEnv     = "env"
	SourceFile    = "config file"
	SourceDefault = "default"
)

// FileConfig is the shape of the user config file,
// $XDG_CONFIG_HOME/mockbird/config.yaml.
type FileConfig struct {
	// URL is the control URL of the server the CLI talks to.
	URL string `yaml:"url"`
	// AdminPrefix overrides the control API path prefix.
	AdminPrefix string `yaml:"adminPrefix"`
}

// Resolved is the outcome of control URL resolution.
type Resolved struct {
	URL         string
	AdminPrefix string
	// Source names the layer the URL came from.
	Source string
	// Path is the config file consulted; set when Source is SourceFile.
	Path string
}

// FilePath returns the user config file location.
func FilePath() string {
	return filepath.Join(xdg.ConfigHome, appDir, "config.yaml")
}

// Load reads a FileConfig from path.
func Load(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg FileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// Resolve picks the control URL: the flag beats MOCKBIRD_URL beats the user
// config file beats DefaultURL. A missing or unreadable config file is
// skipped, not an error.
func Resolve(flagURL string) *Resolved {
	return ResolveFrom(flagURL, FilePath())
}

// ResolveFrom is Resolve with an explicit config file path.
func ResolveFrom(flagURL, path string) *Resolved {
	fileCfg, fileErr := Load(path)

	r := &Resolved{}
	// The admin prefix has no flag or env layer; the file sets it for
	// every URL source.
	if fileErr == nil {
		r.AdminPrefix = fileCfg.AdminPrefix
	}

	switch {
	case flagURL != "":
		r.URL, r.Source = flagURL, SourceFlag
	case os.Getenv(EnvURL) != "":
		r.URL, r.Source = os.Getenv(EnvURL), SourceEnv
	case fileErr == nil && fileCfg.URL != "":
		r.URL, r.Source, r.Path = fileCfg.URL, SourceFile, path
	default:
		r.URL, r.Source = DefaultURL, SourceDefault
	}
	return r
}
