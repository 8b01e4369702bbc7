package config

import (
	"fmt"
	"strings"

	"github.com/mockbird/mockbird/pkg/stub"
)

// CurrentVersion is the stub collection format version this build reads and
// writes.
const CurrentVersion = "1"

// DefaultPort is the listen port used when none is configured.
const DefaultPort = 4280

// DefaultAdminPrefix is the path prefix the control API is served under.
const DefaultAdminPrefix = "/__mockbird__"

// ValidationError is an alias for stub.ValidationError so callers can treat
// config and stub validation failures uniformly.
type ValidationError = stub.ValidationError

// ServerConfig defines runtime settings for a standalone mockbird server.
type ServerConfig struct {
	// Host is the interface to bind ("" = all interfaces).
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	// Port is the listen port. Zero asks the OS for an ephemeral port.
	Port int `json:"port" yaml:"port"`
	// AdminPrefix is the path prefix for the control API. Requests under it
	// are never matched against stubs.
	AdminPrefix string `json:"adminPrefix,omitempty" yaml:"adminPrefix,omitempty"`
	// PoolSize is the number of instances a server pool hands out.
	PoolSize int `json:"poolSize,omitempty" yaml:"poolSize,omitempty"`
	// JournalCapacity is the maximum number of request journal entries
	// retained before the oldest are evicted.
	JournalCapacity int `json:"journalCapacity,omitempty" yaml:"journalCapacity,omitempty"`
	// MaxBodySize caps request body reads in bytes.
	MaxBodySize int `json:"maxBodySize,omitempty" yaml:"maxBodySize,omitempty"`
	// ReadTimeout is the HTTP read timeout in seconds.
	ReadTimeout int `json:"readTimeout,omitempty" yaml:"readTimeout,omitempty"`
	// WriteTimeout is the HTTP write timeout in seconds. Responses with a
	// configured delay longer than this will be cut off.
	WriteTimeout int `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty"`
	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	// LogFormat selects console output encoding (text or json).
	LogFormat string `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	// LogFile, when set, duplicates logs to a rotated file at this path.
	LogFile string `json:"logFile,omitempty" yaml:"logFile,omitempty"`
	// StubFiles lists stub collection files or directories to load at boot.
	// Entries may use ** glob patterns. Paths are resolved relative to the
	// config file's directory.
	StubFiles []string `json:"stubFiles,omitempty" yaml:"stubFiles,omitempty"`
}

// DefaultServerConfig returns a ServerConfig with production defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:            DefaultPort,
		AdminPrefix:     DefaultAdminPrefix,
		PoolSize:        4,
		JournalCapacity: 1000,
		MaxBodySize:     10 * 1024 * 1024, // 10MB
		ReadTimeout:     30,
		WriteTimeout:    30,
		LogLevel:        "info",
		LogFormat:       "text",
	}
}

// Validate checks the ServerConfig for impossible settings.
func (s *ServerConfig) Validate() error {
	if s.Port < 0 || s.Port > 65535 {
		return &ValidationError{Field: "port", Message: "port must be between 0 and 65535"}
	}
	if s.AdminPrefix != "" {
		if !strings.HasPrefix(s.AdminPrefix, "/") {
			return &ValidationError{Field: "adminPrefix", Message: "adminPrefix must start with /"}
		}
		if strings.HasSuffix(s.AdminPrefix, "/") {
			return &ValidationError{Field: "adminPrefix", Message: "adminPrefix must not end with /"}
		}
	}
	if s.PoolSize < 0 {
		return &ValidationError{Field: "poolSize", Message: "poolSize must be >= 0"}
	}
	if s.JournalCapacity < 0 {
		return &ValidationError{Field: "journalCapacity", Message: "journalCapacity must be >= 0"}
	}
	if s.MaxBodySize < 0 {
		return &ValidationError{Field: "maxBodySize", Message: "maxBodySize must be >= 0"}
	}
	if s.MaxBodySize > 100*1024*1024 {
		return &ValidationError{Field: "maxBodySize", Message: "maxBodySize must be <= 104857600 (100MB)"}
	}
	if s.ReadTimeout < 0 {
		return &ValidationError{Field: "readTimeout", Message: "readTimeout must be >= 0"}
	}
	if s.WriteTimeout < 0 {
		return &ValidationError{Field: "writeTimeout", Message: "writeTimeout must be >= 0"}
	}
	return nil
}

// StubCollection is a versioned set of stub definitions, typically loaded
// from a single YAML or JSON file.
type StubCollection struct {
	// Version is the format version (currently "1").
	Version string `json:"version" yaml:"version"`
	// Name labels the collection in logs and listings.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// Stubs holds the stub definitions in file order.
	Stubs []*stub.Stub `json:"stubs" yaml:"stubs"`
}

// Validate checks the collection version and each stub definition.
// Pattern compilation (regex, glob, JSONPath, expressions) happens later at
// registration; this catches structural problems only.
func (c *StubCollection) Validate() error {
	if c.Version != CurrentVersion {
		return &ValidationError{
			Field:   "version",
			Message: fmt.Sprintf("unsupported version: %q (expected %q)", c.Version, CurrentVersion),
		}
	}
	for i, s := range c.Stubs {
		if s == nil {
			return &ValidationError{
				Field:   fmt.Sprintf("stubs[%d]", i),
				Message: "stub cannot be null",
			}
		}
		if err := s.Validate(); err != nil {
			return &ValidationError{
				Field:   fmt.Sprintf("stubs[%d]", i),
				Message: err.Error(),
			}
		}
	}
	return nil
}
